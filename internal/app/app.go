// Package app is the root model of the terminal study client.
package app

import (
	"context"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/repaso/internal/router"
	"github.com/abhisek/repaso/internal/screen"
	"github.com/abhisek/repaso/internal/screens/home"
	"github.com/abhisek/repaso/internal/ui/layout"
)

// Model is the root Bubble Tea model. It owns the screen stack and draws
// the header and footer around the active screen.
type Model struct {
	router *router.Router
	width  int
	height int
}

// New creates the root model with the home screen.
func New(ctx context.Context, b home.Backend, userID string) Model {
	return Model{router: router.New(home.New(ctx, b, userID))}
}

func (m Model) Init() tea.Cmd {
	return m.router.Active().Init()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.router.Depth() > 1 {
				return m, router.Pop()
			}
			return m, nil
		}
	}
	return m, m.router.Update(msg)
}

func (m Model) hints(active screen.Screen) []layout.KeyHint {
	if p, ok := active.(screen.KeyHintProvider); ok {
		if h := p.KeyHints(); h != nil {
			return append(h, layout.KeyHint{Key: "Ctrl+C", Description: "Salir"})
		}
	}
	if m.router.Depth() > 1 {
		return []layout.KeyHint{{Key: "Esc", Description: "Volver"}, {Key: "Ctrl+C", Description: "Salir"}}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Mover"},
		{Key: "Enter", Description: "Elegir"},
		{Key: "Ctrl+C", Description: "Salir"},
	}
}

func (m Model) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	return v
}

func (m Model) render() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	active := m.router.Active()
	var status string
	if p, ok := active.(screen.StatusProvider); ok {
		status = p.Status()
	}
	header := layout.RenderHeader(active.Title(), status, m.width)
	footer := layout.RenderFooter(m.hints(active), m.width)

	contentHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	content := m.router.View(m.width, contentHeight)
	return layout.RenderFrame(header, content, footer, m.width, m.height)
}

// Run starts the client and blocks until the user quits or ctx ends.
func Run(ctx context.Context, b home.Backend, userID string) error {
	p := tea.NewProgram(New(ctx, b, userID), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
