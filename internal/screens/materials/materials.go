// Package materials lists ingested materials and starts a practice round
// over the questions of the chosen one.
package materials

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/repaso/internal/router"
	"github.com/abhisek/repaso/internal/screen"
	"github.com/abhisek/repaso/internal/screens/review"
	"github.com/abhisek/repaso/internal/store"
	"github.com/abhisek/repaso/internal/ui/components"
	"github.com/abhisek/repaso/internal/ui/layout"
	"github.com/abhisek/repaso/internal/ui/theme"
)

// Backend lists materials and questions and grades answers.
type Backend interface {
	review.Grader
	Materials(ctx context.Context) ([]store.Material, error)
	Questions(ctx context.Context, f store.QuestionFilter) ([]store.Question, error)
}

type loadedMsg struct {
	materials []store.Material
	err       error
}

type questionsMsg struct {
	material store.Material
	cards    []review.Card
	err      error
}

// Screen is the material picker.
type Screen struct {
	ctx     context.Context
	backend Backend
	user    string

	materials []store.Material
	menu      components.Menu
	loading   bool
	notice    string
}

var (
	_ screen.Screen          = (*Screen)(nil)
	_ screen.KeyHintProvider = (*Screen)(nil)
)

// New creates the picker.
func New(ctx context.Context, b Backend, userID string) *Screen {
	return &Screen{ctx: ctx, backend: b, user: userID, loading: true}
}

func (s *Screen) Init() tea.Cmd {
	ctx, b := s.ctx, s.backend
	return func() tea.Msg {
		ms, err := b.Materials(ctx)
		return loadedMsg{materials: ms, err: err}
	}
}

func (s *Screen) Title() string { return "Materiales" }

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Elegir"},
		{Key: "Enter", Description: "Practicar"},
		{Key: "Esc", Description: "Volver"},
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		s.loading = false
		if msg.err != nil {
			s.notice = msg.err.Error()
			return s, nil
		}
		s.materials = msg.materials
		s.menu = components.NewMenu(s.items())
		return s, nil
	case questionsMsg:
		switch {
		case msg.err != nil:
			s.notice = msg.err.Error()
		case len(msg.cards) == 0:
			s.notice = fmt.Sprintf("«%s» no tiene preguntas. Genera algunas con: repaso generate %s", msg.material.Title, msg.material.ID)
		default:
			s.notice = ""
			return s, router.Push(review.New(s.ctx, s.backend, s.user, msg.material.Title, msg.cards))
		}
		return s, nil
	case router.RevealedMsg:
		return s, nil
	}
	var cmd tea.Cmd
	s.menu, cmd = s.menu.Update(msg)
	return s, cmd
}

func (s *Screen) items() []components.MenuItem {
	items := make([]components.MenuItem, len(s.materials))
	for i, m := range s.materials {
		items[i] = components.MenuItem{
			Label:  m.Title,
			Detail: fmt.Sprintf("%d fragmentos · %d págs.", m.TotalChunks, m.EstimatedPages),
			Action: s.practice(m),
		}
	}
	return items
}

func (s *Screen) practice(m store.Material) func() tea.Cmd {
	ctx, b := s.ctx, s.backend
	return func() tea.Cmd {
		return func() tea.Msg {
			qs, err := b.Questions(ctx, store.QuestionFilter{MaterialID: m.ID})
			if err != nil {
				return questionsMsg{material: m, err: err}
			}
			cards := make([]review.Card, len(qs))
			for i, q := range qs {
				cards[i] = review.Card{QuestionID: q.ID, MaterialID: q.MaterialID, Question: q.Text}
			}
			return questionsMsg{material: m, cards: cards}
		}
	}
}

func (s *Screen) View(width, height int) string {
	var body string
	switch {
	case s.loading:
		body = theme.Hint.Render("Cargando materiales...")
	case len(s.materials) == 0:
		body = theme.Hint.Render("Todavía no hay materiales. Sube uno con: repaso ingest <archivo>")
	default:
		body = s.menu.View()
	}
	if s.notice != "" {
		body += "\n" + theme.ErrorText.Render(layout.Wrap(s.notice, width-8))
	}
	return lipgloss.NewStyle().Padding(1, 3).Render(body)
}
