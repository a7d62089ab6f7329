package components

import (
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/repaso/internal/ui/theme"
)

// MenuItem is one selectable row.
type MenuItem struct {
	Label    string
	Detail   string
	Action   func() tea.Cmd
	Disabled bool
}

// Menu is a vertical list navigated with the arrow keys.
type Menu struct {
	Items    []MenuItem
	Selected int
}

// NewMenu selects the first enabled item.
func NewMenu(items []MenuItem) Menu {
	m := Menu{Items: items}
	for i, it := range items {
		if !it.Disabled {
			m.Selected = i
			break
		}
	}
	return m
}

// Update handles up, down and enter.
func (m Menu) Update(msg tea.Msg) (Menu, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch k.String() {
	case "up", "k":
		m.Selected = m.step(-1)
	case "down", "j":
		m.Selected = m.step(1)
	case "enter":
		if m.Selected < len(m.Items) {
			if it := m.Items[m.Selected]; it.Action != nil && !it.Disabled {
				return m, it.Action()
			}
		}
	}
	return m, nil
}

func (m Menu) step(dir int) int {
	for i := m.Selected + dir; i >= 0 && i < len(m.Items); i += dir {
		if !m.Items[i].Disabled {
			return i
		}
	}
	return m.Selected
}

// View renders the menu.
func (m Menu) View() string {
	var b strings.Builder
	for i, it := range m.Items {
		line := "    " + it.Label
		style := theme.Unselected
		switch {
		case it.Disabled:
			style = theme.Disabled
		case i == m.Selected:
			line = "  ▸ " + it.Label
			style = theme.Selected
		}
		b.WriteString(style.Render(line))
		if it.Detail != "" {
			b.WriteString("  " + theme.Hint.Render(it.Detail))
		}
		b.WriteString("\n")
	}
	return b.String()
}
