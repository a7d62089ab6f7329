// Package home is the start screen: due reviews, materials and totals.
package home

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/repaso/internal/router"
	"github.com/abhisek/repaso/internal/screen"
	"github.com/abhisek/repaso/internal/screens/materials"
	"github.com/abhisek/repaso/internal/screens/review"
	"github.com/abhisek/repaso/internal/spacedrep"
	"github.com/abhisek/repaso/internal/store"
	"github.com/abhisek/repaso/internal/ui/components"
	"github.com/abhisek/repaso/internal/ui/theme"
)

// DueLimit caps the reviews loaded into one round.
const DueLimit = 50

// Backend is everything the client needs from the study service.
type Backend interface {
	materials.Backend
	Due(ctx context.Context, userID string, limit int) ([]store.DueReview, error)
	Stats(ctx context.Context, userID string) (*store.Stats, error)
}

type refreshedMsg struct {
	due   []store.DueReview
	stats *store.Stats
	err   error
}

// Screen is the home menu.
type Screen struct {
	ctx     context.Context
	backend Backend
	user    string

	due   []store.DueReview
	stats *store.Stats
	err   error
	menu  components.Menu
}

var (
	_ screen.Screen         = (*Screen)(nil)
	_ screen.StatusProvider = (*Screen)(nil)
)

// New creates the home screen for userID.
func New(ctx context.Context, b Backend, userID string) *Screen {
	s := &Screen{ctx: ctx, backend: b, user: userID}
	s.menu = components.NewMenu(s.items())
	return s
}

func (s *Screen) Init() tea.Cmd { return s.refresh() }

func (s *Screen) Title() string { return "Inicio" }

func (s *Screen) Status() string {
	overdue := 0
	for _, d := range s.due {
		if d.ReviewStatus == spacedrep.ReviewOverdue {
			overdue++
		}
	}
	if overdue > 0 {
		return fmt.Sprintf("%d pendientes, %d atrasadas", len(s.due), overdue)
	}
	return fmt.Sprintf("%d pendientes", len(s.due))
}

func (s *Screen) refresh() tea.Cmd {
	ctx, b, user := s.ctx, s.backend, s.user
	return func() tea.Msg {
		due, err := b.Due(ctx, user, DueLimit)
		if err != nil {
			return refreshedMsg{err: err}
		}
		st, err := b.Stats(ctx, user)
		return refreshedMsg{due: due, stats: st, err: err}
	}
}

func (s *Screen) items() []components.MenuItem {
	return []components.MenuItem{
		{
			Label:    fmt.Sprintf("Repasar pendientes (%d)", len(s.due)),
			Action:   s.startDue,
			Disabled: len(s.due) == 0,
		},
		{
			Label: "Practicar un material",
			Action: func() tea.Cmd {
				return router.Push(materials.New(s.ctx, s.backend, s.user))
			},
		},
		{Label: "Salir", Action: func() tea.Cmd { return tea.Quit }},
	}
}

func (s *Screen) startDue() tea.Cmd {
	cards := make([]review.Card, len(s.due))
	for i, d := range s.due {
		cards[i] = review.Card{QuestionID: d.QuestionID, MaterialID: d.MaterialID, Question: d.Question}
	}
	return router.Push(review.New(s.ctx, s.backend, s.user, "Repaso", cards))
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case refreshedMsg:
		s.err = msg.err
		if msg.err == nil {
			s.due, s.stats = msg.due, msg.stats
		}
		selected := s.menu.Selected
		s.menu = components.NewMenu(s.items())
		if !s.menu.Items[selected].Disabled {
			s.menu.Selected = selected
		}
		return s, nil
	case router.RevealedMsg:
		return s, s.refresh()
	}
	var cmd tea.Cmd
	s.menu, cmd = s.menu.Update(msg)
	return s, cmd
}

func (s *Screen) View(width, height int) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render("Active recall"))
	b.WriteString("\n")
	b.WriteString(theme.Hint.Render("Responde con tus palabras; el material dirá si tienes razón."))
	b.WriteString("\n\n")
	b.WriteString(s.menu.View())

	if st := s.stats; st != nil {
		b.WriteString("\n")
		b.WriteString(theme.Hint.Render(fmt.Sprintf(
			"%d materiales · %d fragmentos · %d preguntas · %d repasos",
			st.Materials, st.Chunks, st.Questions, st.Reviews)))
	}
	if s.err != nil {
		b.WriteString("\n\n" + theme.ErrorText.Render(s.err.Error()))
	}
	return lipgloss.NewStyle().Padding(1, 3).Render(b.String())
}
