// Package summary shows how a review round went.
package summary

import (
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/repaso/internal/grading"
	"github.com/abhisek/repaso/internal/router"
	"github.com/abhisek/repaso/internal/screen"
	"github.com/abhisek/repaso/internal/ui/components"
	"github.com/abhisek/repaso/internal/ui/layout"
	"github.com/abhisek/repaso/internal/ui/theme"
)

// Outcome is the grade of one reviewed question.
type Outcome struct {
	Question     string
	Category     grading.Category
	Confidence   float64
	IntervalDays int
	NextReview   time.Time
}

// Totals aggregates a round.
type Totals struct {
	Reviewed       int
	Passed         int
	MeanConfidence float64
	ByCategory     map[grading.Category]int
}

// Summarize computes totals over outcomes.
func Summarize(outcomes []Outcome) Totals {
	t := Totals{Reviewed: len(outcomes), ByCategory: map[grading.Category]int{}}
	var sum float64
	for _, o := range outcomes {
		t.ByCategory[o.Category]++
		if o.Category.Passing() {
			t.Passed++
		}
		sum += o.Confidence
	}
	if len(outcomes) > 0 {
		t.MeanConfidence = sum / float64(len(outcomes))
	}
	return t
}

// Screen displays the totals of a round.
type Screen struct {
	outcomes []Outcome
	totals   Totals
}

var (
	_ screen.Screen          = (*Screen)(nil)
	_ screen.KeyHintProvider = (*Screen)(nil)
)

// New creates a summary of outcomes.
func New(outcomes []Outcome) *Screen {
	return &Screen{outcomes: outcomes, totals: Summarize(outcomes)}
}

func (s *Screen) Init() tea.Cmd { return nil }

func (s *Screen) Title() string { return "Resumen" }

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{{Key: "Enter", Description: "Volver"}}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "enter" {
		return s, router.Pop()
	}
	return s, nil
}

var categoryOrder = []grading.Category{
	grading.Excellent, grading.Good, grading.Acceptable,
	grading.Partial, grading.Incorrect, grading.Error,
}

func (s *Screen) View(width, height int) string {
	t := s.totals
	inner := max(width-8, 20)
	var b strings.Builder

	if t.Reviewed == 0 {
		b.WriteString(theme.Hint.Render("No respondiste ninguna pregunta."))
		return lipgloss.NewStyle().Padding(1, 3).Render(b.String())
	}

	b.WriteString(theme.Title.Render(fmt.Sprintf("%d de %d respuestas correctas", t.Passed, t.Reviewed)))
	b.WriteString("\n\n")
	b.WriteString(components.Meter{Label: "Confianza media", Value: t.MeanConfidence / 100, Width: inner}.View())
	b.WriteString("\n\n")
	for _, c := range categoryOrder {
		if n := t.ByCategory[c]; n > 0 {
			b.WriteString(theme.CategoryColor(c).Render(fmt.Sprintf("  %-12s", theme.CategoryLabel(c))))
			b.WriteString(theme.Body.Render(fmt.Sprintf(" %d", n)))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	for _, o := range s.outcomes {
		line := fmt.Sprintf("%s  %s", theme.CategoryColor(o.Category).Render("●"), truncate(o.Question, inner-20))
		if !o.NextReview.IsZero() {
			line += theme.Hint.Render("  → " + o.NextReview.Format("02/01"))
		}
		b.WriteString(line + "\n")
	}
	return lipgloss.NewStyle().Padding(1, 3).Render(b.String())
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
