package review

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/repaso/internal/ui/components"
	"github.com/abhisek/repaso/internal/ui/layout"
	"github.com/abhisek/repaso/internal/ui/theme"
)

func (s *Screen) View(width, height int) string {
	c := s.current()
	if c == nil {
		return theme.Hint.Render("\n  No hay preguntas para repasar.")
	}
	inner := max(width-8, 20)

	var b strings.Builder
	b.WriteString(components.Meter{
		Label:   "Progreso",
		Value:   float64(s.pos) / float64(len(s.cards)),
		Width:   inner,
		Caption: s.Status(),
	}.View())
	b.WriteString("\n\n")
	b.WriteString(theme.Title.Render(layout.Wrap(c.Question, inner)))
	b.WriteString("\n\n")

	switch s.phase {
	case phaseFeedback:
		b.WriteString(s.renderFeedback(inner))
	case phaseGrading:
		b.WriteString(theme.Hint.Render("Calificando tu respuesta..."))
	default:
		b.WriteString(s.input.View())
		if s.errMsg != "" {
			b.WriteString("\n\n" + theme.ErrorText.Render(layout.Wrap(s.errMsg, inner)))
		}
	}
	return lipgloss.NewStyle().Padding(1, 3).Render(b.String())
}

func (s *Screen) renderFeedback(width int) string {
	r := s.result
	var b strings.Builder

	b.WriteString(theme.CategoryColor(r.Category).Render(theme.CategoryLabel(r.Category)))
	b.WriteString("  ")
	b.WriteString(theme.Body.Render(layout.Wrap(r.Feedback, width-16)))
	b.WriteString("\n\n")
	b.WriteString(components.Meter{Label: "Confianza", Value: r.Confidence / 100, Width: width}.View())
	b.WriteString("\n")

	if r.Contradiction != nil && r.Contradiction.Detected {
		b.WriteString("\n" + theme.ErrorText.Render("Tu respuesta parece contradecir el material."))
		b.WriteString("\n")
	}
	if r.BestChunk != nil {
		src := fmt.Sprintf("Fragmento más cercano (pág. %d)", r.BestChunk.Page)
		b.WriteString("\n" + theme.Hint.Render(src) + "\n")
		b.WriteString(theme.Card.Width(width).Render(r.BestChunk.Text))
		b.WriteString("\n")
	}
	if rv := r.Review; rv != nil {
		when := "mañana"
		if rv.IntervalDays != 1 {
			when = fmt.Sprintf("en %d días", rv.IntervalDays)
		}
		b.WriteString("\n" + theme.Hint.Render("Próximo repaso "+when+" ("+rv.NextReview.Format("2006-01-02")+")"))
	}
	return b.String()
}
