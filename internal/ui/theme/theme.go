package theme

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/repaso/internal/grading"
)

// Palette.
var (
	Primary   = lipgloss.Color("#2563EB")
	Secondary = lipgloss.Color("#0EA5E9")
	Accent    = lipgloss.Color("#F59E0B")
	Success   = lipgloss.Color("#16A34A")
	Warning   = lipgloss.Color("#EAB308")
	Error     = lipgloss.Color("#DC2626")
	Text      = lipgloss.Color("#F1F5F9")
	TextDim   = lipgloss.Color("#94A3B8")
	BgCard    = lipgloss.Color("#1E293B")
	Border    = lipgloss.Color("#334155")
)

var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(1, 2)

	Selected = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	Unselected = lipgloss.NewStyle().
			Foreground(Text)

	Disabled = lipgloss.NewStyle().
			Foreground(Border)

	ErrorText = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)
)

// CategoryColor is the color used to show a grading category.
func CategoryColor(c grading.Category) lipgloss.Style {
	col := TextDim
	switch c {
	case grading.Excellent, grading.Good:
		col = Success
	case grading.Acceptable:
		col = Secondary
	case grading.Partial:
		col = Warning
	case grading.Incorrect, grading.Error:
		col = Error
	}
	return lipgloss.NewStyle().Foreground(col).Bold(true)
}

// CategoryLabel is the Spanish label of a grading category.
func CategoryLabel(c grading.Category) string {
	switch c {
	case grading.Excellent:
		return "Excelente"
	case grading.Good:
		return "Bien"
	case grading.Acceptable:
		return "Aceptable"
	case grading.Partial:
		return "Parcial"
	case grading.Incorrect:
		return "Incorrecta"
	default:
		return "Sin calificar"
	}
}
