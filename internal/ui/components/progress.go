package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/repaso/internal/ui/theme"
)

// Meter is a horizontal bar for a value in [0, 1], such as a grading
// confidence or the position in a review queue.
type Meter struct {
	Label   string
	Value   float64
	Width   int
	Caption string
}

// View renders the meter.
func (m Meter) View() string {
	var out string
	if m.Label != "" {
		out = lipgloss.NewStyle().Foreground(theme.Text).Render(m.Label) + "  "
	}
	caption := m.Caption
	if caption == "" {
		caption = fmt.Sprintf("%3d%%", int(m.Value*100+0.5))
	}
	caption = "  " + caption

	barWidth := max(m.Width-lipgloss.Width(out)-lipgloss.Width(caption), 4)
	filled := min(max(int(float64(barWidth)*m.Value), 0), barWidth)

	out += lipgloss.NewStyle().Background(theme.Secondary).Render(strings.Repeat(" ", filled))
	out += lipgloss.NewStyle().Background(theme.Border).Render(strings.Repeat(" ", barWidth-filled))
	out += lipgloss.NewStyle().Foreground(theme.TextDim).Render(caption)
	return out
}
