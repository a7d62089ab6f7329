package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/repaso/internal/ui/layout"
)

// Screen is one page of the study client.
type Screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the content area between header and footer.
	View(width, height int) string

	Title() string
}

// KeyHintProvider lets a screen replace the default footer hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// StatusProvider lets a screen put a short status in the header.
type StatusProvider interface {
	Status() string
}
