package router

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/repaso/internal/screen"
)

// PushScreenMsg opens a screen on top of the current one.
type PushScreenMsg struct {
	Screen screen.Screen
}

// ReplaceScreenMsg swaps the current screen, so Esc skips it.
type ReplaceScreenMsg struct {
	Screen screen.Screen
}

// PopScreenMsg closes the current screen.
type PopScreenMsg struct{}

// Push returns a command that pushes s.
func Push(s screen.Screen) tea.Cmd {
	return func() tea.Msg { return PushScreenMsg{Screen: s} }
}

// Replace returns a command that replaces the current screen with s.
func Replace(s screen.Screen) tea.Cmd {
	return func() tea.Msg { return ReplaceScreenMsg{Screen: s} }
}

// Pop returns a command that closes the current screen.
func Pop() tea.Cmd {
	return func() tea.Msg { return PopScreenMsg{} }
}

// Router is a stack of screens. The bottom screen is never popped.
type Router struct {
	stack []screen.Screen
}

// New creates a Router showing initial.
func New(initial screen.Screen) *Router {
	return &Router{stack: []screen.Screen{initial}}
}

func (r *Router) push(s screen.Screen) tea.Cmd {
	r.stack = append(r.stack, s)
	return s.Init()
}

func (r *Router) replace(s screen.Screen) tea.Cmd {
	if len(r.stack) <= 1 {
		return r.push(s)
	}
	r.stack[len(r.stack)-1] = s
	return s.Init()
}

func (r *Router) pop() {
	if len(r.stack) > 1 {
		r.stack = r.stack[:len(r.stack)-1]
	}
}

// Active returns the top screen.
func (r *Router) Active() screen.Screen {
	if len(r.stack) == 0 {
		return nil
	}
	return r.stack[len(r.stack)-1]
}

// Depth returns the number of stacked screens.
func (r *Router) Depth() int {
	return len(r.stack)
}

// Update handles navigation messages and forwards the rest to the active
// screen.
func (r *Router) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case PushScreenMsg:
		return r.push(msg.Screen)
	case ReplaceScreenMsg:
		return r.replace(msg.Screen)
	case PopScreenMsg:
		r.pop()
		if a := r.Active(); a != nil {
			// Let the revealed screen refresh its data.
			_, cmd := a.Update(RevealedMsg{})
			return cmd
		}
		return nil
	}

	active := r.Active()
	if active == nil {
		return nil
	}
	updated, cmd := active.Update(msg)
	r.stack[len(r.stack)-1] = updated
	return cmd
}

// RevealedMsg is sent to a screen when the screen above it is popped.
type RevealedMsg struct{}

// View renders the active screen.
func (r *Router) View(width, height int) string {
	if a := r.Active(); a != nil {
		return a.View(width, height)
	}
	return ""
}
