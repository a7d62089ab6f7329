// Package review is the screen that asks questions one by one, grades
// the typed answer and records the review.
package review

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/repaso/internal/router"
	"github.com/abhisek/repaso/internal/screen"
	"github.com/abhisek/repaso/internal/screens/summary"
	"github.com/abhisek/repaso/internal/study"
	"github.com/abhisek/repaso/internal/ui/components"
	"github.com/abhisek/repaso/internal/ui/layout"
)

// Grader grades an answer and records the review.
type Grader interface {
	ValidateAnswer(ctx context.Context, userID string, req study.AnswerRequest) (*study.AnswerResult, error)
}

// Card is one question to review.
type Card struct {
	QuestionID string
	MaterialID string
	Question   string
}

type phase int

const (
	phaseAnswering phase = iota
	phaseGrading
	phaseFeedback
)

type gradedMsg struct {
	result *study.AnswerResult
	err    error
}

// Screen runs through a queue of cards.
type Screen struct {
	ctx    context.Context
	grader Grader
	user   string
	title  string

	cards   []Card
	pos     int
	phase   phase
	input   components.AnswerInput
	result  *study.AnswerResult
	errMsg  string
	results []summary.Outcome
}

var (
	_ screen.Screen          = (*Screen)(nil)
	_ screen.KeyHintProvider = (*Screen)(nil)
	_ screen.StatusProvider  = (*Screen)(nil)
)

// New creates a review screen over cards.
func New(ctx context.Context, g Grader, userID, title string, cards []Card) *Screen {
	return &Screen{
		ctx:    ctx,
		grader: g,
		user:   userID,
		title:  title,
		cards:  cards,
		input:  components.NewAnswerInput("Escribe tu respuesta...", 2000),
	}
}

func (s *Screen) Init() tea.Cmd { return s.input.Init() }

func (s *Screen) Title() string { return s.title }

func (s *Screen) Status() string {
	return fmt.Sprintf("%d/%d", min(s.pos+1, len(s.cards)), len(s.cards))
}

func (s *Screen) KeyHints() []layout.KeyHint {
	switch s.phase {
	case phaseFeedback:
		return []layout.KeyHint{{Key: "Enter", Description: "Siguiente"}, {Key: "Esc", Description: "Terminar"}}
	case phaseGrading:
		return []layout.KeyHint{{Key: "", Description: "Calificando..."}}
	default:
		return []layout.KeyHint{{Key: "Enter", Description: "Responder"}, {Key: "Esc", Description: "Terminar"}}
	}
}

func (s *Screen) current() *Card {
	if s.pos < len(s.cards) {
		return &s.cards[s.pos]
	}
	return nil
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case gradedMsg:
		return s.handleGraded(msg)
	case tea.KeyMsg:
		switch s.phase {
		case phaseGrading:
			return s, nil
		case phaseFeedback:
			if msg.String() == "enter" {
				return s, s.next()
			}
			return s, nil
		}
		if msg.String() == "enter" {
			return s, s.submit()
		}
	}
	if s.phase != phaseAnswering {
		return s, nil
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *Screen) submit() tea.Cmd {
	c := s.current()
	answer := s.input.Value()
	if c == nil || answer == "" {
		return nil
	}
	s.phase = phaseGrading
	s.errMsg = ""
	ctx, g, user := s.ctx, s.grader, s.user
	req := study.AnswerRequest{MaterialID: c.MaterialID, QuestionID: c.QuestionID, Question: c.Question, Answer: answer}
	return func() tea.Msg {
		res, err := g.ValidateAnswer(ctx, user, req)
		return gradedMsg{result: res, err: err}
	}
}

func (s *Screen) handleGraded(msg gradedMsg) (screen.Screen, tea.Cmd) {
	if msg.err != nil {
		s.phase = phaseAnswering
		s.errMsg = msg.err.Error()
		return s, nil
	}
	s.phase = phaseFeedback
	s.result = msg.result
	out := summary.Outcome{
		Question:   s.current().Question,
		Category:   msg.result.Category,
		Confidence: msg.result.Confidence,
	}
	if msg.result.Review != nil {
		out.IntervalDays = msg.result.Review.IntervalDays
		out.NextReview = msg.result.Review.NextReview
	}
	s.results = append(s.results, out)
	return s, nil
}

func (s *Screen) next() tea.Cmd {
	s.pos++
	s.result = nil
	s.input.Reset()
	if s.pos >= len(s.cards) {
		return router.Replace(summary.New(s.results))
	}
	s.phase = phaseAnswering
	return s.input.Init()
}

// Results returns the outcomes graded so far.
func (s *Screen) Results() []summary.Outcome { return s.results }
