package questiongen

import (
	"strings"
	"unicode/utf8"
)

// Length limits for a generated question, in runes.
const (
	MinQuestionRunes = 10
	MaxQuestionRunes = 300
)

// StructuralValidator checks length, the question mark, provenance and
// enum values.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(q *Question, _ GenerateInput) *ValidationError {
	reject := func(msg string) *ValidationError {
		return &ValidationError{Validator: v.Name(), Question: q.Text, Message: msg}
	}
	n := utf8.RuneCountInString(q.Text)
	switch {
	case n < MinQuestionRunes:
		return reject("question is shorter than 10 characters")
	case n > MaxQuestionRunes:
		return reject("question exceeds 300 characters")
	case !strings.HasSuffix(q.Text, "?"):
		return reject("question does not end with \"?\"")
	case q.ChunkIndex < 0:
		return reject("chunk_index is negative")
	case q.Type != TypeLiteral && q.Type != TypeInferential:
		return reject("question_type must be \"literal\" or \"inferential\"")
	case q.Difficulty != DifficultyLow && q.Difficulty != DifficultyMedium && q.Difficulty != DifficultyHigh:
		return reject("difficulty must be \"low\", \"medium\" or \"high\"")
	}
	return nil
}
