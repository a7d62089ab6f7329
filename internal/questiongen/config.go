package questiongen

import "time"

// Config controls the behavior of the LLMGenerator.
type Config struct {
	// Validators run in order on every generated question. The first
	// failure rejects the question.
	Validators []Validator

	// PerChunk is the number of questions requested per chunk.
	PerChunk int

	// MaxTokens is the token budget for the LLM response.
	MaxTokens int

	// Temperature controls LLM output randomness (0.0-1.0).
	Temperature float64

	// Delay is the pause between consecutive chunk requests in a Job.
	Delay time.Duration
}

// DefaultConfig returns a Config with the structural validator and the
// recommended defaults.
func DefaultConfig() Config {
	return Config{
		Validators:  []Validator{&StructuralValidator{}},
		PerChunk:    2,
		MaxTokens:   500,
		Temperature: 0.7,
		Delay:       time.Second,
	}
}
