package chunker

import "fmt"

// Options bounds passage size in words.
type Options struct {
	MinWords     int `yaml:"min_words" json:"min_words"`
	MaxWords     int `yaml:"max_words" json:"max_words"`
	OverlapWords int `yaml:"overlap_words" json:"overlap_words"`
}

// Built-in profiles.
var (
	Default  = Options{MinWords: 30, MaxWords: 80, OverlapWords: 5}
	Semantic = Options{MinWords: 80, MaxWords: 100, OverlapWords: 20}
)

// Profile names accepted by ForProfile.
const (
	ProfileDefault  = "default"
	ProfileSemantic = "semantic"
	ProfileAdaptive = "adaptive"
)

// Adaptive picks passage sizes from the document length so long books do
// not produce thousands of tiny chunks.
func Adaptive(pages int) Options {
	switch {
	case pages <= 50:
		return Options{MinWords: 80, MaxWords: 180, OverlapWords: 20}
	case pages <= 300:
		return Options{MinWords: 150, MaxWords: 350, OverlapWords: 30}
	case pages <= 1000:
		return Options{MinWords: 250, MaxWords: 600, OverlapWords: 50}
	default:
		return Options{MinWords: 400, MaxWords: 1000, OverlapWords: 80}
	}
}

// ForProfile resolves a named profile. The adaptive profile needs the page
// count of the document.
func ForProfile(name string, pages int) (Options, error) {
	switch name {
	case "", ProfileDefault:
		return Default, nil
	case ProfileSemantic:
		return Semantic, nil
	case ProfileAdaptive:
		return Adaptive(pages), nil
	default:
		return Options{}, fmt.Errorf("unknown chunk profile %q (want default, semantic or adaptive)", name)
	}
}

// Validate checks that the bounds are usable.
func (o Options) Validate() error {
	if o.MaxWords <= 0 {
		return fmt.Errorf("max_words must be positive, got %d", o.MaxWords)
	}
	if o.MinWords < 0 || o.MinWords > o.MaxWords {
		return fmt.Errorf("min_words must be in [0, %d], got %d", o.MaxWords, o.MinWords)
	}
	if o.OverlapWords < 0 || o.OverlapWords >= o.MaxWords {
		return fmt.Errorf("overlap_words must be in [0, %d), got %d", o.MaxWords, o.OverlapWords)
	}
	return nil
}

func (o Options) sanitized() Options {
	if o.Validate() != nil {
		return Default
	}
	return o
}
