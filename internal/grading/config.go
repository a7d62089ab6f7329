package grading

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Weights combine the three component scores. They must sum to 1.
type Weights struct {
	BM25     float64 `json:"bm25" yaml:"bm25"`
	Cosine   float64 `json:"cosine" yaml:"cosine"`
	Coverage float64 `json:"coverage" yaml:"coverage"`
}

// Weight profiles. Both let the semantic signal dominate.
var Profiles = map[string]Weights{
	"semantic": {BM25: 0.05, Cosine: 0.80, Coverage: 0.15},
	"balanced": {BM25: 0.30, Cosine: 0.50, Coverage: 0.20},
}

// DefaultProfile is used when no profile is configured.
const DefaultProfile = "semantic"

// WeightsForProfile looks up a named profile.
func WeightsForProfile(name string) (Weights, error) {
	if name == "" {
		name = DefaultProfile
	}
	w, ok := Profiles[name]
	if !ok {
		names := make([]string, 0, len(Profiles))
		for n := range Profiles {
			names = append(names, n)
		}
		sort.Strings(names)
		return Weights{}, fmt.Errorf("unknown weight profile %q (want one of %s)", name, strings.Join(names, ", "))
	}
	return w, nil
}

// Sum returns the total weight.
func (w Weights) Sum() float64 { return w.BM25 + w.Cosine + w.Coverage }

// Validate checks that weights are non-negative and sum to 1 ± 1e-3.
func (w Weights) Validate() error {
	if w.BM25 < 0 || w.Cosine < 0 || w.Coverage < 0 {
		return fmt.Errorf("weights must be non-negative: %+v", w)
	}
	if math.Abs(w.Sum()-1) > 1e-3 {
		return fmt.Errorf("weights must sum to 1, got %.4f", w.Sum())
	}
	return nil
}

// Thresholds are the lower bounds of each passing-or-partial category.
type Thresholds struct {
	Excellent  float64 `json:"excellent" yaml:"excellent"`
	Good       float64 `json:"good" yaml:"good"`
	Acceptable float64 `json:"acceptable" yaml:"acceptable"`
	Partial    float64 `json:"partial" yaml:"partial"`
}

// DefaultThresholds is the shipped category table.
var DefaultThresholds = Thresholds{Excellent: 0.85, Good: 0.70, Acceptable: 0.55, Partial: 0.40}

// Validate checks the thresholds are strictly decreasing within (0, 1].
func (t Thresholds) Validate() error {
	if !(t.Excellent <= 1 && t.Excellent > t.Good && t.Good > t.Acceptable &&
		t.Acceptable > t.Partial && t.Partial > 0) {
		return fmt.Errorf("thresholds must decrease strictly within (0, 1]: %+v", t)
	}
	return nil
}

// Percent returns the thresholds scaled to 0–100.
func (t Thresholds) Percent() Thresholds {
	return Thresholds{
		Excellent:  round(t.Excellent*100, 2),
		Good:       round(t.Good*100, 2),
		Acceptable: round(t.Acceptable*100, 2),
		Partial:    round(t.Partial*100, 2),
	}
}

// Boost rewards answers that are both semantically close and cover the
// chunk's vocabulary. It is off by default.
type Boost struct {
	Enabled     bool    `json:"enabled" yaml:"enabled"`
	Amount      float64 `json:"amount" yaml:"amount"`
	MinCosine   float64 `json:"min_cosine" yaml:"min_cosine"`
	MinCoverage float64 `json:"min_coverage" yaml:"min_coverage"`
}

// Config parameterizes the Validator.
type Config struct {
	Weights                Weights    `json:"weights" yaml:"weights"`
	Thresholds             Thresholds `json:"thresholds" yaml:"thresholds"`
	AmbiguityGap           float64    `json:"ambiguity_gap" yaml:"ambiguity_gap"`
	ContradictionThreshold float64    `json:"contradiction_threshold" yaml:"contradiction_threshold"`
	Boost                  Boost      `json:"boost" yaml:"boost"`
}

// DefaultConfig returns the shipped grading configuration.
func DefaultConfig() Config {
	return Config{
		Weights:                Profiles[DefaultProfile],
		Thresholds:             DefaultThresholds,
		AmbiguityGap:           0.08,
		ContradictionThreshold: 0.75,
		Boost:                  Boost{Amount: 0.05, MinCosine: 0.60, MinCoverage: 0.30},
	}
}

// Validate checks every part of the configuration.
func (c Config) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	if err := c.Thresholds.Validate(); err != nil {
		return err
	}
	if c.AmbiguityGap < 0 || c.AmbiguityGap >= 1 {
		return fmt.Errorf("ambiguity gap must be in [0, 1), got %f", c.AmbiguityGap)
	}
	if c.ContradictionThreshold <= 0 || c.ContradictionThreshold > 1 {
		return fmt.Errorf("contradiction threshold must be in (0, 1], got %f", c.ContradictionThreshold)
	}
	if c.Boost.Enabled && (c.Boost.Amount <= 0 || c.Boost.Amount > 0.2) {
		return fmt.Errorf("boost amount must be in (0, 0.2], got %f", c.Boost.Amount)
	}
	return nil
}

func round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
