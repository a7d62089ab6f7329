package grading

import (
	"context"
	"strings"
	"unicode"

	"github.com/abhisek/repaso/internal/chunker"
	"github.com/abhisek/repaso/internal/embedding"
	"github.com/abhisek/repaso/internal/retrieval"
)

var negations = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		no nunca jamás jamas ninguno ninguna ningún nadie nada incorrecto
		incorrecta falso falsa erróneo errónea erroneo tampoco ni
	`) {
		negations[w] = struct{}{}
	}
}

func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// hasNegation reports whether text contains a negation marker.
func hasNegation(text string) bool {
	for _, w := range words(strings.ToLower(text)) {
		if _, ok := negations[w]; ok {
			return true
		}
	}
	return false
}

// stripNegations removes negation markers from a sentence.
func stripNegations(sentence string) string {
	var kept []string
	for _, w := range words(sentence) {
		if _, ok := negations[strings.ToLower(w)]; !ok {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// ContradictionDetector flags answers that negate what the material states.
// A negated answer sentence is stripped of its negation markers and
// compared with chunks that carry no negation; a close match means the
// student restated the material with the opposite polarity.
type ContradictionDetector struct {
	emb       embedding.Embedder
	threshold float64
}

// NewContradictionDetector returns a detector that fires at threshold
// cosine similarity.
func NewContradictionDetector(emb embedding.Embedder, threshold float64) *ContradictionDetector {
	return &ContradictionDetector{emb: emb, threshold: threshold}
}

// Detect returns the strongest contradiction found, or a result with
// Detected false.
func (d *ContradictionDetector) Detect(ctx context.Context, answer string, chunks []Chunk) (*Contradiction, error) {
	out := &Contradiction{}

	var positive []Chunk
	for _, c := range chunks {
		if !hasNegation(c.Text) {
			positive = append(positive, c)
		}
	}
	if len(positive) == 0 {
		return out, nil
	}

	for _, s := range chunker.Sentences(answer) {
		if !hasNegation(s) {
			continue
		}
		stripped := stripNegations(s)
		if stripped == "" {
			continue
		}
		vec, err := d.emb.Embed(ctx, stripped)
		if err != nil {
			return nil, err
		}
		for _, c := range positive {
			sim := retrieval.Similarity(vec, c.Vector)
			if sim >= d.threshold && sim > out.Similarity {
				out = &Contradiction{
					Detected:   true,
					Sentence:   s,
					ChunkID:    c.ID,
					Similarity: round(sim, 4),
				}
			}
		}
	}
	return out, nil
}
