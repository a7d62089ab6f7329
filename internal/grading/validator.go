package grading

import (
	"context"
	"fmt"
	"sort"
	"unicode"
	"unicode/utf8"

	"github.com/abhisek/repaso/internal/embedding"
	"github.com/abhisek/repaso/internal/retrieval"
)

const (
	minAnswerChars = 10
	previewRunes   = 200
	maxKeywords    = 5
	topN           = 3

	scoringMethod = "hybrid_bm25_cosine_coverage"
)

// Chunk is a stored passage of the material being graded against.
type Chunk struct {
	ID     string
	Index  int
	Page   int
	Text   string
	Vector []float32
}

// Validator grades free-text answers against a material's chunks by
// combining BM25, cosine similarity and keyword coverage.
type Validator struct {
	emb    embedding.Embedder
	cfg    Config
	contra *ContradictionDetector
}

// NewValidator returns a Validator using emb for answer embeddings.
func NewValidator(emb embedding.Embedder, cfg Config) (*Validator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("grading config: %w", err)
	}
	return &Validator{
		emb:    emb,
		cfg:    cfg,
		contra: NewContradictionDetector(emb, cfg.ContradictionThreshold),
	}, nil
}

// Config returns the active configuration.
func (v *Validator) Config() Config { return v.cfg }

type scored struct {
	chunk    Chunk
	comp     Components
	base     float64
	keywords []string
}

// Validate grades answer to question against chunks.
//
// An empty chunk set or an answer with fewer than ten non-whitespace
// characters yields a Result with category error and confidence 0; these
// are normal outcomes, not errors. Errors are returned only when the
// embedder fails.
func (v *Validator) Validate(ctx context.Context, question, answer string, chunks []Chunk) (*Result, error) {
	if len(chunks) == 0 {
		return errorResult(msgNoChunks), nil
	}
	if nonSpaceLen(answer) < minAnswerChars {
		return errorResult(msgTooShort), nil
	}

	answerVec, err := v.emb.Embed(ctx, answer)
	if err != nil {
		return nil, fmt.Errorf("embed answer: %w", err)
	}

	docs := make([]retrieval.Doc, len(chunks))
	for i, c := range chunks {
		docs[i] = retrieval.Doc{Index: c.Index, Vector: c.Vector}
	}
	hits := retrieval.TopK(answerVec, docs, retrieval.PrefilterK)

	candidates := make([]Chunk, len(hits))
	corpus := make([][]string, len(hits))
	for i, h := range hits {
		candidates[i] = chunks[h.Pos]
		corpus[i] = Keywords(candidates[i].Text)
	}

	answerKw := Keywords(answer)
	answerSet := Expand(answerKw)
	query := Expand(append(Keywords(question), answerKw...)).Sorted()

	bm := NewBM25(corpus)
	bmScores := bm.Scores(query)

	w := v.cfg.Weights
	results := make([]scored, len(candidates))
	for i, c := range candidates {
		chunkSet := Expand(corpus[i])
		comp := Components{
			BM25:     clamp01(bm.ScoreOf(bmScores, corpus[i]) / 10),
			Cosine:   hits[i].Similarity,
			Coverage: Coverage(answerSet, chunkSet),
		}
		base := w.BM25*comp.BM25 + w.Cosine*comp.Cosine + w.Coverage*comp.Coverage
		comp.Final = base
		if b := v.cfg.Boost; b.Enabled && comp.Cosine >= b.MinCosine && comp.Coverage >= b.MinCoverage {
			comp.Boost = b.Amount
			comp.Final = min(1, base+b.Amount)
		}
		kw := answerSet.Intersect(chunkSet)
		if len(kw) > maxKeywords {
			kw = kw[:maxKeywords]
		}
		results[i] = scored{chunk: c, comp: comp, base: base, keywords: kw}
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].comp.Final != results[j].comp.Final {
			return results[i].comp.Final > results[j].comp.Final
		}
		return results[i].chunk.Index < results[j].chunk.Index
	})

	contra, err := v.contra.Detect(ctx, answer, candidates)
	if err != nil {
		return nil, fmt.Errorf("contradiction check: %w", err)
	}

	best := results[0]
	category, feedback := v.cfg.Thresholds.Categorize(best.comp.Final)
	thresholds := v.cfg.Thresholds.Percent()
	weights := v.cfg.Weights

	res := &Result{
		IsValid:    category.Passing(),
		Confidence: round(best.comp.Final*100, 2),
		Category:   category,
		Feedback:   feedback,
		BestChunk: &ChunkRef{
			Text:    preview(best.chunk.Text, previewRunes),
			Page:    best.chunk.Page,
			ChunkID: best.chunk.ID,
		},
		Ambiguity:        v.ambiguity(results),
		Contradiction:    contra,
		Thresholds:       &thresholds,
		WeightsUsed:      &weights,
		ScoringMethod:    scoringMethod,
		CandidatesScored: len(results),
		Score:            best.comp.Final,
	}
	for _, r := range results[:min(topN, len(results))] {
		res.Top3 = append(res.Top3, ScoredChunk{
			Score:      round(r.comp.Final*100, 2),
			ChunkID:    r.chunk.ID,
			ChunkIndex: r.chunk.Index,
			Details: Components{
				BM25:     round(r.comp.BM25, 4),
				Cosine:   round(r.comp.Cosine, 4),
				Coverage: round(r.comp.Coverage, 4),
				Boost:    round(r.comp.Boost, 4),
				Final:    round(r.comp.Final, 4),
			},
			KeywordsFound: r.keywords,
		})
	}
	return res, nil
}

// ambiguity compares the two best chunks on their unboosted scores.
func (v *Validator) ambiguity(results []scored) *Ambiguity {
	a := &Ambiguity{Threshold: v.cfg.AmbiguityGap}
	if len(results) < 2 {
		a.Reason = "fewer than 2 chunks"
		if len(results) == 1 {
			a.Top1Score = round(results[0].base, 4)
		}
		return a
	}
	top1, top2 := results[0].base, results[1].base
	diff := top1 - top2
	a.IsAmbiguous = diff < v.cfg.AmbiguityGap
	a.ScoreDiff = round(diff, 4)
	a.Top1Score = round(top1, 4)
	a.Top2Score = round(top2, 4)
	return a
}

func nonSpaceLen(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

func clamp01(x float64) float64 {
	return max(0, min(1, x))
}
