package grading

import (
	"math"
	"slices"
)

// BM25 parameters.
const (
	bm25K1      = 1.5
	bm25B       = 0.75
	bm25Epsilon = 0.25
)

// BM25 is an Okapi BM25 index over tokenized documents. Terms whose idf
// comes out negative (present in more than half the corpus) are floored at
// epsilon times the average idf.
type BM25 struct {
	docs   [][]string
	freqs  []map[string]int
	lens   []float64
	avgdl  float64
	idf    map[string]float64
	usable bool
}

// NewBM25 indexes the tokenized corpus.
func NewBM25(corpus [][]string) *BM25 {
	b := &BM25{
		docs:  corpus,
		freqs: make([]map[string]int, len(corpus)),
		lens:  make([]float64, len(corpus)),
		idf:   make(map[string]float64),
	}
	nd := make(map[string]int)
	total := 0
	for i, doc := range corpus {
		f := make(map[string]int, len(doc))
		for _, t := range doc {
			f[t]++
		}
		for t := range f {
			nd[t]++
		}
		b.freqs[i] = f
		b.lens[i] = float64(len(doc))
		total += len(doc)
	}
	if len(corpus) == 0 || total == 0 {
		return b
	}
	b.usable = true
	b.avgdl = float64(total) / float64(len(corpus))

	n := float64(len(corpus))
	var sum float64
	var negative []string
	for t, df := range nd {
		idf := math.Log(n-float64(df)+0.5) - math.Log(float64(df)+0.5)
		b.idf[t] = idf
		sum += idf
		if idf < 0 {
			negative = append(negative, t)
		}
	}
	eps := bm25Epsilon * sum / float64(len(b.idf))
	for _, t := range negative {
		b.idf[t] = eps
	}
	return b
}

// Scores returns the score of every document for query.
func (b *BM25) Scores(query []string) []float64 {
	scores := make([]float64, len(b.docs))
	if !b.usable {
		return scores
	}
	for _, q := range query {
		idf, ok := b.idf[q]
		if !ok {
			continue
		}
		for i, f := range b.freqs {
			tf := float64(f[q])
			if tf == 0 {
				continue
			}
			denom := tf + bm25K1*(1-bm25B+bm25B*b.lens[i]/b.avgdl)
			scores[i] += idf * tf * (bm25K1 + 1) / denom
		}
	}
	return scores
}

// ScoreOf returns the score of the first document whose tokens equal doc.
// When no document matches it falls back to the mean score.
func (b *BM25) ScoreOf(scores []float64, doc []string) float64 {
	if !b.usable || len(scores) == 0 {
		return 0
	}
	for i, d := range b.docs {
		if slices.Equal(d, doc) {
			return scores[i]
		}
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}
