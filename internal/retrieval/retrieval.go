package retrieval

import (
	"sort"

	"github.com/abhisek/repaso/internal/embedding"
)

// PrefilterK is how many chunks the grading pre-filter keeps.
const PrefilterK = 15

// Doc is a candidate passage with its embedding.
type Doc struct {
	Index  int
	Vector []float32
}

// Hit is a ranked candidate. Pos indexes the docs slice passed to TopK.
type Hit struct {
	Pos        int
	Index      int
	Similarity float64
}

// Similarity is the dot product of two unit vectors clamped to [0, 1].
func Similarity(a, b []float32) float64 {
	return clamp01(embedding.Dot(a, b))
}

// TopK ranks docs by similarity to query and returns at most k hits,
// ordered by similarity descending with ties broken by ascending Index.
func TopK(query []float32, docs []Doc, k int) []Hit {
	if k <= 0 || len(docs) == 0 {
		return nil
	}
	hits := make([]Hit, len(docs))
	for i, d := range docs {
		hits[i] = Hit{Pos: i, Index: d.Index, Similarity: Similarity(query, d.Vector)}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].Index < hits[j].Index
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

func clamp01(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}
