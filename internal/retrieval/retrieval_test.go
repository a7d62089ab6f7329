package retrieval

import (
	"math"
	"testing"
)

func unit(x, y float32) []float32 {
	n := float32(math.Sqrt(float64(x*x + y*y)))
	return []float32{x / n, y / n}
}

func TestTopK_OrdersAndTieBreaks(t *testing.T) {
	docs := []Doc{
		{Index: 4, Vector: unit(1, 1)},
		{Index: 2, Vector: unit(1, 0)},
		{Index: 1, Vector: unit(1, 1)},
		{Index: 3, Vector: unit(-1, 0)},
	}
	got := TopK(unit(1, 0), docs, 10)

	wantIdx := []int{2, 1, 4, 3}
	if len(got) != len(wantIdx) {
		t.Fatalf("got %d hits, want %d", len(got), len(wantIdx))
	}
	for i, idx := range wantIdx {
		if got[i].Index != idx {
			t.Errorf("hit %d index = %d, want %d", i, got[i].Index, idx)
		}
	}
	if got[3].Similarity != 0 {
		t.Errorf("opposite vector similarity = %f, want clamped 0", got[3].Similarity)
	}
	if docs[got[0].Pos].Index != 2 {
		t.Error("Pos does not point back into docs")
	}
}

func TestTopK_AtMostK(t *testing.T) {
	var docs []Doc
	for i := range 40 {
		docs = append(docs, Doc{Index: i, Vector: unit(float32(i+1), 1)})
	}
	got := TopK(unit(1, 0), docs, PrefilterK)
	if len(got) != PrefilterK {
		t.Fatalf("len = %d, want %d", len(got), PrefilterK)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Similarity > got[i-1].Similarity {
			t.Fatalf("hits not sorted at %d", i)
		}
	}
}

func TestTopK_ZeroQuery(t *testing.T) {
	docs := []Doc{{Index: 1, Vector: unit(1, 0)}, {Index: 0, Vector: unit(0, 1)}}
	got := TopK([]float32{0, 0}, docs, 15)
	if got[0].Index != 0 || got[0].Similarity != 0 {
		t.Errorf("zero query should rank by index with similarity 0: %+v", got)
	}
}

func TestTopK_Empty(t *testing.T) {
	if TopK(unit(1, 0), nil, 15) != nil {
		t.Error("want nil for no docs")
	}
	if TopK(unit(1, 0), []Doc{{Index: 0, Vector: unit(1, 0)}}, 0) != nil {
		t.Error("want nil for k=0")
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	a, b := unit(0.3, 0.7), unit(0.9, 0.2)
	if math.Abs(Similarity(a, b)-Similarity(b, a)) > 1e-6 {
		t.Error("similarity not symmetric")
	}
}
