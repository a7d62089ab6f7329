package grading

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/abhisek/repaso/internal/embedding"
)

const pointerMaterial = "Un puntero es una variable que almacena la dirección de memoria de otra variable."

// fakeEmbedder returns fixed vectors for known texts and falls back to the
// hashing encoder for everything else.
type fakeEmbedder struct {
	*embedding.HashingEncoder
	vecs map[string][]float32
	err  error
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{HashingEncoder: embedding.NewHashingEncoder(), vecs: map[string][]float32{}}
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vecs[text]; ok {
		return v, nil
	}
	return f.HashingEncoder.Embed(ctx, text)
}

// mix returns the unit vector a*e_i + b*e_j.
func mix(i int, a float32, j int, b float32) []float32 {
	v := make([]float32, embedding.Dimensions)
	v[i] += a
	v[j] += b
	return embedding.Normalize(v)
}

func newTestValidator(t *testing.T, emb embedding.Embedder, mut ...func(*Config)) *Validator {
	t.Helper()
	cfg := DefaultConfig()
	for _, m := range mut {
		m(&cfg)
	}
	v, err := NewValidator(emb, cfg)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func hashedChunks(t *testing.T, texts ...string) []Chunk {
	t.Helper()
	h := embedding.NewHashingEncoder()
	out := make([]Chunk, len(texts))
	for i, text := range texts {
		vec, err := h.Embed(context.Background(), text)
		if err != nil {
			t.Fatal(err)
		}
		out[i] = Chunk{ID: fmt.Sprintf("c%d", i), Index: i, Page: 1, Text: text, Vector: vec}
	}
	return out
}

func TestValidate_ExactQuote(t *testing.T) {
	v := newTestValidator(t, embedding.NewHashingEncoder())
	res, err := v.Validate(context.Background(), "¿Qué es un puntero?", pointerMaterial, hashedChunks(t, pointerMaterial))
	if err != nil {
		t.Fatal(err)
	}
	if res.Category != Excellent {
		t.Errorf("category = %s, want excellent (confidence %.2f)", res.Category, res.Confidence)
	}
	if res.Confidence < 85 {
		t.Errorf("confidence = %.2f, want >= 85", res.Confidence)
	}
	if !res.IsValid {
		t.Error("is_valid = false")
	}
	if res.BestChunk == nil || res.BestChunk.ChunkID != "c0" || res.BestChunk.Page != 1 {
		t.Errorf("best chunk = %+v", res.BestChunk)
	}
	d := res.Top3[0].Details
	if d.Coverage != 1 || d.Cosine < 0.999 {
		t.Errorf("details = %+v", d)
	}
	if d.BM25 != 0 {
		t.Errorf("single-document BM25 should clamp to 0, got %f", d.BM25)
	}
	if res.Ambiguity == nil || res.Ambiguity.IsAmbiguous {
		t.Errorf("ambiguity = %+v", res.Ambiguity)
	}
	if res.Contradiction == nil || res.Contradiction.Detected {
		t.Errorf("contradiction = %+v", res.Contradiction)
	}
	if res.Thresholds.Excellent != 85 || res.WeightsUsed.Cosine != 0.80 {
		t.Errorf("thresholds/weights = %+v %+v", res.Thresholds, res.WeightsUsed)
	}
}

func TestValidate_OffTopic(t *testing.T) {
	v := newTestValidator(t, embedding.NewHashingEncoder())
	res, err := v.Validate(context.Background(), "¿Qué es un puntero?",
		"Es una función matemática que calcula derivadas.", hashedChunks(t, pointerMaterial))
	if err != nil {
		t.Fatal(err)
	}
	if res.Category != Incorrect && res.Category != Partial {
		t.Errorf("category = %s, want incorrect or partial", res.Category)
	}
	if res.Confidence >= 60 {
		t.Errorf("confidence = %.2f, want < 60", res.Confidence)
	}
	if res.IsValid {
		t.Error("is_valid = true")
	}
}

func TestValidate_Paraphrase(t *testing.T) {
	answer := "Es como una referencia que guarda dónde está ubicado un dato en la memoria."
	emb := newFakeEmbedder()
	emb.vecs[answer] = mix(0, 0.8, 1, 0.6)

	chunks := []Chunk{{ID: "c0", Index: 0, Page: 1, Text: pointerMaterial, Vector: mix(0, 1, 1, 0)}}
	res, err := newTestValidator(t, emb).Validate(context.Background(), "¿Qué es un puntero?", answer, chunks)
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsValid {
		t.Errorf("is_valid = false (category %s, confidence %.2f)", res.Category, res.Confidence)
	}
	if res.Category != Good && res.Category != Acceptable {
		t.Errorf("category = %s, want good or acceptable", res.Category)
	}
	if res.Confidence < 55 {
		t.Errorf("confidence = %.2f, want >= 55", res.Confidence)
	}
	// cosine 0.8, coverage 2/8 (memoria, memori), bm25 0.
	if d := res.Top3[0].Details; d.Cosine != 0.8 || d.Coverage != 0.25 {
		t.Errorf("details = %+v", d)
	}
	if got := res.Top3[0].KeywordsFound; strings.Join(got, ",") != "memori,memoria" {
		t.Errorf("keywords_found = %q", got)
	}
}

func TestValidate_TooShort(t *testing.T) {
	v := newTestValidator(t, embedding.NewHashingEncoder())
	for _, answer := range []string{"no sé", "  a b c d e f g h i  ", ""} {
		res, err := v.Validate(context.Background(), "¿Qué es un puntero?", answer, hashedChunks(t, pointerMaterial))
		if err != nil {
			t.Fatal(err)
		}
		if res.Category != Error || res.Confidence != 0 || res.IsValid {
			t.Errorf("%q: got %s/%.2f/%v, want error/0/false", answer, res.Category, res.Confidence, res.IsValid)
		}
		if !strings.Contains(res.Feedback, "minimo 10 caracteres") {
			t.Errorf("feedback = %q", res.Feedback)
		}
	}
}

func TestValidate_NoChunks(t *testing.T) {
	v := newTestValidator(t, embedding.NewHashingEncoder())
	res, err := v.Validate(context.Background(), "q", "una respuesta suficientemente larga", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Category != Error || res.Feedback != msgNoChunks {
		t.Errorf("got %s %q", res.Category, res.Feedback)
	}
}

func TestValidate_EmbedderFailure(t *testing.T) {
	emb := newFakeEmbedder()
	emb.err = errors.New("out of memory")
	_, err := newTestValidator(t, emb).Validate(context.Background(), "q", pointerMaterial, hashedChunks(t, pointerMaterial))
	if err == nil {
		t.Fatal("expected embedder error to propagate")
	}
}

func TestValidate_PrefilterCapsCandidates(t *testing.T) {
	var texts []string
	for i := range 40 {
		texts = append(texts, fmt.Sprintf("El tema %d trata sobre la memoria y los punteros número %d.", i, i*7))
	}
	v := newTestValidator(t, embedding.NewHashingEncoder())
	res, err := v.Validate(context.Background(), "¿Qué trata el tema?", "El tema trata sobre la memoria y los punteros.", hashedChunks(t, texts...))
	if err != nil {
		t.Fatal(err)
	}
	if res.CandidatesScored != 15 {
		t.Errorf("candidates scored = %d, want 15", res.CandidatesScored)
	}
	if len(res.Top3) != 3 {
		t.Fatalf("top3 len = %d", len(res.Top3))
	}
	for i := 1; i < len(res.Top3); i++ {
		if res.Top3[i].Score > res.Top3[i-1].Score {
			t.Errorf("top3 not sorted: %+v", res.Top3)
		}
	}
}

func TestValidate_TiesAreAmbiguousAndStable(t *testing.T) {
	chunks := hashedChunks(t, pointerMaterial, "Texto sin relación alguna con el tema.", pointerMaterial)
	chunks[0].Index, chunks[0].ID = 5, "late"
	chunks[2].Index, chunks[2].ID = 2, "early"

	v := newTestValidator(t, embedding.NewHashingEncoder())
	res, err := v.Validate(context.Background(), "¿Qué es un puntero?", pointerMaterial, chunks)
	if err != nil {
		t.Fatal(err)
	}
	if res.Top3[0].ChunkID != "early" || res.Top3[1].ChunkID != "late" {
		t.Errorf("tie order = %s, %s; want early, late", res.Top3[0].ChunkID, res.Top3[1].ChunkID)
	}
	if !res.Ambiguity.IsAmbiguous || res.Ambiguity.ScoreDiff != 0 {
		t.Errorf("ambiguity = %+v", res.Ambiguity)
	}
}

func TestValidate_Boost(t *testing.T) {
	v := newTestValidator(t, embedding.NewHashingEncoder(), func(c *Config) { c.Boost.Enabled = true })
	res, err := v.Validate(context.Background(), "¿Qué es un puntero?", pointerMaterial, hashedChunks(t, pointerMaterial))
	if err != nil {
		t.Fatal(err)
	}
	d := res.Top3[0].Details
	if d.Boost != 0.05 {
		t.Errorf("boost = %f, want 0.05", d.Boost)
	}
	if d.Final > 1 {
		t.Errorf("final = %f exceeds 1", d.Final)
	}
}

func TestValidate_LongPreviewIsTruncated(t *testing.T) {
	long := strings.Repeat("La memoria dinámica se reserva con punteros. ", 20)
	v := newTestValidator(t, embedding.NewHashingEncoder())
	res, err := v.Validate(context.Background(), "q", "La memoria dinámica se reserva con punteros.", hashedChunks(t, long))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(res.BestChunk.Text, "...") || len([]rune(res.BestChunk.Text)) != 203 {
		t.Errorf("preview has %d runes", len([]rune(res.BestChunk.Text)))
	}
}

func TestNewValidator_RejectsBadWeights(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights = Weights{BM25: 0.5, Cosine: 0.5, Coverage: 0.5}
	if _, err := NewValidator(embedding.NewHashingEncoder(), cfg); err == nil {
		t.Fatal("expected error")
	}
}
