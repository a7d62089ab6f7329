package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/abhisek/repaso/internal/textnorm"
)

// HashingModel identifies the built-in encoder.
const HashingModel = "hashing-fnv-384"

// Feature weights for the hashing encoder.
const (
	unigramWeight = 1.0
	bigramWeight  = 0.5
	trigramWeight = 0.3
)

// HashingEncoder is a deterministic local sentence encoder. It projects word
// unigrams, word bigrams and character trigrams into a fixed number of
// buckets with signed feature hashing, then L2-normalizes the result.
//
// It needs no model weights and is safe for concurrent use. It captures
// lexical and sub-word similarity only; paraphrases with no shared vocabulary
// score low.
type HashingEncoder struct {
	dims int
}

// NewHashingEncoder returns an encoder producing Dimensions-sized vectors.
func NewHashingEncoder() *HashingEncoder {
	return &HashingEncoder{dims: Dimensions}
}

func (h *HashingEncoder) Dimensions() int { return h.dims }
func (h *HashingEncoder) Model() string   { return HashingModel }

func (h *HashingEncoder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return h.encode(text), nil
}

func (h *HashingEncoder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.encode(t)
	}
	return out, nil
}

func (h *HashingEncoder) encode(text string) []float32 {
	words := wordTokens(strings.ToLower(textnorm.Normalize(text)))
	vec := make([]float32, h.dims)
	if len(words) == 0 {
		return vec
	}

	acc := make([]float64, h.dims)
	add := func(feature string, w float64) {
		f := fnv.New64a()
		f.Write([]byte(feature))
		sum := f.Sum64()
		idx := int(sum % uint64(h.dims))
		if sum>>63 == 1 {
			w = -w
		}
		acc[idx] += w
	}
	for i, w := range words {
		add("w:"+w, unigramWeight)
		if i > 0 {
			add("b:"+words[i-1]+" "+w, bigramWeight)
		}
		r := []rune("<" + w + ">")
		for j := 0; j+3 <= len(r); j++ {
			add("c:"+string(r[j:j+3]), trigramWeight)
		}
	}

	var norm float64
	for _, x := range acc {
		norm += x * x
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return vec
	}
	for i, x := range acc {
		vec[i] = float32(x / norm)
	}
	return vec
}

// wordTokens splits text into runs of letters and digits.
func wordTokens(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
