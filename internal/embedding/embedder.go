// Package embedding turns text into unit-length 384-dimensional vectors.
//
// Every backend pre-normalizes its input with textnorm.Normalize, so callers
// pass raw text. Empty text embeds to the zero vector.
package embedding

import "context"

// Dimensions is the vector size every backend produces.
const Dimensions = 384

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed returns the embedding of a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one row per input text. Row i equals Embed(texts[i]).
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the dimensionality of the vectors.
	Dimensions() int

	// Model returns the backend's model identifier.
	Model() string
}

// embedOneViaBatch adapts a batch-first implementation to Embed.
func embedOneViaBatch(ctx context.Context, e Embedder, text string) ([]float32, error) {
	rows, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return rows[0], nil
}
