package embedding

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/abhisek/repaso/internal/textnorm"
)

// DefaultOpenAIModel supports shortened outputs via the dimensions field.
const DefaultOpenAIModel = "text-embedding-3-small"

// OpenAIConfig configures an OpenAI-compatible embeddings endpoint.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// OpenAIEmbedder calls an OpenAI-compatible embeddings API and asks for
// Dimensions-sized vectors. Rows are re-normalized locally.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
}

// NewOpenAIEmbedder builds an embedder from cfg.
func NewOpenAIEmbedder(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai embeddings: API key required")
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIEmbedder{client: openai.NewClientWithConfig(oc), model: model}, nil
}

func (o *OpenAIEmbedder) Dimensions() int { return Dimensions }
func (o *OpenAIEmbedder) Model() string   { return o.model }

func (o *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return embedOneViaBatch(ctx, o, text)
}

// EmbedBatch sends the non-empty texts in one request. Empty texts get the
// zero vector without a round trip.
func (o *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var (
		input []string
		pos   []int
	)
	for i, t := range texts {
		n := textnorm.Normalize(t)
		if n == "" {
			out[i] = make([]float32, Dimensions)
			continue
		}
		input = append(input, n)
		pos = append(pos, i)
	}
	if len(input) == 0 {
		return out, nil
	}

	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      input,
		Model:      openai.EmbeddingModel(o.model),
		Dimensions: Dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) != len(input) {
		return nil, fmt.Errorf("openai embeddings: got %d rows for %d inputs", len(resp.Data), len(input))
	}
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(pos) {
			return nil, fmt.Errorf("openai embeddings: row index %d out of range", d.Index)
		}
		if len(d.Embedding) != Dimensions {
			return nil, fmt.Errorf("openai embeddings: got %d dimensions, want %d", len(d.Embedding), Dimensions)
		}
		out[pos[d.Index]] = Normalize(d.Embedding)
	}
	return out, nil
}
