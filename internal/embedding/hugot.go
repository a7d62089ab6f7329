package embedding

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	"github.com/abhisek/repaso/internal/textnorm"
)

// DefaultHugotModel is a multilingual sentence encoder with 384-dimensional
// output. Its ONNX export is what REPASO_EMBEDDING_MODEL_PATH points at.
const DefaultHugotModel = "paraphrase-multilingual-MiniLM-L12-v2"

// HugotConfig locates an exported sentence-transformer on disk.
type HugotConfig struct {
	// ModelPath is the directory holding the ONNX file and tokenizer.json.
	ModelPath string
	// OnnxFilename defaults to model.onnx.
	OnnxFilename string
	// Model is reported by Model(). Defaults to the directory name.
	Model string
}

// HugotEmbedder runs a feature-extraction pipeline in process on the pure
// Go backend, so it needs no cgo and no network.
type HugotEmbedder struct {
	session  *hugot.Session
	pipeline *pipelines.FeatureExtractionPipeline
	model    string
	dims     int
}

// NewHugotEmbedder loads the model at cfg.ModelPath.
func NewHugotEmbedder(cfg HugotConfig) (*HugotEmbedder, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("hugot embeddings: model path required")
	}
	onnx := cfg.OnnxFilename
	if onnx == "" {
		onnx = "model.onnx"
	}
	model := cfg.Model
	if model == "" {
		model = filepath.Base(filepath.Clean(cfg.ModelPath))
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("hugot embeddings: create session: %w", err)
	}
	pipeline, err := hugot.NewPipeline(session, hugot.FeatureExtractionConfig{
		ModelPath:    cfg.ModelPath,
		OnnxFilename: onnx,
		Name:         cfg.ModelPath + ":" + onnx,
		Options:      []hugot.FeatureExtractionOption{pipelines.WithNormalization()},
	})
	if err != nil {
		_ = session.Destroy()
		return nil, fmt.Errorf("hugot embeddings: load %s: %w", cfg.ModelPath, err)
	}

	h := &HugotEmbedder{session: session, pipeline: pipeline, model: model}
	warm, err := pipeline.RunPipeline([]string{"hola"})
	if err == nil && len(warm.Embeddings) != 1 {
		err = fmt.Errorf("got %d rows for 1 input", len(warm.Embeddings))
	}
	if err != nil {
		_ = session.Destroy()
		return nil, fmt.Errorf("hugot embeddings: warm up %s: %w", model, err)
	}
	h.dims = len(warm.Embeddings[0])
	return h, nil
}

func (h *HugotEmbedder) Dimensions() int { return h.dims }
func (h *HugotEmbedder) Model() string   { return h.model }

func (h *HugotEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return embedOneViaBatch(ctx, h, text)
}

// EmbedBatch runs the non-empty texts through the pipeline in one pass.
func (h *HugotEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	var (
		input []string
		pos   []int
	)
	for i, t := range texts {
		n := textnorm.Normalize(t)
		if n == "" {
			out[i] = make([]float32, h.dims)
			continue
		}
		input = append(input, n)
		pos = append(pos, i)
	}
	if len(input) == 0 {
		return out, nil
	}

	res, err := h.pipeline.RunPipeline(input)
	if err != nil {
		return nil, fmt.Errorf("hugot embeddings: %w", err)
	}
	if len(res.Embeddings) != len(input) {
		return nil, fmt.Errorf("hugot embeddings: got %d rows for %d inputs", len(res.Embeddings), len(input))
	}
	for j, row := range res.Embeddings {
		out[pos[j]] = Normalize(row)
	}
	return out, nil
}

// Close releases the session.
func (h *HugotEmbedder) Close() error {
	if h.session == nil {
		return nil
	}
	return h.session.Destroy()
}
