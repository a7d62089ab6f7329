// Package ingest turns uploaded documents into stored, embedded chunks.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/abhisek/repaso/internal/chunker"
	"github.com/abhisek/repaso/internal/embedding"
	"github.com/abhisek/repaso/internal/logger"
	"github.com/abhisek/repaso/internal/store"
	"github.com/abhisek/repaso/internal/textnorm"
)

// CharsPerPage estimates pages for sources without a page count.
const CharsPerPage = 1300

// Progress stages.
const (
	StageDecode  = "decode"
	StageChunk   = "chunk"
	StageEmbed   = "embed"
	StagePersist = "persist"
)

// ErrEmptyText means the document decoded to no usable text.
var ErrEmptyText = errors.New("document contains no text")

// Source is an uploaded document.
type Source struct {
	Filename string
	MIME     string
	Data     []byte
}

// ProgressFunc receives (stage, done, total) updates.
type ProgressFunc func(stage string, done, total int)

// Config selects chunk sizes and the OCR fallback.
type Config struct {
	// ChunkProfile is default, semantic or adaptive.
	ChunkProfile string `yaml:"chunk_profile"`
	// Chunk overrides the profile when MaxWords is set.
	Chunk      chunker.Options `yaml:"chunk"`
	OCRCommand string          `yaml:"ocr_command"`
	OCRTimeout time.Duration   `yaml:"ocr_timeout"`
}

// DefaultConfig uses the semantic profile and ocrmypdf.
func DefaultConfig() Config {
	return Config{
		ChunkProfile: chunker.ProfileSemantic,
		OCRCommand:   DefaultOCRCommand,
		OCRTimeout:   10 * time.Minute,
	}
}

// Options resolves the chunk options for a document of the given pages.
func (c Config) Options(pages int) (chunker.Options, error) {
	if c.Chunk.MaxWords > 0 {
		if err := c.Chunk.Validate(); err != nil {
			return chunker.Options{}, err
		}
		return c.Chunk, nil
	}
	return chunker.ForProfile(c.ChunkProfile, pages)
}

// Result is a stored material plus ingest statistics.
type Result struct {
	Material *store.Material
	Decoder  string
	OCR      textnorm.OCRStats
	Duration time.Duration
}

// Pipeline runs decode, normalize, chunk, embed and persist.
type Pipeline struct {
	decoders []Decoder
	embedder embedding.Embedder
	repo     store.MaterialRepo
	cfg      Config
	log      *logger.Logger
}

// New creates a Pipeline with the text, pdf and ocr decoders in that
// order.
func New(emb embedding.Embedder, repo store.MaterialRepo, cfg Config, log *logger.Logger) *Pipeline {
	if log == nil {
		log = logger.Nop()
	}
	return &Pipeline{
		decoders: []Decoder{
			TextDecoder{},
			PDFDecoder{},
			OCRDecoder{Command: cfg.OCRCommand, Timeout: cfg.OCRTimeout},
		},
		embedder: emb,
		repo:     repo,
		cfg:      cfg,
		log:      log,
	}
}

// WithDecoders replaces the decoder chain.
func (p *Pipeline) WithDecoders(ds ...Decoder) *Pipeline {
	p.decoders = ds
	return p
}

// Ingest stores src as a new material. Nothing is persisted unless every
// step succeeds.
func (p *Pipeline) Ingest(ctx context.Context, src Source, progress ProgressFunc) (*Result, error) {
	started := time.Now()
	if progress == nil {
		progress = func(string, int, int) {}
	}
	src.MIME = DetectMIME(src.Filename, src.MIME, src.Data)
	log := p.log.With("filename", src.Filename, "mime", src.MIME)

	progress(StageDecode, 0, 1)
	decoded, err := decode(ctx, p.decoders, src)
	if err != nil {
		return nil, err
	}
	progress(StageDecode, 1, 1)

	ocr := textnorm.DetectOCRErrors(decoded.Text)
	if ocr.HasErrors {
		log.Info("extraction artifacts found",
			"decoder", decoded.Decoder,
			"fragmented_words", ocr.FragmentedWords,
			"hyphen_breaks", ocr.HyphenBreaks,
			"multiple_spaces", ocr.MultipleSpaces,
			"punctuation_spacing", ocr.PunctuationSpacing)
	}

	text := textnorm.Normalize(decoded.Text)
	if text == "" {
		return nil, fmt.Errorf("%s: %w", src.Filename, ErrEmptyText)
	}
	chars := utf8.RuneCountInString(text)
	pages := decoded.Pages
	if pages <= 0 {
		pages = max(1, chars/CharsPerPage)
	}

	opts, err := p.cfg.Options(pages)
	if err != nil {
		return nil, fmt.Errorf("chunk options: %w", err)
	}
	passages := chunker.Chunk(text, opts)
	if len(passages) == 0 {
		return nil, fmt.Errorf("%s: %w", src.Filename, ErrEmptyText)
	}
	progress(StageChunk, len(passages), len(passages))

	texts := make([]string, len(passages))
	for i, ps := range passages {
		texts[i] = ps.Text
	}
	progress(StageEmbed, 0, len(passages))
	vecs, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vecs) != len(passages) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vecs), len(passages))
	}

	totalWords := len(strings.Fields(text))
	chunks := make([]store.Chunk, len(passages))
	for i, ps := range passages {
		if len(vecs[i]) != embedding.Dimensions {
			return nil, fmt.Errorf("chunk %d: embedding has %d dimensions, want %d", i, len(vecs[i]), embedding.Dimensions)
		}
		chunks[i] = store.Chunk{
			Index:     ps.Index,
			Text:      ps.Text,
			Page:      chunker.EstimatePage(ps.StartWord, totalWords, pages),
			Embedding: vecs[i],
		}
		progress(StageEmbed, i+1, len(passages))
	}

	m := &store.Material{
		Filename:        src.Filename,
		Title:           Title(src.Filename),
		TotalCharacters: chars,
		EstimatedPages:  pages,
	}
	progress(StagePersist, 0, 1)
	if err := p.repo.CreateMaterial(ctx, m, chunks); err != nil {
		return nil, fmt.Errorf("save material: %w", err)
	}
	progress(StagePersist, 1, 1)

	res := &Result{Material: m, Decoder: decoded.Decoder, OCR: ocr, Duration: time.Since(started)}
	log.Info("material ingested",
		"material_id", m.ID,
		"decoder", decoded.Decoder,
		"pages", pages,
		"chunks", len(chunks),
		"characters", chars,
		"min_words", opts.MinWords,
		"max_words", opts.MaxWords,
		"duration_ms", res.Duration.Milliseconds())
	return res, nil
}

// Title derives a display title from a filename: the base name without
// its extension, separators turned into spaces, in title case.
func Title(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	base = strings.Join(strings.Fields(base), " ")
	if base == "" || base == "." {
		return "Sin título"
	}
	return cases.Title(language.Spanish).String(base)
}

// DetectMIME returns hint when set, then falls back to the file
// extension and finally to content sniffing.
func DetectMIME(filename, hint string, data []byte) string {
	if hint != "" && hint != "application/octet-stream" {
		if mt, _, err := mime.ParseMediaType(hint); err == nil {
			return mt
		}
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return mimePDF
	case ".txt", ".md", ".text":
		return mimePlain
	}
	if mt := mime.TypeByExtension(filepath.Ext(filename)); mt != "" {
		if parsed, _, err := mime.ParseMediaType(mt); err == nil {
			return parsed
		}
	}
	mt, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	return mt
}
