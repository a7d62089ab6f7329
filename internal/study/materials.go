package study

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/abhisek/repaso/internal/embedding"
	"github.com/abhisek/repaso/internal/ingest"
	"github.com/abhisek/repaso/internal/store"
)

// Accepted upload extensions.
var uploadExts = map[string]bool{".pdf": true, ".txt": true, ".md": true}

// IngestFile stores an uploaded document as a new material.
func (s *Service) IngestFile(ctx context.Context, src ingest.Source, progress ingest.ProgressFunc) (*ingest.Result, error) {
	if strings.TrimSpace(src.Filename) == "" {
		return nil, invalid("file", "a filename is required")
	}
	if ext := strings.ToLower(filepath.Ext(src.Filename)); !uploadExts[ext] {
		return nil, invalid("file", "unsupported file type %q (want .pdf or .txt)", ext)
	}
	if len(src.Data) == 0 {
		return nil, invalid("file", "the file is empty")
	}

	res, err := s.ingest.Ingest(ctx, src, progress)
	if err != nil {
		var derr *ingest.DecodeError
		if errors.As(err, &derr) || errors.Is(err, ingest.ErrEmptyText) {
			return nil, &InputError{Field: "file", Message: err.Error(), Err: err}
		}
		return nil, err
	}
	s.metrics.ObserveIngest(res.Material.TotalChunks, res.Duration)
	return res, nil
}

// Materials lists every material, newest first.
func (s *Service) Materials(ctx context.Context) ([]store.Material, error) {
	ms, err := s.store.ListMaterials(ctx)
	if err != nil {
		return nil, err
	}
	if ms == nil {
		ms = []store.Material{}
	}
	return ms, nil
}

// Material returns one material.
func (s *Service) Material(ctx context.Context, id string) (*store.Material, error) {
	if id == "" {
		return nil, invalid("material_id", "is required")
	}
	return s.store.GetMaterial(ctx, id)
}

// DeleteMaterial removes a material with its chunks, questions and jobs.
func (s *Service) DeleteMaterial(ctx context.Context, id string) error {
	if id == "" {
		return invalid("material_id", "is required")
	}
	if err := s.store.DeleteMaterial(ctx, id); err != nil {
		return err
	}
	s.log.Info("material deleted", "material_id", id)
	return nil
}

// normTolerance is how far a stored embedding norm may drift from 1.
const normTolerance = 1e-3

// ReindexEntry is the outcome of reindexing one material.
type ReindexEntry struct {
	MaterialID string `json:"material_id"`
	Title      string `json:"title"`
	Filename   string `json:"filename"`
	Chunks     int    `json:"total_chunks"`
	Pages      int    `json:"estimated_pages"`
	// Updated is set when the stored chunk total was wrong.
	Updated bool `json:"-"`
	// BadVectors lists chunk indexes whose embedding has the wrong
	// dimension or is not unit length.
	BadVectors []int `json:"-"`
}

// Reindex recounts the chunks of every material, fixes stored totals and
// verifies each embedding.
func (s *Service) Reindex(ctx context.Context) ([]ReindexEntry, error) {
	ms, err := s.store.ListMaterials(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ReindexEntry, 0, len(ms))
	for _, m := range ms {
		chunks, err := s.store.ListChunks(ctx, m.ID)
		if err != nil {
			return nil, fmt.Errorf("material %s: %w", m.ID, err)
		}
		e := ReindexEntry{
			MaterialID: m.ID,
			Title:      m.Title,
			Filename:   m.Filename,
			Chunks:     len(chunks),
			Pages:      m.EstimatedPages,
		}
		for _, c := range chunks {
			if len(c.Embedding) != embedding.Dimensions || math.Abs(embedding.Norm(c.Embedding)-1) > normTolerance {
				e.BadVectors = append(e.BadVectors, c.Index)
			}
		}
		if m.TotalChunks != len(chunks) {
			if err := s.store.UpdateMaterialTotals(ctx, m.ID, len(chunks), m.TotalCharacters); err != nil {
				return nil, err
			}
			e.Updated = true
		}
		if len(e.BadVectors) > 0 {
			s.log.Warn("material has invalid embeddings", "material_id", m.ID, "chunks", e.BadVectors)
		}
		out = append(out, e)
	}
	s.log.Info("reindex finished", "materials", len(out))
	return out, nil
}
