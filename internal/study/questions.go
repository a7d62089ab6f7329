package study

import (
	"context"

	"github.com/abhisek/repaso/internal/metrics"
	"github.com/abhisek/repaso/internal/questiongen"
	"github.com/abhisek/repaso/internal/store"
)

// GenerateRequest scopes a question generation run.
type GenerateRequest struct {
	PerChunk    int    `json:"per_chunk,omitempty"`
	MaxChunks   int    `json:"max_chunks,omitempty"`
	ResumeJobID string `json:"resume_job_id,omitempty"`
}

// MaxPerChunk bounds GenerateRequest.PerChunk.
const MaxPerChunk = 10

// GenerateQuestions runs a question generation job over a material.
func (s *Service) GenerateQuestions(ctx context.Context, materialID string, req GenerateRequest, progress questiongen.ProgressFunc) (*questiongen.Report, error) {
	if materialID == "" {
		return nil, invalid("material_id", "is required")
	}
	if req.PerChunk < 0 || req.PerChunk > MaxPerChunk {
		return nil, invalid("per_chunk", "must be between 1 and %d, got %d", MaxPerChunk, req.PerChunk)
	}
	if req.MaxChunks < 0 {
		return nil, invalid("max_chunks", "must not be negative, got %d", req.MaxChunks)
	}
	if s.gen == nil {
		return nil, ErrGenerationDisabled
	}
	if _, err := s.store.GetMaterial(ctx, materialID); err != nil {
		return nil, err
	}
	chunks, err := s.store.ListChunks(ctx, materialID)
	if err != nil {
		return nil, err
	}

	job := questiongen.NewJob(s.gen, s.store, s.qcfg, s.log)
	return job.Run(ctx, materialID, chunks, questiongen.RunOptions{
		PerChunk:    req.PerChunk,
		MaxChunks:   req.MaxChunks,
		ResumeJobID: req.ResumeJobID,
	}, func(o questiongen.ChunkOutcome) {
		if o.Err != nil {
			s.metrics.AddQuestions(metrics.OutcomeFailed, 1)
		}
		s.metrics.AddQuestions(metrics.OutcomeCreated, o.Created)
		s.metrics.AddQuestions(metrics.OutcomeRejected, o.Rejected)
		s.metrics.AddQuestions(metrics.OutcomeDuplicate, o.Duplicates)
		if progress != nil {
			progress(o)
		}
	})
}

// Questions lists stored questions matching f.
func (s *Service) Questions(ctx context.Context, f store.QuestionFilter) ([]store.Question, error) {
	switch f.Type {
	case "", questiongen.TypeLiteral, questiongen.TypeInferential:
	default:
		return nil, invalid("type", "must be literal or inferential, got %q", f.Type)
	}
	switch f.Difficulty {
	case "", questiongen.DifficultyLow, questiongen.DifficultyMedium, questiongen.DifficultyHigh:
	default:
		return nil, invalid("difficulty", "must be low, medium or high, got %q", f.Difficulty)
	}
	qs, err := s.store.ListQuestions(ctx, f)
	if err != nil {
		return nil, err
	}
	if qs == nil {
		qs = []store.Question{}
	}
	return qs, nil
}
