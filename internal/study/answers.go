package study

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/repaso/internal/grading"
	"github.com/abhisek/repaso/internal/retrieval"
	"github.com/abhisek/repaso/internal/spacedrep"
	"github.com/abhisek/repaso/internal/store"
)

// AnswerRequest is a student's answer to grade.
type AnswerRequest struct {
	MaterialID string `json:"material_id"`
	Question   string `json:"question"`
	Answer     string `json:"user_answer"`
	// QuestionID, when set, records the grade as a review of that question.
	QuestionID string `json:"question_id,omitempty"`
}

// AnswerResult is the grading result plus the review it produced, if any.
type AnswerResult struct {
	*grading.Result
	Quality *int                   `json:"quality,omitempty"`
	Review  *spacedrep.ReviewState `json:"review,omitempty"`
}

// ValidateAnswer grades req.Answer against the chunks of req.MaterialID.
func (s *Service) ValidateAnswer(ctx context.Context, userID string, req AnswerRequest) (*AnswerResult, error) {
	if req.MaterialID == "" {
		return nil, invalid("material_id", "is required")
	}
	if strings.TrimSpace(req.Question) == "" && req.QuestionID == "" {
		return nil, invalid("question", "is required")
	}

	var q *store.Question
	if req.QuestionID != "" {
		var err error
		if q, err = s.store.GetQuestion(ctx, req.QuestionID); err != nil {
			return nil, err
		}
		if q.MaterialID != req.MaterialID {
			return nil, invalid("question_id", "question %s does not belong to material %s", q.ID, req.MaterialID)
		}
		if strings.TrimSpace(req.Question) == "" {
			req.Question = q.Text
		}
	}
	if _, err := s.store.GetMaterial(ctx, req.MaterialID); err != nil {
		return nil, err
	}

	started := time.Now()
	result, err := s.grade(ctx, req)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveGrading(string(result.Category), time.Since(started))
	s.log.Debug("answer graded",
		"material_id", req.MaterialID,
		"category", result.Category,
		"confidence", result.Confidence,
		"candidates", result.CandidatesScored)

	out := &AnswerResult{Result: result}
	// A rejected answer was never graded, so the card keeps its state.
	if q != nil && result.Category != grading.Error {
		quality := spacedrep.QualityFor(result.Category)
		rs, err := s.review(ctx, userOrLocal(userID), q.ID, quality)
		if err != nil {
			return nil, err
		}
		out.Quality, out.Review = &quality, rs
	}
	return out, nil
}

func (s *Service) grade(ctx context.Context, req AnswerRequest) (*grading.Result, error) {
	// The answer vector only narrows candidates on Postgres; the
	// validator embeds the answer itself.
	var qvec []float32
	if strings.TrimSpace(req.Answer) != "" {
		v, err := s.embedder.Embed(ctx, req.Answer)
		if err != nil {
			return nil, fmt.Errorf("embed answer: %w", err)
		}
		qvec = v
	}
	rows, err := s.store.CandidateChunks(ctx, req.MaterialID, qvec, retrieval.PrefilterK)
	if err != nil {
		return nil, err
	}
	chunks := make([]grading.Chunk, len(rows))
	for i, c := range rows {
		chunks[i] = grading.Chunk{ID: c.ID, Index: c.Index, Page: c.Page, Text: c.Text, Vector: c.Embedding}
	}
	return s.validator.Validate(ctx, req.Question, req.Answer, chunks)
}

// RecordReview applies an SM-2 step with grade quality to a question.
func (s *Service) RecordReview(ctx context.Context, userID, questionID string, quality int) (*spacedrep.ReviewState, error) {
	if questionID == "" {
		return nil, invalid("question_id", "is required")
	}
	if quality < 0 || quality > spacedrep.MaxQuality {
		return nil, invalid("quality", "must be between 0 and %d, got %d", spacedrep.MaxQuality, quality)
	}
	if _, err := s.store.GetQuestion(ctx, questionID); err != nil {
		return nil, err
	}
	return s.review(ctx, userOrLocal(userID), questionID, quality)
}

func (s *Service) review(ctx context.Context, userID, questionID string, quality int) (*spacedrep.ReviewState, error) {
	today := s.now()
	prev, err := s.store.GetReview(ctx, userID, questionID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		st := spacedrep.NewState(userID, questionID, today)
		prev = &st
	case err != nil:
		return nil, err
	}
	next := spacedrep.Update(*prev, quality, today)
	if err := s.store.UpsertReview(ctx, next); err != nil {
		return nil, err
	}
	s.log.Debug("review recorded",
		"question_id", questionID,
		"quality", quality,
		"interval_days", next.IntervalDays,
		"easiness_factor", next.EF)
	return &next, nil
}

// Due returns the reviews due now for userID, most overdue first.
func (s *Service) Due(ctx context.Context, userID string, limit int) ([]store.DueReview, error) {
	if limit < 0 {
		return nil, invalid("limit", "must not be negative, got %d", limit)
	}
	now := s.now()
	due, err := s.store.DueReviews(ctx, userOrLocal(userID), now, limit)
	if err != nil {
		return nil, err
	}
	if due == nil {
		due = []store.DueReview{}
	}
	for i := range due {
		rs := &due[i].ReviewState
		due[i].ReviewStatus = rs.Status(now)
		due[i].DaysOverdue = int(rs.OverdueDays(now))
	}
	return due, nil
}
