package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

var questionColumns = []string{"id", "material_id", "chunk_id", "chunk_index", "text", "type", "difficulty", "created_at"}

// CreateQuestions inserts questions in one transaction, filling in IDs and
// timestamps.
func (s *Store) CreateQuestions(ctx context.Context, qs []Question) error {
	if len(qs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	return s.inTx(ctx, func(tx *sql.Tx) error {
		ins := s.sqlb().Insert("questions").Columns(questionColumns...)
		for i := range qs {
			q := &qs[i]
			if q.ID == "" {
				q.ID = uuid.NewString()
			}
			if q.CreatedAt.IsZero() {
				q.CreatedAt = now
			}
			var chunkID any
			if q.ChunkID != "" {
				chunkID = q.ChunkID
			}
			ins.Values(q.ID, q.MaterialID, chunkID, q.ChunkIndex, q.Text, q.Type, q.Difficulty, q.CreatedAt)
		}
		if _, err := exec(ctx, tx, ins); err != nil {
			return fmt.Errorf("insert questions: %w", err)
		}
		return nil
	})
}

// GetQuestion returns one question or ErrNotFound.
func (s *Store) GetQuestion(ctx context.Context, id string) (*Question, error) {
	sel := s.sqlb().Select(questionColumns...).From(s.sqlb().Table("questions")).
		Where(entsql.EQ("id", id))
	q, err := scanQuestion(queryRow(ctx, s.db, sel))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("question %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get question: %w", err)
	}
	return q, nil
}

// ListQuestions returns questions matching f in material, chunk and
// creation order.
func (s *Store) ListQuestions(ctx context.Context, f QuestionFilter) ([]Question, error) {
	var preds []*entsql.Predicate
	if f.MaterialID != "" {
		preds = append(preds, entsql.EQ("material_id", f.MaterialID))
	}
	if f.Type != "" {
		preds = append(preds, entsql.EQ("type", f.Type))
	}
	if f.Difficulty != "" {
		preds = append(preds, entsql.EQ("difficulty", f.Difficulty))
	}
	sel := s.sqlb().Select(questionColumns...).From(s.sqlb().Table("questions")).
		OrderBy("material_id", "chunk_index", "created_at", "id")
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}

	rows, err := query(ctx, s.db, sel)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var out []Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, *q)
	}
	return out, rows.Err()
}

func scanQuestion(r scanner) (*Question, error) {
	var (
		q       Question
		chunkID sql.NullString
	)
	err := r.Scan(&q.ID, &q.MaterialID, &chunkID, &q.ChunkIndex, &q.Text, &q.Type, &q.Difficulty, &q.CreatedAt)
	if err != nil {
		return nil, err
	}
	q.ChunkID = chunkID.String
	q.CreatedAt = q.CreatedAt.UTC()
	return &q, nil
}
