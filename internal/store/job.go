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

var jobColumns = []string{"id", "material_id", "status", "next_chunk_index", "report", "created_at", "updated_at"}

// CreateJob inserts a generation job.
func (s *Store) CreateJob(ctx context.Context, j *GenerationJob) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	j.CreatedAt, j.UpdatedAt = now, now
	if j.Status == "" {
		j.Status = JobRunning
	}
	ins := s.sqlb().Insert("generation_jobs").Columns(jobColumns...).
		Values(j.ID, j.MaterialID, j.Status, j.NextChunkIndex, string(j.Report), j.CreatedAt, j.UpdatedAt)
	if _, err := exec(ctx, s.db, ins); err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// GetJob returns one job or ErrNotFound.
func (s *Store) GetJob(ctx context.Context, id string) (*GenerationJob, error) {
	sel := s.sqlb().Select(jobColumns...).From(s.sqlb().Table("generation_jobs")).
		Where(entsql.EQ("id", id))
	var (
		j      GenerationJob
		report string
	)
	err := queryRow(ctx, s.db, sel).Scan(&j.ID, &j.MaterialID, &j.Status, &j.NextChunkIndex, &report, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	if report != "" {
		j.Report = []byte(report)
	}
	j.CreatedAt, j.UpdatedAt = j.CreatedAt.UTC(), j.UpdatedAt.UTC()
	return &j, nil
}

// UpdateJob saves status, progress and report of a job.
func (s *Store) UpdateJob(ctx context.Context, j *GenerationJob) error {
	j.UpdatedAt = time.Now().UTC()
	upd := s.sqlb().Update("generation_jobs").
		Set("status", j.Status).
		Set("next_chunk_index", j.NextChunkIndex).
		Set("report", string(j.Report)).
		Set("updated_at", j.UpdatedAt).
		Where(entsql.EQ("id", j.ID))
	res, err := exec(ctx, s.db, upd)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return mustAffect(res, "job "+j.ID)
}
