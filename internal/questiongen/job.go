package questiongen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/abhisek/repaso/internal/logger"
	"github.com/abhisek/repaso/internal/store"
)

// Store is the persistence a Job needs.
type Store interface {
	store.QuestionRepo
	store.JobRepo
	QuestionTexts(ctx context.Context, materialID string) ([]string, error)
}

// RunOptions scopes one run of a job.
type RunOptions struct {
	// PerChunk overrides Config.PerChunk when positive.
	PerChunk int

	// MaxChunks caps the chunks processed by this run. Zero means all.
	// A run stopped by the cap leaves the job running so it can resume.
	MaxChunks int

	// ResumeJobID continues an earlier job from its next chunk index.
	ResumeJobID string
}

// ChunkOutcome is reported to the progress callback after each chunk.
type ChunkOutcome struct {
	ChunkIndex int
	Done       int
	Total      int
	Created    int
	Rejected   int
	Duplicates int
	Err        error
}

// ProgressFunc receives per-chunk outcomes.
type ProgressFunc func(ChunkOutcome)

// ChunkFailure records a chunk whose request failed.
type ChunkFailure struct {
	ChunkIndex int    `json:"chunk_index"`
	Error      string `json:"error"`
}

// Report summarizes a job across all of its runs.
type Report struct {
	JobID            string         `json:"job_id"`
	MaterialID       string         `json:"material_id"`
	Status           string         `json:"status"`
	StartIndex       int            `json:"start_index"`
	NextChunkIndex   int            `json:"next_chunk_index"`
	TotalChunks      int            `json:"total_chunks"`
	ChunksProcessed  int            `json:"chunks_processed"`
	QuestionsCreated int            `json:"questions_created"`
	Rejected         int            `json:"rejected"`
	Duplicates       int            `json:"duplicates"`
	Failures         []ChunkFailure `json:"failures,omitempty"`
	DurationMs       int64          `json:"duration_ms"`
}

// Job generates questions for the chunks of a material, one chunk at a
// time, and persists progress so an interrupted run can resume.
type Job struct {
	gen   Generator
	store Store
	cfg   Config
	log   *logger.Logger
	sleep func(ctx context.Context, d time.Duration) error
}

// NewJob creates a Job. cfg supplies PerChunk and Delay.
func NewJob(gen Generator, st Store, cfg Config, log *logger.Logger) *Job {
	if log == nil {
		log = logger.Nop()
	}
	return &Job{gen: gen, store: st, cfg: cfg, log: log, sleep: sleepCtx}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run processes chunks of materialID in index order. A failed chunk is
// recorded in the report and the run continues. The returned error is
// non-nil only when the job cannot be loaded or saved, or ctx ends.
func (j *Job) Run(ctx context.Context, materialID string, chunks []store.Chunk, opts RunOptions, progress ProgressFunc) (*Report, error) {
	started := time.Now()

	job, report, err := j.load(ctx, materialID, opts.ResumeJobID)
	if err != nil {
		return nil, err
	}
	if job.Status == store.JobCompleted {
		return report, nil
	}

	sorted := append([]store.Chunk(nil), chunks...)
	sort.Slice(sorted, func(a, b int) bool { return sorted[a].Index < sorted[b].Index })
	pending := sorted[:0]
	for _, c := range sorted {
		if c.Index >= job.NextChunkIndex {
			pending = append(pending, c)
		}
	}
	if opts.MaxChunks > 0 && len(pending) > opts.MaxChunks {
		pending = pending[:opts.MaxChunks]
	}
	report.TotalChunks = len(sorted)

	prior, err := j.store.QuestionTexts(ctx, materialID)
	if err != nil {
		return nil, fmt.Errorf("load existing questions: %w", err)
	}

	log := j.log.With("job_id", job.ID, "material_id", materialID)
	log.Info("question job started", "start_index", job.NextChunkIndex, "chunks", len(pending))

	perChunk := opts.PerChunk
	if perChunk <= 0 {
		perChunk = j.cfg.PerChunk
	}

	var runErr error
	for i, c := range pending {
		if i > 0 {
			if err := j.sleep(ctx, j.cfg.Delay); err != nil {
				runErr = err
				break
			}
		}
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		out := ChunkOutcome{ChunkIndex: c.Index, Done: i + 1, Total: len(pending)}
		batch, err := j.gen.Generate(ctx, GenerateInput{
			MaterialID: materialID,
			ChunkID:    c.ID,
			ChunkIndex: c.Index,
			Text:       c.Text,
			Count:      perChunk,
			Prior:      prior,
		})
		if err == nil {
			err = j.persist(ctx, materialID, batch)
		}
		if err != nil {
			if ctx.Err() != nil {
				runErr = ctx.Err()
				break
			}
			out.Err = err
			report.Failures = append(report.Failures, ChunkFailure{ChunkIndex: c.Index, Error: err.Error()})
			log.Warn("question generation failed for chunk", "chunk_index", c.Index, "error", err)
		} else {
			out.Created = len(batch.Questions)
			out.Rejected = len(batch.Rejected)
			out.Duplicates = batch.Duplicates
			report.QuestionsCreated += out.Created
			report.Rejected += out.Rejected
			report.Duplicates += out.Duplicates
			for _, q := range batch.Questions {
				prior = append(prior, q.Text)
			}
			for _, verr := range batch.Rejected {
				log.Debug("question rejected", "chunk_index", c.Index, "validator", verr.Validator, "reason", verr.Message)
			}
		}

		report.ChunksProcessed++
		job.NextChunkIndex = c.Index + 1
		if err := j.save(ctx, job, report); err != nil {
			return nil, err
		}
		if progress != nil {
			progress(out)
		}
	}

	switch {
	case runErr != nil:
		job.Status = store.JobFailed
	case len(sorted) == 0 || job.NextChunkIndex > sorted[len(sorted)-1].Index:
		job.Status = store.JobCompleted
	default:
		job.Status = store.JobRunning
	}
	report.DurationMs += time.Since(started).Milliseconds()

	// A cancelled ctx must not prevent recording where the job stopped.
	saveCtx := ctx
	if runErr != nil {
		var cancel context.CancelFunc
		saveCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
	}
	if err := j.save(saveCtx, job, report); err != nil {
		return nil, errors.Join(runErr, err)
	}

	log.Info("question job finished",
		"status", job.Status,
		"created", report.QuestionsCreated,
		"failures", len(report.Failures),
		"next_chunk_index", job.NextChunkIndex)

	if runErr != nil {
		return report, fmt.Errorf("question job %s interrupted: %w", job.ID, runErr)
	}
	return report, nil
}

func (j *Job) load(ctx context.Context, materialID, resumeID string) (*store.GenerationJob, *Report, error) {
	if resumeID == "" {
		job := &store.GenerationJob{MaterialID: materialID, Status: store.JobRunning}
		if err := j.store.CreateJob(ctx, job); err != nil {
			return nil, nil, fmt.Errorf("create job: %w", err)
		}
		return job, &Report{JobID: job.ID, MaterialID: materialID, Status: job.Status}, nil
	}

	job, err := j.store.GetJob(ctx, resumeID)
	if err != nil {
		return nil, nil, fmt.Errorf("resume job: %w", err)
	}
	if job.MaterialID != materialID {
		return nil, nil, fmt.Errorf("job %s belongs to material %s, not %s", job.ID, job.MaterialID, materialID)
	}
	report := &Report{}
	if len(job.Report) > 0 {
		if err := json.Unmarshal(job.Report, report); err != nil {
			return nil, nil, fmt.Errorf("decode report of job %s: %w", job.ID, err)
		}
	}
	report.JobID, report.MaterialID, report.Status = job.ID, materialID, job.Status
	report.StartIndex = job.NextChunkIndex
	if job.Status != store.JobCompleted {
		job.Status = store.JobRunning
	}
	return job, report, nil
}

func (j *Job) persist(ctx context.Context, materialID string, batch *Batch) error {
	if len(batch.Questions) == 0 {
		return nil
	}
	rows := make([]store.Question, len(batch.Questions))
	for i, q := range batch.Questions {
		rows[i] = store.Question{
			MaterialID: materialID,
			ChunkID:    q.ChunkID,
			ChunkIndex: q.ChunkIndex,
			Text:       q.Text,
			Type:       q.Type,
			Difficulty: q.Difficulty,
		}
	}
	if err := j.store.CreateQuestions(ctx, rows); err != nil {
		return fmt.Errorf("save questions: %w", err)
	}
	return nil
}

func (j *Job) save(ctx context.Context, job *store.GenerationJob, report *Report) error {
	report.Status = job.Status
	report.NextChunkIndex = job.NextChunkIndex
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	job.Report = raw
	if err := j.store.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("save job: %w", err)
	}
	return nil
}
