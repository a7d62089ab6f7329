// Package study is the use-case layer shared by the HTTP server, the CLI
// and the terminal client. It validates input, calls the components and
// records metrics.
package study

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/repaso/internal/embedding"
	"github.com/abhisek/repaso/internal/grading"
	"github.com/abhisek/repaso/internal/ingest"
	"github.com/abhisek/repaso/internal/logger"
	"github.com/abhisek/repaso/internal/metrics"
	"github.com/abhisek/repaso/internal/questiongen"
	"github.com/abhisek/repaso/internal/store"
)

// LocalUser is the user id when requests are not authenticated.
const LocalUser = "local"

// ErrGenerationDisabled is returned when no LLM provider is configured.
var ErrGenerationDisabled = errors.New("question generation is not configured")

// InputError is a request the caller can fix.
type InputError struct {
	Field   string
	Message string
	Err     error
}

func (e *InputError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *InputError) Unwrap() error { return e.Err }

func invalid(field, format string, args ...any) error {
	return &InputError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Store is the persistence the service needs.
type Store interface {
	store.MaterialRepo
	store.QuestionRepo
	store.ReviewRepo
	store.JobRepo
	UpdateMaterialTotals(ctx context.Context, id string, chunks, characters int) error
	QuestionTexts(ctx context.Context, materialID string) ([]string, error)
	Stats(ctx context.Context, userID string, now time.Time) (*store.Stats, error)
}

// Deps are the collaborators of a Service. Generator may be nil, in which
// case GenerateQuestions returns ErrGenerationDisabled.
type Deps struct {
	Store     Store
	Embedder  embedding.Embedder
	Validator *grading.Validator
	Ingest    *ingest.Pipeline
	Generator questiongen.Generator
	Questions questiongen.Config
	Metrics   *metrics.Metrics
	Logger    *logger.Logger
}

// Service implements the study operations.
type Service struct {
	store     Store
	embedder  embedding.Embedder
	validator *grading.Validator
	ingest    *ingest.Pipeline
	gen       questiongen.Generator
	qcfg      questiongen.Config
	metrics   *metrics.Metrics
	log       *logger.Logger
	now       func() time.Time
}

// New creates a Service.
func New(d Deps) *Service {
	log := d.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		store:     d.Store,
		embedder:  d.Embedder,
		validator: d.Validator,
		ingest:    d.Ingest,
		gen:       d.Generator,
		qcfg:      d.Questions,
		metrics:   d.Metrics,
		log:       log,
		now:       time.Now,
	}
}

// ModelLoaded reports whether the embedder has been initialized.
func (s *Service) ModelLoaded() bool {
	if l, ok := s.embedder.(interface{ Loaded() bool }); ok {
		return l.Loaded()
	}
	return s.embedder != nil
}

// Stats returns aggregate counts for userID.
func (s *Service) Stats(ctx context.Context, userID string) (*store.Stats, error) {
	return s.store.Stats(ctx, userOrLocal(userID), s.now())
}

func userOrLocal(id string) string {
	if id == "" {
		return LocalUser
	}
	return id
}
