package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/abhisek/repaso/internal/spacedrep"
)

// Material is one ingested document. It is immutable once stored, apart
// from totals rebuilt by reindexing.
type Material struct {
	ID              string    `json:"id"`
	Filename        string    `json:"filename"`
	Title           string    `json:"title"`
	TotalChunks     int       `json:"total_chunks"`
	TotalCharacters int       `json:"total_characters"`
	EstimatedPages  int       `json:"estimated_pages"`
	UploadedAt      time.Time `json:"uploaded_at"`
}

// Chunk is a passage of a material with its embedding.
type Chunk struct {
	ID         string    `json:"id"`
	MaterialID string    `json:"material_id"`
	Index      int       `json:"chunk_index"`
	Text       string    `json:"chunk_text"`
	Page       int       `json:"page"`
	Embedding  []float32 `json:"-"`
}

// Question is a generated question. ChunkID is empty once its chunk is
// gone.
type Question struct {
	ID         string    `json:"id"`
	MaterialID string    `json:"material_id"`
	ChunkID    string    `json:"chunk_id,omitempty"`
	ChunkIndex int       `json:"chunk_index"`
	Text       string    `json:"question"`
	Type       string    `json:"type"`
	Difficulty string    `json:"difficulty"`
	CreatedAt  time.Time `json:"created_at"`
}

// QuestionFilter narrows ListQuestions. Empty fields match everything.
type QuestionFilter struct {
	MaterialID string
	Type       string
	Difficulty string
}

// DueReview is a review state joined with its question. ReviewStatus and
// DaysOverdue are filled in relative to the time of the query.
type DueReview struct {
	spacedrep.ReviewState
	Question     string                 `json:"question"`
	MaterialID   string                 `json:"material_id"`
	ReviewStatus spacedrep.ReviewStatus `json:"status"`
	DaysOverdue  int                    `json:"days_overdue"`
}

// Job statuses.
const (
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// GenerationJob tracks a resumable question generation run.
type GenerationJob struct {
	ID             string          `json:"id"`
	MaterialID     string          `json:"material_id"`
	Status         string          `json:"status"`
	NextChunkIndex int             `json:"next_chunk_index"`
	Report         json.RawMessage `json:"report,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Stats are aggregate counts for one user.
type Stats struct {
	Materials    int `json:"total_materials"`
	Chunks       int `json:"total_chunks"`
	Questions    int `json:"total_questions"`
	Reviews      int `json:"total_reviews"`
	DueToday     int `json:"due_today"`
	LLMRequests  int `json:"llm_requests"`
	LLMTokensIn  int `json:"llm_input_tokens"`
	LLMTokensOut int `json:"llm_output_tokens"`
}

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit      int       // max results (0 = unlimited)
	Before     int64     // id < Before
	From       time.Time // timestamp >= From
	To         time.Time // timestamp <= To
	MaterialID string    // only calls made for this material
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	Purpose    string `json:"purpose"`
	MaterialID string `json:"material_id,omitempty"`
	// ChunkIndex is -1 when the call was not made for a chunk.
	ChunkIndex   int    `json:"chunk_index"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	LatencyMs    int64  `json:"latency_ms"`
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
	RequestBody  string `json:"request_body,omitempty"`
	ResponseBody string `json:"response_body,omitempty"`
}

// LLMRequestEvent is a stored LLM request.
type LLMRequestEvent struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	LLMRequestEventData
}

// EventRepo provides append access to LLM request events.
type EventRepo interface {
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
}

// MaterialRepo stores materials and their chunks.
type MaterialRepo interface {
	CreateMaterial(ctx context.Context, m *Material, chunks []Chunk) error
	GetMaterial(ctx context.Context, id string) (*Material, error)
	ListMaterials(ctx context.Context) ([]Material, error)
	DeleteMaterial(ctx context.Context, id string) error
	ListChunks(ctx context.Context, materialID string) ([]Chunk, error)
	CandidateChunks(ctx context.Context, materialID string, query []float32, k int) ([]Chunk, error)
}

// QuestionRepo stores generated questions.
type QuestionRepo interface {
	CreateQuestions(ctx context.Context, qs []Question) error
	GetQuestion(ctx context.Context, id string) (*Question, error)
	ListQuestions(ctx context.Context, f QuestionFilter) ([]Question, error)
}

// ReviewRepo stores SM-2 review states.
type ReviewRepo interface {
	GetReview(ctx context.Context, userID, questionID string) (*spacedrep.ReviewState, error)
	UpsertReview(ctx context.Context, rs spacedrep.ReviewState) error
	DueReviews(ctx context.Context, userID string, now time.Time, limit int) ([]DueReview, error)
}

// JobRepo stores question generation jobs.
type JobRepo interface {
	CreateJob(ctx context.Context, j *GenerationJob) error
	GetJob(ctx context.Context, id string) (*GenerationJob, error)
	UpdateJob(ctx context.Context, j *GenerationJob) error
}

var (
	_ EventRepo    = (*Store)(nil)
	_ MaterialRepo = (*Store)(nil)
	_ QuestionRepo = (*Store)(nil)
	_ ReviewRepo   = (*Store)(nil)
	_ JobRepo      = (*Store)(nil)
)
