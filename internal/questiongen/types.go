package questiongen

// Question types.
const (
	TypeLiteral     = "literal"
	TypeInferential = "inferential"
	TypeOther       = "other"
)

// Difficulty levels.
const (
	DifficultyLow    = "low"
	DifficultyMedium = "medium"
	DifficultyHigh   = "high"
)

// Question is a generated active-recall question with its provenance.
type Question struct {
	// Text always ends with "?".
	Text string `json:"question"`

	// Type is literal or inferential. Questions that match neither
	// pattern list are stored as inferential.
	Type string `json:"question_type"`

	Difficulty string `json:"difficulty"`

	ChunkID    string `json:"chunk_id"`
	ChunkIndex int    `json:"chunk_index"`

	// SourcePreview is the start of the chunk text, at most 150 runes
	// followed by "...".
	SourcePreview string `json:"source_preview"`
}

// GenerateInput holds the chunk a batch of questions is generated for.
type GenerateInput struct {
	MaterialID string
	ChunkID    string
	ChunkIndex int
	Text       string

	// Count is the number of questions to request. Zero uses the
	// configured PerChunk.
	Count int

	// Prior holds question texts already accepted for the material.
	// Generated questions matching one of them, ignoring case, are
	// dropped as duplicates.
	Prior []string
}

// Batch is the outcome of one generation request.
type Batch struct {
	Questions  []Question
	Rejected   []*ValidationError
	Duplicates int
}
