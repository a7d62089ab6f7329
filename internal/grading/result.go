package grading

// Category is the discrete grade of an answer.
type Category string

const (
	Excellent  Category = "excellent"
	Good       Category = "good"
	Acceptable Category = "acceptable"
	Partial    Category = "partial"
	Incorrect  Category = "incorrect"
	Error      Category = "error"
)

// Passing reports whether the category counts as a correct answer.
func (c Category) Passing() bool {
	return c == Excellent || c == Good || c == Acceptable
}

// Feedback messages shown to the student.
const (
	msgNoChunks   = "No hay chunks disponibles para validacion"
	msgTooShort   = "La respuesta es demasiado corta (minimo 10 caracteres)"
	msgExcellent  = "Excelente! Tu respuesta captura perfectamente el contenido."
	msgGood       = "Muy bien. Tu respuesta es correcta y bien fundamentada."
	msgAcceptable = "Aceptable. Tu respuesta esta en la direccion correcta."
	msgPartial    = "Tu respuesta esta relacionada pero le falta precision."
	msgIncorrect  = "Tu respuesta no coincide con el contenido del material."
)

// Categorize maps a final score in [0, 1] to a category and its feedback.
func (t Thresholds) Categorize(final float64) (Category, string) {
	switch {
	case final >= t.Excellent:
		return Excellent, msgExcellent
	case final >= t.Good:
		return Good, msgGood
	case final >= t.Acceptable:
		return Acceptable, msgAcceptable
	case final >= t.Partial:
		return Partial, msgPartial
	default:
		return Incorrect, msgIncorrect
	}
}

// Components is the per-chunk score breakdown. Values are in [0, 1].
type Components struct {
	BM25     float64 `json:"bm25"`
	Cosine   float64 `json:"cosine"`
	Coverage float64 `json:"coverage"`
	Boost    float64 `json:"boost"`
	Final    float64 `json:"final"`
}

// ChunkRef points at the chunk an answer is closest to.
type ChunkRef struct {
	Text    string `json:"text"`
	Page    int    `json:"page"`
	ChunkID string `json:"chunk_id"`
}

// ScoredChunk is one entry of the top-3 ranking.
type ScoredChunk struct {
	Score         float64    `json:"score"`
	ChunkID       string     `json:"chunk_id"`
	ChunkIndex    int        `json:"chunk_index"`
	Details       Components `json:"details"`
	KeywordsFound []string   `json:"keywords_found"`
}

// Ambiguity reports whether the two best chunks scored too close to call.
type Ambiguity struct {
	IsAmbiguous bool    `json:"is_ambiguous"`
	ScoreDiff   float64 `json:"score_diff"`
	Top1Score   float64 `json:"top1_score"`
	Top2Score   float64 `json:"top2_score"`
	Threshold   float64 `json:"threshold"`
	Reason      string  `json:"reason,omitempty"`
}

// Contradiction reports a negated restatement of the material.
type Contradiction struct {
	Detected   bool    `json:"detected"`
	Sentence   string  `json:"sentence,omitempty"`
	ChunkID    string  `json:"chunk_id,omitempty"`
	Similarity float64 `json:"similarity,omitempty"`
}

// Result is the outcome of grading one answer.
type Result struct {
	IsValid          bool           `json:"is_valid"`
	Confidence       float64        `json:"confidence"`
	Category         Category       `json:"category"`
	Feedback         string         `json:"feedback"`
	BestChunk        *ChunkRef      `json:"best_chunk,omitempty"`
	Top3             []ScoredChunk  `json:"top_3_scores,omitempty"`
	Ambiguity        *Ambiguity     `json:"ambiguity,omitempty"`
	Contradiction    *Contradiction `json:"contradiction,omitempty"`
	Thresholds       *Thresholds    `json:"thresholds,omitempty"`
	WeightsUsed      *Weights       `json:"weights_used,omitempty"`
	ScoringMethod    string         `json:"scoring_method,omitempty"`
	CandidatesScored int            `json:"candidates_scored"`

	// Score is the unrounded final score of the best chunk in [0, 1].
	Score float64 `json:"-"`
}

func errorResult(msg string) *Result {
	return &Result{Category: Error, Feedback: msg}
}
