package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"

	"github.com/abhisek/repaso/internal/embedding"
)

const textSize = 2147483647

var (
	materialsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 36},
		{Name: "filename", Type: field.TypeString},
		{Name: "title", Type: field.TypeString},
		{Name: "total_chunks", Type: field.TypeInt},
		{Name: "total_characters", Type: field.TypeInt},
		{Name: "estimated_pages", Type: field.TypeInt},
		{Name: "uploaded_at", Type: field.TypeTime},
	}
	MaterialsTable = &schema.Table{
		Name:       "materials",
		Columns:    materialsColumns,
		PrimaryKey: []*schema.Column{materialsColumns[0]},
	}

	chunksColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 36},
		{Name: "material_id", Type: field.TypeString, Size: 36},
		{Name: "chunk_index", Type: field.TypeInt},
		{Name: "chunk_text", Type: field.TypeString, Size: textSize},
		{Name: "page", Type: field.TypeInt},
		{Name: "embedding", Type: field.TypeBytes},
	}
	ChunksTable = &schema.Table{
		Name:       "chunks",
		Columns:    chunksColumns,
		PrimaryKey: []*schema.Column{chunksColumns[0]},
		ForeignKeys: []*schema.ForeignKey{{
			Symbol:     "chunks_materials_chunks",
			Columns:    []*schema.Column{chunksColumns[1]},
			RefColumns: []*schema.Column{materialsColumns[0]},
			OnDelete:   schema.Cascade,
		}},
		Indexes: []*schema.Index{{
			Name:    "chunk_material_index",
			Unique:  true,
			Columns: []*schema.Column{chunksColumns[1], chunksColumns[2]},
		}},
	}

	questionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 36},
		{Name: "material_id", Type: field.TypeString, Size: 36},
		{Name: "chunk_id", Type: field.TypeString, Size: 36, Nullable: true},
		{Name: "chunk_index", Type: field.TypeInt},
		{Name: "text", Type: field.TypeString, Size: textSize},
		{Name: "type", Type: field.TypeString},
		{Name: "difficulty", Type: field.TypeString},
		{Name: "created_at", Type: field.TypeTime},
	}
	QuestionsTable = &schema.Table{
		Name:       "questions",
		Columns:    questionsColumns,
		PrimaryKey: []*schema.Column{questionsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "questions_materials_questions",
				Columns:    []*schema.Column{questionsColumns[1]},
				RefColumns: []*schema.Column{materialsColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "questions_chunks_questions",
				Columns:    []*schema.Column{questionsColumns[2]},
				RefColumns: []*schema.Column{chunksColumns[0]},
				OnDelete:   schema.SetNull,
			},
		},
		Indexes: []*schema.Index{{
			Name:    "question_material",
			Columns: []*schema.Column{questionsColumns[1]},
		}},
	}

	reviewsColumns = []*schema.Column{
		{Name: "user_id", Type: field.TypeString},
		{Name: "question_id", Type: field.TypeString, Size: 36},
		{Name: "easiness_factor", Type: field.TypeFloat64},
		{Name: "repetitions", Type: field.TypeInt},
		{Name: "interval_days", Type: field.TypeInt},
		{Name: "next_review", Type: field.TypeTime},
		{Name: "last_review", Type: field.TypeTime, Nullable: true},
		{Name: "last_quality", Type: field.TypeInt},
	}
	ReviewsTable = &schema.Table{
		Name:       "reviews",
		Columns:    reviewsColumns,
		PrimaryKey: []*schema.Column{reviewsColumns[0], reviewsColumns[1]},
		ForeignKeys: []*schema.ForeignKey{{
			Symbol:     "reviews_questions_reviews",
			Columns:    []*schema.Column{reviewsColumns[1]},
			RefColumns: []*schema.Column{questionsColumns[0]},
			OnDelete:   schema.Cascade,
		}},
		Indexes: []*schema.Index{{
			Name:    "review_user_next",
			Columns: []*schema.Column{reviewsColumns[0], reviewsColumns[5]},
		}},
	}

	jobsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 36},
		{Name: "material_id", Type: field.TypeString, Size: 36},
		{Name: "status", Type: field.TypeString},
		{Name: "next_chunk_index", Type: field.TypeInt},
		{Name: "report", Type: field.TypeString, Size: textSize},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	GenerationJobsTable = &schema.Table{
		Name:       "generation_jobs",
		Columns:    jobsColumns,
		PrimaryKey: []*schema.Column{jobsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{{
			Symbol:     "generation_jobs_materials_jobs",
			Columns:    []*schema.Column{jobsColumns[1]},
			RefColumns: []*schema.Column{materialsColumns[0]},
			OnDelete:   schema.Cascade,
		}},
	}

	llmEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "material_id", Type: field.TypeString, Default: ""},
		{Name: "chunk_index", Type: field.TypeInt, Default: -1},
		{Name: "input_tokens", Type: field.TypeInt},
		{Name: "output_tokens", Type: field.TypeInt},
		{Name: "latency_ms", Type: field.TypeInt64},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Size: textSize},
		{Name: "request_body", Type: field.TypeString, Size: textSize},
		{Name: "response_body", Type: field.TypeString, Size: textSize},
	}
	LLMRequestEventsTable = &schema.Table{
		Name:       "llm_request_events",
		Columns:    llmEventsColumns,
		PrimaryKey: []*schema.Column{llmEventsColumns[0]},
	}

	// Tables lists every table in creation order.
	Tables = []*schema.Table{
		MaterialsTable,
		ChunksTable,
		QuestionsTable,
		ReviewsTable,
		GenerationJobsTable,
		LLMRequestEventsTable,
	}
)

func init() {
	ChunksTable.ForeignKeys[0].RefTable = MaterialsTable
	QuestionsTable.ForeignKeys[0].RefTable = MaterialsTable
	QuestionsTable.ForeignKeys[1].RefTable = ChunksTable
	ReviewsTable.ForeignKeys[0].RefTable = QuestionsTable
	GenerationJobsTable.ForeignKeys[0].RefTable = MaterialsTable
}

// Migrate creates or updates the schema. On Postgres it also enables
// pgvector and maintains a vector(384) copy of each chunk embedding used
// for nearest-neighbour ordering.
func (s *Store) Migrate(ctx context.Context) error {
	if s.postgres() {
		if _, err := s.db.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
			return fmt.Errorf("enable pgvector: %w", err)
		}
	}

	m, err := schema.NewMigrate(s.drv)
	if err != nil {
		return fmt.Errorf("new migrate: %w", err)
	}
	if err := m.Create(ctx, Tables...); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}

	if s.postgres() {
		stmts := []string{
			fmt.Sprintf(`ALTER TABLE chunks ADD COLUMN IF NOT EXISTS embedding_vec vector(%d)`, embedding.Dimensions),
			`CREATE INDEX IF NOT EXISTS chunks_embedding_vec_idx ON chunks USING hnsw (embedding_vec vector_cosine_ops)`,
		}
		for _, stmt := range stmts {
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("pgvector column: %w", err)
			}
		}
	}
	return nil
}
