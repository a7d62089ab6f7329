package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/abhisek/repaso/internal/embedding"
)

var materialColumns = []string{"id", "filename", "title", "total_chunks", "total_characters", "estimated_pages", "uploaded_at"}

// CreateMaterial inserts a material and its chunks in one transaction.
// Missing IDs and timestamps are filled in; TotalChunks is set from chunks.
func (s *Store) CreateMaterial(ctx context.Context, m *Material, chunks []Chunk) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.UploadedAt.IsZero() {
		m.UploadedAt = time.Now().UTC()
	}
	m.TotalChunks = len(chunks)

	return s.inTx(ctx, func(tx *sql.Tx) error {
		ins := s.sqlb().Insert("materials").Columns(materialColumns...).
			Values(m.ID, m.Filename, m.Title, m.TotalChunks, m.TotalCharacters, m.EstimatedPages, m.UploadedAt)
		if _, err := exec(ctx, tx, ins); err != nil {
			return fmt.Errorf("insert material: %w", err)
		}
		for i := range chunks {
			c := &chunks[i]
			if c.ID == "" {
				c.ID = uuid.NewString()
			}
			c.MaterialID = m.ID
			if err := s.insertChunk(ctx, tx, c); err != nil {
				return fmt.Errorf("insert chunk %d: %w", c.Index, err)
			}
		}
		return nil
	})
}

func (s *Store) insertChunk(ctx context.Context, tx *sql.Tx, c *Chunk) error {
	if len(c.Embedding) != embedding.Dimensions {
		return fmt.Errorf("embedding has %d dimensions, want %d", len(c.Embedding), embedding.Dimensions)
	}
	cols := []string{"id", "material_id", "chunk_index", "chunk_text", "page", "embedding"}
	vals := []any{c.ID, c.MaterialID, c.Index, c.Text, c.Page, embedding.Encode(c.Embedding)}
	if s.postgres() {
		cols = append(cols, "embedding_vec")
		vals = append(vals, pgvector.NewVector(c.Embedding))
	}
	_, err := exec(ctx, tx, s.sqlb().Insert("chunks").Columns(cols...).Values(vals...))
	return err
}

// GetMaterial returns one material or ErrNotFound.
func (s *Store) GetMaterial(ctx context.Context, id string) (*Material, error) {
	sel := s.sqlb().Select(materialColumns...).From(s.sqlb().Table("materials")).
		Where(entsql.EQ("id", id))
	m, err := scanMaterial(queryRow(ctx, s.db, sel))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("material %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get material: %w", err)
	}
	return m, nil
}

// ListMaterials returns all materials, newest first.
func (s *Store) ListMaterials(ctx context.Context) ([]Material, error) {
	sel := s.sqlb().Select(materialColumns...).From(s.sqlb().Table("materials")).
		OrderBy(entsql.Desc("uploaded_at"), "id")
	rows, err := query(ctx, s.db, sel)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	defer rows.Close()

	var out []Material
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// DeleteMaterial removes a material. Chunks, questions, reviews and jobs
// go with it.
func (s *Store) DeleteMaterial(ctx context.Context, id string) error {
	res, err := exec(ctx, s.db, s.sqlb().Delete("materials").Where(entsql.EQ("id", id)))
	if err != nil {
		return fmt.Errorf("delete material: %w", err)
	}
	return mustAffect(res, "material "+id)
}

// UpdateMaterialTotals rewrites the derived totals of a material.
func (s *Store) UpdateMaterialTotals(ctx context.Context, id string, chunks, characters int) error {
	upd := s.sqlb().Update("materials").
		Set("total_chunks", chunks).
		Set("total_characters", characters).
		Where(entsql.EQ("id", id))
	res, err := exec(ctx, s.db, upd)
	if err != nil {
		return fmt.Errorf("update material totals: %w", err)
	}
	return mustAffect(res, "material "+id)
}

var chunkColumns = []string{"id", "material_id", "chunk_index", "chunk_text", "page", "embedding"}

// ListChunks returns the chunks of a material in index order.
func (s *Store) ListChunks(ctx context.Context, materialID string) ([]Chunk, error) {
	sel := s.sqlb().Select(chunkColumns...).From(s.sqlb().Table("chunks")).
		Where(entsql.EQ("material_id", materialID)).
		OrderBy("chunk_index")
	return s.queryChunks(ctx, sel)
}

// CandidateChunks returns the chunks to score for query. On Postgres the
// k nearest by cosine distance come back from the index; on SQLite every
// chunk is returned and ranking happens in memory.
func (s *Store) CandidateChunks(ctx context.Context, materialID string, q []float32, k int) ([]Chunk, error) {
	if !s.postgres() || len(q) != embedding.Dimensions || k <= 0 {
		return s.ListChunks(ctx, materialID)
	}
	sel := s.sqlb().Select(chunkColumns...).From(s.sqlb().Table("chunks")).
		Where(entsql.EQ("material_id", materialID)).
		OrderExpr(entsql.ExprFunc(func(b *entsql.Builder) {
			b.Ident("embedding_vec").WriteString(" <=> ").Arg(pgvector.NewVector(q))
		})).
		Limit(k)
	return s.queryChunks(ctx, sel)
}

func (s *Store) queryChunks(ctx context.Context, sel *entsql.Selector) ([]Chunk, error) {
	rows, err := query(ctx, s.db, sel)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var out []Chunk
	for rows.Next() {
		var (
			c   Chunk
			raw []byte
		)
		if err := rows.Scan(&c.ID, &c.MaterialID, &c.Index, &c.Text, &c.Page, &raw); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		if c.Embedding, err = embedding.Decode(raw); err != nil {
			return nil, fmt.Errorf("chunk %s: %w", c.ID, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMaterial(r scanner) (*Material, error) {
	var m Material
	err := r.Scan(&m.ID, &m.Filename, &m.Title, &m.TotalChunks, &m.TotalCharacters, &m.EstimatedPages, &m.UploadedAt)
	if err != nil {
		return nil, err
	}
	m.UploadedAt = m.UploadedAt.UTC()
	return &m, nil
}
