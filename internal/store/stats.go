package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// Stats returns aggregate counts. Review counts are for userID.
func (s *Store) Stats(ctx context.Context, userID string, now time.Time) (*Stats, error) {
	var st Stats
	counts := []struct {
		dst   *int
		table string
		where *entsql.Predicate
	}{
		{&st.Materials, "materials", nil},
		{&st.Chunks, "chunks", nil},
		{&st.Questions, "questions", nil},
		{&st.Reviews, "reviews", entsql.EQ("user_id", userID)},
		{&st.DueToday, "reviews", entsql.And(entsql.EQ("user_id", userID), entsql.LTE("next_review", now.UTC()))},
		{&st.LLMRequests, "llm_request_events", nil},
	}
	for _, c := range counts {
		sel := s.sqlb().Select(entsql.Count("*")).From(s.sqlb().Table(c.table))
		if c.where != nil {
			sel.Where(c.where)
		}
		if err := queryRow(ctx, s.db, sel).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("count %s: %w", c.table, err)
		}
	}

	sel := s.sqlb().Select(entsql.Sum("input_tokens"), entsql.Sum("output_tokens")).
		From(s.sqlb().Table("llm_request_events"))
	var in, out sql.NullInt64
	if err := queryRow(ctx, s.db, sel).Scan(&in, &out); err != nil {
		return nil, fmt.Errorf("sum tokens: %w", err)
	}
	st.LLMTokensIn, st.LLMTokensOut = int(in.Int64), int(out.Int64)
	return &st, nil
}

// QuestionTexts returns the text of every question stored for a material.
func (s *Store) QuestionTexts(ctx context.Context, materialID string) ([]string, error) {
	sel := s.sqlb().Select("text").From(s.sqlb().Table("questions")).
		Where(entsql.EQ("material_id", materialID))
	rows, err := query(ctx, s.db, sel)
	if err != nil {
		return nil, fmt.Errorf("question texts: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
