package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

var llmEventColumns = []string{
	"id", "timestamp", "provider", "model", "purpose", "material_id", "chunk_index", "input_tokens", "output_tokens",
	"latency_ms", "success", "error_message", "request_body", "response_body",
}

// AppendLLMRequest records an LLM API call.
func (s *Store) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	ins := s.sqlb().Insert("llm_request_events").Columns(llmEventColumns[1:]...).
		Values(time.Now().UTC(), data.Provider, data.Model, data.Purpose, data.MaterialID, data.ChunkIndex, data.InputTokens, data.OutputTokens,
			data.LatencyMs, data.Success, data.ErrorMessage, data.RequestBody, data.ResponseBody)
	if _, err := exec(ctx, s.db, ins); err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

// ListLLMRequests returns LLM request events, newest first.
func (s *Store) ListLLMRequests(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error) {
	var preds []*entsql.Predicate
	if opts.MaterialID != "" {
		preds = append(preds, entsql.EQ("material_id", opts.MaterialID))
	}
	if opts.Before > 0 {
		preds = append(preds, entsql.LT("id", opts.Before))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("timestamp", opts.From.UTC()))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE("timestamp", opts.To.UTC()))
	}
	sel := s.sqlb().Select(llmEventColumns...).From(s.sqlb().Table("llm_request_events")).
		OrderBy(entsql.Desc("id"))
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	rows, err := query(ctx, s.db, sel)
	if err != nil {
		return nil, fmt.Errorf("list LLM requests: %w", err)
	}
	defer rows.Close()

	var out []LLMRequestEvent
	for rows.Next() {
		e, err := scanLLMEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan LLM request: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// GetLLMRequest returns one event or ErrNotFound.
func (s *Store) GetLLMRequest(ctx context.Context, id int64) (*LLMRequestEvent, error) {
	sel := s.sqlb().Select(llmEventColumns...).From(s.sqlb().Table("llm_request_events")).
		Where(entsql.EQ("id", id))
	e, err := scanLLMEvent(queryRow(ctx, s.db, sel))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("llm request %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get LLM request: %w", err)
	}
	return e, nil
}

// LLMUsage aggregates LLM requests that share a key (purpose or model).
type LLMUsage struct {
	Key          string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// LLMUsageByPurpose groups LLM requests by purpose.
func (s *Store) LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error) {
	return s.llmUsage(ctx, "purpose")
}

// LLMUsageByModel groups LLM requests by model.
func (s *Store) LLMUsageByModel(ctx context.Context) ([]LLMUsage, error) {
	return s.llmUsage(ctx, "model")
}

func (s *Store) llmUsage(ctx context.Context, key string) ([]LLMUsage, error) {
	t := s.sqlb().Table("llm_request_events")
	sel := s.sqlb().Select(
		t.C(key),
		entsql.As(entsql.Count("*"), "calls"),
		entsql.As(entsql.Sum(t.C("input_tokens")), "input_tokens"),
		entsql.As(entsql.Sum(t.C("output_tokens")), "output_tokens"),
		entsql.As(entsql.Avg(t.C("latency_ms")), "avg_latency_ms"),
	).From(t).GroupBy(t.C(key)).OrderBy(t.C(key))

	rows, err := query(ctx, s.db, sel)
	if err != nil {
		return nil, fmt.Errorf("LLM usage by %s: %w", key, err)
	}
	defer rows.Close()

	var out []LLMUsage
	for rows.Next() {
		var (
			u   LLMUsage
			avg float64
		)
		if err := rows.Scan(&u.Key, &u.Calls, &u.InputTokens, &u.OutputTokens, &avg); err != nil {
			return nil, fmt.Errorf("scan LLM usage: %w", err)
		}
		u.AvgLatencyMs = int64(avg)
		out = append(out, u)
	}
	return out, rows.Err()
}

func scanLLMEvent(r scanner) (*LLMRequestEvent, error) {
	var e LLMRequestEvent
	err := r.Scan(&e.ID, &e.Timestamp, &e.Provider, &e.Model, &e.Purpose, &e.MaterialID, &e.ChunkIndex, &e.InputTokens, &e.OutputTokens,
		&e.LatencyMs, &e.Success, &e.ErrorMessage, &e.RequestBody, &e.ResponseBody)
	if err != nil {
		return nil, err
	}
	e.Timestamp = e.Timestamp.UTC()
	return &e, nil
}
