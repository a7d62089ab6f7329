package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/repaso/internal/logger"
	"github.com/abhisek/repaso/internal/store"
)

// Observer receives one sample per LLM call.
type Observer interface {
	ObserveLLM(provider, purpose string, ok bool, inputTokens, outputTokens int, d time.Duration)
}

// LoggingProvider records every call as an event, logs its outcome and
// reports it to an optional Observer.
type LoggingProvider struct {
	inner    Provider
	provider string
	events   store.EventRepo
	observer Observer
	log      *logger.Logger
}

// WithLogging wraps p. events may be nil.
func WithLogging(p Provider, provider string, events store.EventRepo, log *logger.Logger) *LoggingProvider {
	if log == nil {
		log = logger.Nop()
	}
	return &LoggingProvider{inner: p, provider: provider, events: events, log: log}
}

// WithObserver sets the Observer and returns l.
func (l *LoggingProvider) WithObserver(o Observer) *LoggingProvider {
	l.observer = o
	return l
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	origin := OriginFrom(ctx)
	resp, err := l.inner.Generate(ctx, req)
	elapsed := time.Since(start)

	ev := store.LLMRequestEventData{
		Provider:    l.provider,
		Model:       l.inner.ModelID(),
		Purpose:     origin.Purpose,
		MaterialID:  origin.MaterialID,
		ChunkIndex:  origin.ChunkIndex,
		LatencyMs:   elapsed.Milliseconds(),
		Success:     err == nil,
		RequestBody: transcript(req),
	}
	switch {
	case resp != nil:
		ev.InputTokens = resp.Usage.InputTokens
		ev.OutputTokens = resp.Usage.OutputTokens
		ev.ResponseBody = string(resp.Content)
		if resp.Model != "" {
			ev.Model = resp.Model
		}
	case err != nil:
		ev.ErrorMessage = err.Error()
		ev.ResponseBody = string(rejectedContent(err))
	}

	fields := []any{
		"provider", l.provider, "model", ev.Model, "purpose", origin.Purpose,
		"material_id", origin.MaterialID, "chunk_index", origin.ChunkIndex,
		"latency_ms", ev.LatencyMs,
	}
	if err != nil {
		l.log.Warn("llm request failed", append(fields, "error", err)...)
	} else {
		l.log.Debug("llm request", append(fields, "input_tokens", ev.InputTokens, "output_tokens", ev.OutputTokens)...)
	}

	if l.observer != nil {
		l.observer.ObserveLLM(l.provider, origin.Purpose, err == nil, ev.InputTokens, ev.OutputTokens, elapsed)
	}
	if l.events != nil {
		// The event is kept even when the caller gave up on the call.
		if rerr := l.events.AppendLLMRequest(context.WithoutCancel(ctx), ev); rerr != nil {
			l.log.Warn("failed to record LLM request event", "error", rerr)
		}
	}
	return resp, err
}

// rejectedContent returns the model output carried by a validation or
// truncation error.
func rejectedContent(err error) json.RawMessage {
	var (
		invalid *ErrInvalidResponse
		maxTok  *ErrMaxTokensExceeded
	)
	switch {
	case errors.As(err, &invalid):
		return invalid.Content
	case errors.As(err, &maxTok):
		return maxTok.Content
	}
	return nil
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// transcript renders a request as labelled sections for the event log.
func transcript(req Request) string {
	var b strings.Builder

	if req.System != "" {
		b.WriteString("[system]\n")
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}

	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n", m.Role)
		b.WriteString(m.Content)
		b.WriteString("\n\n")
	}

	if req.Schema != nil {
		schemaDef, err := json.Marshal(req.Schema.Definition)
		if err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n", req.Schema.Name)
			b.Write(schemaDef)
			b.WriteString("\n")
		}
	}

	return b.String()
}
