package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/abhisek/repaso/internal/logger"
	"github.com/abhisek/repaso/internal/store"
)

type recordingRepo struct {
	events []store.LLMRequestEventData
	err    error
}

func (r *recordingRepo) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	r.events = append(r.events, data)
	return r.err
}

func TestLoggingProvider_RecordsEvents(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"questions":["¿Por qué?"]}`), Usage: Usage{InputTokens: 12, OutputTokens: 7}},
		MockResponse{Err: &ErrRateLimit{Err: errors.New("slow down")}},
	)
	repo := &recordingRepo{}
	log, logs := logger.NewObserved()
	p := WithLogging(mock, ProviderGroq, repo, log)

	ctx := WithOrigin(context.Background(), Origin{Purpose: "question-gen", MaterialID: "m1", ChunkIndex: 3})
	req := Request{
		System:   "sistema",
		Messages: []Message{{Role: RoleUser, Content: "fragmento"}},
		Schema:   questionsSchema(),
	}
	if _, err := p.Generate(ctx, req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.Generate(ctx, req); err == nil {
		t.Fatal("expected error on second call")
	}

	if len(repo.events) != 2 {
		t.Fatalf("got %d events, want 2", len(repo.events))
	}
	ok, failed := repo.events[0], repo.events[1]
	if !ok.Success || ok.Provider != ProviderGroq || ok.Purpose != "question-gen" || ok.MaterialID != "m1" || ok.ChunkIndex != 3 {
		t.Errorf("first event = %+v", ok)
	}
	if ok.InputTokens != 12 || ok.OutputTokens != 7 || !strings.Contains(ok.ResponseBody, "questions") {
		t.Errorf("first event usage/body = %+v", ok)
	}
	if !strings.Contains(ok.RequestBody, "[system]\nsistema") || !strings.Contains(ok.RequestBody, "[schema: recall-questions-test]") {
		t.Errorf("request body = %q", ok.RequestBody)
	}
	if failed.Success || !strings.Contains(failed.ErrorMessage, "slow down") {
		t.Errorf("second event = %+v", failed)
	}
	if n := logs.FilterMessage("llm request failed").Len(); n != 1 {
		t.Errorf("logged %d failures, want 1", n)
	}
}

func TestLoggingProvider_RepoErrorDoesNotFail(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{}`)})
	log, logs := logger.NewObserved()
	p := WithLogging(mock, ProviderMock, &recordingRepo{err: errors.New("disk full")}, log)

	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if logs.FilterMessage("failed to record LLM request event").Len() != 1 {
		t.Error("expected a warning for the failed event write")
	}
}

type countingObserver struct {
	calls, failures, tokens int
}

func (o *countingObserver) ObserveLLM(_, _ string, ok bool, in, out int, _ time.Duration) {
	o.calls++
	if !ok {
		o.failures++
	}
	o.tokens += in + out
}

func TestLoggingProvider_ObserverAndRejectedContent(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{}`), Usage: Usage{InputTokens: 5, OutputTokens: 2}},
		MockResponse{Err: &ErrInvalidResponse{Content: json.RawMessage(`{"preguntas":[]}`), Err: errors.New("missing questions")}},
	)
	repo := &recordingRepo{}
	obs := &countingObserver{}
	p := WithLogging(mock, ProviderMock, repo, nil).WithObserver(obs)

	_, _ = p.Generate(context.Background(), Request{})
	_, _ = p.Generate(context.Background(), Request{})

	if obs.calls != 2 || obs.failures != 1 || obs.tokens != 7 {
		t.Errorf("observer = %+v", obs)
	}
	if len(repo.events) != 2 || repo.events[1].ResponseBody != `{"preguntas":[]}` {
		t.Errorf("rejected content not recorded: %+v", repo.events)
	}
}
