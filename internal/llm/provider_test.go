package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestMockProvider_ServesQueueInOrder(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"a":1}`), Usage: Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
		MockResponse{Content: json.RawMessage(`{"b":2}`)},
	)

	resp1, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "first"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp1.Content) != `{"a":1}` {
		t.Fatalf("expected {\"a\":1}, got %s", resp1.Content)
	}
	if resp1.Usage.InputTokens != 10 {
		t.Fatalf("expected 10 input tokens, got %d", resp1.Usage.InputTokens)
	}
	if resp1.StopReason != "end" {
		t.Fatalf("expected stop reason 'end', got %q", resp1.StopReason)
	}

	resp2, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "second"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp2.Content) != `{"b":2}` {
		t.Fatalf("expected {\"b\":2}, got %s", resp2.Content)
	}
}

func TestMockProvider_EmptyQueueReturnsError(t *testing.T) {
	mock := NewMockProvider()
	_, err := mock.Generate(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error from empty queue")
	}
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got: %T", err)
	}
}

func TestMockProvider_RecordsCalls(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{}`)},
	)

	req := Request{
		System:   "sys",
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	}
	_, _ = mock.Generate(context.Background(), req)

	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
	if mock.Requests()[0].System != "sys" {
		t.Fatalf("expected system 'sys', got %q", mock.Requests()[0].System)
	}
}

func TestMockProvider_ReturnsConfiguredError(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrRateLimit{RetryAfter: 0}},
	)

	_, err := mock.Generate(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error")
	}
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected ErrRateLimit, got: %T", err)
	}
}

func TestMockProvider_ModelID(t *testing.T) {
	mock := NewMockProvider()
	if mock.ModelID() != "mock" {
		t.Fatalf("expected 'mock', got %q", mock.ModelID())
	}
}

func TestOriginContext(t *testing.T) {
	ctx := context.Background()
	if o := OriginFrom(ctx); o.Purpose != "unknown" || o.ChunkIndex != -1 {
		t.Fatalf("OriginFrom(empty) = %+v", o)
	}

	ctx = WithOrigin(ctx, Origin{Purpose: "question-gen", MaterialID: "m1", ChunkIndex: 4})
	if o := OriginFrom(ctx); o.Purpose != "question-gen" || o.MaterialID != "m1" || o.ChunkIndex != 4 {
		t.Fatalf("OriginFrom = %+v", o)
	}

	if o := OriginFrom(WithOrigin(context.Background(), Origin{ChunkIndex: 2})); o.Purpose != "unknown" {
		t.Fatalf("empty purpose should read as unknown, got %q", o.Purpose)
	}
}

func TestConfig_Validate(t *testing.T) {
	withKeys := DefaultConfig()
	withKeys.Groq.APIKey = "gsk-test"

	noRetries := withKeys
	noRetries.Retry.MaxAttempts = 0

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"groq without key", DefaultConfig(), "REPASO_GROQ_API_KEY"},
		{"groq with key", withKeys, ""},
		{"openai without key", Config{Provider: ProviderOpenAI}, "REPASO_OPENAI_API_KEY"},
		{"anthropic without key", Config{Provider: ProviderAnthropic}, "REPASO_ANTHROPIC_API_KEY"},
		{"mock needs no key", Config{Provider: ProviderMock}, ""},
		{"unknown provider", Config{Provider: "unknown"}, "REPASO_LLM_PROVIDER"},
		{"no retries", noRetries, "max_attempts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error mentioning %s", err, tt.wantErr)
			}
		})
	}
}

type slowProvider struct{}

func (slowProvider) Generate(ctx context.Context, _ Request) (*Response, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (slowProvider) ModelID() string { return "slow" }

func TestWithTimeout(t *testing.T) {
	p := WithTimeout(slowProvider{}, 20*time.Millisecond)
	_, err := p.Generate(context.Background(), Request{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if p.ModelID() != "slow" {
		t.Errorf("ModelID = %q", p.ModelID())
	}
	if WithTimeout(slowProvider{}, 0) != (slowProvider{}) {
		t.Error("zero timeout should return the provider unchanged")
	}
}

func TestNewProvider_Mock(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Provider: ProviderMock}, nil, nil,
		WithMockScript(func(req Request) (json.RawMessage, error) {
			return json.RawMessage(`{"echo":"` + req.System + `"}`), nil
		}))
	if err != nil {
		t.Fatalf("NewProvider(mock): %v", err)
	}
	if p.ModelID() != MockModel {
		t.Errorf("ModelID = %q", p.ModelID())
	}
	resp, err := p.Generate(context.Background(), Request{System: "hola"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if string(resp.Content) != `{"echo":"hola"}` {
		t.Errorf("Content = %s", resp.Content)
	}
	if _, err := NewProvider(context.Background(), Config{Provider: "nope"}, nil, nil); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestMockProvider_Enqueue(t *testing.T) {
	mock := NewMockProvider()
	mock.Enqueue(MockResponse{Content: json.RawMessage(`{}`)})
	if _, err := mock.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("Generate after Enqueue: %v", err)
	}
}
