package llm

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// MockModel is the model id reported by MockProvider.
const MockModel = "mock"

// MockResponse is one queued answer of a MockProvider.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// ScriptFunc answers a request once the queue of a MockProvider is empty.
type ScriptFunc func(req Request) (json.RawMessage, error)

// MockProvider serves queued responses in order and records every
// request. With an empty queue it calls its script, or fails with
// ErrProviderUnavailable when there is none.
type MockProvider struct {
	mu        sync.Mutex
	responses []MockResponse
	requests  []Request
	script    ScriptFunc
}

// NewMockProvider creates a MockProvider with the given queue.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses}
}

// WithScript sets the function that answers requests after the queue.
func (m *MockProvider) WithScript(fn ScriptFunc) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = fn
	return m
}

func (m *MockProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.requests = append(m.requests, req)
	var (
		next   MockResponse
		queued = len(m.responses) > 0
		script = m.script
	)
	if queued {
		next, m.responses = m.responses[0], m.responses[1:]
	}
	m.mu.Unlock()

	switch {
	case queued && next.Err != nil:
		return nil, next.Err
	case queued:
	case script != nil:
		content, err := script(req)
		if err != nil {
			return nil, err
		}
		next = MockResponse{Content: content, Usage: estimateUsage(req, content)}
	default:
		return nil, &ErrProviderUnavailable{Err: errors.New("mock provider has no responses left")}
	}

	return &Response{Content: next.Content, Usage: next.Usage, Model: MockModel, StopReason: "end"}, nil
}

func (m *MockProvider) ModelID() string { return MockModel }

// Enqueue appends responses to the queue.
func (m *MockProvider) Enqueue(responses ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, responses...)
}

// Requests returns a copy of the requests received so far.
func (m *MockProvider) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// CallCount returns the number of Generate calls.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// estimateUsage approximates token counts at four bytes per token.
func estimateUsage(req Request, content json.RawMessage) Usage {
	in := len(req.System)
	for _, msg := range req.Messages {
		in += len(msg.Content)
	}
	u := Usage{InputTokens: in / 4, OutputTokens: len(content) / 4}
	u.TotalTokens = u.InputTokens + u.OutputTokens
	return u
}
