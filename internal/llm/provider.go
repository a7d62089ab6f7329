// Package llm talks to the language model providers used for question
// generation and records every call.
package llm

import (
	"context"
	"encoding/json"
)

// Provider sends one request to a model. When the request carries a
// Schema, the returned Content is JSON that satisfies it.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	ModelID() string
}

// Request is a single-turn or multi-turn prompt.
type Request struct {
	System   string
	Messages []Message

	// Schema constrains the output. Nil means free text.
	Schema *Schema

	MaxTokens int

	// Temperature is in [0, 1]. Zero leaves the provider default.
	Temperature float64
}

// Message is one turn of the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is a named JSON Schema. Name doubles as the cache key of the
// compiled validator.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Response is the output of one call.
type Response struct {
	Content json.RawMessage
	Usage   Usage

	// Model is the model that actually served the call.
	Model string

	// StopReason is "end" or "max_tokens".
	StopReason string
}

// Usage is the token count of one call.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
