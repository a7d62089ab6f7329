package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func gradedSchema() *Schema {
	return &Schema{
		Name:        "test-graded-item",
		Description: "A graded study item",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"question":   map[string]any{"type": "string", "minLength": 1},
				"chunk":      map[string]any{"type": "integer", "minimum": 0},
				"difficulty": map[string]any{"type": "string", "enum": []any{"low", "medium", "high"}},
			},
			"required": []any{"question", "chunk"},
		},
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"question":"¿Por qué?","chunk":2,"difficulty":"high"}`, false},
		{"optional omitted", `{"question":"¿Qué es?","chunk":0}`, false},
		{"missing required", `{"question":"¿Qué es?"}`, true},
		{"wrong type", `{"question":"¿Qué es?","chunk":"dos"}`, true},
		{"bad enum", `{"question":"¿Qué es?","chunk":1,"difficulty":"extreme"}`, true},
		{"empty string", `{"question":"","chunk":1}`, true},
		{"malformed", `{not json}`, true},
		{"empty", ``, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(gradedSchema(), json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateResponse(%s) = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if err != nil {
				var inv *ErrInvalidResponse
				if !errors.As(err, &inv) {
					t.Fatalf("expected ErrInvalidResponse, got %T", err)
				}
			}
		})
	}
}

func TestValidateResponse_NilSchema(t *testing.T) {
	if err := validateResponse(nil, json.RawMessage(`{"anything":"goes"}`)); err != nil {
		t.Fatalf("expected no error with nil schema, got: %v", err)
	}
}

func TestValidateResponse_QuestionsArray(t *testing.T) {
	s := questionsSchema()
	if err := validateResponse(s, json.RawMessage(`{"questions":["a","b"]}`)); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if err := validateResponse(s, json.RawMessage(`{"questions":[1,2]}`)); err == nil {
		t.Fatal("expected error for non-string items")
	}
	if err := validateResponse(s, json.RawMessage(`{"questions":[],"extra":true}`)); err == nil {
		t.Fatal("expected error for additional property")
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct{ in, want string }{
		{`{"a":1}`, `{"a":1}`},
		{"  {\"a\":1}\n", `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"```{\"a\":1}```", `{"a":1}`},
		{"```JSON\n[1]\n```  ", `[1]`},
		{"Aquí tienes las preguntas:\n{\"questions\":[]}\nEspero que sirvan.", `{"questions":[]}`},
		{"sin json", "sin json"},
	}
	for _, tt := range tests {
		if got := StripFences(tt.in); got != tt.want {
			t.Errorf("StripFences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
