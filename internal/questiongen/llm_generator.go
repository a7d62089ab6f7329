package questiongen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/abhisek/repaso/internal/llm"
)

const previewRunes = 150

// PurposeQuestionGen labels question generation calls in the LLM log.
const PurposeQuestionGen = "question-gen"

// LLMGenerator implements Generator using the LLM provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
}

// New creates a new LLMGenerator with the given provider and config.
func New(provider llm.Provider, cfg Config) *LLMGenerator {
	return &LLMGenerator{provider: provider, config: cfg}
}

// questionsOutput is the raw LLM response before post-processing.
type questionsOutput struct {
	Questions []string `json:"questions"`
}

// Generate requests questions for one chunk and post-processes them.
func (g *LLMGenerator) Generate(ctx context.Context, input GenerateInput) (*Batch, error) {
	ctx = llm.WithOrigin(ctx, llm.Origin{
		Purpose:    PurposeQuestionGen,
		MaterialID: input.MaterialID,
		ChunkIndex: input.ChunkIndex,
	})

	n := input.Count
	if n <= 0 {
		n = g.config.PerChunk
	}
	if n <= 0 {
		n = 2
	}

	req := llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(input, n)},
		},
		Schema:      QuestionsSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	}

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("LLM generation failed: %w", err)
	}

	var raw questionsOutput
	if err := json.Unmarshal([]byte(llm.StripFences(string(resp.Content))), &raw); err != nil {
		return nil, &llm.ErrInvalidResponse{
			Content: resp.Content,
			Err:     fmt.Errorf("failed to parse questions: %w", err),
		}
	}

	return g.process(raw.Questions, input), nil
}

// process turns raw strings into questions: it trims, drops empties and
// duplicates, attaches provenance and runs the validator chain.
func (g *LLMGenerator) process(texts []string, input GenerateInput) *Batch {
	batch := &Batch{}
	seen := newSeenSet(input.Prior)
	preview := Preview(input.Text)

	for _, text := range texts {
		text = EnsureQuestionMark(strings.TrimSpace(text))
		if text == "" {
			continue
		}
		if seen.has(text) {
			batch.Duplicates++
			continue
		}
		kind := Classify(text)
		q := Question{
			Text:          text,
			Type:          StoredType(kind),
			Difficulty:    Difficulty(text, kind),
			ChunkID:       input.ChunkID,
			ChunkIndex:    input.ChunkIndex,
			SourcePreview: preview,
		}
		if verr := g.validate(&q, input); verr != nil {
			batch.Rejected = append(batch.Rejected, verr)
			continue
		}
		seen.add(text)
		batch.Questions = append(batch.Questions, q)
	}
	return batch
}

func (g *LLMGenerator) validate(q *Question, input GenerateInput) *ValidationError {
	for _, v := range g.config.Validators {
		if verr := v.Validate(q, input); verr != nil {
			return verr
		}
	}
	return nil
}

// EnsureQuestionMark appends "?" to non-empty text that lacks one.
func EnsureQuestionMark(text string) string {
	if text == "" || strings.HasSuffix(text, "?") {
		return text
	}
	return text + "?"
}

// Preview returns the first 150 runes of text followed by "...".
func Preview(text string) string {
	if utf8.RuneCountInString(text) <= previewRunes {
		return text + "..."
	}
	return string([]rune(text)[:previewRunes]) + "..."
}
