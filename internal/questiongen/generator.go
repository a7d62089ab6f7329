package questiongen

import "context"

// Generator produces questions for one chunk using an LLM provider.
type Generator interface {
	// Generate requests questions for the chunk in input. Questions that
	// fail validation are reported in Batch.Rejected rather than as an
	// error; an error means the request itself failed.
	Generate(ctx context.Context, input GenerateInput) (*Batch, error)
}
