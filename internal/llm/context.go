package llm

import "context"

// Origin says what an LLM call was made for. LoggingProvider records it
// with every request event.
type Origin struct {
	Purpose    string
	MaterialID string
	// ChunkIndex is -1 when the call is not about a single chunk.
	ChunkIndex int
}

type originKey struct{}

// WithOrigin attaches o to ctx.
func WithOrigin(ctx context.Context, o Origin) context.Context {
	return context.WithValue(ctx, originKey{}, o)
}

// OriginFrom returns the Origin attached to ctx. Calls without one are
// reported with purpose "unknown".
func OriginFrom(ctx context.Context) Origin {
	if o, ok := ctx.Value(originKey{}).(Origin); ok {
		if o.Purpose == "" {
			o.Purpose = "unknown"
		}
		return o
	}
	return Origin{Purpose: "unknown", ChunkIndex: -1}
}
