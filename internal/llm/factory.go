package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/abhisek/repaso/internal/logger"
	"github.com/abhisek/repaso/internal/store"
)

// Option adjusts NewProvider.
type Option func(*options)

type options struct {
	mockScript ScriptFunc
	observer   Observer
}

// WithMockScript sets the responder of the mock provider.
func WithMockScript(fn ScriptFunc) Option {
	return func(o *options) { o.mockScript = fn }
}

// WithMetrics reports every call to o.
func WithMetrics(o Observer) Option {
	return func(opts *options) { opts.observer = o }
}

// NewProvider creates a Provider from configuration.
// It returns the provider wrapped with timeout, retry and logging middleware.
// events may be nil, in which case calls are only logged.
func NewProvider(ctx context.Context, cfg Config, events store.EventRepo, log *logger.Logger, opts ...Option) (Provider, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var base Provider
	var err error

	switch cfg.Provider {
	case ProviderGroq:
		base, err = NewGroqProvider(cfg.Groq)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case ProviderOpenRouter:
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case ProviderMock:
		base = NewMockProvider().WithScript(o.mockScript)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// caller → timeout → retry → logging → base
	logged := WithLogging(base, cfg.Provider, events, log).WithObserver(o.observer)
	retried := WithRetry(logged, cfg.Retry)
	return WithTimeout(retried, cfg.Timeout), nil
}

// TimeoutProvider bounds each Generate call, retries included.
type TimeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// WithTimeout wraps p so every call runs under a deadline. A zero timeout
// returns p unchanged.
func WithTimeout(p Provider, d time.Duration) Provider {
	if d <= 0 {
		return p
	}
	return &TimeoutProvider{inner: p, timeout: d}
}

func (t *TimeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Generate(ctx, req)
}

func (t *TimeoutProvider) ModelID() string {
	return t.inner.ModelID()
}
