package embedding

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Lazy defers building an Embedder until the first call and keeps it for
// the life of the process. Calls into the underlying encoder are
// serialized.
type Lazy struct {
	dims  int
	model string
	build func() (Embedder, error)

	once  sync.Once
	e     Embedder
	err   error
	ready atomic.Bool

	mu sync.Mutex
}

// NewLazy returns a handle that calls build on first use. dims and model
// describe what build will produce so they can be reported before loading.
func NewLazy(dims int, model string, build func() (Embedder, error)) *Lazy {
	return &Lazy{dims: dims, model: model, build: build}
}

func (l *Lazy) load() (Embedder, error) {
	l.once.Do(func() {
		l.e, l.err = l.build()
		if l.err == nil && l.e.Dimensions() != l.dims {
			l.err = fmt.Errorf("embedder %s produces %d dimensions, want %d", l.e.Model(), l.e.Dimensions(), l.dims)
		}
		l.ready.Store(l.err == nil)
	})
	return l.e, l.err
}

// Loaded reports whether the encoder has been built successfully.
func (l *Lazy) Loaded() bool { return l.ready.Load() }

func (l *Lazy) Dimensions() int { return l.dims }
func (l *Lazy) Model() string   { return l.model }

func (l *Lazy) Embed(ctx context.Context, text string) ([]float32, error) {
	e, err := l.load()
	if err != nil {
		return nil, fmt.Errorf("load embedder: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return e.Embed(ctx, text)
}

func (l *Lazy) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e, err := l.load()
	if err != nil {
		return nil, fmt.Errorf("load embedder: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return e.EmbedBatch(ctx, texts)
}
