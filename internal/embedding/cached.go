package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/abhisek/repaso/internal/textnorm"
)

// Cached decorates an Embedder with a Cache. Cache failures never fail an
// embedding call; they are passed to OnError when set.
type Cached struct {
	inner   Embedder
	cache   Cache
	OnError func(error)
}

// NewCached wraps inner with cache.
func NewCached(inner Embedder, cache Cache) *Cached {
	return &Cached{inner: inner, cache: cache}
}

func (c *Cached) Dimensions() int { return c.inner.Dimensions() }
func (c *Cached) Model() string   { return c.inner.Model() }

// Key returns the cache key for text under model.
func Key(model, text string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + textnorm.Normalize(text)))
	return hex.EncodeToString(sum[:])
}

func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	return embedOneViaBatch(ctx, c, text)
}

func (c *Cached) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	keys := make([]string, len(texts))
	var (
		missTexts []string
		missPos   []int
	)
	for i, t := range texts {
		keys[i] = Key(c.inner.Model(), t)
		vec, ok, err := c.cache.Get(ctx, keys[i])
		if err != nil {
			c.report(fmt.Errorf("embedding cache get: %w", err))
		}
		if ok && len(vec) == c.inner.Dimensions() {
			out[i] = vec
			continue
		}
		missTexts = append(missTexts, t)
		missPos = append(missPos, i)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	rows, err := c.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, row := range rows {
		i := missPos[j]
		out[i] = row
		if err := c.cache.Set(ctx, keys[i], row); err != nil {
			c.report(fmt.Errorf("embedding cache set: %w", err))
		}
	}
	return out, nil
}

func (c *Cached) report(err error) {
	if c.OnError != nil {
		c.OnError(err)
	}
}
