package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/dgraph-io/ristretto"

	"github.com/recallkit/recall/internal/observability"
)

// Cached decorates a Gateway with an in-process content-hash cache so that
// re-embedding identical text never hits the provider twice.
type Cached struct {
	inner Gateway
	cache *ristretto.Cache
}

// NewCached wraps a gateway with a ristretto cache.
func NewCached(inner Gateway, maxBytes int64) (*Cached, error) {
	if maxBytes <= 0 {
		maxBytes = 64 << 20
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 100_000,
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	return &Cached{inner: inner, cache: cache}, nil
}

// Dimension returns the wrapped gateway's vector length.
func (c *Cached) Dimension() int {
	return c.inner.Dimension()
}

// Embed returns a cached vector when the same text was embedded before,
// otherwise it delegates to the wrapped gateway.
func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	sum := sha256.Sum256([]byte(text))
	key := hex.EncodeToString(sum[:])

	if cached, ok := c.cache.Get(key); ok {
		if vector, ok := cached.([]float32); ok {
			observability.RecordEmbedCacheHit()
			return vector, nil
		}
	}
	observability.RecordEmbedCacheMiss()

	vector, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.cache.Set(key, vector, int64(len(vector)*4))
	return vector, nil
}

// Wait flushes pending cache writes. Intended for tests.
func (c *Cached) Wait() {
	c.cache.Wait()
}
