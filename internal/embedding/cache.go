package embedding

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// Cached wraps an Embedder with an in-memory cache keyed by (model, text).
// Reads are concurrent; concurrent fills of the same key are idempotent
// (last writer wins, values are pure functions of the key).
type Cached struct {
	backend Embedder

	mu      sync.RWMutex
	vectors map[string][]float64
}

// NewCached wraps the backend in a read-through cache.
func NewCached(backend Embedder) *Cached {
	return &Cached{
		backend: backend,
		vectors: make(map[string][]float64),
	}
}

func (c *Cached) Name() string {
	if c == nil || c.backend == nil {
		return ""
	}
	return c.backend.Name()
}

func (c *Cached) Model() string {
	if c == nil || c.backend == nil {
		return ""
	}
	return c.backend.Model()
}

// Embed returns the cached vector for (model, text) or fills it from the
// backend. Failures are not cached.
func (c *Cached) Embed(ctx context.Context, text string) ([]float64, error) {
	if c == nil || c.backend == nil {
		return nil, errors.New("embedding: nil cached embedder")
	}

	key := cacheKey(c.backend.Model(), text)

	c.mu.RLock()
	v, ok := c.vectors[key]
	c.mu.RUnlock()
	if ok {
		return v, nil
	}

	v, err := c.backend.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(v) == 0 {
		return nil, ErrEmptyVector
	}

	c.mu.Lock()
	c.vectors[key] = v
	c.mu.Unlock()
	return v, nil
}

// Len reports the number of cached vectors.
func (c *Cached) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.vectors)
}

func cacheKey(model, text string) string {
	var sb strings.Builder
	sb.Grow(len(model) + len(text) + 1)
	sb.WriteString(model)
	sb.WriteByte(0)
	sb.WriteString(text)
	return sb.String()
}
