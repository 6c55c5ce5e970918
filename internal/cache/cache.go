// Package cache provides an in-memory cache for grading results, keyed by
// model, sample, and grader configuration so a result is reused only when all
// three are unchanged.
package cache

import (
	"sync"
	"time"

	"github.com/stellarlinkco/model-eval/internal/sample"
)

// ResultCache stores graded results for reuse across runs.
type ResultCache interface {
	Get(model, sampleID, fingerprint string) (*sample.EvalResult, bool)
	Put(model, sampleID, fingerprint string, res *sample.EvalResult)
	Len() int
}

type entry struct {
	res     *sample.EvalResult
	expires time.Time
}

// Results is a concurrency-safe ResultCache. A zero TTL means entries never
// expire.
type Results struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry
}

// NewResults creates a cache whose entries expire after ttl. Pass 0 to keep
// entries for the life of the process.
func NewResults(ttl time.Duration) *Results {
	return &Results{
		ttl:     ttl,
		entries: make(map[string]entry),
	}
}

func cacheKey(model, sampleID, fingerprint string) string {
	return model + "\x00" + sampleID + "\x00" + fingerprint
}

// Get returns the cached result for the key, if present and not expired.
func (c *Results) Get(model, sampleID, fingerprint string) (*sample.EvalResult, bool) {
	if c == nil {
		return nil, false
	}
	key := cacheKey(model, sampleID, fingerprint)

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !e.expires.IsZero() && time.Now().After(e.expires) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return e.res, true
}

// Put stores a result. Nil results are ignored so transient failures are
// retried on the next run.
func (c *Results) Put(model, sampleID, fingerprint string, res *sample.EvalResult) {
	if c == nil || res == nil {
		return
	}
	e := entry{res: res}
	if c.ttl > 0 {
		e.expires = time.Now().Add(c.ttl)
	}

	c.mu.Lock()
	c.entries[cacheKey(model, sampleID, fingerprint)] = e
	c.mu.Unlock()
}

// Len reports the number of stored entries, counting expired ones not yet
// evicted.
func (c *Results) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Nop is a ResultCache that stores nothing, used when caching is disabled.
type Nop struct{}

func (Nop) Get(model, sampleID, fingerprint string) (*sample.EvalResult, bool) { return nil, false }
func (Nop) Put(model, sampleID, fingerprint string, res *sample.EvalResult)   {}
func (Nop) Len() int                                                          { return 0 }
