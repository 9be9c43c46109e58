package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/policyqa/internal/core/ports/driven"
)

// Ensure EmbeddingCache implements the interface.
var _ driven.EmbeddingCache = (*EmbeddingCache)(nil)

// EmbeddingCache holds vectors in memory for the life of the process.
// When full, the oldest entries are dropped first.
type EmbeddingCache struct {
	mu      sync.RWMutex
	limit   int
	entries map[string][]float32
	order   []string
}

// NewEmbeddingCache creates a cache holding at most limit vectors.
// A non-positive limit means unbounded.
func NewEmbeddingCache(limit int) *EmbeddingCache {
	return &EmbeddingCache{
		limit:   limit,
		entries: make(map[string][]float32),
	}
}

// Lookup returns copies of the cached vectors for keys.
func (c *EmbeddingCache) Lookup(_ context.Context, model string, keys []string) (map[string][]float32, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string][]float32, len(keys))
	for _, k := range keys {
		if vec, ok := c.entries[cacheKey(model, k)]; ok {
			out[k] = append([]float32(nil), vec...)
		}
	}
	return out, nil
}

// Store saves copies of the vectors.
func (c *EmbeddingCache) Store(_ context.Context, model string, entries map[string][]float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, vec := range entries {
		key := cacheKey(model, k)
		if _, exists := c.entries[key]; !exists {
			c.order = append(c.order, key)
		}
		c.entries[key] = append([]float32(nil), vec...)
	}
	if c.limit > 0 {
		for len(c.order) > c.limit {
			delete(c.entries, c.order[0])
			c.order = c.order[1:]
		}
	}
	return nil
}

// Len returns the number of cached vectors.
func (c *EmbeddingCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close is a no-op.
func (c *EmbeddingCache) Close() error { return nil }

func cacheKey(model, key string) string {
	return model + "\x00" + key
}
