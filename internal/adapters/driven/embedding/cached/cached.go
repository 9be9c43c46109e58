// Package cached adds a persistent vector cache in front of an embedding service.
package cached

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/custodia-labs/policyqa/internal/core/domain"
	"github.com/custodia-labs/policyqa/internal/core/ports/driven"
	"github.com/custodia-labs/policyqa/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService serves repeated texts from a cache and embeds only misses.
// Cache failures degrade to direct embedding; they never fail a call.
type EmbeddingService struct {
	inner driven.EmbeddingService
	cache driven.EmbeddingCache
}

// New wraps inner with cache.
func New(inner driven.EmbeddingService, cache driven.EmbeddingCache) (*EmbeddingService, error) {
	if inner == nil {
		return nil, fmt.Errorf("cached: %w", domain.ErrEmbeddingUnavailable)
	}
	if cache == nil {
		return nil, fmt.Errorf("cached: cache is required: %w", domain.ErrInvalidConfig)
	}
	return &EmbeddingService{inner: inner, cache: cache}, nil
}

// Embed returns the cached vector for text or embeds it.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds only the texts missing from the cache, in one inner call.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	model := s.inner.ModelName()
	keys := make([]string, len(texts))
	for i, t := range texts {
		keys[i] = Key(t)
	}

	hits, err := s.cache.Lookup(ctx, model, keys)
	if err != nil {
		logger.Warn("embedding cache lookup failed: %v", err)
		hits = nil
	}

	out := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int
	queued := make(map[string]bool)
	for i, k := range keys {
		if vec, ok := hits[k]; ok {
			out[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		if !queued[k] {
			queued[k] = true
			missTexts = append(missTexts, texts[i])
		}
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := s.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("cached: got %d vectors for %d texts: %w", len(vecs), len(missTexts), domain.ErrEmbeddingUnavailable)
	}

	fresh := make(map[string][]float32, len(vecs))
	for i, t := range missTexts {
		fresh[Key(t)] = vecs[i]
	}
	for _, i := range missIdx {
		out[i] = fresh[keys[i]]
	}

	if err := s.cache.Store(ctx, model, fresh); err != nil {
		logger.Warn("embedding cache store failed: %v", err)
	}
	logger.Debug("embedding cache: %d hits, %d misses", len(texts)-len(missIdx), len(missIdx))
	return out, nil
}

// Key is the cache key of text: its hex SHA-256.
func Key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Dimensions returns the wrapped service's vector size.
func (s *EmbeddingService) Dimensions() int { return s.inner.Dimensions() }

// ModelName returns the wrapped service's model.
func (s *EmbeddingService) ModelName() string { return s.inner.ModelName() }

// Ping delegates to the wrapped service.
func (s *EmbeddingService) Ping(ctx context.Context) error { return s.inner.Ping(ctx) }

// Close closes both the cache and the wrapped service.
func (s *EmbeddingService) Close() error {
	cacheErr := s.cache.Close()
	if err := s.inner.Close(); err != nil {
		return err
	}
	return cacheErr
}
