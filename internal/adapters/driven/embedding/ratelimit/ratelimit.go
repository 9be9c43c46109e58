// Package ratelimit throttles an embedding service with a token bucket.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/policyqa/internal/core/domain"
	"github.com/custodia-labs/policyqa/internal/core/ports/driven"
	"github.com/custodia-labs/policyqa/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default backoff values.
const (
	DefaultBackoff    = 5 * time.Second
	DefaultMaxRetries = 2
)

// Config holds the limiter configuration.
type Config struct {
	// RequestsPerSecond is the sustained rate.
	RequestsPerSecond float64

	// Burst is the bucket size.
	Burst int

	// Backoff is the pause after a provider reports ErrRateLimited.
	Backoff time.Duration

	// MaxRetries is how often a rate-limited call is retried.
	MaxRetries int
}

// EmbeddingService wraps another embedding service and paces its calls.
// A call rejected with domain.ErrRateLimited pauses all callers for Backoff
// and is then retried.
type EmbeddingService struct {
	inner      driven.EmbeddingService
	limiter    *rate.Limiter
	backoff    time.Duration
	maxRetries int

	mu      sync.Mutex
	retryAt time.Time
}

// New wraps inner with a limiter.
func New(inner driven.EmbeddingService, cfg Config) (*EmbeddingService, error) {
	if inner == nil {
		return nil, fmt.Errorf("ratelimit: %w", domain.ErrEmbeddingUnavailable)
	}
	if cfg.RequestsPerSecond <= 0 {
		return nil, fmt.Errorf("ratelimit: requests per second must be positive: %w", domain.ErrInvalidConfig)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	} else if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	return &EmbeddingService{
		inner:      inner,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		backoff:    cfg.Backoff,
		maxRetries: cfg.MaxRetries,
	}, nil
}

// Embed waits for a token, then delegates.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := s.do(ctx, func() error {
		var err error
		vec, err = s.inner.Embed(ctx, text)
		return err
	})
	return vec, err
}

// EmbedBatch waits for a token, then delegates. A batch costs one token.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var vecs [][]float32
	err := s.do(ctx, func() error {
		var err error
		vecs, err = s.inner.EmbedBatch(ctx, texts)
		return err
	})
	return vecs, err
}

func (s *EmbeddingService) do(ctx context.Context, call func() error) error {
	for attempt := 0; ; attempt++ {
		if err := s.wait(ctx); err != nil {
			return err
		}
		err := call()
		if err == nil || !errors.Is(err, domain.ErrRateLimited) || attempt >= s.maxRetries {
			return err
		}
		logger.Warn("embedding provider rate limited, backing off %s", s.backoff)
		s.mu.Lock()
		s.retryAt = time.Now().Add(s.backoff)
		s.mu.Unlock()
	}
}

func (s *EmbeddingService) wait(ctx context.Context) error {
	s.mu.Lock()
	retryAt := s.retryAt
	s.mu.Unlock()

	if d := time.Until(retryAt); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return s.limiter.Wait(ctx)
}

// Dimensions returns the wrapped service's vector size.
func (s *EmbeddingService) Dimensions() int { return s.inner.Dimensions() }

// ModelName returns the wrapped service's model.
func (s *EmbeddingService) ModelName() string { return s.inner.ModelName() }

// Ping delegates without consuming a token.
func (s *EmbeddingService) Ping(ctx context.Context) error { return s.inner.Ping(ctx) }

// Close closes the wrapped service.
func (s *EmbeddingService) Close() error { return s.inner.Close() }
