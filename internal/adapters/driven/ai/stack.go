package ai

import (
	"context"
	"fmt"

	"github.com/custodia-labs/policyqa/internal/adapters/driven/embedding/cached"
	"github.com/custodia-labs/policyqa/internal/adapters/driven/embedding/ratelimit"
	"github.com/custodia-labs/policyqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/policyqa/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/policyqa/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/policyqa/internal/core/domain"
	"github.com/custodia-labs/policyqa/internal/core/ports/driven"
	"github.com/custodia-labs/policyqa/internal/logger"
)

// DefaultMemoryCacheSize bounds the in-process embedding cache.
const DefaultMemoryCacheSize = 50_000

// BuildEmbeddingStack creates the configured provider and wraps it:
// cache outermost, then the rate limiter, then the provider.
// Cache hits never consume rate limit tokens.
func BuildEmbeddingStack(ctx context.Context, settings *domain.AppSettings) (driven.EmbeddingService, error) {
	base, err := CreateAndValidateEmbeddingService(ctx, &settings.Embedding)
	if err != nil {
		return nil, err
	}
	svc := base

	if rps := settings.RateLimit.EmbeddingRPS; rps > 0 {
		limited, err := ratelimit.New(svc, ratelimit.Config{
			RequestsPerSecond: rps,
			Burst:             settings.RateLimit.Burst,
		})
		if err != nil {
			base.Close()
			return nil, err
		}
		logger.Debug("Embedding rate limit: %.2f req/s, burst %d", rps, settings.RateLimit.Burst)
		svc = limited
	}

	cache, err := NewEmbeddingCache(ctx, settings.Cache)
	if err != nil {
		svc.Close()
		return nil, err
	}
	if cache == nil {
		return svc, nil
	}

	wrapped, err := cached.New(svc, cache)
	if err != nil {
		cache.Close()
		svc.Close()
		return nil, err
	}
	logger.Debug("Embedding cache: %s", settings.Cache.Backend)
	return wrapped, nil
}

// NewEmbeddingCache opens the cache backend named in settings.
// Returns nil for the "none" backend.
func NewEmbeddingCache(ctx context.Context, settings domain.CacheSettings) (driven.EmbeddingCache, error) {
	switch settings.Backend {
	case domain.CacheBackendNone:
		return nil, nil

	case "", domain.CacheBackendMemory:
		return memory.NewEmbeddingCache(DefaultMemoryCacheSize), nil

	case domain.CacheBackendSQLite:
		store, err := sqlite.NewStore(settings.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: sqlite cache: %w", domain.ErrInvalidConfig, err)
		}
		return store, nil

	case domain.CacheBackendPostgres:
		if settings.DSN == "" {
			return nil, fmt.Errorf("%w: postgres cache requires cache.dsn", domain.ErrInvalidConfig)
		}
		store, err := postgres.NewStore(ctx, settings.DSN)
		if err != nil {
			return nil, fmt.Errorf("%w: postgres cache: %w", domain.ErrInvalidConfig, err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("%w: unknown cache backend %q", domain.ErrInvalidConfig, settings.Backend)
	}
}
