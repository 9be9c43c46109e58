package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/policyqa/internal/adapters/driven/embedding/cached"
	"github.com/custodia-labs/policyqa/internal/adapters/driven/embedding/local"
	"github.com/custodia-labs/policyqa/internal/adapters/driven/embedding/ratelimit"
	"github.com/custodia-labs/policyqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/policyqa/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/policyqa/internal/core/domain"
)

func TestNewEmbeddingCache(t *testing.T) {
	ctx := context.Background()

	none, err := NewEmbeddingCache(ctx, domain.CacheSettings{Backend: domain.CacheBackendNone})
	require.NoError(t, err)
	assert.Nil(t, none)

	mem, err := NewEmbeddingCache(ctx, domain.CacheSettings{Backend: domain.CacheBackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &memory.EmbeddingCache{}, mem)

	lite, err := NewEmbeddingCache(ctx, domain.CacheSettings{Backend: domain.CacheBackendSQLite, Path: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &sqlite.Store{}, lite)
	require.NoError(t, lite.Close())

	_, err = NewEmbeddingCache(ctx, domain.CacheSettings{Backend: domain.CacheBackendPostgres})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = NewEmbeddingCache(ctx, domain.CacheSettings{Backend: "redis"})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestBuildEmbeddingStack_Layers(t *testing.T) {
	tests := []struct {
		name     string
		backend  domain.CacheBackend
		rps      float64
		wantType any
	}{
		{"bare provider", domain.CacheBackendNone, 0, &local.EmbeddingService{}},
		{"rate limited", domain.CacheBackendNone, 10, &ratelimit.EmbeddingService{}},
		{"cached outermost", domain.CacheBackendMemory, 10, &cached.EmbeddingService{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := domain.DefaultAppSettings()
			settings.Cache.Backend = tt.backend
			settings.RateLimit.EmbeddingRPS = tt.rps

			svc, err := BuildEmbeddingStack(context.Background(), &settings)
			require.NoError(t, err)
			defer svc.Close()

			assert.IsType(t, tt.wantType, svc)
			assert.Equal(t, "hashing-v1", svc.ModelName())
		})
	}
}

func TestBuildEmbeddingStack_CachedVectorsMatch(t *testing.T) {
	settings := domain.DefaultAppSettings()
	settings.Cache = domain.CacheSettings{Backend: domain.CacheBackendSQLite, Path: t.TempDir()}

	svc, err := BuildEmbeddingStack(context.Background(), &settings)
	require.NoError(t, err)
	defer svc.Close()

	first, err := svc.Embed(context.Background(), "grace period for premium payment")
	require.NoError(t, err)
	second, err := svc.Embed(context.Background(), "grace period for premium payment")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, first, settings.Embedding.Dimensions)
}
