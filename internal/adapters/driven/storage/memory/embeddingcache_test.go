package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddingCache_StoreAndLookup(t *testing.T) {
	cache := NewEmbeddingCache(0)
	ctx := context.Background()

	require.NoError(t, cache.Store(ctx, "m1", map[string][]float32{
		"a": {1, 2},
		"b": {3, 4},
	}))

	got, err := cache.Lookup(ctx, "m1", []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, []float32{1, 2}, got["a"])
	assert.NotContains(t, got, "c")
}

func TestEmbeddingCache_ModelsAreSeparate(t *testing.T) {
	cache := NewEmbeddingCache(0)
	ctx := context.Background()
	require.NoError(t, cache.Store(ctx, "m1", map[string][]float32{"a": {1}}))

	got, err := cache.Lookup(ctx, "m2", []string{"a"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEmbeddingCache_ReturnsCopies(t *testing.T) {
	cache := NewEmbeddingCache(0)
	ctx := context.Background()
	vec := []float32{1, 2}
	require.NoError(t, cache.Store(ctx, "m", map[string][]float32{"a": vec}))
	vec[0] = 99

	got, _ := cache.Lookup(ctx, "m", []string{"a"})
	got["a"][1] = 42

	again, _ := cache.Lookup(ctx, "m", []string{"a"})
	assert.Equal(t, []float32{1, 2}, again["a"])
}

func TestEmbeddingCache_EvictsOldest(t *testing.T) {
	cache := NewEmbeddingCache(2)
	ctx := context.Background()
	require.NoError(t, cache.Store(ctx, "m", map[string][]float32{"a": {1}}))
	require.NoError(t, cache.Store(ctx, "m", map[string][]float32{"b": {2}}))
	require.NoError(t, cache.Store(ctx, "m", map[string][]float32{"c": {3}}))

	assert.Equal(t, 2, cache.Len())
	got, _ := cache.Lookup(ctx, "m", []string{"a", "b", "c"})
	assert.NotContains(t, got, "a")
	assert.Contains(t, got, "c")
}
