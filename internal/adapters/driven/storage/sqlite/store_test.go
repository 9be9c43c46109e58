package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

func TestNewStore_ErrorHandling(t *testing.T) {
	_, err := NewStore("/invalid\x00path")
	assert.Error(t, err)
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, "embeddings.db"), store.Path())
	_, err = os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestNewStore_MigrationsRecorded(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	var version int
	require.NoError(t, store.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	var count int
	require.NoError(t, reopened.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestStore_StoreAndLookup(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.Store(ctx, "hashing-v1", map[string][]float32{
		"a": {0.1, 0.2, 0.3},
		"b": {1, -1},
	})
	require.NoError(t, err)

	got, err := store.Lookup(ctx, "hashing-v1", []string{"a", "b", "missing"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, got["a"])
	assert.Equal(t, []float32{1, -1}, got["b"])

	other, err := store.Lookup(ctx, "nomic-embed-text", []string{"a"})
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestStore_StoreReplaces(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, "m", map[string][]float32{"k": {1}}))
	require.NoError(t, store.Store(ctx, "m", map[string][]float32{"k": {2, 3}}))

	got, err := store.Lookup(ctx, "m", []string{"k"})
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 3}, got["k"])

	n, err := store.Count(ctx, "m")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_LookupManyKeys(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	entries := make(map[string][]float32)
	keys := make([]string, 0, lookupBatch+20)
	for i := range lookupBatch + 20 {
		k := fmt.Sprintf("key-%d", i)
		entries[k] = []float32{float32(i)}
		keys = append(keys, k)
	}
	require.NoError(t, store.Store(ctx, "m", entries))

	got, err := store.Lookup(ctx, "m", keys)
	require.NoError(t, err)
	assert.Len(t, got, len(keys))
	assert.Equal(t, []float32{float32(lookupBatch + 5)}, got[fmt.Sprintf("key-%d", lookupBatch+5)])
}

func TestStore_Purge(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, "m", map[string][]float32{"k": {1}}))
	require.NoError(t, store.Purge(ctx, "m"))

	n, err := store.Count(ctx, "m")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFloat32Codec(t *testing.T) {
	in := []float32{0, -1.5, 3.25, 1e-7}
	assert.Equal(t, in, bytesToFloat32Slice(float32SliceToBytes(in)))
	assert.Empty(t, bytesToFloat32Slice(nil))
}
