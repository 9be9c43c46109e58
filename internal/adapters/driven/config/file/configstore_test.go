package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore isolates the store from the process environment.
func newTestStore(t *testing.T, env map[string]string) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	store.lookup = func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	return store
}

func TestNewConfigStore_Path(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewConfigStore_NestedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	_, err := NewConfigStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewConfigStore_CorruptedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[[[nope"), 0600))

	_, err := NewConfigStore(dir)
	assert.Error(t, err)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := newTestStore(t, nil)

	require.NoError(t, store.Set("s", "hello"))
	require.NoError(t, store.Set("i", int64(7)))
	require.NoError(t, store.Set("f", 0.25))
	require.NoError(t, store.Set("b", true))
	require.NoError(t, store.Set("list", []any{"x", 3, "y"}))

	assert.Equal(t, "hello", store.GetString("s"))
	assert.Equal(t, 7, store.GetInt("i"))
	assert.InDelta(t, 7.0, store.GetFloat("i"), 1e-9)
	assert.InDelta(t, 0.25, store.GetFloat("f"), 1e-9)
	assert.True(t, store.GetBool("b"))
	assert.Equal(t, []string{"x", "y"}, store.GetStringSlice("list"))

	assert.Empty(t, store.GetString("i"))
	assert.Zero(t, store.GetInt("s"))
	assert.Zero(t, store.GetFloat("missing"))
	assert.False(t, store.GetBool("s"))
	assert.Nil(t, store.GetStringSlice("missing"))

	_, ok := store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_SetRejectsEmptyKey(t *testing.T) {
	store := newTestStore(t, nil)
	assert.Error(t, store.Set("", 1))
}

func TestConfigStore_EnvironmentOverrides(t *testing.T) {
	store := newTestStore(t, map[string]string{
		"POLICYQA_LLM_API_KEY":               "sk-env",
		"POLICYQA_SERVER_MAX_WORKERS":        "9",
		"POLICYQA_RETRIEVAL_RELEVANCE_FLOOR": "0.4",
		"POLICYQA_SERVER_DEBUG":              "1",
		"POLICYQA_RETRIEVAL_EXTRA_MARKERS":   "article, annex ,",
	})
	require.NoError(t, store.Set("llm.api_key", "sk-file"))

	assert.Equal(t, "sk-env", store.GetString("llm.api_key"))
	assert.Equal(t, 9, store.GetInt("server.max_workers"))
	assert.InDelta(t, 0.4, store.GetFloat("retrieval.relevance_floor"), 1e-9)
	assert.True(t, store.GetBool("server.debug"))
	assert.Equal(t, []string{"article", "annex"}, store.GetStringSlice("retrieval.extra_markers"))
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "POLICYQA_RETRIEVAL_WEIGHTS_SEMANTIC", EnvKey("retrieval.weights.semantic"))
}

func TestConfigStore_SaveWritesNestedTables(t *testing.T) {
	store := newTestStore(t, nil)
	require.NoError(t, store.Set("server.addr", ":9090"))
	require.NoError(t, store.Set("retrieval.weights.semantic", 0.7))
	require.NoError(t, store.Set("retrieval.domain", "legal"))
	require.NoError(t, store.Save())

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[server]")
	assert.Contains(t, string(raw), "[retrieval.weights]")

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	reopened, err := NewConfigStore(filepath.Dir(store.Path()))
	require.NoError(t, err)
	reopened.lookup = store.lookup
	assert.Equal(t, ":9090", reopened.GetString("server.addr"))
	assert.InDelta(t, 0.7, reopened.GetFloat("retrieval.weights.semantic"), 1e-9)
	assert.Equal(t, "legal", reopened.GetString("retrieval.domain"))
}

func TestConfigStore_SaveConflictingKeys(t *testing.T) {
	store := newTestStore(t, nil)
	require.NoError(t, store.Set("server", "flat"))
	require.NoError(t, store.Set("server.addr", ":1"))
	assert.Error(t, store.Save())
}

func TestConfigStore_LoadReplacesMemory(t *testing.T) {
	store := newTestStore(t, nil)
	require.NoError(t, store.Set("a.b", 1))
	require.NoError(t, store.Load())

	_, ok := store.Get("a.b")
	assert.False(t, ok)
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := newTestStore(t, nil)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Set("k", i)
		}()
		go func() {
			defer wg.Done()
			_ = store.GetInt("k")
		}()
	}
	wg.Wait()
}

func TestFlattenAndNest(t *testing.T) {
	nested := map[string]any{"a": map[string]any{"b": 1, "c": map[string]any{"d": "x"}}, "e": true}
	flat := flattenMap(nested, "")
	assert.Equal(t, map[string]any{"a.b": 1, "a.c.d": "x", "e": true}, flat)

	back, err := nestMap(flat)
	require.NoError(t, err)
	assert.Equal(t, nested, back)
}
