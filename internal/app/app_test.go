package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/policyqa/internal/core/domain"
)

const policyText = `Section 4 Surgical Benefits

4.1 Knee surgery is covered after a waiting period of 24 months.

4.2 Cosmetic surgery is excluded unless required after an accident.

Section 5 Claims

5.1 Claims must be submitted within 30 days of discharge with the hospital bill.`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestSettings_ReusesServiceForSameDir(t *testing.T) {
	dir := t.TempDir()
	b := New()

	first, err := b.Settings(dir)
	require.NoError(t, err)
	second, err := b.Settings(dir)
	require.NoError(t, err)

	assert.Same(t, first, second)

	other, err := b.Settings(t.TempDir())
	require.NoError(t, err)
	assert.NotSame(t, first, other)
}

func TestSettings_Defaults(t *testing.T) {
	b := New()
	svc, err := b.Settings(t.TempDir())
	require.NoError(t, err)

	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderLocal, settings.Embedding.Provider)
	assert.Equal(t, domain.StrategyInsurance, settings.Retrieval.Strategy)
}

func TestServices_DefaultSettingsSelectPassages(t *testing.T) {
	dir := t.TempDir()
	doc := writeFile(t, t.TempDir(), "policy.txt", policyText)

	svc, err := New().Services(context.Background(), dir)
	require.NoError(t, err)
	defer func() { require.NoError(t, svc.Close()) }()

	require.NotNil(t, svc.Answer)
	require.NotNil(t, svc.Retrieval)
	require.NotNil(t, svc.Documents)
	assert.Equal(t, domain.DefaultAppSettings().Server.Addr, svc.Server.Addr)

	info, err := svc.Documents.Load(context.Background(), doc)
	require.NoError(t, err)
	assert.Positive(t, info.ChunkCount)
	assert.Equal(t, 512, info.Dimensions)

	result, err := svc.Retrieval.Select(context.Background(), doc, "Is knee surgery covered?", domain.RetrievalOptions{})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Selected)
	assert.Equal(t, domain.StrategyInsurance, result.Explanation.Strategy)
}

func TestServices_StrategyFileBecomesBase(t *testing.T) {
	dir := t.TempDir()
	strategy := writeFile(t, t.TempDir(), "motor.yaml", `
name: motor
extends: insurance
add_categories:
  - name: vehicle
    terms: [vehicle, car]
`)
	writeFile(t, dir, "config.toml", "[retrieval]\ntaxonomy_file = \""+filepath.ToSlash(strategy)+"\"\n")

	svc, err := New().Services(context.Background(), dir)
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	profile, err := svc.Retrieval.Analyze("Is my car covered after an accident?", "motor")
	require.NoError(t, err)
	assert.Contains(t, profile.Keywords, "vehicle")

	_, err = svc.Retrieval.Analyze("Is my car covered?", "")
	require.NoError(t, err)
}

func TestServices_MissingStrategyFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.toml", "[retrieval]\ntaxonomy_file = \""+filepath.ToSlash(filepath.Join(dir, "missing.yaml"))+"\"\n")

	_, err := New().Services(context.Background(), dir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading strategy file")
}

func TestServices_InvalidSettings(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.toml", "[chunking]\nchunk_size = 100\noverlap = 200\n")

	_, err := New().Services(context.Background(), dir)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "policyqa settings")
}

func TestServices_BackgroundStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	svc, err := New().Services(context.Background(), dir)
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NotNil(t, svc.Background)
	assert.NoError(t, svc.Background(ctx))
	assert.DirExists(t, filepath.Join(dir, "prompts"))
}

func TestResolveDir(t *testing.T) {
	dir, err := resolveDir("/tmp/custom")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom", dir)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	dir, err = resolveDir("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".policyqa"), dir)
}
