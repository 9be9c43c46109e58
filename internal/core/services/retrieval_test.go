package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/policyqa/internal/core/domain"
)

func newTestRetrieval(t *testing.T, embedder *hashEmbedder) (*RetrievalService, *ChunkStore) {
	t.Helper()
	store := buildPolicyStore(t, embedder)
	svc, err := NewRetrievalService(&staticProvider{store: store}, embedder, domain.InsuranceStrategy())
	require.NoError(t, err)
	return svc, store
}

func TestRetrievalService_SimpleQuestion(t *testing.T) {
	svc, _ := newTestRetrieval(t, &hashEmbedder{})

	result, err := svc.Select(context.Background(), "policy.txt", "Does the policy cover maternity?", domain.RetrievalOptions{})
	require.NoError(t, err)

	assert.Equal(t, domain.ComplexitySimple, result.Profile.Complexity)
	assert.Subset(t, result.Profile.Keywords, []string{"coverage", "medical"})
	require.Len(t, result.Selected, 2)
	assert.GreaterOrEqual(t, result.Selected[0].Score.Composite, result.Selected[1].Score.Composite)
	for _, s := range result.Selected {
		text := strings.ToLower(s.Chunk.Text())
		assert.True(t, strings.Contains(text, "maternity") || strings.Contains(text, "cover") || strings.Contains(text, "policy"), text)
	}

	assert.Equal(t, 10, result.Explanation.CandidateCount)
	assert.Equal(t, 2, result.Explanation.SelectedCount)
	assert.Less(t, result.Explanation.SelectedTokens, result.Explanation.BaselineTokens)
}

func TestRetrievalService_ComplexQuestion(t *testing.T) {
	svc, _ := newTestRetrieval(t, &hashEmbedder{})
	question := "Compare the waiting periods for pre-existing conditions versus maternity coverage and explain the claims process"

	result, err := svc.Select(context.Background(), "policy.txt", question, domain.RetrievalOptions{})
	require.NoError(t, err)

	assert.Equal(t, domain.ComplexityComplex, result.Profile.Complexity)
	for _, want := range []string{"waiting_period", "medical", "coverage", "claims"} {
		assert.Contains(t, result.Profile.Keywords, want)
	}
	assert.GreaterOrEqual(t, len(result.Selected), 3)
	assert.LessOrEqual(t, len(result.Selected), 6)

	top := result.Selected[0].Score.Composite
	for _, s := range result.Selected[1:] {
		assert.LessOrEqual(t, s.Score.Composite, top)
	}
}

func TestRetrievalService_SingleChunkDocument(t *testing.T) {
	embedder := &hashEmbedder{}
	store, err := newTestBuilder(t, embedder).BuildText(context.Background(), "one", "The policy covers dental treatment.")
	require.NoError(t, err)
	svc, err := NewRetrievalService(&staticProvider{store: store}, embedder, domain.InsuranceStrategy())
	require.NoError(t, err)

	for _, q := range []string{
		"Is dental covered?",
		"What is covered?",
		"Compare dental and vision coverage in detail",
	} {
		result, err := svc.SelectFrom(context.Background(), store, q, domain.RetrievalOptions{})
		require.NoError(t, err, q)
		assert.Len(t, result.Selected, 1, q)
	}
}

func TestRetrievalService_Deterministic(t *testing.T) {
	svc, store := newTestRetrieval(t, &hashEmbedder{})
	question := "What is the grace period for premium payment?"

	first, err := svc.SelectFrom(context.Background(), store, question, domain.RetrievalOptions{})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := svc.SelectFrom(context.Background(), store, question, domain.RetrievalOptions{})
		require.NoError(t, err)
		assert.Equal(t, selectedIndexes(*first), selectedIndexes(*again))
		assert.Equal(t, first.Explanation, again.Explanation)
	}
}

func TestRetrievalService_Options(t *testing.T) {
	svc, store := newTestRetrieval(t, &hashEmbedder{})
	ctx := context.Background()
	question := "What is the waiting period for maternity?"

	result, err := svc.SelectFrom(ctx, store, question, domain.RetrievalOptions{BasePoolSize: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Explanation.CandidateCount)

	floor := 0.0
	result, err = svc.SelectFrom(ctx, store, question, domain.RetrievalOptions{RelevanceFloor: &floor})
	require.NoError(t, err)
	assert.Equal(t, 4, result.Explanation.SelectedCount, "a zero floor fills the tier maximum")

	bad := 1.5
	_, err = svc.SelectFrom(ctx, store, question, domain.RetrievalOptions{RelevanceFloor: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.SelectFrom(ctx, store, question, domain.RetrievalOptions{
		Weights: &domain.Weights{Semantic: 0.2, Keyword: 0.7, Structural: 0.1},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.SelectFrom(ctx, store, question, domain.RetrievalOptions{Strategy: "medical"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	result, err = svc.SelectFrom(ctx, store, question, domain.RetrievalOptions{Strategy: domain.StrategyLegal})
	require.NoError(t, err)
	assert.Equal(t, domain.StrategyLegal, result.Explanation.Strategy)
}

func TestRetrievalService_RegisterStrategy(t *testing.T) {
	svc, store := newTestRetrieval(t, &hashEmbedder{})

	custom := domain.InsuranceStrategy()
	custom.Name = "pets"
	custom.Taxonomy = domain.Taxonomy{{Name: "pets", Terms: []string{"dog"}}}
	require.NoError(t, svc.RegisterStrategy(custom))

	profile, err := svc.Analyze("Is my dog covered?", "pets")
	require.NoError(t, err)
	assert.Equal(t, []string{"pets"}, profile.Keywords)

	result, err := svc.SelectFrom(context.Background(), store, "Is my dog covered?", domain.RetrievalOptions{Strategy: "pets"})
	require.NoError(t, err)
	assert.Equal(t, "pets", result.Explanation.Strategy)

	invalid := custom
	invalid.Name = "broken"
	invalid.Taxonomy = nil
	assert.ErrorIs(t, svc.RegisterStrategy(invalid), domain.ErrInvalidConfig)

	unnamed := custom
	unnamed.Name = ""
	assert.Error(t, svc.RegisterStrategy(unnamed))
}

func TestRetrievalService_Errors(t *testing.T) {
	embedder := &hashEmbedder{failOnEmbed: 1}
	svc, store := newTestRetrieval(t, embedder)
	ctx := context.Background()

	_, err := svc.SelectFrom(ctx, store, "What is covered?", domain.RetrievalOptions{})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)

	_, err = svc.SelectFrom(ctx, store, "   ", domain.RetrievalOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	failing, err := NewRetrievalService(&staticProvider{err: domain.ErrUnsupportedType}, embedder, domain.InsuranceStrategy())
	require.NoError(t, err)
	_, err = failing.Select(ctx, "x.bin", "What is covered?", domain.RetrievalOptions{})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestNewRetrievalService_ValidatesConfig(t *testing.T) {
	cfg := domain.InsuranceStrategy()
	cfg.Weights = domain.Weights{Semantic: 0.1, Keyword: 0.8, Structural: 0.1}

	_, err := NewRetrievalService(nil, &hashEmbedder{}, cfg)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}
