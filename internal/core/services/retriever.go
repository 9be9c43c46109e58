package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/policyqa/internal/core/domain"
	"github.com/custodia-labs/policyqa/internal/core/ports/driven"
	"github.com/custodia-labs/policyqa/internal/logger"
)

// Retriever fetches an over-sized candidate pool by semantic similarity.
type Retriever struct {
	embedder driven.EmbeddingService
}

// NewRetriever creates a retriever. The embedder must be the one the store was built with.
func NewRetriever(embedder driven.EmbeddingService) *Retriever {
	return &Retriever{embedder: embedder}
}

// Retrieve embeds the question and returns min(basePoolSize, ChunkCount) candidates.
// Provider failures surface as domain.ErrEmbeddingUnavailable; nothing is retried.
func (r *Retriever) Retrieve(ctx context.Context, question string, store *ChunkStore, basePoolSize int) (domain.CandidateSet, error) {
	if store == nil || store.ChunkCount() == 0 {
		return nil, domain.ErrNoCandidates
	}
	if basePoolSize < 1 {
		return nil, fmt.Errorf("%w: base pool size must be at least 1", domain.ErrInvalidInput)
	}
	if r.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	vec, err := r.embedder.Embed(ctx, strings.TrimSpace(question))
	if err != nil {
		return nil, wrapEmbeddingError(err)
	}
	if len(vec) != store.Dimensions() {
		return nil, fmt.Errorf("%w: question vector has %d dimensions, store has %d",
			domain.ErrEmbeddingUnavailable, len(vec), store.Dimensions())
	}

	topN := min(basePoolSize, store.ChunkCount())
	candidates, err := store.Search(vec, topN)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, domain.ErrNoCandidates
	}
	logger.Debug("Retrieved %d candidates (pool %d, chunks %d)", len(candidates), basePoolSize, store.ChunkCount())
	return candidates, nil
}
