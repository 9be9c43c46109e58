package driving

import (
	"context"

	"github.com/custodia-labs/policyqa/internal/core/domain"
)

// DocumentService loads documents into chunk stores and keeps them warm.
type DocumentService interface {
	// Load returns the chunk store summary for uri, building it on first use.
	// Concurrent loads of the same uri share one build.
	Load(ctx context.Context, uri string) (domain.DocumentInfo, error)

	// Refresh rebuilds the chunk store and atomically replaces the cached one.
	Refresh(ctx context.Context, uri string) (domain.DocumentInfo, error)

	// Evict drops the cached chunk store. In-flight questions keep using it.
	Evict(uri string) bool

	// List returns summaries of all cached documents.
	List() []domain.DocumentInfo
}
