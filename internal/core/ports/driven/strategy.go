package driven

import "github.com/custodia-labs/policyqa/internal/core/domain"

// StrategyLoader reads a retrieval strategy from a file.
type StrategyLoader interface {
	// LoadStrategy parses and validates the strategy at path.
	LoadStrategy(path string) (domain.RetrievalConfig, error)
}
