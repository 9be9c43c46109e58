package driving

import (
	"context"

	"github.com/custodia-labs/policyqa/internal/core/domain"
)

// RetrievalService selects the passages of a document that answer a question.
type RetrievalService interface {
	// Select runs analyze, retrieve, score, select and explain for one question.
	Select(ctx context.Context, uri, question string, opts domain.RetrievalOptions) (*domain.SelectionResult, error)

	// Analyze classifies a question without touching any document.
	Analyze(question string, strategy string) (domain.QuestionProfile, error)
}
