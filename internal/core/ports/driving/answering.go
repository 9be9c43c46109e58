package driving

import (
	"context"

	"github.com/custodia-labs/policyqa/internal/core/domain"
)

// AnswerService answers questions about a document.
type AnswerService interface {
	// Answer processes every question concurrently against one document.
	// Per-question failures are reported in the batch, not as the returned error.
	// The returned error is set only when the document itself cannot be loaded.
	Answer(ctx context.Context, req domain.AnswerRequest) (*domain.AnswerBatch, error)

	// AnswerOne answers a single question.
	AnswerOne(ctx context.Context, uri, question string, opts domain.RetrievalOptions) (*domain.Answer, error)
}
