package driven

import (
	"context"

	"github.com/custodia-labs/policyqa/internal/core/domain"
)

// PostProcessor turns document text into segments.
// PostProcessors are chained in a pipeline (e.g., section splitting, then size chunking).
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process receives the segments produced so far and returns new ones.
	// The first processor receives nil and should segment doc.Content.
	Process(ctx context.Context, doc *domain.Document, segments []domain.Segment) ([]domain.Segment, error)
}

// PostProcessorPipeline chains multiple PostProcessors.
type PostProcessorPipeline interface {
	// Process runs the document through all processors in order.
	Process(ctx context.Context, doc *domain.Document) ([]domain.Segment, error)
}
