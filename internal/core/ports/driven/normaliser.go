package driven

import (
	"context"

	"github.com/custodia-labs/policyqa/internal/core/domain"
)

// Normaliser extracts plain text from a raw document of specific MIME types.
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific normalisers return 50-89, fallbacks 1-9.
	Priority() int

	// Normalise converts a raw document into a plain-text document.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)
}

// NormaliserRegistry selects the appropriate normaliser for a document.
type NormaliserRegistry interface {
	// Normalise transforms a raw document using the best matching normaliser.
	// Returns domain.ErrUnsupportedType when no normaliser accepts the MIME type.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)

	// Register adds a normaliser to the registry.
	Register(normaliser Normaliser)

	// SupportedMIMETypes returns all MIME types that can be normalised.
	SupportedMIMETypes() []string
}

// DocumentLoader fetches the raw bytes behind a document reference.
type DocumentLoader interface {
	// Load fetches the document. The MIME type is detected when the source does not declare one.
	Load(ctx context.Context, uri string) (*domain.RawDocument, error)
}
