package normalisers

import (
	"github.com/custodia-labs/policyqa/internal/normalisers/docx"
	"github.com/custodia-labs/policyqa/internal/normalisers/html"
	"github.com/custodia-labs/policyqa/internal/normalisers/markdown"
	"github.com/custodia-labs/policyqa/internal/normalisers/pdf"
	"github.com/custodia-labs/policyqa/internal/normalisers/plaintext"
)

// RegisterDefaults registers the built-in normalisers.
func RegisterDefaults(r *Registry) {
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(pdf.New())
	r.Register(docx.New())
}

// DefaultRegistry returns a registry with the built-in normalisers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}
