package normalisers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/policyqa/internal/core/domain"
)

type fakeNormaliser struct {
	name     string
	types    []string
	priority int
}

func (f *fakeNormaliser) SupportedMIMETypes() []string { return f.types }
func (f *fakeNormaliser) Priority() int                { return f.priority }

func (f *fakeNormaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	return &domain.Document{URI: raw.URI, Content: string(raw.Content), Title: f.name}, nil
}

func TestRegistry_PicksHighestPriority(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeNormaliser{name: "fallback", types: []string{"text/plain"}, priority: 5})
	r.Register(&fakeNormaliser{name: "special", types: []string{"text/plain"}, priority: 60})
	r.Register(&fakeNormaliser{name: "late", types: []string{"text/plain"}, priority: 60})

	doc, err := r.Normalise(context.Background(), &domain.RawDocument{URI: "a", MIMEType: "text/plain", Content: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, "special", doc.Title)
}

func TestRegistry_IgnoresParameters(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeNormaliser{name: "html", types: []string{"text/html"}, priority: 50})

	doc, err := r.Normalise(context.Background(), &domain.RawDocument{MIMEType: "Text/HTML; charset=UTF-8", Content: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, "html", doc.Title)
}

func TestRegistry_Unsupported(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeNormaliser{name: "text", types: []string{"text/plain"}, priority: 5})

	_, err := r.Normalise(context.Background(), &domain.RawDocument{URI: "img.png", MIMEType: "image/png"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)

	_, err = r.Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()

	types := r.SupportedMIMETypes()
	for _, want := range []string{"text/plain", "text/markdown", "text/html", "application/pdf",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document"} {
		assert.Contains(t, types, want)
	}
	assert.IsIncreasing(t, types)

	doc, err := r.Normalise(context.Background(), &domain.RawDocument{
		URI:      "/tmp/cover.md",
		MIMEType: "text/markdown",
		Content:  []byte("# Cover\n\n**Dental** is covered."),
	})
	require.NoError(t, err)
	assert.Equal(t, "Cover", doc.Title)
	assert.Equal(t, "Cover\n\nDental is covered.", doc.Content)
}
