package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/policyqa/internal/core/domain"
	"github.com/custodia-labs/policyqa/internal/core/ports/driven"
)

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

// buildDOCX creates a minimal DOCX archive in memory.
func buildDOCX(t *testing.T, documentXML, coreXML string) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	parts := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`,
	}
	if documentXML != "" {
		parts["word/document.xml"] = documentXML
	}
	if coreXML != "" {
		parts["docProps/core.xml"] = coreXML
	}
	for name, body := range parts {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func body(paragraphs string) string {
	return `<?xml version="1.0" encoding="UTF-8"?><w:document ` + wordNS + `><w:body>` + paragraphs + `</w:body></w:document>`
}

func TestSupportedMIMETypes(t *testing.T) {
	assert.Equal(t, []string{MIMEType}, New().SupportedMIMETypes())
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 50, New().Priority())
}

func TestNormalise_Success(t *testing.T) {
	content := buildDOCX(t,
		body(`<w:p><w:r><w:t>4.1 Waiting period</w:t></w:r></w:p><w:p><w:r><w:t>Cover starts after </w:t></w:r><w:r><w:t>24 months.</w:t></w:r></w:p>`),
		`<?xml version="1.0"?><cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:title>Health Policy</dc:title></cp:coreProperties>`,
	)
	raw := &domain.RawDocument{URI: "/docs/policy.docx", MIMEType: MIMEType, Content: content}

	doc, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, "Health Policy", doc.Title)
	assert.Equal(t, "4.1 Waiting period\nCover starts after 24 months.", doc.Content)
	assert.Equal(t, "docx", doc.Metadata["format"])
	assert.Equal(t, MIMEType, doc.Metadata["mime_type"])
}

func TestNormalise_NilDocument(t *testing.T) {
	doc, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, doc)
}

func TestNormalise_InvalidZip(t *testing.T) {
	raw := &domain.RawDocument{URI: "/docs/broken.docx", MIMEType: MIMEType, Content: []byte("not a zip")}

	_, err := New().Normalise(context.Background(), raw)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNormalise_MissingDocumentPart(t *testing.T) {
	raw := &domain.RawDocument{URI: "/docs/odd.docx", MIMEType: MIMEType, Content: buildDOCX(t, "", "")}

	_, err := New().Normalise(context.Background(), raw)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNormalise_TitleFallbackToFilename(t *testing.T) {
	raw := &domain.RawDocument{
		URI:      "/docs/motor_terms-2024.docx",
		MIMEType: MIMEType,
		Content:  buildDOCX(t, body(`<w:p><w:r><w:t>text</w:t></w:r></w:p>`), ""),
	}

	doc, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "motor terms 2024", doc.Title)
}

func TestNormalise_TabsAndBreaks(t *testing.T) {
	raw := &domain.RawDocument{
		URI:      "/docs/a.docx",
		MIMEType: MIMEType,
		Content:  buildDOCX(t, body(`<w:p><w:r><w:t>Benefit</w:t><w:tab/><w:t>Limit</w:t><w:br/><w:t>Dental</w:t></w:r></w:p>`), ""),
	}

	doc, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "Benefit Limit\nDental", doc.Content)
}

func TestNormalise_EmptyDocument(t *testing.T) {
	raw := &domain.RawDocument{
		URI:      "/docs/empty.docx",
		MIMEType: MIMEType,
		Content:  buildDOCX(t, body(`<w:p></w:p><w:p><w:r><w:t>  </w:t></w:r></w:p>`), ""),
	}

	_, err := New().Normalise(context.Background(), raw)
	assert.ErrorIs(t, err, domain.ErrDocumentEmpty)
}

func TestNormalise_MetadataPreserved(t *testing.T) {
	raw := &domain.RawDocument{
		URI:      "/docs/a.docx",
		MIMEType: MIMEType,
		Content:  buildDOCX(t, body(`<w:p><w:r><w:t>text</w:t></w:r></w:p>`), ""),
		Metadata: map[string]any{"source": "/docs/a.docx"},
	}

	doc, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "/docs/a.docx", doc.Metadata["source"])
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = (*Normaliser)(nil)
}
