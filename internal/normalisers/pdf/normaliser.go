// Package pdf provides a Normaliser for PDF documents backed by a pure-Go
// PDF reader, so no external tools are needed.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/policyqa/internal/core/domain"
	"github.com/custodia-labs/policyqa/internal/core/ports/driven"
	"github.com/custodia-labs/policyqa/internal/logger"
	"github.com/custodia-labs/policyqa/internal/normalisers/textutil"
)

// maxTitleRunes skips first lines that are really paragraphs.
const maxTitleRunes = 200

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Extraction is the text pulled out of a PDF.
type Extraction struct {
	Pages []string
	Title string
}

// Extractor reads page text from PDF bytes.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (*Extraction, error)
}

// Normaliser handles PDF documents.
type Normaliser struct {
	extractor Extractor
}

// New creates a PDF normaliser using the built-in reader.
func New() *Normaliser {
	return &Normaliser{extractor: readerExtractor{}}
}

// NewWithExtractor creates a PDF normaliser with a custom extractor.
func NewWithExtractor(e Extractor) *Normaliser {
	return &Normaliser{extractor: e}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts the text of every page. Pages are separated by a blank line.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if !bytes.HasPrefix(bytes.TrimLeft(raw.Content, "\x00\t\r\n "), []byte("%PDF-")) {
		return nil, fmt.Errorf("%w: %s has no PDF header", domain.ErrInvalidInput, raw.URI)
	}

	ext, err := n.extractor.Extract(ctx, raw.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, raw.URI, err)
	}

	pages := make([]string, 0, len(ext.Pages))
	for _, p := range ext.Pages {
		if p = textutil.Clean(p); p != "" {
			pages = append(pages, p)
		}
	}
	content := strings.Join(pages, "\n\n")
	logger.Debug("pdf: %s: %d pages, %d with text", raw.URI, len(ext.Pages), len(pages))

	title := textutil.MetadataTitle(raw)
	if title == "" {
		title = strings.TrimSpace(ext.Title)
	}
	if title == "" {
		title = extractTitle(content, raw.URI)
	}

	doc, err := textutil.NewDocument(raw, title, content, "pdf")
	if err != nil {
		return nil, err
	}
	doc.Metadata["pages"] = len(ext.Pages)
	return doc, nil
}

// extractTitle uses the first reasonably short line, then the filename.
func extractTitle(content, uri string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || utf8.RuneCountInString(line) > maxTitleRunes {
			continue
		}
		if strings.ContainsRune(line, 0) {
			continue
		}
		return line
	}
	return textutil.TitleFromURI(uri)
}

type readerExtractor struct{}

// Extract walks pages in order. Malformed input can make the reader panic,
// which is reported as an error.
func (readerExtractor) Extract(ctx context.Context, data []byte) (ext *Extraction, err error) {
	defer func() {
		if r := recover(); r != nil {
			ext, err = nil, fmt.Errorf("read pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	ext = &Extraction{Title: r.Trailer().Key("Info").Key("Title").Text()}
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			ext.Pages = append(ext.Pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		ext.Pages = append(ext.Pages, text)
	}
	return ext, nil
}
