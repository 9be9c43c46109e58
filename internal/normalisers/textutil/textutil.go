// Package textutil holds helpers shared by the format normalisers.
package textutil

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/policyqa/internal/core/domain"
)

var (
	multiSpaces   = regexp.MustCompile(`[ \t\f\v]+`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// NewDocument builds a document from extracted text.
// Returns domain.ErrDocumentEmpty when content has no visible text.
func NewDocument(raw *domain.RawDocument, title, content, format string) (*domain.Document, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrDocumentEmpty, raw.URI)
	}
	if title == "" {
		title = TitleFromURI(raw.URI)
	}

	meta := CopyMetadata(raw.Metadata)
	if meta == nil {
		meta = make(map[string]any)
	}
	meta["mime_type"] = raw.MIMEType
	meta["format"] = format

	return &domain.Document{
		ID:       uuid.New().String(),
		URI:      raw.URI,
		Title:    title,
		Content:  content,
		Metadata: meta,
		LoadedAt: time.Now(),
	}, nil
}

// MetadataTitle returns raw.Metadata["title"] when set.
func MetadataTitle(raw *domain.RawDocument) string {
	if raw.Metadata == nil {
		return ""
	}
	if title, ok := raw.Metadata["title"].(string); ok {
		return strings.TrimSpace(title)
	}
	return ""
}

// TitleFromURI derives a readable title from the last path segment.
// Query strings and fragments are ignored.
func TitleFromURI(uri string) string {
	if i := strings.IndexAny(uri, "?#"); i >= 0 {
		uri = uri[:i]
	}
	name := path.Base(strings.ReplaceAll(uri, "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	if ext := path.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return strings.TrimSpace(name)
}

// FirstLine returns the first non-blank line, trimmed to at most max runes.
func FirstLine(content string, max int) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if r := []rune(line); max > 0 && len(r) > max {
			return strings.TrimSpace(string(r[:max]))
		}
		return line
	}
	return ""
}

// Clean normalises line endings, collapses runs of horizontal whitespace,
// trims each line and keeps at most one blank line between paragraphs.
func Clean(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = strings.ReplaceAll(content, "\u00a0", " ")
	content = multiSpaces.ReplaceAllString(content, " ")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	content = strings.Join(lines, "\n")
	content = multiNewlines.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}

// CopyMetadata creates a shallow copy of metadata.
func CopyMetadata(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
