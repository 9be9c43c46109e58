// Package loader fetches policy documents from local paths and HTTP(S) URLs.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/policyqa/internal/core/domain"
	"github.com/custodia-labs/policyqa/internal/core/ports/driven"
	"github.com/custodia-labs/policyqa/internal/logger"
)

// Ensure Loader implements the interface.
var _ driven.DocumentLoader = (*Loader)(nil)

// Default configuration values.
const (
	DefaultMaxBytes = 50 << 20
	DefaultTimeout  = 60 * time.Second
	userAgent       = "policyqa/1.0"
)

// extensionTypes covers extensions the platform MIME table often lacks.
var extensionTypes = map[string]string{
	".pdf":      "application/pdf",
	".docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".txt":      "text/plain",
	".htm":      "text/html",
	".html":     "text/html",
}

// Config holds loader configuration.
type Config struct {
	// MaxBytes bounds document size.
	MaxBytes int64

	// Timeout bounds one HTTP fetch.
	Timeout time.Duration

	// AllowFiles permits local paths and file:// URLs. Servers facing
	// untrusted callers should leave this off.
	AllowFiles bool
}

// Loader implements driven.DocumentLoader.
type Loader struct {
	client     *http.Client
	maxBytes   int64
	allowFiles bool
}

// New creates a document loader.
func New(cfg Config) *Loader {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Loader{
		client:     &http.Client{Timeout: cfg.Timeout},
		maxBytes:   cfg.MaxBytes,
		allowFiles: cfg.AllowFiles,
	}
}

// Load fetches uri and detects its MIME type.
func (l *Loader) Load(ctx context.Context, uri string) (*domain.RawDocument, error) {
	u, err := url.Parse(uri)
	if err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return l.fetch(ctx, uri, u)
	}
	if !l.allowFiles {
		return nil, fmt.Errorf("%w: only http and https document URLs are accepted", domain.ErrInvalidInput)
	}
	p := uri
	if err == nil && u.Scheme == "file" {
		p = u.Path
	} else if err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		return nil, fmt.Errorf("%w: unsupported URL scheme %q", domain.ErrInvalidInput, u.Scheme)
	}
	return l.readFile(p, uri)
}

func (l *Loader) fetch(ctx context.Context, uri string, u *url.URL) (*domain.RawDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", u.Redacted(), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, fmt.Errorf("download %s: %w", u.Redacted(), domain.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("download %s: unexpected status %d", u.Redacted(), resp.StatusCode)
	case resp.ContentLength > l.maxBytes:
		return nil, l.tooLarge(resp.ContentLength)
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", u.Redacted(), err)
	}
	if int64(len(content)) > l.maxBytes {
		return nil, l.tooLarge(int64(len(content)))
	}
	logger.Debug("fetched %s: %d bytes in %s", u.Redacted(), len(content), time.Since(start).Round(time.Millisecond))

	return l.raw(uri, path.Base(u.Path), resp.Header.Get("Content-Type"), content, map[string]any{
		"source":       "http",
		"content_type": resp.Header.Get("Content-Type"),
	})
}

func (l *Loader) readFile(p, uri string) (*domain.RawDocument, error) {
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", p, domain.ErrNotFound)
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, p)
	}
	if info.Size() > l.maxBytes {
		return nil, l.tooLarge(info.Size())
	}
	content, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	return l.raw(uri, filepath.Base(p), "", content, map[string]any{
		"source": "file",
		"path":   p,
	})
}

func (l *Loader) raw(uri, name, declared string, content []byte, meta map[string]any) (*domain.RawDocument, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("%s: %w", uri, domain.ErrDocumentEmpty)
	}
	meta["filename"] = name
	meta["size"] = len(content)
	return &domain.RawDocument{
		URI:      uri,
		MIMEType: DetectMIMEType(name, declared, content),
		Content:  content,
		Metadata: meta,
	}, nil
}

func (l *Loader) tooLarge(n int64) error {
	return fmt.Errorf("%w: document is %d bytes, limit is %d", domain.ErrInvalidInput, n, l.maxBytes)
}

// DetectMIMEType picks the declared type unless it is missing or generic,
// then the file extension, then content sniffing.
func DetectMIMEType(name, declared string, content []byte) string {
	if declared != "" {
		if mt, _, err := mime.ParseMediaType(declared); err == nil && !isGeneric(mt) {
			return mt
		}
	}
	ext := strings.ToLower(filepath.Ext(name))
	if mt, ok := extensionTypes[ext]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		if parsed, _, err := mime.ParseMediaType(mt); err == nil {
			return parsed
		}
	}
	mt, _, _ := mime.ParseMediaType(http.DetectContentType(content))
	return mt
}

func isGeneric(mt string) bool {
	return mt == "application/octet-stream" || mt == "binary/octet-stream" || mt == "application/download"
}
