package domain

import "time"

// RawDocument represents opaque bytes fetched by a document loader.
type RawDocument struct {
	// URI is the original location (file path or URL).
	URI string

	// MIMEType is the content type (e.g., "application/pdf").
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// Metadata contains loader-specific key-value pairs.
	Metadata map[string]any
}

// Document is the plain-text form of a loaded document.
type Document struct {
	// ID is the unique identifier for this load of the document.
	ID string

	// URI is the original location.
	URI string

	// Title is the human-readable title.
	Title string

	// Content is the full extracted text before chunking.
	Content string

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// LoadedAt is when the document was fetched.
	LoadedAt time.Time
}

// DocumentInfo summarises a loaded document and its chunk store.
type DocumentInfo struct {
	URI         string
	Title       string
	Fingerprint string
	ChunkCount  int
	Dimensions  int
	Model       string
	BuiltAt     time.Time
}
