package domain

// Chunk is an immutable unit of document text used as the atomic retrieval unit.
// Fields are unexported so a chunk cannot change once a ChunkStore owns it.
type Chunk struct {
	index     int
	text      string
	section   string
	embedding []float32
}

// NewChunk creates a chunk. The embedding is copied.
func NewChunk(index int, text, section string, embedding []float32) Chunk {
	return Chunk{
		index:     index,
		text:      text,
		section:   section,
		embedding: copyVector(embedding),
	}
}

// Index is the 0-based position of the chunk in its document.
func (c Chunk) Index() int { return c.index }

// Text returns the raw chunk text.
func (c Chunk) Text() string { return c.text }

// Section returns the heading of the document section the chunk came from, if any.
func (c Chunk) Section() string { return c.section }

// Embedding returns a copy of the chunk's vector.
func (c Chunk) Embedding() []float32 { return copyVector(c.embedding) }

// Dimensions returns the embedding length.
func (c Chunk) Dimensions() int { return len(c.embedding) }

// Preview returns at most n runes of the chunk text, with an ellipsis when truncated.
func (c Chunk) Preview(n int) string {
	return Truncate(c.text, n)
}

// Truncate shortens s to at most n runes, appending "..." when it was cut.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// Segment is a span of text produced by the post-processing pipeline.
// Segments become Chunks once embedded.
type Segment struct {
	// Text is the segment content.
	Text string

	// Section is the heading this segment belongs to.
	Section string
}

func copyVector(v []float32) []float32 {
	if v == nil {
		return nil
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
