// Package chunker splits segments into overlapping, size-bounded chunks.
package chunker

import (
	"context"
	"strings"
	"unicode"

	"github.com/custodia-labs/policyqa/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// boundaryWindow is the fraction of a chunk, counted back from its end,
// searched for a sentence or word boundary to cut at.
const boundaryWindow = 0.2

// Processor splits segment text into chunks of at most chunkSize runes.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured chunk size.
func (p *Processor) ChunkSize() int { return p.chunkSize }

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int { return p.overlap }

// Process splits every segment longer than the chunk size.
// With no input segments the whole document content is split.
// Whitespace-only text produces no chunks.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, segments []domain.Segment) ([]domain.Segment, error) {
	if segments == nil {
		segments = []domain.Segment{{Text: doc.Content}}
	}

	out := make([]domain.Segment, 0, len(segments))
	for _, seg := range segments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, text := range p.split(seg.Text) {
			out = append(out, domain.Segment{Text: text, Section: seg.Section})
		}
	}
	return out, nil
}

func (p *Processor) split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	runes := []rune(text)
	if len(runes) <= p.chunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + p.chunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = cutPoint(runes, start, end)
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}

		next := end - p.overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

// cutPoint moves end back to the last sentence end, or failing that the last
// space, inside the trailing boundary window. It never returns a value <= start.
func cutPoint(runes []rune, start, end int) int {
	window := int(float64(end-start) * boundaryWindow)
	lower := end - window
	if lower <= start {
		return end
	}

	for i := end - 1; i >= lower; i-- {
		if isSentenceEnd(runes, i) {
			return i + 1
		}
	}
	for i := end - 1; i >= lower; i-- {
		if unicode.IsSpace(runes[i]) {
			return i + 1
		}
	}
	return end
}

func isSentenceEnd(runes []rune, i int) bool {
	if runes[i] == '\n' {
		return true
	}
	switch runes[i] {
	case '.', '!', '?', ';':
		return i+1 < len(runes) && unicode.IsSpace(runes[i+1])
	}
	return false
}
