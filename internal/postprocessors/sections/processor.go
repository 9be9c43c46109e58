// Package sections splits legal and policy text at numbered headings
// such as "4 Exclusions" or "4.2.1 Pre-existing diseases".
package sections

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/policyqa/internal/core/domain"
)

// DefaultMaxTitle is the number of runes of a heading kept as the section title.
const DefaultMaxTitle = 80

// headingPattern matches a line that starts with a dotted section number followed by text.
var headingPattern = regexp.MustCompile(`(?m)^[ \t]*(\d+(?:\.\d+)*\.?)[ \t]+(\S[^\n]*)$`)

// Processor splits content so that every numbered heading starts a new segment.
type Processor struct {
	maxTitle int
}

// Option configures the processor.
type Option func(*Processor)

// WithMaxTitle sets how many runes of the heading line become the section title.
func WithMaxTitle(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxTitle = n
		}
	}
}

// New creates a section splitter.
func New(opts ...Option) *Processor {
	p := &Processor{maxTitle: DefaultMaxTitle}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "sections"
}

// Process splits doc.Content, or each input segment, at numbered headings.
// Text before the first heading becomes a segment without a section.
func (p *Processor) Process(_ context.Context, doc *domain.Document, segments []domain.Segment) ([]domain.Segment, error) {
	if segments == nil {
		return p.split(doc.Content, ""), nil
	}
	var out []domain.Segment
	for _, seg := range segments {
		out = append(out, p.split(seg.Text, seg.Section)...)
	}
	return out, nil
}

func (p *Processor) split(text, inherited string) []domain.Segment {
	matches := headingPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []domain.Segment{{Text: strings.TrimSpace(text), Section: inherited}}
	}

	var out []domain.Segment
	if pre := strings.TrimSpace(text[:matches[0][0]]); pre != "" {
		out = append(out, domain.Segment{Text: pre, Section: inherited})
	}
	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		body := strings.TrimSpace(text[m[0]:end])
		if body == "" {
			continue
		}
		title := strings.TrimSpace(text[m[2]:m[3]]) + " " + strings.TrimSpace(text[m[4]:m[5]])
		out = append(out, domain.Segment{Text: body, Section: domain.Truncate(title, p.maxTitle)})
	}
	return out
}
