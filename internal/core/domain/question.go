package domain

import "fmt"

// Complexity classifies how much evidence a question needs.
type Complexity int

// Complexity tiers, ordered from least to most evidence.
const (
	ComplexitySimple Complexity = iota
	ComplexityMedium
	ComplexityComplex
)

// String returns the lowercase label.
func (c Complexity) String() string {
	switch c {
	case ComplexitySimple:
		return "simple"
	case ComplexityMedium:
		return "medium"
	case ComplexityComplex:
		return "complex"
	default:
		return fmt.Sprintf("complexity(%d)", int(c))
	}
}

// IsValid returns true if the complexity is one of the known tiers.
func (c Complexity) IsValid() bool {
	return c >= ComplexitySimple && c <= ComplexityComplex
}

// MarshalText implements encoding.TextMarshaler.
func (c Complexity) MarshalText() ([]byte, error) {
	if !c.IsValid() {
		return nil, fmt.Errorf("%w: complexity %d", ErrInvalidInput, int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Complexity) UnmarshalText(text []byte) error {
	parsed, err := ParseComplexity(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseComplexity converts a label into a Complexity.
func ParseComplexity(s string) (Complexity, error) {
	switch s {
	case "simple":
		return ComplexitySimple, nil
	case "medium":
		return ComplexityMedium, nil
	case "complex":
		return ComplexityComplex, nil
	default:
		return ComplexitySimple, fmt.Errorf("%w: unknown complexity %q", ErrInvalidInput, s)
	}
}

// QuestionProfile holds the signals derived from one question.
// It is read-only once produced by the analyzer.
type QuestionProfile struct {
	// Question is the original question text.
	Question string

	// Complexity is the evidence tier.
	Complexity Complexity

	// Keywords is the sorted set of matched taxonomy categories.
	Keywords []string
}

// HasKeyword returns true if the category was matched.
func (p QuestionProfile) HasKeyword(category string) bool {
	for _, k := range p.Keywords {
		if k == category {
			return true
		}
	}
	return false
}
