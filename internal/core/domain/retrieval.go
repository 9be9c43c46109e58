package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Default retrieval policy values.
const (
	DefaultBasePoolSize   = 20
	DefaultRelevanceFloor = 0.5
	DefaultBaselineChunks = 5
)

// Strategy names for the built-in retrieval configurations.
const (
	StrategyInsurance = "insurance"
	StrategyLegal     = "legal"
)

// Category is one entry of a keyword taxonomy.
// Terms are matched case-insensitively at word starts, so "reimburs" matches "reimbursement".
type Category struct {
	Name  string
	Terms []string
}

// MatchIn reports whether any term occurs in text. text must already be lowercase.
func (c Category) MatchIn(text string) bool {
	for _, term := range c.Terms {
		if ContainsTerm(text, term) {
			return true
		}
	}
	return false
}

// Taxonomy is an ordered list of keyword categories.
type Taxonomy []Category

// Names returns category names in taxonomy order.
func (t Taxonomy) Names() []string {
	names := make([]string, len(t))
	for i, c := range t {
		names[i] = c.Name
	}
	return names
}

// Lookup returns the category with the given name.
func (t Taxonomy) Lookup(name string) (Category, bool) {
	for _, c := range t {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

// Weights are the composite score coefficients.
type Weights struct {
	Semantic   float64
	Keyword    float64
	Structural float64
}

// DefaultWeights returns the semantic-dominant default weighting.
func DefaultWeights() Weights {
	return Weights{Semantic: 0.6, Keyword: 0.25, Structural: 0.15}
}

// Sum returns the total weight.
func (w Weights) Sum() float64 {
	return w.Semantic + w.Keyword + w.Structural
}

// Validate checks that every weight lies in [0,1] and semantic dominates.
func (w Weights) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{{"semantic", w.Semantic}, {"keyword", w.Keyword}, {"structural", w.Structural}} {
		if math.IsNaN(f.v) || f.v < 0 || f.v > 1 {
			return fmt.Errorf("%w: %s weight %v outside [0,1]", ErrInvalidConfig, f.name, f.v)
		}
	}
	if w.Sum() <= 0 {
		return fmt.Errorf("%w: weights sum to zero", ErrInvalidConfig)
	}
	if w.Semantic <= w.Keyword || w.Semantic <= w.Structural {
		return fmt.Errorf("%w: semantic weight must exceed keyword and structural weights", ErrInvalidConfig)
	}
	return nil
}

// TierLimit bounds the number of chunks selected for one complexity tier.
// Slots above Min are discretionary and subject to the relevance floor.
type TierLimit struct {
	Min int
	Max int
}

// RetrievalConfig is the injected retrieval policy: taxonomy, structural
// markers, analyzer triggers, weights and selection limits.
// Swapping the config swaps the domain strategy without touching the core.
type RetrievalConfig struct {
	// Name identifies the strategy (e.g. "insurance").
	Name string

	// Taxonomy is the keyword category table.
	Taxonomy Taxonomy

	// StructuralMarkers are phrases that signal operative document language.
	StructuralMarkers []string

	// NumberedMarkers enables detection of numbered-list markers such as "2.1" or "(a)".
	NumberedMarkers bool

	// ComplexTriggers are phrases that mark a question as complex.
	ComplexTriggers []string

	// QuestionWords mark open questions (medium unless a complex rule fires).
	QuestionWords []string

	// YesNoStarters are leading words of closed questions.
	YesNoStarters []string

	// Weights are the composite score coefficients.
	Weights Weights

	// BasePoolSize is the number of candidates fetched before scoring.
	BasePoolSize int

	// RelevanceFloor is the fraction of the top composite score a discretionary chunk must reach.
	RelevanceFloor float64

	// BaselineChunks is the fixed chunk count used to report token savings.
	BaselineChunks int

	// Simple, Medium and Complex bound the selection size per tier.
	Simple  TierLimit
	Medium  TierLimit
	Complex TierLimit
}

// Tier returns the selection limits for a complexity.
func (c RetrievalConfig) Tier(complexity Complexity) TierLimit {
	switch complexity {
	case ComplexitySimple:
		return c.Simple
	case ComplexityMedium:
		return c.Medium
	default:
		return c.Complex
	}
}

// Validate checks the configuration once, at the boundary.
func (c RetrievalConfig) Validate() error {
	if len(c.Taxonomy) == 0 {
		return fmt.Errorf("%w: taxonomy is empty", ErrInvalidConfig)
	}
	seen := make(map[string]struct{}, len(c.Taxonomy))
	for _, cat := range c.Taxonomy {
		if strings.TrimSpace(cat.Name) == "" {
			return fmt.Errorf("%w: taxonomy category without a name", ErrInvalidConfig)
		}
		if _, dup := seen[cat.Name]; dup {
			return fmt.Errorf("%w: duplicate taxonomy category %q", ErrInvalidConfig, cat.Name)
		}
		seen[cat.Name] = struct{}{}
		if len(cat.Terms) == 0 {
			return fmt.Errorf("%w: taxonomy category %q has no terms", ErrInvalidConfig, cat.Name)
		}
	}
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	if c.BasePoolSize < 1 {
		return fmt.Errorf("%w: base pool size must be at least 1", ErrInvalidConfig)
	}
	if math.IsNaN(c.RelevanceFloor) || c.RelevanceFloor < 0 || c.RelevanceFloor > 1 {
		return fmt.Errorf("%w: relevance floor %v outside [0,1]", ErrInvalidConfig, c.RelevanceFloor)
	}
	if c.BaselineChunks < 1 {
		return fmt.Errorf("%w: baseline chunks must be at least 1", ErrInvalidConfig)
	}
	prev := TierLimit{Min: 1, Max: 1}
	for _, tier := range []struct {
		name  string
		limit TierLimit
	}{{"simple", c.Simple}, {"medium", c.Medium}, {"complex", c.Complex}} {
		if tier.limit.Min < 1 || tier.limit.Max < tier.limit.Min {
			return fmt.Errorf("%w: %s tier limits %d..%d", ErrInvalidConfig, tier.name, tier.limit.Min, tier.limit.Max)
		}
		if tier.limit.Min < prev.Min || tier.limit.Max < prev.Max {
			return fmt.Errorf("%w: %s tier must not select fewer chunks than the tier below", ErrInvalidConfig, tier.name)
		}
		prev = tier.limit
	}
	return nil
}

// Clone returns a deep copy.
func (c RetrievalConfig) Clone() RetrievalConfig {
	out := c
	out.Taxonomy = make(Taxonomy, len(c.Taxonomy))
	for i, cat := range c.Taxonomy {
		out.Taxonomy[i] = Category{Name: cat.Name, Terms: append([]string(nil), cat.Terms...)}
	}
	out.StructuralMarkers = append([]string(nil), c.StructuralMarkers...)
	out.ComplexTriggers = append([]string(nil), c.ComplexTriggers...)
	out.QuestionWords = append([]string(nil), c.QuestionWords...)
	out.YesNoStarters = append([]string(nil), c.YesNoStarters...)
	return out
}

// WithOptions returns a copy with the non-zero options applied, validated.
func (c RetrievalConfig) WithOptions(opts RetrievalOptions) (RetrievalConfig, error) {
	if err := opts.Validate(); err != nil {
		return RetrievalConfig{}, err
	}
	out := c.Clone()
	if opts.BasePoolSize > 0 {
		out.BasePoolSize = opts.BasePoolSize
	}
	if opts.RelevanceFloor != nil {
		out.RelevanceFloor = *opts.RelevanceFloor
	}
	if opts.Weights != nil {
		out.Weights = *opts.Weights
	}
	if err := out.Validate(); err != nil {
		return RetrievalConfig{}, err
	}
	return out, nil
}

// RetrievalOptions are per-request overrides of the retrieval policy.
// Zero values mean "use the configured default".
type RetrievalOptions struct {
	// Strategy selects a built-in or registered strategy by name.
	Strategy string

	// BasePoolSize overrides the candidate pool size when positive.
	BasePoolSize int

	// RelevanceFloor overrides the relevance floor when set.
	RelevanceFloor *float64

	// Weights overrides the composite weights when set.
	Weights *Weights
}

// Validate checks the options without a base config.
func (o RetrievalOptions) Validate() error {
	if o.BasePoolSize < 0 {
		return fmt.Errorf("%w: base_pool_size must not be negative", ErrInvalidInput)
	}
	if o.RelevanceFloor != nil {
		f := *o.RelevanceFloor
		if math.IsNaN(f) || f < 0 || f > 1 {
			return fmt.Errorf("%w: relevance_floor %v outside [0,1]", ErrInvalidInput, f)
		}
	}
	if o.Weights != nil {
		if err := o.Weights.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
	}
	return nil
}

// IsZero returns true when no override is set.
func (o RetrievalOptions) IsZero() bool {
	return o.Strategy == "" && o.BasePoolSize == 0 && o.RelevanceFloor == nil && o.Weights == nil
}

// ContainsTerm reports whether term occurs in text starting at a word boundary.
// Both arguments are expected in lowercase.
func ContainsTerm(text, term string) bool {
	if term == "" {
		return false
	}
	first, _ := utf8.DecodeRuneInString(term)
	leadingWord := isWordRune(first)
	offset := 0
	for {
		i := strings.Index(text[offset:], term)
		if i < 0 {
			return false
		}
		pos := offset + i
		if pos == 0 || !leadingWord {
			return true
		}
		if prev, _ := utf8.DecodeLastRuneInString(text[:pos]); !isWordRune(prev) {
			return true
		}
		offset = pos + 1
		if offset >= len(text) {
			return false
		}
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// StrategyNames returns the names of the built-in strategies.
func StrategyNames() []string {
	names := []string{StrategyInsurance, StrategyLegal}
	sort.Strings(names)
	return names
}

// Strategy returns a fresh copy of a built-in strategy.
func Strategy(name string) (RetrievalConfig, error) {
	switch name {
	case "", StrategyInsurance:
		return InsuranceStrategy(), nil
	case StrategyLegal:
		return LegalStrategy(), nil
	default:
		return RetrievalConfig{}, fmt.Errorf("%w: unknown retrieval strategy %q", ErrInvalidInput, name)
	}
}

// InsuranceStrategy is the policy-document strategy with the insurance keyword table.
func InsuranceStrategy() RetrievalConfig {
	return RetrievalConfig{
		Name:              StrategyInsurance,
		Taxonomy:          insuranceTaxonomy(),
		StructuralMarkers: defaultStructuralMarkers(),
		NumberedMarkers:   true,
		ComplexTriggers:   defaultComplexTriggers(),
		QuestionWords:     []string{"what", "how", "why", "when", "which", "who", "where"},
		YesNoStarters:     []string{"does", "is", "are", "can", "will", "do", "has", "have", "was", "were"},
		Weights:           DefaultWeights(),
		BasePoolSize:      DefaultBasePoolSize,
		RelevanceFloor:    DefaultRelevanceFloor,
		BaselineChunks:    DefaultBaselineChunks,
		Simple:            TierLimit{Min: 2, Max: 2},
		Medium:            TierLimit{Min: 3, Max: 4},
		Complex:           TierLimit{Min: 3, Max: 6},
	}
}

// LegalStrategy extends the insurance table with contract-law categories.
func LegalStrategy() RetrievalConfig {
	cfg := InsuranceStrategy()
	cfg.Name = StrategyLegal
	cfg.Taxonomy = append(cfg.Taxonomy,
		Category{Name: "obligations", Terms: []string{"obligation", "obliged", "required to", "undertake", "responsible for"}},
		Category{Name: "termination", Terms: []string{"terminat", "cancel", "expire", "expiry", "rescind", "revoke"}},
		Category{Name: "liability", Terms: []string{"liab", "indemn", "damages", "compensat", "negligen"}},
		Category{Name: "definitions", Terms: []string{"means", "defined", "definition", "shall mean", "refers to"}},
		Category{Name: "dispute_resolution", Terms: []string{"dispute", "arbitrat", "court", "jurisdiction", "governing law", "ombudsman"}},
	)
	cfg.StructuralMarkers = append(cfg.StructuralMarkers, "article", "schedule", "annexure", "hereinafter", "notwithstanding")
	return cfg
}

func insuranceTaxonomy() Taxonomy {
	return Taxonomy{
		{Name: "coverage", Terms: []string{"cover", "benefit", "eligible", "include", "indemnif"}},
		{Name: "exclusions", Terms: []string{"exclu", "not covered", "limitation", "except"}},
		{Name: "conditions", Terms: []string{"condition", "requirement", "must", "shall", "provided that"}},
		{Name: "waiting_period", Terms: []string{"waiting period", "wait", "months", "continuous coverage", "cooling"}},
		{Name: "claims", Terms: []string{"claim", "reimburs", "settle", "process", "cashless"}},
		{Name: "medical", Terms: []string{"medical", "treatment", "surgery", "hospital", "doctor", "physician", "maternity", "pregnan", "pre-existing", "illness", "disease"}},
		{Name: "premium", Terms: []string{"premium", "payment", "due", "grace period", "renewal", "instalment"}},
		{Name: "policy", Terms: []string{"policy", "insured", "policyholder", "sum insured", "schedule"}},
	}
}

func defaultStructuralMarkers() []string {
	return []string{
		"section", "subsection", "clause", "paragraph",
		"provided that", "subject to", "shall", "in accordance with",
		"terms and conditions", "as defined", "shall mean",
	}
}

func defaultComplexTriggers() []string {
	return []string{
		"compare", "comparison", "versus", " vs ", "difference",
		"multiple", "various", "different", "comprehensive", "detailed",
		"complete", "what are the conditions", "list all",
	}
}
