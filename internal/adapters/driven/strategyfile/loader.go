// Package strategyfile loads retrieval strategies from YAML files.
//
// A file starts from a built-in strategy (extends) and overrides any field:
//
//	name: motor
//	extends: insurance
//	add_categories:
//	  - name: vehicle
//	    terms: [vehicle, car, accident, third party]
//	weights: {semantic: 0.55, keyword: 0.3, structural: 0.15}
//	tiers:
//	  complex: {min: 4, max: 8}
package strategyfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/policyqa/internal/core/domain"
	"github.com/custodia-labs/policyqa/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.StrategyLoader = (*Loader)(nil)

type categoryFile struct {
	Name  string   `yaml:"name"`
	Terms []string `yaml:"terms"`
}

type weightsFile struct {
	Semantic   float64 `yaml:"semantic"`
	Keyword    float64 `yaml:"keyword"`
	Structural float64 `yaml:"structural"`
}

type tierFile struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

type tiersFile struct {
	Simple  *tierFile `yaml:"simple"`
	Medium  *tierFile `yaml:"medium"`
	Complex *tierFile `yaml:"complex"`
}

// strategyFile mirrors domain.RetrievalConfig; pointer and nil-slice fields mean "inherit".
type strategyFile struct {
	Name              string         `yaml:"name"`
	Extends           string         `yaml:"extends"`
	Taxonomy          []categoryFile `yaml:"taxonomy"`
	AddCategories     []categoryFile `yaml:"add_categories"`
	StructuralMarkers []string       `yaml:"structural_markers"`
	NumberedMarkers   *bool          `yaml:"numbered_markers"`
	ComplexTriggers   []string       `yaml:"complex_triggers"`
	QuestionWords     []string       `yaml:"question_words"`
	YesNoStarters     []string       `yaml:"yes_no_starters"`
	Weights           *weightsFile   `yaml:"weights"`
	BasePoolSize      int            `yaml:"base_pool_size"`
	RelevanceFloor    *float64       `yaml:"relevance_floor"`
	BaselineChunks    int            `yaml:"baseline_chunks"`
	Tiers             tiersFile      `yaml:"tiers"`
}

// Loader reads strategy files.
type Loader struct{}

// NewLoader creates a strategy file loader.
func NewLoader() *Loader {
	return &Loader{}
}

// LoadStrategy parses and validates the strategy at path.
func (l *Loader) LoadStrategy(path string) (domain.RetrievalConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.RetrievalConfig{}, fmt.Errorf("%w: read strategy: %w", domain.ErrInvalidConfig, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return domain.RetrievalConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a strategy document. Unknown fields are rejected.
func Parse(data []byte) (domain.RetrievalConfig, error) {
	var f strategyFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return domain.RetrievalConfig{}, fmt.Errorf("%w: parse strategy: %w", domain.ErrInvalidConfig, err)
	}

	cfg, err := domain.Strategy(f.Extends)
	if err != nil {
		return domain.RetrievalConfig{}, fmt.Errorf("%w: extends: %w", domain.ErrInvalidConfig, err)
	}
	f.apply(&cfg)

	if err := cfg.Validate(); err != nil {
		return domain.RetrievalConfig{}, err
	}
	return cfg, nil
}

func (f strategyFile) apply(cfg *domain.RetrievalConfig) {
	if name := strings.TrimSpace(f.Name); name != "" {
		cfg.Name = name
	}
	if f.Taxonomy != nil {
		cfg.Taxonomy = toTaxonomy(f.Taxonomy)
	}
	cfg.Taxonomy = append(cfg.Taxonomy, toTaxonomy(f.AddCategories)...)
	if f.StructuralMarkers != nil {
		cfg.StructuralMarkers = lower(f.StructuralMarkers)
	}
	if f.NumberedMarkers != nil {
		cfg.NumberedMarkers = *f.NumberedMarkers
	}
	if f.ComplexTriggers != nil {
		cfg.ComplexTriggers = lower(f.ComplexTriggers)
	}
	if f.QuestionWords != nil {
		cfg.QuestionWords = lower(f.QuestionWords)
	}
	if f.YesNoStarters != nil {
		cfg.YesNoStarters = lower(f.YesNoStarters)
	}
	if f.Weights != nil {
		cfg.Weights = domain.Weights{
			Semantic:   f.Weights.Semantic,
			Keyword:    f.Weights.Keyword,
			Structural: f.Weights.Structural,
		}
	}
	if f.BasePoolSize != 0 {
		cfg.BasePoolSize = f.BasePoolSize
	}
	if f.RelevanceFloor != nil {
		cfg.RelevanceFloor = *f.RelevanceFloor
	}
	if f.BaselineChunks != 0 {
		cfg.BaselineChunks = f.BaselineChunks
	}
	for _, t := range []struct {
		src *tierFile
		dst *domain.TierLimit
	}{
		{f.Tiers.Simple, &cfg.Simple},
		{f.Tiers.Medium, &cfg.Medium},
		{f.Tiers.Complex, &cfg.Complex},
	} {
		if t.src != nil {
			*t.dst = domain.TierLimit{Min: t.src.Min, Max: t.src.Max}
		}
	}
}

func toTaxonomy(cats []categoryFile) domain.Taxonomy {
	out := make(domain.Taxonomy, 0, len(cats))
	for _, c := range cats {
		out = append(out, domain.Category{Name: strings.TrimSpace(c.Name), Terms: lower(c.Terms)})
	}
	return out
}

// lower normalises terms; matching runs against lowercased text.
func lower(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}
