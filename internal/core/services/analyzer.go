package services

import (
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/policyqa/internal/core/domain"
)

// shortQuestionWords is the length at or below which a question without any
// open-question signal counts as a single fact lookup.
const shortQuestionWords = 4

// clauseSeparator splits a question into clauses for enumeration detection.
var clauseSeparator = regexp.MustCompile(`\s+and\s+|\s+as well as\s+|\s+also\s+|;`)

// Analyzer classifies question complexity and extracts taxonomy keywords.
type Analyzer struct {
	cfg domain.RetrievalConfig
}

// NewAnalyzer creates an analyzer for the given strategy.
func NewAnalyzer(cfg domain.RetrievalConfig) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Analyze never fails. Empty or whitespace-only input is simple with no keywords.
// Rules are checked from the most to the least demanding tier, so a question
// that fits several tiers lands in the higher one.
func (a *Analyzer) Analyze(question string) domain.QuestionProfile {
	profile := domain.QuestionProfile{
		Question:   question,
		Complexity: domain.ComplexitySimple,
		Keywords:   []string{},
	}
	q := strings.ToLower(strings.Join(strings.Fields(question), " "))
	if q == "" {
		return profile
	}

	profile.Keywords = a.Keywords(q)
	profile.Complexity = a.complexity(q)
	return profile
}

// Keywords returns the sorted categories whose terms occur in text.
func (a *Analyzer) Keywords(text string) []string {
	lower := strings.ToLower(text)
	matched := []string{}
	for _, cat := range a.cfg.Taxonomy {
		if cat.MatchIn(lower) {
			matched = append(matched, cat.Name)
		}
	}
	sort.Strings(matched)
	return matched
}

func (a *Analyzer) complexity(q string) domain.Complexity {
	if a.isComplex(q) {
		return domain.ComplexityComplex
	}
	if a.hasQuestionWord(q) {
		return domain.ComplexityMedium
	}
	if a.startsYesNo(q) || len(strings.Fields(q)) <= shortQuestionWords {
		return domain.ComplexitySimple
	}
	return domain.ComplexityMedium
}

func (a *Analyzer) isComplex(q string) bool {
	padded := " " + q + " "
	for _, trigger := range a.cfg.ComplexTriggers {
		if domain.ContainsTerm(padded, strings.ToLower(trigger)) {
			return true
		}
	}
	if strings.Count(q, "?") >= 2 {
		return true
	}

	// An enumeration needs at least two clauses that each ask about something.
	informative := 0
	for _, clause := range clauseSeparator.Split(q, -1) {
		if a.hasQuestionWord(clause) || len(a.Keywords(clause)) > 0 {
			informative++
		}
	}
	return informative >= 2
}

func (a *Analyzer) hasQuestionWord(q string) bool {
	for _, w := range a.cfg.QuestionWords {
		if containsWord(q, w) {
			return true
		}
	}
	return false
}

func (a *Analyzer) startsYesNo(q string) bool {
	first := strings.Fields(q)
	if len(first) == 0 {
		return false
	}
	word := strings.Trim(first[0], "?,.!")
	for _, s := range a.cfg.YesNoStarters {
		if word == s {
			return true
		}
	}
	return false
}

// containsWord matches w as a whole word.
func containsWord(text, w string) bool {
	for _, f := range strings.FieldsFunc(text, func(r rune) bool {
		return !(r == '-' || r == '\'' || ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') || r > 127)
	}) {
		if f == w {
			return true
		}
	}
	return false
}
