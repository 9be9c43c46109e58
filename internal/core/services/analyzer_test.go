package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/policyqa/internal/core/domain"
)

func TestAnalyzer_Complexity(t *testing.T) {
	analyzer := NewAnalyzer(domain.InsuranceStrategy())

	tests := []struct {
		question string
		want     domain.Complexity
	}{
		{"Does the policy cover maternity?", domain.ComplexitySimple},
		{"Is dental included?", domain.ComplexitySimple},
		{"Grace period length?", domain.ComplexitySimple},
		{"What is the grace period for premium payment?", domain.ComplexityMedium},
		{"How are cashless claims settled?", domain.ComplexityMedium},
		{"Please tell me about the portability rules of this plan", domain.ComplexityMedium},
		{"Compare the waiting periods for pre-existing conditions versus maternity coverage and explain the claims process", domain.ComplexityComplex},
		{"What is covered? What is excluded?", domain.ComplexityComplex},
		{"What is the waiting period and how do I file a claim?", domain.ComplexityComplex},
		{"List all exclusions", domain.ComplexityComplex},
		{"Does the policy cover surgery vs physiotherapy?", domain.ComplexityComplex},
		{"Does it explain renewal?", domain.ComplexitySimple},
		{"Explain the grace period clause in plain words", domain.ComplexityMedium},
		{"How do the benefits differ for dental?", domain.ComplexityMedium},
		{"Are all the benefits taxable?", domain.ComplexitySimple},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			assert.Equal(t, tt.want, analyzer.Analyze(tt.question).Complexity)
		})
	}
}

func TestAnalyzer_Keywords(t *testing.T) {
	analyzer := NewAnalyzer(domain.InsuranceStrategy())

	profile := analyzer.Analyze("Does the policy cover maternity?")
	assert.Equal(t, []string{"coverage", "medical", "policy"}, profile.Keywords)

	profile = analyzer.Analyze("Compare the waiting periods for pre-existing conditions versus maternity coverage and explain the claims process")
	for _, want := range []string{"waiting_period", "medical", "coverage", "claims"} {
		assert.Contains(t, profile.Keywords, want)
	}
	assert.IsIncreasing(t, profile.Keywords)
}

func TestAnalyzer_KeywordsRespectWordStarts(t *testing.T) {
	analyzer := NewAnalyzer(domain.InsuranceStrategy())

	// "discover" contains "cover" but not at a word start.
	profile := analyzer.Analyze("Where can I discover the grievance office?")
	assert.NotContains(t, profile.Keywords, "coverage")
}

func TestAnalyzer_Totality(t *testing.T) {
	analyzer := NewAnalyzer(domain.InsuranceStrategy())

	inputs := []string{
		"",
		"   \t\n",
		"?",
		"xyzzy",
		strings.Repeat("lorem ipsum ", 5000),
		"日本語の質問ですか",
		"\x00\xff\xfe",
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() {
			profile := analyzer.Analyze(in)
			assert.NotNil(t, profile.Keywords)
			assert.True(t, profile.Complexity.IsValid())
		})
	}

	empty := analyzer.Analyze("")
	assert.Equal(t, domain.ComplexitySimple, empty.Complexity)
	assert.Empty(t, empty.Keywords)

	trivial := analyzer.Analyze("xyzzy")
	assert.Equal(t, domain.ComplexitySimple, trivial.Complexity)
	assert.Empty(t, trivial.Keywords)
}

func TestAnalyzer_CustomTaxonomy(t *testing.T) {
	cfg := domain.InsuranceStrategy()
	cfg.Taxonomy = domain.Taxonomy{{Name: "pets", Terms: []string{"dog", "cat"}}}
	analyzer := NewAnalyzer(cfg)

	profile := analyzer.Analyze("Is my dog insured?")
	assert.Equal(t, []string{"pets"}, profile.Keywords)
}
