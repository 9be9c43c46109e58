package services

import (
	"math"
	"unicode/utf8"

	"github.com/custodia-labs/policyqa/internal/core/domain"
)

// previewRunes is the length of chunk previews in explanations.
const previewRunes = 100

// charsPerToken approximates tokenizer output for English prose.
const charsPerToken = 4

// Explainer records why a selection was made.
type Explainer struct {
	cfg domain.RetrievalConfig
}

// NewExplainer creates an explainer for the given strategy.
func NewExplainer(cfg domain.RetrievalConfig) *Explainer {
	return &Explainer{cfg: cfg}
}

// Explain has no side effects. The token baseline is the first
// BaselineChunks candidates by similarity.
func (e *Explainer) Explain(profile domain.QuestionProfile, candidates domain.CandidateSet, result domain.SelectionResult) domain.Explanation {
	tier := e.cfg.Tier(profile.Complexity)
	ex := domain.Explanation{
		Strategy:       e.cfg.Name,
		Complexity:     profile.Complexity,
		Keywords:       append([]string{}, profile.Keywords...),
		CandidateCount: len(candidates),
		SelectedCount:  len(result.Selected),
		TargetCount:    min(tier.Max, len(candidates)),
		RelevanceFloor: e.cfg.RelevanceFloor,
		Weights:        e.cfg.Weights,
		Chunks:         make([]domain.ChunkExplanation, 0, len(result.Selected)),
	}
	if len(result.Selected) > 0 {
		ex.FloorScore = e.cfg.RelevanceFloor * result.Selected[0].Score.Composite
	}

	for _, s := range result.Selected {
		ex.SelectedTokens += EstimateTokens(s.Chunk.Text())
		ex.Chunks = append(ex.Chunks, domain.ChunkExplanation{
			Index:      s.Chunk.Index(),
			Section:    s.Chunk.Section(),
			Preview:    s.Chunk.Preview(previewRunes),
			Similarity: s.Similarity,
			Score:      s.Score,
			Matched:    append([]string{}, s.MatchedCategories...),
		})
	}

	for i := 0; i < len(candidates) && i < e.cfg.BaselineChunks; i++ {
		ex.BaselineTokens += EstimateTokens(candidates[i].Chunk.Text())
	}
	ex.TokenDelta = ex.BaselineTokens - ex.SelectedTokens
	if ex.BaselineTokens > 0 {
		ex.TokenSavingsPercent = math.Round(float64(ex.TokenDelta)/float64(ex.BaselineTokens)*1000) / 10
	}
	return ex
}

// EstimateTokens approximates the token count of text.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + charsPerToken - 1) / charsPerToken
}
