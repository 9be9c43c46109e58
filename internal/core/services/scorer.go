package services

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/policyqa/internal/core/domain"
)

// structuralBonus is the structural component for chunks with operative markers.
const structuralBonus = 1.0

// numberedMarker matches list and clause numbering: "2.1 ", "3. ", "4) ", "(a) ", "(iv) ".
var numberedMarker = regexp.MustCompile(`(?m)^[ \t]*(?:\d+(?:\.\d+)+|\d+[.)])[ \t]+\S|\((?:[a-z]|[ivx]+|\d+)\)[ \t]`)

// Scorer computes composite relevance scores.
type Scorer struct {
	cfg domain.RetrievalConfig
}

// NewScorer creates a scorer for the given strategy.
func NewScorer(cfg domain.RetrievalConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score computes the semantic, keyword and structural components for every
// candidate. Output order matches input order.
func (s *Scorer) Score(profile domain.QuestionProfile, candidates domain.CandidateSet) []domain.ScoredChunk {
	out := make([]domain.ScoredChunk, len(candidates))
	for i, c := range candidates {
		lower := strings.ToLower(c.Chunk.Text())
		matched := s.matchedCategories(profile, lower)

		var breakdown domain.ScoreBreakdown
		breakdown.Semantic = normaliseSimilarity(c.Similarity)
		if len(profile.Keywords) > 0 {
			breakdown.Keyword = float64(len(matched)) / float64(len(profile.Keywords))
		}
		if s.hasStructure(lower, c.Chunk.Text()) {
			breakdown.Structural = structuralBonus
		}
		w := s.cfg.Weights
		breakdown.Composite = w.Semantic*breakdown.Semantic + w.Keyword*breakdown.Keyword + w.Structural*breakdown.Structural

		out[i] = domain.ScoredChunk{Candidate: c, Score: breakdown, MatchedCategories: matched}
	}
	return out
}

func (s *Scorer) matchedCategories(profile domain.QuestionProfile, lower string) []string {
	matched := []string{}
	for _, name := range profile.Keywords {
		cat, ok := s.cfg.Taxonomy.Lookup(name)
		if ok && cat.MatchIn(lower) {
			matched = append(matched, name)
		}
	}
	return matched
}

func (s *Scorer) hasStructure(lower, raw string) bool {
	for _, marker := range s.cfg.StructuralMarkers {
		if domain.ContainsTerm(lower, strings.ToLower(marker)) {
			return true
		}
	}
	return s.cfg.NumberedMarkers && numberedMarker.MatchString(raw)
}

// normaliseSimilarity maps cosine similarity to [0,1]; opposite vectors score 0.
func normaliseSimilarity(sim float64) float64 {
	if math.IsNaN(sim) {
		return 0
	}
	return math.Max(0, math.Min(1, sim))
}

// Selector picks a complexity-dependent number of scored chunks.
type Selector struct {
	cfg domain.RetrievalConfig
}

// NewSelector creates a selector for the given strategy.
func NewSelector(cfg domain.RetrievalConfig) *Selector {
	return &Selector{cfg: cfg}
}

// Select ranks by composite score, ties by similarity rank and then
// ascending chunk index, and keeps the tier minimum plus every further chunk, up to the tier
// maximum, whose score reaches the relevance floor.
// The result never holds more chunks than candidates and holds at least one
// when any candidate exists. Explanation is left for the Explainer.
func (s *Selector) Select(profile domain.QuestionProfile, scored []domain.ScoredChunk) (domain.SelectionResult, error) {
	if len(scored) == 0 {
		return domain.SelectionResult{}, domain.ErrNoCandidates
	}

	ranked := Rank(scored)
	tier := s.cfg.Tier(profile.Complexity)
	minK := max(1, min(tier.Min, len(ranked)))
	maxK := min(tier.Max, len(ranked))
	floor := s.FloorScore(ranked)

	selected := append([]domain.ScoredChunk(nil), ranked[:minK]...)
	for i := minK; i < maxK; i++ {
		if ranked[i].Score.Composite < floor {
			break
		}
		selected = append(selected, ranked[i])
	}

	return domain.SelectionResult{Profile: profile, Selected: selected}, nil
}

// FloorScore is the minimum composite a discretionary chunk needs, given ranked input.
func (s *Selector) FloorScore(ranked []domain.ScoredChunk) float64 {
	if len(ranked) == 0 {
		return 0
	}
	return s.cfg.RelevanceFloor * ranked[0].Score.Composite
}

// Rank returns a copy of scored sorted by composite score descending,
// then similarity rank ascending, then chunk index ascending.
func Rank(scored []domain.ScoredChunk) []domain.ScoredChunk {
	ranked := append([]domain.ScoredChunk(nil), scored...)
	sort.SliceStable(ranked, func(a, b int) bool {
		x, y := ranked[a], ranked[b]
		if x.Score.Composite != y.Score.Composite {
			return x.Score.Composite > y.Score.Composite
		}
		if x.Rank != y.Rank {
			return x.Rank < y.Rank
		}
		return x.Chunk.Index() < y.Chunk.Index()
	})
	return ranked
}
