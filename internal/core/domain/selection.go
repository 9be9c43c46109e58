package domain

// Candidate is a chunk paired with its similarity to the question.
type Candidate struct {
	// Chunk is the retrieved chunk.
	Chunk Chunk

	// Similarity is the raw cosine similarity to the question embedding.
	Similarity float64

	// Rank is the 0-based position in the similarity ordering.
	Rank int
}

// CandidateSet is ordered by descending similarity, ties by ascending chunk index.
type CandidateSet []Candidate

// Chunks returns the candidate chunks in order.
func (s CandidateSet) Chunks() []Chunk {
	out := make([]Chunk, len(s))
	for i, c := range s {
		out[i] = c.Chunk
	}
	return out
}

// ScoreBreakdown records each component of a composite relevance score.
type ScoreBreakdown struct {
	Semantic   float64
	Keyword    float64
	Structural float64
	Composite  float64
}

// ScoredChunk is a candidate with its composite relevance score.
type ScoredChunk struct {
	Candidate

	// Score is the component breakdown.
	Score ScoreBreakdown

	// MatchedCategories lists the question categories whose terms the chunk contains.
	MatchedCategories []string
}

// SelectionResult is the outcome of the retrieval pipeline for one question.
type SelectionResult struct {
	// Profile is the analyzed question.
	Profile QuestionProfile

	// Selected holds the chosen chunks in rank order.
	Selected []ScoredChunk

	// Explanation records why these chunks were chosen.
	Explanation Explanation
}

// Chunks returns the selected chunks in rank order.
func (r SelectionResult) Chunks() []Chunk {
	out := make([]Chunk, len(r.Selected))
	for i, s := range r.Selected {
		out[i] = s.Chunk
	}
	return out
}

// ChunkExplanation describes one selected chunk.
type ChunkExplanation struct {
	Index      int
	Section    string
	Preview    string
	Similarity float64
	Score      ScoreBreakdown
	Matched    []string
}

// Explanation is the auditable record of a selection.
type Explanation struct {
	Strategy       string
	Complexity     Complexity
	Keywords       []string
	CandidateCount int
	SelectedCount  int
	TargetCount    int
	RelevanceFloor float64
	FloorScore     float64
	Weights        Weights
	Chunks         []ChunkExplanation

	// Token estimates compare the selection against a fixed baseline chunk count.
	SelectedTokens      int
	BaselineTokens      int
	TokenDelta          int
	TokenSavingsPercent float64
}
