package httpapi

import (
	"time"

	"github.com/custodia-labs/policyqa/internal/core/domain"
)

// WeightsDTO overrides composite score weights. Missing fields keep the defaults.
type WeightsDTO struct {
	Semantic   *float64 `json:"semantic,omitempty"`
	Keyword    *float64 `json:"keyword,omitempty"`
	Structural *float64 `json:"structural,omitempty"`
}

// OptionsDTO carries per-request retrieval overrides.
type OptionsDTO struct {
	Domain         string      `json:"domain,omitempty"`
	BasePoolSize   int         `json:"base_pool_size,omitempty"`
	RelevanceFloor *float64    `json:"relevance_floor,omitempty"`
	Weights        *WeightsDTO `json:"weights,omitempty"`
	Explain        bool        `json:"explain,omitempty"`
}

// ToDomain converts the DTO into validated-later retrieval options.
func (o OptionsDTO) ToDomain() domain.RetrievalOptions {
	opts := domain.RetrievalOptions{
		Strategy:       o.Domain,
		BasePoolSize:   o.BasePoolSize,
		RelevanceFloor: o.RelevanceFloor,
	}
	if o.Weights != nil {
		w := domain.DefaultWeights()
		if o.Weights.Semantic != nil {
			w.Semantic = *o.Weights.Semantic
		}
		if o.Weights.Keyword != nil {
			w.Keyword = *o.Weights.Keyword
		}
		if o.Weights.Structural != nil {
			w.Structural = *o.Weights.Structural
		}
		opts.Weights = &w
	}
	return opts
}

// AnswerRequest is the body of POST /v1/answer.
type AnswerRequest struct {
	Documents string     `json:"documents"`
	Questions []string   `json:"questions"`
	Options   OptionsDTO `json:"options"`
}

// AnswerResponse is the body returned by POST /v1/answer.
// Answers line up with the request questions; failures read "Error: <message>".
type AnswerResponse struct {
	Answers  []string       `json:"answers"`
	Metadata AnswerMetadata `json:"metadata"`
}

// AnswerMetadata describes how the batch was answered.
type AnswerMetadata struct {
	BatchID    string             `json:"batch_id"`
	Document   DocumentDTO        `json:"document"`
	DurationMS int64              `json:"duration_ms"`
	Failed     int                `json:"failed"`
	Questions  []QuestionMetadata `json:"questions"`
}

// QuestionMetadata describes one answered or failed question.
type QuestionMetadata struct {
	Index               int             `json:"index"`
	Question            string          `json:"question"`
	Model               string          `json:"model,omitempty"`
	Complexity          string          `json:"complexity,omitempty"`
	ChunksUsed          int             `json:"chunks_used"`
	SelectedTokens      int             `json:"selected_tokens,omitempty"`
	BaselineTokens      int             `json:"baseline_tokens,omitempty"`
	TokenSavingsPercent float64         `json:"token_savings_percent,omitempty"`
	DurationMS          int64           `json:"duration_ms"`
	SupportingClauses   []ClauseDTO     `json:"supporting_clauses,omitempty"`
	Explanation         *ExplanationDTO `json:"explanation,omitempty"`
	Error               *ErrorDTO       `json:"error,omitempty"`
}

// ClauseDTO is a passage cited by an answer.
type ClauseDTO struct {
	Clause  string `json:"clause"`
	Chunk   int    `json:"chunk"`
	Section string `json:"section,omitempty"`
	Preview string `json:"preview"`
}

// DocumentDTO describes a loaded document.
type DocumentDTO struct {
	URI         string    `json:"uri"`
	Title       string    `json:"title,omitempty"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	Chunks      int       `json:"chunks"`
	Dimensions  int       `json:"dimensions,omitempty"`
	Model       string    `json:"model,omitempty"`
	BuiltAt     time.Time `json:"built_at"`
}

// SelectRequest is the body of POST /v1/select.
type SelectRequest struct {
	Documents string     `json:"documents"`
	Question  string     `json:"question"`
	Options   OptionsDTO `json:"options"`
}

// SelectResponse is the body returned by POST /v1/select.
type SelectResponse struct {
	Question    string         `json:"question"`
	Passages    []PassageDTO   `json:"passages"`
	Explanation ExplanationDTO `json:"explanation"`
}

// PassageDTO is a selected chunk.
type PassageDTO struct {
	Clause  string `json:"clause"`
	Chunk   int    `json:"chunk"`
	Section string `json:"section,omitempty"`
	Text    string `json:"text"`
}

// ScoreDTO is a composite score breakdown.
type ScoreDTO struct {
	Semantic   float64 `json:"semantic"`
	Keyword    float64 `json:"keyword"`
	Structural float64 `json:"structural"`
	Composite  float64 `json:"composite"`
}

// ChunkExplanationDTO explains one selected chunk.
type ChunkExplanationDTO struct {
	Chunk      int      `json:"chunk"`
	Section    string   `json:"section,omitempty"`
	Preview    string   `json:"preview"`
	Similarity float64  `json:"similarity"`
	Score      ScoreDTO `json:"score"`
	Matched    []string `json:"matched_categories"`
}

// ExplanationDTO is the auditable record of a selection.
type ExplanationDTO struct {
	Strategy            string                `json:"strategy"`
	Complexity          string                `json:"complexity"`
	Keywords            []string              `json:"keywords"`
	CandidateCount      int                   `json:"candidate_count"`
	SelectedCount       int                   `json:"selected_count"`
	TargetCount         int                   `json:"target_count"`
	RelevanceFloor      float64               `json:"relevance_floor"`
	FloorScore          float64               `json:"floor_score"`
	Weights             ScoreWeightsDTO       `json:"weights"`
	Chunks              []ChunkExplanationDTO `json:"chunks"`
	SelectedTokens      int                   `json:"selected_tokens"`
	BaselineTokens      int                   `json:"baseline_tokens"`
	TokenDelta          int                   `json:"token_delta"`
	TokenSavingsPercent float64               `json:"token_savings_percent"`
}

// ScoreWeightsDTO reports the weights that were applied.
type ScoreWeightsDTO struct {
	Semantic   float64 `json:"semantic"`
	Keyword    float64 `json:"keyword"`
	Structural float64 `json:"structural"`
}

// ErrorDTO is a machine-readable error.
type ErrorDTO struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ErrorResponse wraps a request-level error.
type ErrorResponse struct {
	Error     ErrorDTO `json:"error"`
	RequestID string   `json:"request_id,omitempty"`
}

// NewAnswerResponse builds the answer body for a batch. Answers line up
// with questions by result index.
func NewAnswerResponse(questions []string, batch *domain.AnswerBatch, explain bool) AnswerResponse {
	resp := AnswerResponse{
		Answers: make([]string, len(questions)),
		Metadata: AnswerMetadata{
			BatchID:    batch.ID,
			Document:   documentDTO(batch.Document),
			DurationMS: batch.Duration.Milliseconds(),
			Failed:     batch.Failures(),
			Questions:  make([]QuestionMetadata, 0, len(batch.Results)),
		},
	}
	for _, res := range batch.Results {
		if res.Index < 0 || res.Index >= len(questions) {
			continue
		}
		resp.Answers[res.Index] = answerText(res)
		resp.Metadata.Questions = append(resp.Metadata.Questions,
			questionMetadata(questions[res.Index], res, explain))
	}
	return resp
}

// NewSelectResponse builds the select body with passages numbered in rank order.
func NewSelectResponse(question string, result *domain.SelectionResult) SelectResponse {
	passages := domain.NumberPassages(result.Chunks())
	resp := SelectResponse{
		Question:    question,
		Passages:    make([]PassageDTO, len(passages)),
		Explanation: explanationDTO(result.Explanation),
	}
	for i, p := range passages {
		resp.Passages[i] = PassageDTO{
			Clause:  p.Label(),
			Chunk:   p.Chunk.Index(),
			Section: p.Chunk.Section(),
			Text:    p.Chunk.Text(),
		}
	}
	return resp
}

func documentDTO(info domain.DocumentInfo) DocumentDTO {
	return DocumentDTO{
		URI:         info.URI,
		Title:       info.Title,
		Fingerprint: info.Fingerprint,
		Chunks:      info.ChunkCount,
		Dimensions:  info.Dimensions,
		Model:       info.Model,
		BuiltAt:     info.BuiltAt,
	}
}

func explanationDTO(ex domain.Explanation) ExplanationDTO {
	out := ExplanationDTO{
		Strategy:       ex.Strategy,
		Complexity:     ex.Complexity.String(),
		Keywords:       append([]string{}, ex.Keywords...),
		CandidateCount: ex.CandidateCount,
		SelectedCount:  ex.SelectedCount,
		TargetCount:    ex.TargetCount,
		RelevanceFloor: ex.RelevanceFloor,
		FloorScore:     ex.FloorScore,
		Weights: ScoreWeightsDTO{
			Semantic:   ex.Weights.Semantic,
			Keyword:    ex.Weights.Keyword,
			Structural: ex.Weights.Structural,
		},
		Chunks:              make([]ChunkExplanationDTO, len(ex.Chunks)),
		SelectedTokens:      ex.SelectedTokens,
		BaselineTokens:      ex.BaselineTokens,
		TokenDelta:          ex.TokenDelta,
		TokenSavingsPercent: ex.TokenSavingsPercent,
	}
	for i, c := range ex.Chunks {
		out.Chunks[i] = ChunkExplanationDTO{
			Chunk:      c.Index,
			Section:    c.Section,
			Preview:    c.Preview,
			Similarity: c.Similarity,
			Score: ScoreDTO{
				Semantic:   c.Score.Semantic,
				Keyword:    c.Score.Keyword,
				Structural: c.Score.Structural,
				Composite:  c.Score.Composite,
			},
			Matched: append([]string{}, c.Matched...),
		}
	}
	return out
}

func questionMetadata(question string, res domain.QuestionResult, explain bool) QuestionMetadata {
	meta := QuestionMetadata{Index: res.Index, Question: question}
	if res.Err != nil {
		meta.Error = errorDTO(res.Err.Err)
		return meta
	}

	a := res.Answer
	meta.Model = a.Model
	meta.DurationMS = a.Duration.Milliseconds()
	meta.SupportingClauses = make([]ClauseDTO, len(a.SupportingClauses))
	for i, c := range a.SupportingClauses {
		meta.SupportingClauses[i] = ClauseDTO{
			Clause:  domain.Passage{Number: c.Number}.Label(),
			Chunk:   c.ChunkIndex,
			Section: c.Section,
			Preview: c.Preview,
		}
	}
	if a.Selection != nil {
		ex := a.Selection.Explanation
		meta.Complexity = ex.Complexity.String()
		meta.ChunksUsed = ex.SelectedCount
		meta.SelectedTokens = ex.SelectedTokens
		meta.BaselineTokens = ex.BaselineTokens
		meta.TokenSavingsPercent = ex.TokenSavingsPercent
		if explain {
			dto := explanationDTO(ex)
			meta.Explanation = &dto
		}
	}
	return meta
}

// answerText is the answer string reported for a result.
func answerText(res domain.QuestionResult) string {
	if res.Err != nil {
		return "Error: " + errorMessage(res.Err.Err)
	}
	return res.Answer.Text
}

func errorDTO(err error) *ErrorDTO {
	return &ErrorDTO{Kind: domain.ErrorKind(err), Message: errorMessage(err)}
}

func errorMessage(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
