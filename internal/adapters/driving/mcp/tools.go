package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/policyqa/internal/core/domain"
)

// OptionsInput overrides the retrieval policy for one call.
type OptionsInput struct {
	Domain         string   `json:"domain,omitempty" jsonschema:"retrieval strategy: insurance or legal"`
	BasePoolSize   int      `json:"base_pool_size,omitempty" jsonschema:"number of candidate chunks fetched before scoring"`
	RelevanceFloor *float64 `json:"relevance_floor,omitempty" jsonschema:"fraction of the top score a discretionary chunk must reach (0-1)"`
	Semantic       *float64 `json:"semantic_weight,omitempty" jsonschema:"weight of semantic similarity"`
	Keyword        *float64 `json:"keyword_weight,omitempty" jsonschema:"weight of keyword category overlap"`
	Structural     *float64 `json:"structural_weight,omitempty" jsonschema:"weight of legal structure markers"`
}

// AnswerQuestionsInput is the input schema for the answer_questions tool.
type AnswerQuestionsInput struct {
	DocumentURI string       `json:"document_uri" jsonschema:"file path or URL of the policy document"`
	Questions   []string     `json:"questions" jsonschema:"questions to answer about the document"`
	Options     OptionsInput `json:"options,omitempty" jsonschema:"retrieval overrides"`
}

// AnswerQuestionsOutput is the output schema for the answer_questions tool.
type AnswerQuestionsOutput struct {
	Document DocumentOutput `json:"document"`
	Answers  []AnswerOutput `json:"answers"`
	Failed   int            `json:"failed"`
}

// AnswerOutput is one answered question. Failed questions carry Error and
// an "Error: " prefixed Answer.
type AnswerOutput struct {
	Question   string            `json:"question"`
	Answer     string            `json:"answer"`
	Error      string            `json:"error,omitempty"`
	ErrorKind  string            `json:"error_kind,omitempty"`
	Clauses    []ClauseOutput    `json:"clauses,omitempty"`
	Complexity string            `json:"complexity,omitempty"`
	Tokens     *TokenUsageOutput `json:"tokens,omitempty"`
}

// ClauseOutput is a passage cited by an answer.
type ClauseOutput struct {
	Clause  string `json:"clause"`
	Chunk   int    `json:"chunk"`
	Section string `json:"section,omitempty"`
	Preview string `json:"preview"`
}

// TokenUsageOutput compares the selection with the fixed baseline.
type TokenUsageOutput struct {
	ChunksUsed     int     `json:"chunks_used"`
	Selected       int     `json:"selected"`
	Baseline       int     `json:"baseline"`
	SavingsPercent float64 `json:"savings_percent"`
}

// DocumentOutput describes a loaded document.
type DocumentOutput struct {
	URI        string `json:"uri"`
	Title      string `json:"title,omitempty"`
	Chunks     int    `json:"chunks"`
	Model      string `json:"model,omitempty"`
	Dimensions int    `json:"dimensions,omitempty"`
}

// SelectPassagesInput is the input schema for the select_passages tool.
type SelectPassagesInput struct {
	DocumentURI string       `json:"document_uri" jsonschema:"file path or URL of the policy document"`
	Question    string       `json:"question" jsonschema:"the question to select passages for"`
	Options     OptionsInput `json:"options,omitempty" jsonschema:"retrieval overrides"`
}

// SelectPassagesOutput is the output schema for the select_passages tool.
type SelectPassagesOutput struct {
	Strategy   string           `json:"strategy"`
	Complexity string           `json:"complexity"`
	Keywords   []string         `json:"keywords"`
	Candidates int              `json:"candidates"`
	FloorScore float64          `json:"floor_score"`
	Passages   []PassageOutput  `json:"passages"`
	Tokens     TokenUsageOutput `json:"tokens"`
}

// PassageOutput is one selected chunk with its score breakdown.
type PassageOutput struct {
	Clause     string   `json:"clause"`
	Chunk      int      `json:"chunk"`
	Section    string   `json:"section,omitempty"`
	Text       string   `json:"text"`
	Similarity float64  `json:"similarity"`
	Score      float64  `json:"score"`
	Semantic   float64  `json:"semantic"`
	Keyword    float64  `json:"keyword"`
	Structural float64  `json:"structural"`
	Matched    []string `json:"matched,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "answer_questions",
		Description: "Answer one or more questions about a policy document, citing the clauses used",
	}, s.handleAnswerQuestions)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "select_passages",
		Description: "Show which passages of a policy document the retriever selects for a question, without generating an answer",
	}, s.handleSelectPassages)
}

// handleAnswerQuestions handles the answer_questions tool invocation.
func (s *Server) handleAnswerQuestions(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnswerQuestionsInput,
) (*mcp.CallToolResult, AnswerQuestionsOutput, error) {
	if input.DocumentURI == "" {
		return nil, AnswerQuestionsOutput{}, fmt.Errorf("%w: document_uri is required", domain.ErrInvalidInput)
	}

	batch, err := s.ports.Answer.Answer(ctx, domain.AnswerRequest{
		DocumentURI: input.DocumentURI,
		Questions:   input.Questions,
		Options:     input.Options.toDomain(),
	})
	if err != nil {
		return nil, AnswerQuestionsOutput{}, err
	}

	output := AnswerQuestionsOutput{
		Document: documentOutput(batch.Document),
		Answers:  make([]AnswerOutput, len(batch.Results)),
		Failed:   batch.Failures(),
	}
	for i, res := range batch.Results {
		question := ""
		if res.Index >= 0 && res.Index < len(input.Questions) {
			question = input.Questions[res.Index]
		}
		output.Answers[i] = answerOutput(question, res)
	}

	return nil, output, nil
}

// handleSelectPassages handles the select_passages tool invocation.
func (s *Server) handleSelectPassages(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SelectPassagesInput,
) (*mcp.CallToolResult, SelectPassagesOutput, error) {
	if input.DocumentURI == "" {
		return nil, SelectPassagesOutput{}, fmt.Errorf("%w: document_uri is required", domain.ErrInvalidInput)
	}

	result, err := s.ports.Retrieval.Select(ctx, input.DocumentURI, input.Question, input.Options.toDomain())
	if err != nil {
		return nil, SelectPassagesOutput{}, err
	}

	ex := result.Explanation
	output := SelectPassagesOutput{
		Strategy:   ex.Strategy,
		Complexity: ex.Complexity.String(),
		Keywords:   append([]string{}, ex.Keywords...),
		Candidates: ex.CandidateCount,
		FloorScore: ex.FloorScore,
		Passages:   make([]PassageOutput, len(result.Selected)),
		Tokens:     tokenUsage(ex),
	}
	for i, sc := range result.Selected {
		output.Passages[i] = PassageOutput{
			Clause:     domain.Passage{Number: i + 1}.Label(),
			Chunk:      sc.Chunk.Index(),
			Section:    sc.Chunk.Section(),
			Text:       sc.Chunk.Text(),
			Similarity: sc.Similarity,
			Score:      sc.Score.Composite,
			Semantic:   sc.Score.Semantic,
			Keyword:    sc.Score.Keyword,
			Structural: sc.Score.Structural,
			Matched:    sc.MatchedCategories,
		}
	}

	return nil, output, nil
}

func (o OptionsInput) toDomain() domain.RetrievalOptions {
	opts := domain.RetrievalOptions{
		Strategy:       o.Domain,
		BasePoolSize:   o.BasePoolSize,
		RelevanceFloor: o.RelevanceFloor,
	}
	if o.Semantic != nil || o.Keyword != nil || o.Structural != nil {
		w := domain.DefaultWeights()
		if o.Semantic != nil {
			w.Semantic = *o.Semantic
		}
		if o.Keyword != nil {
			w.Keyword = *o.Keyword
		}
		if o.Structural != nil {
			w.Structural = *o.Structural
		}
		opts.Weights = &w
	}
	return opts
}

func answerOutput(question string, res domain.QuestionResult) AnswerOutput {
	if res.Err != nil {
		cause := res.Err.Err
		if cause == nil {
			cause = errors.New("unknown error")
		}
		return AnswerOutput{
			Question:  question,
			Answer:    "Error: " + cause.Error(),
			Error:     cause.Error(),
			ErrorKind: res.Err.Kind(),
		}
	}

	a := res.Answer
	out := AnswerOutput{
		Question: question,
		Answer:   a.Text,
		Clauses:  make([]ClauseOutput, len(a.SupportingClauses)),
	}
	for i, c := range a.SupportingClauses {
		out.Clauses[i] = ClauseOutput{
			Clause:  domain.Passage{Number: c.Number}.Label(),
			Chunk:   c.ChunkIndex,
			Section: c.Section,
			Preview: c.Preview,
		}
	}
	if a.Selection != nil {
		out.Complexity = a.Selection.Explanation.Complexity.String()
		usage := tokenUsage(a.Selection.Explanation)
		out.Tokens = &usage
	}
	return out
}

func tokenUsage(ex domain.Explanation) TokenUsageOutput {
	return TokenUsageOutput{
		ChunksUsed:     ex.SelectedCount,
		Selected:       ex.SelectedTokens,
		Baseline:       ex.BaselineTokens,
		SavingsPercent: ex.TokenSavingsPercent,
	}
}

func documentOutput(info domain.DocumentInfo) DocumentOutput {
	return DocumentOutput{
		URI:        info.URI,
		Title:      info.Title,
		Chunks:     info.ChunkCount,
		Model:      info.Model,
		Dimensions: info.Dimensions,
	}
}
