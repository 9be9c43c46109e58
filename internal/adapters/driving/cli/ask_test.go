package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/policyqa/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/policyqa/internal/core/domain"
)

func TestAskCmd_Use(t *testing.T) {
	assert.Equal(t, "ask <document> <question> [question...]", askCmd.Use)
}

func TestAskCmd_RequiresDocumentAndQuestion(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "ask", "policy.pdf")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 2 arg(s)")
}

func TestAskCmd_HasFlags(t *testing.T) {
	for _, name := range []string{"json", "explain", "domain", "pool", "floor", "w-semantic", "w-keyword", "w-structural"} {
		assert.NotNil(t, askCmd.Flags().Lookup(name), "missing flag %s", name)
	}
	assert.Equal(t, "d", askCmd.Flags().Lookup("domain").Shorthand)
	assert.Equal(t, "-1", askCmd.Flags().Lookup("floor").DefValue)
}

func TestAskCmd_PrintsAnswersWithClauses(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "ask", "policy.pdf", "Is knee surgery covered?")

	require.NoError(t, err)
	assert.Contains(t, out, "Q1: Is knee surgery covered?")
	assert.Contains(t, out, "knee surgery is covered")
	assert.Contains(t, out, "CLAUSE_1  4.2 Surgical Benefits")
	assert.Contains(t, out, "test-model in 1.5s")
	assert.NotContains(t, out, "Selection")

	assert.Equal(t, "policy.pdf", ts.answer.lastReq.DocumentURI)
	assert.Equal(t, []string{"Is knee surgery covered?"}, ts.answer.lastReq.Questions)
	assert.True(t, ts.answer.lastReq.Options.IsZero())
}

func TestAskCmd_MultipleQuestionsKeepOrder(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "ask", "policy.pdf", "First?", "Second?")

	require.NoError(t, err)
	assert.Equal(t, []string{"First?", "Second?"}, ts.answer.lastReq.Questions)
	assert.Less(t, strings.Index(out, "Q1: First?"), strings.Index(out, "Q2: Second?"))
}

func TestAskCmd_ExplainPrintsSelection(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "ask", "--explain", "policy.pdf", "Is knee surgery covered?")

	require.NoError(t, err)
	assert.Contains(t, out, "Selection")
	assert.Contains(t, out, "Strategy:   insurance")
	assert.Contains(t, out, "1 of 20 candidates (target 2, floor 0.30)")
	assert.Contains(t, out, "~12 vs 60 baseline (80% saved)")
}

func TestAskCmd_PassesRetrievalOverrides(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "ask", "--domain", "legal", "--pool", "30", "--floor", "0.4",
		"--w-keyword", "0.1", "contract.pdf", "Who is liable?")

	require.NoError(t, err)
	opts := ts.answer.lastReq.Options
	assert.Equal(t, "legal", opts.Strategy)
	assert.Equal(t, 30, opts.BasePoolSize)
	require.NotNil(t, opts.RelevanceFloor)
	assert.InDelta(t, 0.4, *opts.RelevanceFloor, 1e-9)
	require.NotNil(t, opts.Weights)
	assert.InDelta(t, 0.6, opts.Weights.Semantic, 1e-9)
	assert.InDelta(t, 0.1, opts.Weights.Keyword, 1e-9)
	assert.InDelta(t, 0.15, opts.Weights.Structural, 1e-9)
}

func TestAskCmd_RejectsInvalidOverrides(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "ask", "--floor", "1.5", "policy.pdf", "Is dental covered?")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, ts.answer.lastReq.Questions)
}

func TestAskCmd_RejectsNonDominantSemanticWeight(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "ask", "--w-keyword", "0.9", "policy.pdf", "Is dental covered?")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAskCmd_FailedQuestionIsReported(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.answer.failIndex = 1

	out, err := execute(t, "ask", "policy.pdf", "Is surgery covered?", "What about pets?")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 questions failed")
	assert.Contains(t, out, "Q1: Is surgery covered?")
	assert.Contains(t, out, "Error: no candidate")
}

func TestAskCmd_JSONMatchesHTTPResponse(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "ask", "--json", "policy.pdf", "Is knee surgery covered?")

	require.NoError(t, err)
	var resp httpapi.AnswerResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Answers, 1)
	assert.Contains(t, resp.Answers[0], "knee surgery is covered")
	assert.Equal(t, "batch-1", resp.Metadata.BatchID)
	require.Len(t, resp.Metadata.Questions, 1)
	assert.Equal(t, 1, resp.Metadata.Questions[0].ChunksUsed)
	assert.Nil(t, resp.Metadata.Questions[0].Explanation)
}

func TestAskCmd_DocumentError(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.answer.err = domain.ErrDocumentEmpty

	_, err := execute(t, "ask", "empty.txt", "Anything?")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDocumentEmpty)
	assert.Contains(t, err.Error(), "answering failed")
}

func TestAskCmd_NotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	answerService = nil

	_, err := execute(t, "ask", "policy.pdf", "Anything?")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "answer service not configured")
}
