package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/policyqa/internal/core/domain"
)

func newTestServer(t *testing.T, ports *Ports) http.Handler {
	t.Helper()
	if ports.Answer == nil {
		ports.Answer = &mockAnswerService{}
	}
	if ports.Retrieval == nil {
		ports.Retrieval = &mockRetrievalService{}
	}
	srv, err := NewServer(ports, Config{Addr: "127.0.0.1:0", RequestTimeout: time.Minute})
	require.NoError(t, err)
	return srv.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func selection() *domain.SelectionResult {
	chunk := domain.NewChunk(7, "2.3 The grace period for premium payment is 30 days.", "2.3 Grace period", nil)
	return &domain.SelectionResult{
		Profile: domain.QuestionProfile{Complexity: domain.ComplexityMedium},
		Selected: []domain.ScoredChunk{{
			Candidate: domain.Candidate{Chunk: chunk, Similarity: 0.77},
			Score:     domain.ScoreBreakdown{Semantic: 0.88, Keyword: 0.4, Structural: 1, Composite: 0.78},
		}},
		Explanation: domain.Explanation{
			Strategy:            "insurance",
			Complexity:          domain.ComplexityMedium,
			Keywords:            []string{"premium"},
			CandidateCount:      20,
			SelectedCount:       1,
			TargetCount:         4,
			RelevanceFloor:      0.5,
			FloorScore:          0.39,
			Weights:             domain.DefaultWeights(),
			Chunks:              []domain.ChunkExplanation{{Index: 7, Preview: "2.3 The grace period"}},
			SelectedTokens:      13,
			BaselineTokens:      70,
			TokenDelta:          57,
			TokenSavingsPercent: 81.4,
		},
	}
}

func TestHandleAnswer(t *testing.T) {
	t.Run("answers in question order with tagged failures", func(t *testing.T) {
		answers := &mockAnswerService{batch: &domain.AnswerBatch{
			ID:       "batch-1",
			Document: domain.DocumentInfo{URI: "policy.pdf", ChunkCount: 9},
			Results: []domain.QuestionResult{
				{Index: 0, Answer: &domain.Answer{
					Text:              "30 days [CLAUSE_1].",
					Model:             "gpt-4o-mini",
					SupportingClauses: []domain.ClauseReference{{Number: 1, ChunkIndex: 7, Preview: "2.3 The grace"}},
					Selection:         selection(),
				}},
				{Index: 1, Err: &domain.QuestionError{
					Index: 1,
					Err:   fmt.Errorf("%w: provider down", domain.ErrEmbeddingUnavailable),
				}},
			},
		}}
		h := newTestServer(t, &Ports{Answer: answers})

		rec := do(t, h, http.MethodPost, "/v1/answer",
			`{"documents":"policy.pdf","questions":["What is the grace period?","Is AYUSH covered?"]}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp AnswerResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Answers, 2)
		assert.Equal(t, "30 days [CLAUSE_1].", resp.Answers[0])
		assert.True(t, strings.HasPrefix(resp.Answers[1], "Error: "))
		assert.Contains(t, resp.Answers[1], "provider down")

		assert.Equal(t, "batch-1", resp.Metadata.BatchID)
		assert.Equal(t, 9, resp.Metadata.Document.Chunks)
		assert.Equal(t, 1, resp.Metadata.Failed)
		require.Len(t, resp.Metadata.Questions, 2)
		q0 := resp.Metadata.Questions[0]
		assert.Equal(t, "medium", q0.Complexity)
		assert.Equal(t, 1, q0.ChunksUsed)
		assert.Equal(t, 70, q0.BaselineTokens)
		assert.Nil(t, q0.Explanation)
		require.Len(t, q0.SupportingClauses, 1)
		assert.Equal(t, "CLAUSE_1", q0.SupportingClauses[0].Clause)
		q1 := resp.Metadata.Questions[1]
		require.NotNil(t, q1.Error)
		assert.Equal(t, "embedding_unavailable", q1.Error.Kind)
	})

	t.Run("explain includes the selection record", func(t *testing.T) {
		answers := &mockAnswerService{batch: &domain.AnswerBatch{
			Results: []domain.QuestionResult{{Index: 0, Answer: &domain.Answer{Text: "ok", Selection: selection()}}},
		}}
		h := newTestServer(t, &Ports{Answer: answers})

		rec := do(t, h, http.MethodPost, "/v1/answer",
			`{"documents":"p.pdf","questions":["q"],"options":{"explain":true,"domain":"legal","weights":{"semantic":0.7}}}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp AnswerResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotNil(t, resp.Metadata.Questions[0].Explanation)
		assert.Equal(t, "insurance", resp.Metadata.Questions[0].Explanation.Strategy)

		opts := answers.lastReq.Options
		assert.Equal(t, "legal", opts.Strategy)
		require.NotNil(t, opts.Weights)
		assert.InDelta(t, 0.7, opts.Weights.Semantic, 1e-9)
		assert.InDelta(t, 0.25, opts.Weights.Keyword, 1e-9)
	})

	t.Run("rejects invalid options before calling the service", func(t *testing.T) {
		answers := &mockAnswerService{}
		h := newTestServer(t, &Ports{Answer: answers})

		rec := do(t, h, http.MethodPost, "/v1/answer",
			`{"documents":"p.pdf","questions":["q"],"options":{"relevance_floor":1.5}}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, 0, answers.calls)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "invalid_input", resp.Error.Kind)
		assert.NotEmpty(t, resp.RequestID)
	})

	t.Run("rejects missing questions", func(t *testing.T) {
		h := newTestServer(t, &Ports{})
		rec := do(t, h, http.MethodPost, "/v1/answer", `{"documents":"p.pdf","questions":[]}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		h := newTestServer(t, &Ports{})
		rec := do(t, h, http.MethodPost, "/v1/answer", `{"documents":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("empty document is unprocessable", func(t *testing.T) {
		h := newTestServer(t, &Ports{Answer: &mockAnswerService{err: domain.ErrDocumentEmpty}})
		rec := do(t, h, http.MethodPost, "/v1/answer", `{"documents":"blank.txt","questions":["q"]}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("embedding outage before the batch starts is a bad gateway", func(t *testing.T) {
		h := newTestServer(t, &Ports{Answer: &mockAnswerService{
			err: fmt.Errorf("%w: connection refused", domain.ErrEmbeddingUnavailable),
		}})
		rec := do(t, h, http.MethodPost, "/v1/answer", `{"documents":"p.pdf","questions":["q"]}`)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("wrong method is rejected by the router", func(t *testing.T) {
		h := newTestServer(t, &Ports{})
		rec := do(t, h, http.MethodGet, "/v1/answer", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestHandleSelect(t *testing.T) {
	t.Run("returns numbered passages and explanation", func(t *testing.T) {
		retrieval := &mockRetrievalService{result: selection()}
		h := newTestServer(t, &Ports{Retrieval: retrieval})

		rec := do(t, h, http.MethodPost, "/v1/select",
			`{"documents":"p.pdf","question":"What is the grace period?","options":{"base_pool_size":10}}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp SelectResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Passages, 1)
		assert.Equal(t, "CLAUSE_1", resp.Passages[0].Clause)
		assert.Equal(t, 7, resp.Passages[0].Chunk)
		assert.Equal(t, "2.3 Grace period", resp.Passages[0].Section)
		assert.Equal(t, "medium", resp.Explanation.Complexity)
		assert.Equal(t, 57, resp.Explanation.TokenDelta)
		assert.Equal(t, 10, retrieval.lastOpts.BasePoolSize)
	})

	t.Run("requires a question", func(t *testing.T) {
		h := newTestServer(t, &Ports{})
		rec := do(t, h, http.MethodPost, "/v1/select", `{"documents":"p.pdf"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("negative pool size is invalid", func(t *testing.T) {
		h := newTestServer(t, &Ports{})
		rec := do(t, h, http.MethodPost, "/v1/select",
			`{"documents":"p.pdf","question":"q","options":{"base_pool_size":-1}}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleDocuments(t *testing.T) {
	docs := &mockDocumentService{docs: []domain.DocumentInfo{{URI: "p.pdf", ChunkCount: 3}}}
	h := newTestServer(t, &Ports{Documents: docs})

	t.Run("lists cached documents", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/v1/documents", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Documents []DocumentDTO `json:"documents"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Documents, 1)
		assert.Equal(t, "p.pdf", resp.Documents[0].URI)
	})

	t.Run("evicts a cached document", func(t *testing.T) {
		rec := do(t, h, http.MethodDelete, "/v1/documents?uri=p.pdf", "")
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, []string{"p.pdf"}, docs.evicted)
	})

	t.Run("evicting an unknown document is not found", func(t *testing.T) {
		rec := do(t, h, http.MethodDelete, "/v1/documents?uri=other.pdf", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHealthAndRequestID(t *testing.T) {
	h := newTestServer(t, &Ports{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
