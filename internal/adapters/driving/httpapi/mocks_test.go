package httpapi

import (
	"context"

	"github.com/custodia-labs/policyqa/internal/core/domain"
)

type mockAnswerService struct {
	batch   *domain.AnswerBatch
	err     error
	calls   int
	lastReq domain.AnswerRequest
}

func (m *mockAnswerService) Answer(_ context.Context, req domain.AnswerRequest) (*domain.AnswerBatch, error) {
	m.calls++
	m.lastReq = req
	return m.batch, m.err
}

func (m *mockAnswerService) AnswerOne(
	_ context.Context, _, _ string, _ domain.RetrievalOptions,
) (*domain.Answer, error) {
	return nil, m.err
}

type mockRetrievalService struct {
	result   *domain.SelectionResult
	err      error
	lastOpts domain.RetrievalOptions
}

func (m *mockRetrievalService) Select(
	_ context.Context, _, _ string, opts domain.RetrievalOptions,
) (*domain.SelectionResult, error) {
	m.lastOpts = opts
	return m.result, m.err
}

func (m *mockRetrievalService) Analyze(_, _ string) (domain.QuestionProfile, error) {
	return domain.QuestionProfile{}, m.err
}

type mockDocumentService struct {
	docs    []domain.DocumentInfo
	evicted []string
}

func (m *mockDocumentService) Load(_ context.Context, _ string) (domain.DocumentInfo, error) {
	return domain.DocumentInfo{}, nil
}

func (m *mockDocumentService) Refresh(_ context.Context, _ string) (domain.DocumentInfo, error) {
	return domain.DocumentInfo{}, nil
}

func (m *mockDocumentService) Evict(uri string) bool {
	for _, d := range m.docs {
		if d.URI == uri {
			m.evicted = append(m.evicted, uri)
			return true
		}
	}
	return false
}

func (m *mockDocumentService) List() []domain.DocumentInfo { return m.docs }
