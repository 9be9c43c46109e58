package mcp

import (
	"context"

	"github.com/custodia-labs/policyqa/internal/core/domain"
)

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	batch   *domain.AnswerBatch
	answer  *domain.Answer
	err     error
	lastReq domain.AnswerRequest
}

func (m *mockAnswerService) Answer(_ context.Context, req domain.AnswerRequest) (*domain.AnswerBatch, error) {
	m.lastReq = req
	return m.batch, m.err
}

func (m *mockAnswerService) AnswerOne(
	_ context.Context, _, _ string, _ domain.RetrievalOptions,
) (*domain.Answer, error) {
	return m.answer, m.err
}

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	result   *domain.SelectionResult
	profile  domain.QuestionProfile
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
	return m.profile, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	docs []domain.DocumentInfo
	err  error
}

func (m *mockDocumentService) Load(_ context.Context, _ string) (domain.DocumentInfo, error) {
	if len(m.docs) == 0 {
		return domain.DocumentInfo{}, m.err
	}
	return m.docs[0], m.err
}

func (m *mockDocumentService) Refresh(ctx context.Context, uri string) (domain.DocumentInfo, error) {
	return m.Load(ctx, uri)
}

func (m *mockDocumentService) Evict(_ string) bool { return len(m.docs) > 0 }

func (m *mockDocumentService) List() []domain.DocumentInfo { return m.docs }

func validPorts() *Ports {
	return &Ports{
		Answer:    &mockAnswerService{},
		Retrieval: &mockRetrievalService{},
	}
}
