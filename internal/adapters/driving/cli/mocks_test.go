package cli

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/policyqa/internal/core/domain"
	"github.com/custodia-labs/policyqa/internal/core/ports/driving"
)

type mockAnswerService struct {
	lastReq domain.AnswerRequest
	err     error
	// failIndex makes one question fail; -1 disables.
	failIndex int
}

func (m *mockAnswerService) Answer(_ context.Context, req domain.AnswerRequest) (*domain.AnswerBatch, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	batch := &domain.AnswerBatch{
		ID:       "batch-1",
		Document: domain.DocumentInfo{URI: req.DocumentURI, ChunkCount: 3},
		Results:  make([]domain.QuestionResult, len(req.Questions)),
	}
	for i, q := range req.Questions {
		if i == m.failIndex {
			batch.Results[i] = domain.QuestionResult{Index: i, Err: &domain.QuestionError{
				Index: i, Question: q, Err: domain.ErrNoCandidates,
			}}
			continue
		}
		batch.Results[i] = domain.QuestionResult{Index: i, Answer: testAnswer(q)}
	}
	return batch, nil
}

func (m *mockAnswerService) AnswerOne(
	_ context.Context, _, question string, _ domain.RetrievalOptions,
) (*domain.Answer, error) {
	if m.err != nil {
		return nil, m.err
	}
	return testAnswer(question), nil
}

type mockRetrievalService struct {
	lastURI      string
	lastQuestion string
	lastOpts     domain.RetrievalOptions
	lastStrategy string
	err          error
}

func (m *mockRetrievalService) Select(
	_ context.Context, uri, question string, opts domain.RetrievalOptions,
) (*domain.SelectionResult, error) {
	m.lastURI, m.lastQuestion, m.lastOpts = uri, question, opts
	if m.err != nil {
		return nil, m.err
	}
	return testSelection(question), nil
}

func (m *mockRetrievalService) Analyze(question, strategy string) (domain.QuestionProfile, error) {
	m.lastQuestion, m.lastStrategy = question, strategy
	if m.err != nil {
		return domain.QuestionProfile{}, m.err
	}
	return domain.QuestionProfile{
		Question:   question,
		Complexity: domain.ComplexitySimple,
		Keywords:   []string{"coverage", "medical"},
	}, nil
}

type mockDocumentService struct {
	loaded    []string
	refreshed []string
	err       error
}

func (m *mockDocumentService) Load(_ context.Context, uri string) (domain.DocumentInfo, error) {
	m.loaded = append(m.loaded, uri)
	return m.info(uri)
}

func (m *mockDocumentService) Refresh(_ context.Context, uri string) (domain.DocumentInfo, error) {
	m.refreshed = append(m.refreshed, uri)
	return m.info(uri)
}

func (m *mockDocumentService) info(uri string) (domain.DocumentInfo, error) {
	if m.err != nil {
		return domain.DocumentInfo{}, m.err
	}
	return domain.DocumentInfo{
		URI:         uri,
		Title:       "Health Policy",
		Fingerprint: "abc123",
		ChunkCount:  42,
		Dimensions:  512,
		Model:       "hashing-v1",
	}, nil
}

func (m *mockDocumentService) Evict(string) bool { return false }

func (m *mockDocumentService) List() []domain.DocumentInfo { return nil }

type mockSettingsService struct {
	settings    domain.AppSettings
	strategy    string
	embedding   domain.AIProvider
	llm         domain.AIProvider
	model       string
	apiKey      string
	validateErr error
	embedErr    error
	llmErr      error
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings()}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(p domain.AIProvider, model, apiKey string) error {
	m.embedding, m.model, m.apiKey = p, model, apiKey
	m.settings.Embedding.Provider = p
	m.settings.Embedding.Model = model
	m.settings.Embedding.APIKey = apiKey
	return nil
}

func (m *mockSettingsService) SetLLMProvider(p domain.AIProvider, model, apiKey string) error {
	m.llm, m.model, m.apiKey = p, model, apiKey
	m.settings.LLM.Provider = p
	m.settings.LLM.Model = model
	m.settings.LLM.APIKey = apiKey
	return nil
}

func (m *mockSettingsService) SetStrategy(name string) error {
	if _, err := domain.Strategy(name); err != nil {
		return err
	}
	m.strategy = name
	m.settings.Retrieval.Strategy = name
	return nil
}

func (m *mockSettingsService) Validate() error { return m.validateErr }

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettingsService) GetPipelineConfig() domain.PipelineConfig {
	return domain.DefaultPipelineConfig()
}

func (m *mockSettingsService) ValidateEmbeddingConfig() error { return m.embedErr }

func (m *mockSettingsService) ValidateLLMConfig() error { return m.llmErr }

// mockBootstrap counts builds so tests can check which commands build services.
type mockBootstrap struct {
	settings      *mockSettingsService
	services      *Services
	servicesErr   error
	settingsCalls int
	servicesCalls int
	closed        bool
}

func (b *mockBootstrap) Settings(string) (driving.SettingsService, error) {
	b.settingsCalls++
	return b.settings, nil
}

func (b *mockBootstrap) Services(context.Context, string) (*Services, error) {
	b.servicesCalls++
	if b.servicesErr != nil {
		return nil, b.servicesErr
	}
	svc := *b.services
	svc.Close = func() error {
		b.closed = true
		return nil
	}
	return &svc, nil
}

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	answer    *mockAnswerService
	retrieval *mockRetrievalService
	documents *mockDocumentService
	settings  *mockSettingsService
}

// setupTestServices installs mocks and resets flags; the returned func restores state.
func setupTestServices() (*testServices, func()) {
	old := struct {
		answer    driving.AnswerService
		retrieval driving.RetrievalService
		documents driving.DocumentService
		settings  driving.SettingsService
		bootstrap Bootstrap
		closer    func() error
		server    domain.ServerSettings
		task      func(context.Context) error
	}{
		answerService, retrievalService, documentService, settingsService,
		bootstrap, closer, serverSettings, backgroundTask,
	}

	ts := &testServices{
		answer:    &mockAnswerService{failIndex: -1},
		retrieval: &mockRetrievalService{},
		documents: &mockDocumentService{},
		settings:  newMockSettingsService(),
	}
	answerService = ts.answer
	retrievalService = ts.retrieval
	documentService = ts.documents
	settingsService = ts.settings
	bootstrap = nil
	closer = nil
	resetFlags()

	return ts, func() {
		answerService = old.answer
		retrievalService = old.retrieval
		documentService = old.documents
		settingsService = old.settings
		bootstrap = old.bootstrap
		closer = old.closer
		serverSettings = old.server
		backgroundTask = old.task
		resetFlags()
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}
}

func resetFlags() {
	askJSON, askExplain = false, false
	askFlags.reset()
	selectJSON = false
	selectFlags.reset()
	chatFlags.reset()
	analyzeDomain, analyzeJSON = "", false
	loadRefresh = false
	serveAddr = ""
	verbose = false
}

func testAnswer(question string) *domain.Answer {
	selection := testSelection(question)
	return &domain.Answer{
		Question: question,
		Text:     "Yes, knee surgery is covered after the waiting period [CLAUSE_1].",
		Model:    "test-model",
		SupportingClauses: []domain.ClauseReference{
			{Number: 1, ChunkIndex: 4, Section: "4.2 Surgical Benefits", Preview: "Surgical procedures are covered"},
		},
		Selection: selection,
		Duration:  1500 * time.Millisecond,
	}
}

func testSelection(question string) *domain.SelectionResult {
	chunk := domain.NewChunk(4, "Surgical procedures are covered after 24 months.", "4.2 Surgical Benefits", nil)
	return &domain.SelectionResult{
		Profile: domain.QuestionProfile{Question: question, Complexity: domain.ComplexitySimple},
		Selected: []domain.ScoredChunk{{
			Candidate: domain.Candidate{Chunk: chunk, Similarity: 0.82},
			Score:     domain.ScoreBreakdown{Semantic: 0.91, Keyword: 0.25, Structural: 1, Composite: 0.76},
		}},
		Explanation: domain.Explanation{
			Strategy:            domain.StrategyInsurance,
			Complexity:          domain.ComplexitySimple,
			Keywords:            []string{"coverage"},
			CandidateCount:      20,
			SelectedCount:       1,
			TargetCount:         2,
			RelevanceFloor:      0.3,
			Weights:             domain.DefaultWeights(),
			SelectedTokens:      12,
			BaselineTokens:      60,
			TokenDelta:          48,
			TokenSavingsPercent: 80,
		},
	}
}

var errBoom = errors.New("boom")
