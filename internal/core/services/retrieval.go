package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/policyqa/internal/core/domain"
	"github.com/custodia-labs/policyqa/internal/core/ports/driven"
	"github.com/custodia-labs/policyqa/internal/core/ports/driving"
	"github.com/custodia-labs/policyqa/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// RetrievalService runs the smart retrieval pipeline:
// analyze, retrieve, score, select and explain.
type RetrievalService struct {
	provider  ChunkStoreProvider
	retriever *Retriever
	base      domain.RetrievalConfig

	mu         sync.RWMutex
	strategies map[string]domain.RetrievalConfig
}

// NewRetrievalService creates a retrieval service with base as the default strategy.
// base is validated here; per-request options are validated on each call.
func NewRetrievalService(
	provider ChunkStoreProvider,
	embedder driven.EmbeddingService,
	base domain.RetrievalConfig,
) (*RetrievalService, error) {
	if err := base.Validate(); err != nil {
		return nil, err
	}
	s := &RetrievalService{
		provider:   provider,
		retriever:  NewRetriever(embedder),
		base:       base.Clone(),
		strategies: make(map[string]domain.RetrievalConfig),
	}
	for _, name := range domain.StrategyNames() {
		cfg, err := domain.Strategy(name)
		if err != nil {
			return nil, err
		}
		s.strategies[name] = cfg
	}
	if base.Name != "" {
		s.strategies[base.Name] = s.base
	}
	return s, nil
}

// RegisterStrategy adds or replaces a named strategy.
func (s *RetrievalService) RegisterStrategy(cfg domain.RetrievalConfig) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("%w: strategy needs a name", domain.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("strategy %s: %w", cfg.Name, err)
	}
	s.mu.Lock()
	s.strategies[cfg.Name] = cfg.Clone()
	s.mu.Unlock()
	return nil
}

// Config resolves the effective configuration for a request.
func (s *RetrievalService) Config(opts domain.RetrievalOptions) (domain.RetrievalConfig, error) {
	base := s.base
	if opts.Strategy != "" {
		s.mu.RLock()
		cfg, ok := s.strategies[opts.Strategy]
		s.mu.RUnlock()
		if !ok {
			return domain.RetrievalConfig{}, fmt.Errorf("%w: unknown strategy %q", domain.ErrInvalidInput, opts.Strategy)
		}
		base = cfg
	}
	if opts.BasePoolSize == 0 && opts.RelevanceFloor == nil && opts.Weights == nil {
		return base, nil
	}
	return base.WithOptions(opts)
}

// Analyze classifies a question under the named strategy ("" for the default).
func (s *RetrievalService) Analyze(question, strategy string) (domain.QuestionProfile, error) {
	cfg, err := s.Config(domain.RetrievalOptions{Strategy: strategy})
	if err != nil {
		return domain.QuestionProfile{}, err
	}
	return NewAnalyzer(cfg).Analyze(question), nil
}

// Select runs the pipeline for one question against the document at uri.
func (s *RetrievalService) Select(
	ctx context.Context, uri, question string, opts domain.RetrievalOptions,
) (*domain.SelectionResult, error) {
	cfg, err := s.Config(opts)
	if err != nil {
		return nil, err
	}
	if s.provider == nil {
		return nil, fmt.Errorf("%w: document provider not configured", domain.ErrInvalidConfig)
	}
	store, err := s.provider.Acquire(ctx, uri)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, cfg, store, question)
}

// SelectFrom runs the pipeline against an already built store.
func (s *RetrievalService) SelectFrom(
	ctx context.Context, store *ChunkStore, question string, opts domain.RetrievalOptions,
) (*domain.SelectionResult, error) {
	cfg, err := s.Config(opts)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, cfg, store, question)
}

func (s *RetrievalService) run(
	ctx context.Context, cfg domain.RetrievalConfig, store *ChunkStore, question string,
) (*domain.SelectionResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}
	logger.Section("Smart Retrieval")
	defer logger.Timed(time.Now(), "smart retrieval")

	profile := NewAnalyzer(cfg).Analyze(question)
	logger.Debug("Question %q: complexity=%s keywords=%v", domain.Truncate(question, 80), profile.Complexity, profile.Keywords)

	candidates, err := s.retriever.Retrieve(ctx, question, store, cfg.BasePoolSize)
	if err != nil {
		return nil, err
	}

	scored := NewScorer(cfg).Score(profile, candidates)
	result, err := NewSelector(cfg).Select(profile, scored)
	if err != nil {
		return nil, err
	}
	result.Explanation = NewExplainer(cfg).Explain(profile, candidates, result)

	logger.Debug("Selected %d of %d candidates (estimated tokens %d, baseline %d)",
		result.Explanation.SelectedCount, result.Explanation.CandidateCount,
		result.Explanation.SelectedTokens, result.Explanation.BaselineTokens)
	return &result, nil
}
