package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/policyqa/internal/core/domain"
	"github.com/custodia-labs/policyqa/internal/core/ports/driven"
	"github.com/custodia-labs/policyqa/internal/core/ports/driving"
	"github.com/custodia-labs/policyqa/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// Ensure AnswerGenerator accepts prompt stores.
var _ driven.PromptStoreAware = (*AnswerGenerator)(nil)

const (
	// DefaultMaxWorkers bounds concurrent questions per batch.
	DefaultMaxWorkers = 5

	// DefaultQuestionTimeout bounds one question.
	DefaultQuestionTimeout = 60 * time.Second

	// referencePreviewRunes is the preview length of cited clauses.
	referencePreviewRunes = 150
)

// clauseCitation matches [CLAUSE_3] as well as a bare CLAUSE_3.
var clauseCitation = regexp.MustCompile(`\[?CLAUSE_(\d+)\]?`)

// AnswerGenerator turns selected passages into a cited answer.
type AnswerGenerator struct {
	llm     driven.LLMService
	prompts driven.PromptStore
	opts    driven.ChatOptions
}

// NewAnswerGenerator creates a generator. llm may be nil, in which case
// every Generate call fails with domain.ErrLLMUnavailable.
func NewAnswerGenerator(llm driven.LLMService, opts driven.ChatOptions) *AnswerGenerator {
	return &AnswerGenerator{llm: llm, opts: opts}
}

// SetPromptStore sets the store for customised prompts.
func (g *AnswerGenerator) SetPromptStore(store driven.PromptStore) {
	g.prompts = store
}

// Available returns true if an LLM is configured.
func (g *AnswerGenerator) Available() bool {
	return g != nil && g.llm != nil
}

// Model returns the LLM model name, or "" when none is configured.
func (g *AnswerGenerator) Model() string {
	if !g.Available() {
		return ""
	}
	return g.llm.ModelName()
}

// Generate asks the LLM to answer question from passages and returns the
// answer text with the clauses it cites.
func (g *AnswerGenerator) Generate(
	ctx context.Context, question string, passages []domain.Passage,
) (string, []domain.ClauseReference, error) {
	if !g.Available() {
		return "", nil, domain.ErrLLMUnavailable
	}
	if len(passages) == 0 {
		return "", nil, domain.ErrNoCandidates
	}

	system := g.loadPrompt(driven.PromptAnswerSystem)
	user := fmt.Sprintf(g.loadPrompt(driven.PromptAnswer), FormatPassages(passages), question)

	text, err := g.llm.Chat(ctx, []driven.ChatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}, g.opts)
	if err != nil {
		if isDeadline(err) {
			return "", nil, fmt.Errorf("%w: %w: %w", domain.ErrAnswerGeneration, domain.ErrTimeout, err)
		}
		return "", nil, fmt.Errorf("%w: %w", domain.ErrAnswerGeneration, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil, fmt.Errorf("%w: empty response", domain.ErrAnswerGeneration)
	}
	return text, ExtractCitations(text, passages), nil
}

func (g *AnswerGenerator) loadPrompt(name string) string {
	if g.prompts != nil {
		if p, err := g.prompts.Load(name); err == nil && p != "" {
			return p
		}
		logger.Debug("Prompt %q not loaded, using default", name)
	}
	return driven.DefaultPrompts[name]
}

// FormatPassages renders passages as labelled blocks separated by blank lines.
func FormatPassages(passages []domain.Passage) string {
	var b strings.Builder
	for i, p := range passages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("[" + p.Label() + "]\n")
		b.WriteString(p.Chunk.Text())
	}
	return b.String()
}

// ExtractCitations returns the passages cited in text, in order of first
// citation. Numbers outside the passage range are ignored.
func ExtractCitations(text string, passages []domain.Passage) []domain.ClauseReference {
	refs := []domain.ClauseReference{}
	seen := make(map[int]bool)
	for _, m := range clauseCitation.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > len(passages) || seen[n] {
			continue
		}
		seen[n] = true
		p := passages[n-1]
		refs = append(refs, domain.ClauseReference{
			Number:     n,
			ChunkIndex: p.Chunk.Index(),
			Section:    p.Chunk.Section(),
			Preview:    p.Chunk.Preview(referencePreviewRunes),
		})
	}
	return refs
}

// AnswerService answers batches of questions against one document.
// Questions run concurrently and fail independently.
type AnswerService struct {
	documents       ChunkStoreProvider
	retrieval       *RetrievalService
	generator       *AnswerGenerator
	maxWorkers      int
	questionTimeout time.Duration
}

// NewAnswerService creates an answer service.
// Non-positive maxWorkers or questionTimeout select the defaults.
func NewAnswerService(
	documents ChunkStoreProvider,
	retrieval *RetrievalService,
	generator *AnswerGenerator,
	maxWorkers int,
	questionTimeout time.Duration,
) *AnswerService {
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}
	if questionTimeout <= 0 {
		questionTimeout = DefaultQuestionTimeout
	}
	return &AnswerService{
		documents:       documents,
		retrieval:       retrieval,
		generator:       generator,
		maxWorkers:      maxWorkers,
		questionTimeout: questionTimeout,
	}
}

// Answer resolves the document once, then answers every question with at
// most maxWorkers in flight. Results keep question order.
func (s *AnswerService) Answer(ctx context.Context, req domain.AnswerRequest) (*domain.AnswerBatch, error) {
	if len(req.Questions) == 0 {
		return nil, fmt.Errorf("%w: no questions", domain.ErrInvalidInput)
	}
	if err := req.Options.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.retrieval.Config(req.Options); err != nil {
		return nil, err
	}

	batchID := uuid.New().String()
	start := time.Now()
	logger.Info("Batch %s: %d questions for %s", batchID, len(req.Questions), req.DocumentURI)

	store, err := s.documents.Acquire(ctx, req.DocumentURI)
	if err != nil {
		return nil, err
	}

	results := make([]domain.QuestionResult, len(req.Questions))
	sem := make(chan struct{}, s.maxWorkers)
	var wg sync.WaitGroup

	for i, question := range req.Questions {
		wg.Add(1)
		go func(i int, question string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[i] = failed(i, question, ctxError(ctx.Err()))
				return
			}
			results[i] = s.answerOne(ctx, store, i, question, req.Options)
		}(i, question)
	}
	wg.Wait()

	batch := &domain.AnswerBatch{
		ID:       batchID,
		Document: store.Info(),
		Results:  results,
		Duration: time.Since(start),
	}
	logger.Info("Batch %s done in %s (%d failed)", batchID, batch.Duration.Round(time.Millisecond), batch.Failures())
	return batch, nil
}

// AnswerOne answers a single question.
func (s *AnswerService) AnswerOne(
	ctx context.Context, uri, question string, opts domain.RetrievalOptions,
) (*domain.Answer, error) {
	store, err := s.documents.Acquire(ctx, uri)
	if err != nil {
		return nil, err
	}
	res := s.answerOne(ctx, store, 0, question, opts)
	if res.Err != nil {
		return nil, res.Err
	}
	return res.Answer, nil
}

func (s *AnswerService) answerOne(
	ctx context.Context, store *ChunkStore, index int, question string, opts domain.RetrievalOptions,
) domain.QuestionResult {
	qctx, cancel := context.WithTimeout(ctx, s.questionTimeout)
	defer cancel()
	start := time.Now()

	if strings.TrimSpace(question) == "" {
		return failed(index, question, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput))
	}

	selection, err := s.retrieval.SelectFrom(qctx, store, question, opts)
	if err != nil {
		return failed(index, question, timeoutAware(qctx, err))
	}

	passages := domain.NumberPassages(selection.Chunks())
	text, refs, err := s.generator.Generate(qctx, question, passages)
	if err != nil {
		return failed(index, question, timeoutAware(qctx, err))
	}

	return domain.QuestionResult{
		Index: index,
		Answer: &domain.Answer{
			Question:          question,
			Text:              text,
			Model:             s.generator.Model(),
			SupportingClauses: refs,
			Selection:         selection,
			Duration:          time.Since(start),
		},
	}
}

func failed(index int, question string, err error) domain.QuestionResult {
	logger.Warn("Question %d failed: %v", index+1, err)
	return domain.QuestionResult{
		Index: index,
		Err:   &domain.QuestionError{Index: index, Question: question, Err: err},
	}
}

// timeoutAware tags err with domain.ErrTimeout when the question deadline passed.
func timeoutAware(ctx context.Context, err error) error {
	if errors.Is(err, domain.ErrTimeout) {
		return err
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrTimeout, err)
	}
	return err
}

func ctxError(err error) error {
	if isDeadline(err) {
		return fmt.Errorf("%w: %w", domain.ErrTimeout, err)
	}
	return err
}
