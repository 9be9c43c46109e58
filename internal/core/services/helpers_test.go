package services

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"unicode"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/policyqa/internal/adapters/driven/vectorindex/flat"
	"github.com/custodia-labs/policyqa/internal/core/domain"
	"github.com/custodia-labs/policyqa/internal/core/ports/driven"
)

const testDims = 64

// policyParagraphs is a ten-clause policy used across the pipeline tests.
var policyParagraphs = []string{
	"1. Definitions. Policyholder means the person named in the schedule. Sum insured is the maximum amount payable.",
	"2. Coverage. The policy covers hospitalisation expenses for illness or injury, subject to the terms and conditions.",
	"3. Maternity benefit. Maternity expenses, including normal and caesarean delivery, are covered after a waiting period of 24 months of continuous coverage.",
	"4. Pre-existing diseases. Pre-existing conditions are covered only after a waiting period of 36 months.",
	"5. Exclusions. Cosmetic surgery and experimental treatment are not covered.",
	"6. Claims process. A claim must be notified within 30 days. Cashless claims are settled directly with the network hospital.",
	"7. Premium payment. Premium is due annually. A grace period of 30 days is allowed for renewal.",
	"8. Free look period. The policyholder may cancel within 15 days of receipt.",
	"9. Portability. The insured may port the policy to another insurer at renewal.",
	"10. Grievances. Complaints may be sent to the grievance officer by email.",
}

var policyText = strings.Join(policyParagraphs, "\n\n")

// hashEmbedder is a deterministic bag-of-words embedder.
type hashEmbedder struct {
	embedCalls atomic.Int64
	batchCalls atomic.Int64

	// failOnEmbed fails the n-th Embed call (1-based) when positive.
	failOnEmbed int64
	failBatch   bool
	err         error
}

func (e *hashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	n := e.embedCalls.Add(1)
	if e.failOnEmbed > 0 && n == e.failOnEmbed {
		return nil, e.failure()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return hashVector(text), nil
}

func (e *hashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.batchCalls.Add(1)
	if e.failBatch {
		return nil, e.failure()
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = hashVector(t)
	}
	return out, nil
}

func (e *hashEmbedder) failure() error {
	if e.err != nil {
		return e.err
	}
	return errors.New("provider down")
}

func (e *hashEmbedder) Dimensions() int              { return testDims }
func (e *hashEmbedder) ModelName() string            { return "test-hash" }
func (e *hashEmbedder) Ping(_ context.Context) error { return nil }
func (e *hashEmbedder) Close() error                 { return nil }

func hashVector(text string) []float32 {
	vec := make([]float32, testDims)
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(tok) > 5 {
			tok = tok[:5]
		}
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		vec[h.Sum32()%testDims]++
	}
	return vec
}

// paragraphPipeline splits on blank lines.
type paragraphPipeline struct{}

func (paragraphPipeline) Process(_ context.Context, doc *domain.Document) ([]domain.Segment, error) {
	var out []domain.Segment
	for _, p := range strings.Split(doc.Content, "\n\n") {
		if strings.TrimSpace(p) != "" {
			out = append(out, domain.Segment{Text: strings.TrimSpace(p)})
		}
	}
	return out, nil
}

func newTestBuilder(t *testing.T, embedder driven.EmbeddingService) *ChunkStoreBuilder {
	t.Helper()
	b, err := NewChunkStoreBuilder(paragraphPipeline{}, embedder, flat.Factory)
	require.NoError(t, err)
	return b
}

func buildPolicyStore(t *testing.T, embedder driven.EmbeddingService) *ChunkStore {
	t.Helper()
	store, err := newTestBuilder(t, embedder).BuildText(context.Background(), "policy.txt", policyText)
	require.NoError(t, err)
	return store
}

// staticProvider serves one prebuilt store for any uri.
type staticProvider struct {
	store *ChunkStore
	err   error
	calls atomic.Int64
}

func (p *staticProvider) Acquire(_ context.Context, _ string) (*ChunkStore, error) {
	p.calls.Add(1)
	return p.store, p.err
}

// scriptedLLM answers with a fixed reply and records prompts.
type scriptedLLM struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (l *scriptedLLM) Generate(ctx context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	return l.Chat(ctx, []driven.ChatMessage{{Role: "user", Content: prompt}}, driven.ChatOptions{})
}

func (l *scriptedLLM) Chat(ctx context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range messages {
		l.prompts = append(l.prompts, m.Content)
	}
	if l.err != nil {
		return "", l.err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return l.reply, nil
}

func (l *scriptedLLM) ModelName() string            { return "scripted" }
func (l *scriptedLLM) Ping(_ context.Context) error { return nil }
func (l *scriptedLLM) Close() error                 { return nil }
