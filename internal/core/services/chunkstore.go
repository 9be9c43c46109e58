package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/policyqa/internal/core/domain"
	"github.com/custodia-labs/policyqa/internal/core/ports/driven"
	"github.com/custodia-labs/policyqa/internal/logger"
)

// ChunkStore owns the chunks of one document and their vector index.
// It is read-only after construction and safe for concurrent use.
// Rebuilding a document produces a new ChunkStore.
type ChunkStore struct {
	uri         string
	title       string
	chunks      []domain.Chunk
	index       driven.VectorIndex
	fingerprint string
	model       string
	dimensions  int
	builtAt     time.Time
}

// Search returns the topN chunks most similar to the query embedding,
// by descending similarity with ties broken by ascending chunk index.
// topN larger than the chunk count returns every chunk.
func (s *ChunkStore) Search(query []float32, topN int) (domain.CandidateSet, error) {
	if topN < 1 {
		return nil, fmt.Errorf("%w: top_n must be at least 1", domain.ErrInvalidInput)
	}
	if len(s.chunks) == 0 {
		return nil, domain.ErrNoCandidates
	}
	if topN > len(s.chunks) {
		topN = len(s.chunks)
	}

	hits, err := s.index.Search(query, topN)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	sort.SliceStable(hits, func(a, b int) bool {
		if hits[a].Similarity != hits[b].Similarity {
			return hits[a].Similarity > hits[b].Similarity
		}
		return hits[a].Position < hits[b].Position
	})

	set := make(domain.CandidateSet, 0, len(hits))
	for _, hit := range hits {
		if hit.Position < 0 || hit.Position >= len(s.chunks) {
			return nil, fmt.Errorf("vector search returned unknown position %d", hit.Position)
		}
		set = append(set, domain.Candidate{
			Chunk:      s.chunks[hit.Position],
			Similarity: hit.Similarity,
			Rank:       len(set),
		})
	}
	return set, nil
}

// ChunkCount returns the number of chunks.
func (s *ChunkStore) ChunkCount() int {
	return len(s.chunks)
}

// Chunk returns the chunk at index i.
func (s *ChunkStore) Chunk(i int) (domain.Chunk, bool) {
	if i < 0 || i >= len(s.chunks) {
		return domain.Chunk{}, false
	}
	return s.chunks[i], true
}

// Chunks returns the chunks in document order. The slice is a copy.
func (s *ChunkStore) Chunks() []domain.Chunk {
	out := make([]domain.Chunk, len(s.chunks))
	copy(out, s.chunks)
	return out
}

// Dimensions returns the embedding size.
func (s *ChunkStore) Dimensions() int { return s.dimensions }

// Fingerprint is the SHA-256 of the source text.
func (s *ChunkStore) Fingerprint() string { return s.fingerprint }

// Info summarises the store.
func (s *ChunkStore) Info() domain.DocumentInfo {
	return domain.DocumentInfo{
		URI:         s.uri,
		Title:       s.title,
		Fingerprint: s.fingerprint,
		ChunkCount:  len(s.chunks),
		Dimensions:  s.dimensions,
		Model:       s.model,
		BuiltAt:     s.builtAt,
	}
}

// ChunkStoreBuilder splits, embeds and indexes documents.
type ChunkStoreBuilder struct {
	pipeline driven.PostProcessorPipeline
	embedder driven.EmbeddingService
	newIndex driven.VectorIndexFactory
	now      func() time.Time
}

// NewChunkStoreBuilder creates a builder. All arguments are required.
func NewChunkStoreBuilder(
	pipeline driven.PostProcessorPipeline,
	embedder driven.EmbeddingService,
	newIndex driven.VectorIndexFactory,
) (*ChunkStoreBuilder, error) {
	if pipeline == nil {
		return nil, fmt.Errorf("%w: post-processor pipeline is nil", domain.ErrInvalidConfig)
	}
	if embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if newIndex == nil {
		return nil, fmt.Errorf("%w: vector index factory is nil", domain.ErrInvalidConfig)
	}
	return &ChunkStoreBuilder{
		pipeline: pipeline,
		embedder: embedder,
		newIndex: newIndex,
		now:      time.Now,
	}, nil
}

// BuildText builds a store from raw text. uri only labels the result.
func (b *ChunkStoreBuilder) BuildText(ctx context.Context, uri, text string) (*ChunkStore, error) {
	return b.Build(ctx, &domain.Document{URI: uri, Content: text})
}

// Build splits the document, embeds every chunk in one batch and indexes the vectors.
// Empty text or zero chunks fail with domain.ErrDocumentEmpty; provider failures
// with domain.ErrEmbeddingUnavailable.
func (b *ChunkStoreBuilder) Build(ctx context.Context, doc *domain.Document) (*ChunkStore, error) {
	if doc == nil || strings.TrimSpace(doc.Content) == "" {
		return nil, domain.ErrDocumentEmpty
	}
	logger.Section("Build Chunk Store")
	defer logger.Timed(time.Now(), "build chunk store")

	segments, err := b.pipeline.Process(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("split document: %w", err)
	}
	texts := make([]string, 0, len(segments))
	kept := make([]domain.Segment, 0, len(segments))
	for _, seg := range segments {
		if strings.TrimSpace(seg.Text) == "" {
			continue
		}
		texts = append(texts, seg.Text)
		kept = append(kept, seg)
	}
	if len(texts) == 0 {
		return nil, domain.ErrDocumentEmpty
	}
	logger.Debug("Document %q split into %d chunks", doc.URI, len(texts))

	vectors, err := b.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, wrapEmbeddingError(err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: provider returned %d vectors for %d chunks",
			domain.ErrEmbeddingUnavailable, len(vectors), len(texts))
	}

	dims := len(vectors[0])
	if dims == 0 {
		return nil, fmt.Errorf("%w: provider returned an empty vector", domain.ErrEmbeddingUnavailable)
	}
	index := b.newIndex(dims)
	chunks := make([]domain.Chunk, len(texts))
	for i, vec := range vectors {
		if len(vec) != dims {
			return nil, fmt.Errorf("%w: inconsistent vector sizes %d and %d",
				domain.ErrEmbeddingUnavailable, dims, len(vec))
		}
		chunks[i] = domain.NewChunk(i, kept[i].Text, kept[i].Section, vec)
		if err := index.Add(i, vec); err != nil {
			return nil, fmt.Errorf("index chunk %d: %w", i, err)
		}
	}

	return &ChunkStore{
		uri:         doc.URI,
		title:       doc.Title,
		chunks:      chunks,
		index:       index,
		fingerprint: fingerprint(doc.Content),
		model:       b.embedder.ModelName(),
		dimensions:  dims,
		builtAt:     b.now(),
	}, nil
}

// wrapEmbeddingError tags provider failures so callers can match both the
// category and, for deadlines, domain.ErrTimeout.
func wrapEmbeddingError(err error) error {
	if errors.Is(err, domain.ErrEmbeddingUnavailable) {
		if isDeadline(err) && !errors.Is(err, domain.ErrTimeout) {
			return fmt.Errorf("%w: %w", domain.ErrTimeout, err)
		}
		return err
	}
	if isDeadline(err) {
		return fmt.Errorf("%w: %w: %w", domain.ErrEmbeddingUnavailable, domain.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
}

// fingerprint is the hex SHA-256 of text.
func fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func isDeadline(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
