package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/policyqa/internal/core/domain"
	"github.com/custodia-labs/policyqa/internal/core/ports/driven"
	"github.com/custodia-labs/policyqa/internal/core/ports/driving"
	"github.com/custodia-labs/policyqa/internal/logger"
)

// Ensure DocumentService implements the interfaces.
var (
	_ driving.DocumentService = (*DocumentService)(nil)
	_ ChunkStoreProvider      = (*DocumentService)(nil)
)

// defaultBuildTimeout bounds one document build, independent of any caller.
const defaultBuildTimeout = 5 * time.Minute

// ChunkStoreProvider resolves a document reference to a built chunk store.
type ChunkStoreProvider interface {
	Acquire(ctx context.Context, uri string) (*ChunkStore, error)
}

type cachedStore struct {
	store   *ChunkStore
	expires time.Time
}

// DocumentService loads, normalises and indexes documents, and caches the
// resulting chunk stores by URI for a TTL.
type DocumentService struct {
	loader       driven.DocumentLoader
	registry     driven.NormaliserRegistry
	builder      *ChunkStoreBuilder
	ttl          time.Duration
	buildTimeout time.Duration
	now          func() time.Time

	group singleflight.Group

	mu     sync.RWMutex
	stores map[string]cachedStore
}

// NewDocumentService creates a document service.
// A non-positive ttl keeps stores until evicted.
func NewDocumentService(
	loader driven.DocumentLoader,
	registry driven.NormaliserRegistry,
	builder *ChunkStoreBuilder,
	ttl time.Duration,
) *DocumentService {
	return &DocumentService{
		loader:       loader,
		registry:     registry,
		builder:      builder,
		ttl:          ttl,
		buildTimeout: defaultBuildTimeout,
		now:          time.Now,
		stores:       make(map[string]cachedStore),
	}
}

// SetBuildTimeout overrides the per-build deadline.
func (s *DocumentService) SetBuildTimeout(d time.Duration) {
	if d > 0 {
		s.buildTimeout = d
	}
}

// Acquire returns the cached chunk store for uri, building it when absent or expired.
func (s *DocumentService) Acquire(ctx context.Context, uri string) (*ChunkStore, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, fmt.Errorf("%w: document reference is empty", domain.ErrInvalidInput)
	}
	if store, ok := s.cached(uri); ok {
		logger.Debug("Chunk store cache hit: %s", uri)
		return store, nil
	}
	return s.build(ctx, uri, func(bctx context.Context) (*domain.Document, error) {
		return s.fetch(bctx, uri)
	})
}

// Load returns the summary of the chunk store for uri.
func (s *DocumentService) Load(ctx context.Context, uri string) (domain.DocumentInfo, error) {
	store, err := s.Acquire(ctx, uri)
	if err != nil {
		return domain.DocumentInfo{}, err
	}
	return store.Info(), nil
}

// Refresh rebuilds uri. The previous store stays cached if the rebuild fails.
func (s *DocumentService) Refresh(ctx context.Context, uri string) (domain.DocumentInfo, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return domain.DocumentInfo{}, fmt.Errorf("%w: document reference is empty", domain.ErrInvalidInput)
	}
	store, err := s.build(ctx, uri, func(bctx context.Context) (*domain.Document, error) {
		return s.fetch(bctx, uri)
	})
	if err != nil {
		return domain.DocumentInfo{}, err
	}
	return store.Info(), nil
}

// Evict drops the cached store for uri.
func (s *DocumentService) Evict(uri string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.stores[uri]
	delete(s.stores, uri)
	return ok
}

// List returns summaries of all unexpired cached stores, sorted by URI.
func (s *DocumentService) List() []domain.DocumentInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.now()
	out := make([]domain.DocumentInfo, 0, len(s.stores))
	for _, entry := range s.stores {
		if s.expired(entry, now) {
			continue
		}
		out = append(out, entry.store.Info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URI < out[j].URI })
	return out
}

func (s *DocumentService) cached(uri string) (*ChunkStore, bool) {
	s.mu.RLock()
	entry, ok := s.stores[uri]
	s.mu.RUnlock()
	if !ok || s.expired(entry, s.now()) {
		return nil, false
	}
	return entry.store, true
}

func (s *DocumentService) expired(entry cachedStore, now time.Time) bool {
	return !entry.expires.IsZero() && now.After(entry.expires)
}

// build coalesces concurrent builds of the same key. The build runs detached
// from any single caller so one cancelled request does not fail its siblings;
// each caller still stops waiting when its own context ends.
func (s *DocumentService) build(
	ctx context.Context, key string, load func(context.Context) (*domain.Document, error),
) (*ChunkStore, error) {
	if s.builder == nil {
		return nil, fmt.Errorf("%w: chunk store builder not configured", domain.ErrInvalidConfig)
	}
	ch := s.group.DoChan(key, func() (any, error) {
		bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.buildTimeout)
		defer cancel()

		doc, err := load(bctx)
		if err != nil {
			return nil, err
		}
		store, err := s.builder.Build(bctx, doc)
		if err != nil {
			return nil, err
		}

		entry := cachedStore{store: store}
		if s.ttl > 0 {
			entry.expires = s.now().Add(s.ttl)
		}
		s.mu.Lock()
		s.stores[key] = entry
		s.mu.Unlock()
		logger.Info("Indexed %s: %d chunks", key, store.ChunkCount())
		return store, nil
	})

	select {
	case <-ctx.Done():
		if isDeadline(ctx.Err()) {
			return nil, fmt.Errorf("%w: waiting for document %s", domain.ErrTimeout, key)
		}
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("load document %s: %w", key, res.Err)
		}
		return res.Val.(*ChunkStore), nil
	}
}

func (s *DocumentService) fetch(ctx context.Context, uri string) (*domain.Document, error) {
	if s.loader == nil || s.registry == nil {
		return nil, fmt.Errorf("%w: document loader not configured", domain.ErrInvalidConfig)
	}
	raw, err := s.loader.Load(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	doc, err := s.registry.Normalise(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("normalise: %w", err)
	}
	if doc.URI == "" {
		doc.URI = uri
	}
	if doc.LoadedAt.IsZero() {
		doc.LoadedAt = s.now()
	}
	return doc, nil
}
