// Package flat provides an exact in-memory cosine similarity index.
//
// Every search scans all vectors, so results are exact and reproducible:
// hits are ordered by descending similarity with ties broken by ascending
// position.
package flat

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/policyqa/internal/core/domain"
	"github.com/custodia-labs/policyqa/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

type entry struct {
	position int
	vector   []float32
	norm     float64
}

// Index is a brute-force cosine index.
type Index struct {
	mu         sync.RWMutex
	dimensions int
	entries    []entry
	positions  map[int]struct{}
}

// New creates an empty index for vectors of the given size.
func New(dimensions int) *Index {
	return &Index{
		dimensions: dimensions,
		positions:  make(map[int]struct{}),
	}
}

// Factory adapts New to driven.VectorIndexFactory.
func Factory(dimensions int) driven.VectorIndex {
	return New(dimensions)
}

// Add inserts a copy of the vector.
func (i *Index) Add(position int, embedding []float32) error {
	if len(embedding) != i.dimensions {
		return fmt.Errorf("%w: vector has %d dimensions, index expects %d",
			domain.ErrInvalidInput, len(embedding), i.dimensions)
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, exists := i.positions[position]; exists {
		return fmt.Errorf("%w: position %d already indexed", domain.ErrInvalidInput, position)
	}
	vec := make([]float32, len(embedding))
	copy(vec, embedding)
	i.entries = append(i.entries, entry{position: position, vector: vec, norm: norm(vec)})
	i.positions[position] = struct{}{}
	return nil
}

// Search returns the k most similar vectors.
func (i *Index) Search(query []float32, k int) ([]driven.VectorHit, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be at least 1", domain.ErrInvalidInput)
	}
	if len(query) != i.dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, index expects %d",
			domain.ErrInvalidInput, len(query), i.dimensions)
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	qn := norm(query)
	hits := make([]driven.VectorHit, len(i.entries))
	for n, e := range i.entries {
		hits[n] = driven.VectorHit{Position: e.position, Similarity: cosine(query, qn, e.vector, e.norm)}
	}

	sort.Slice(hits, func(a, b int) bool {
		if hits[a].Similarity != hits[b].Similarity {
			return hits[a].Similarity > hits[b].Similarity
		}
		return hits[a].Position < hits[b].Position
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Len returns the number of indexed vectors.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.entries)
}

// Dimensions returns the vector size.
func (i *Index) Dimensions() int {
	return i.dimensions
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine returns 0 when either vector has zero length.
func cosine(a []float32, an float64, b []float32, bn float64) float64 {
	if an == 0 || bn == 0 {
		return 0
	}
	var dot float64
	for n := range a {
		dot += float64(a[n]) * float64(b[n])
	}
	sim := dot / (an * bn)
	// Rounding can push identical vectors slightly past 1.
	return math.Max(-1, math.Min(1, sim))
}
