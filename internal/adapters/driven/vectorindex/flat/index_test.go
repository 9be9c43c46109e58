package flat

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/policyqa/internal/core/domain"
)

func TestIndex_SearchOrdersBySimilarity(t *testing.T) {
	idx := New(2)
	require.NoError(t, idx.Add(0, []float32{0, 1}))
	require.NoError(t, idx.Add(1, []float32{1, 0}))
	require.NoError(t, idx.Add(2, []float32{1, 1}))

	hits, err := idx.Search([]float32{1, 0.1}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, 1, hits[0].Position)
	assert.Equal(t, 2, hits[1].Position)
	assert.Equal(t, 0, hits[2].Position)
	assert.Greater(t, hits[0].Similarity, hits[1].Similarity)
}

func TestIndex_TiesBrokenByPosition(t *testing.T) {
	idx := New(2)
	require.NoError(t, idx.Add(5, []float32{1, 0}))
	require.NoError(t, idx.Add(3, []float32{2, 0}))
	require.NoError(t, idx.Add(9, []float32{3, 0}))

	hits, err := idx.Search([]float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 5, 9}, []int{hits[0].Position, hits[1].Position, hits[2].Position})
}

func TestIndex_KLargerThanLen(t *testing.T) {
	idx := New(1)
	require.NoError(t, idx.Add(0, []float32{1}))

	hits, err := idx.Search([]float32{1}, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-9)
}

func TestIndex_InvalidInput(t *testing.T) {
	idx := New(2)
	assert.ErrorIs(t, idx.Add(0, []float32{1}), domain.ErrInvalidInput)

	require.NoError(t, idx.Add(0, []float32{1, 0}))
	assert.ErrorIs(t, idx.Add(0, []float32{0, 1}), domain.ErrInvalidInput)

	_, err := idx.Search([]float32{1, 0}, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = idx.Search([]float32{1}, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIndex_ZeroVector(t *testing.T) {
	idx := New(2)
	require.NoError(t, idx.Add(0, []float32{0, 0}))

	hits, err := idx.Search([]float32{1, 0}, 1)
	require.NoError(t, err)
	assert.Zero(t, hits[0].Similarity)
}

func TestIndex_AddCopiesVector(t *testing.T) {
	idx := New(2)
	vec := []float32{1, 0}
	require.NoError(t, idx.Add(0, vec))
	vec[0], vec[1] = 0, 1

	hits, err := idx.Search([]float32{1, 0}, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-9)
}

func TestIndex_ConcurrentSearch(t *testing.T) {
	idx := New(3)
	for i := 0; i < 50; i++ {
		require.NoError(t, idx.Add(i, []float32{float32(i), 1, float32(50 - i)}))
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hits, err := idx.Search([]float32{1, 1, 1}, 5)
			assert.NoError(t, err)
			assert.Len(t, hits, 5)
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, idx.Len())
}
