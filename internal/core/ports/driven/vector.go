package driven

// VectorIndex provides similarity search over the embeddings of one document.
// An index is filled once and then only read; implementations must allow
// concurrent Search calls.
type VectorIndex interface {
	// Add inserts a vector for the chunk at the given position.
	Add(position int, embedding []float32) error

	// Search returns up to k hits ordered by descending similarity,
	// ties broken by ascending position.
	Search(query []float32, k int) ([]VectorHit, error)

	// Len returns the number of indexed vectors.
	Len() int
}

// VectorIndexFactory creates an empty index for vectors of the given size.
type VectorIndexFactory func(dimensions int) VectorIndex

// VectorHit represents a similarity search result.
type VectorHit struct {
	// Position is the chunk position passed to Add.
	Position int

	// Similarity is the cosine similarity in [-1, 1].
	Similarity float64
}
