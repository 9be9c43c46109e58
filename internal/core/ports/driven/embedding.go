package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// The core treats it as a black box returning comparable vectors within one session.
//
// Implementations include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
//   - Local hashing embedder (offline, deterministic)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	// The result has one vector per input, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// EmbeddingCache stores vectors keyed by model and a content hash of the embedded text.
// A cache miss is not an error.
type EmbeddingCache interface {
	// Lookup returns the cached vectors for the given keys. Missing keys are absent from the map.
	Lookup(ctx context.Context, model string, keys []string) (map[string][]float32, error)

	// Store saves vectors under the given keys.
	Store(ctx context.Context, model string, entries map[string][]float32) error

	// Close releases resources.
	Close() error
}
