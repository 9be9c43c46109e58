package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// Adapters wrap infrastructure errors with these so callers can use errors.Is.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates retrieval or provider configuration failed validation.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnsupportedType indicates no normaliser handles the document's MIME type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrDocumentEmpty indicates a document produced no usable text or no chunks.
	// Retrying the same document will not help.
	ErrDocumentEmpty = errors.New("document is empty")

	// ErrEmbeddingUnavailable indicates the embedding provider failed or is not configured.
	// Callers may retry with backoff; the core never retries.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrNoCandidates indicates retrieval produced zero candidates.
	// This means the chunk store is empty, which a successful build never allows.
	ErrNoCandidates = errors.New("no candidate chunks")

	// ErrLLMUnavailable indicates the LLM service is not configured or unreachable.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrAnswerGeneration indicates the answer generator failed for a question.
	ErrAnswerGeneration = errors.New("answer generation failed")

	// ErrTimeout indicates a provider call exceeded its deadline.
	ErrTimeout = errors.New("operation timed out")

	// ErrRateLimited indicates a provider rejected the call for quota reasons.
	ErrRateLimited = errors.New("rate limited")
)

// QuestionError tags a failure with the question that caused it.
// Batch answering returns one per failed question; siblings are unaffected.
type QuestionError struct {
	Index    int
	Question string
	Err      error
}

// Error implements error.
func (e *QuestionError) Error() string {
	return fmt.Sprintf("question %d: %v", e.Index+1, e.Err)
}

// Unwrap returns the underlying cause.
func (e *QuestionError) Unwrap() error {
	return e.Err
}

// Kind returns a short machine-readable label for the error category.
func (e *QuestionError) Kind() string {
	return ErrorKind(e.Err)
}

// ErrorKind maps an error to a stable label used in API responses.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDocumentEmpty):
		return "document_empty"
	case errors.Is(err, ErrEmbeddingUnavailable):
		return "embedding_unavailable"
	case errors.Is(err, ErrNoCandidates):
		return "no_candidates"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrAnswerGeneration), errors.Is(err, ErrLLMUnavailable):
		return "answer_generation"
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidConfig):
		return "invalid_input"
	case errors.Is(err, ErrUnsupportedType):
		return "unsupported_type"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}
