package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedProvider indicates an unknown LLM or embedding provider.
	ErrUnsupportedProvider = errors.New("unsupported provider")

	// ErrIndexUnavailable indicates the vector index is missing or cannot
	// be opened. Stats callers recover with a zero result; the query path
	// treats it as fatal for the request since no answer can be grounded.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrLLMUnavailable indicates the generative service is not configured
	// or unreachable.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured or unreachable.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrExtraction indicates an article page could not be parsed into
	// title and body text. Recovered by skipping the article.
	ErrExtraction = errors.New("article extraction failed")

	// ErrGeneration indicates the generative service failed mid-stream.
	// Partial output already delivered remains valid.
	ErrGeneration = errors.New("generation failed")
)
