package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrConfiguration indicates missing or invalid process configuration
	// (credentials, base URLs). Fatal at startup, never per-request.
	ErrConfiguration = errors.New("configuration error")

	// ErrUpstream indicates the embedding provider or entry store returned
	// a non-success status or timed out. Recoverable per request.
	ErrUpstream = errors.New("upstream error")

	// ErrValidation indicates a Report failed schema validation.
	ErrValidation = errors.New("validation error")

	// ErrParse indicates stage output could not be interpreted as JSON or
	// as a Report in any accepted shape.
	ErrParse = errors.New("parse error")

	// ErrInvalidInput indicates malformed or invalid caller input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Semantic search is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrStoreUnavailable indicates the entry store is not configured.
	ErrStoreUnavailable = errors.New("entry store unavailable")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Synthesis degrades to the deterministic report builder.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)
