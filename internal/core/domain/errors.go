package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	// Validation failures are always raised synchronously to the caller,
	// never silently coerced.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider kind.
	ErrUnsupportedType = errors.New("unsupported provider")

	// ErrMissingEmbedding indicates an operation that requires an embedding
	// was attempted on a document without one (e.g., core feedback).
	ErrMissingEmbedding = errors.New("document has no embedding")

	// ErrEmbeddingUnavailable indicates the embedding backend is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrURLDenied indicates a fetch destination resolved to a loopback,
	// private or link-local address and was refused before any network call.
	ErrURLDenied = errors.New("url destination denied")

	// ErrResponseTooLarge indicates a fetch exceeded the response-size cap.
	ErrResponseTooLarge = errors.New("response exceeds size cap")

	// ErrSourcePaused indicates an operation on a source that has been
	// auto-paused and needs explicit reactivation.
	ErrSourcePaused = errors.New("source is paused")
)
