package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// The core treats it as an opaque synchronous function; implementations
// may call a local inference server or a remote API.
//
// Implementations must tolerate empty-string inputs by substituting a
// single-space placeholder rather than erroring.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 768, 1536).
	Dimensions() int

	// ModelName returns the identifier of the embedding model in use.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
