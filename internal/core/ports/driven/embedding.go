package driven

import "context"

// EmbeddingService turns text into a fixed-dimension vector for similarity
// search. Implementations must return L2-normalized vectors regardless of
// whether the provider already normalizes.
//
// Implementations may include:
//   - Gemini (text-embedding-004)
//   - NVIDIA NIM (nv-embedqa style retrieval models)
type EmbeddingService interface {
	// Embed generates a normalized vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
