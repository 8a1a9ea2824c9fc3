package domain

import "context"

// Embedder turns text into a vector. The OpenAI client, the resilience and
// cache layers and the instrumentation all implement it and nest.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker is implemented by embedders that can probe their provider.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult is one embedding call as seen by the caller.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
	// Truncated is set when the input was cut to the character ceiling.
	Truncated bool
	// Cached is set when the vector came from the embedding cache; tokens are zero then.
	Cached bool
}
