package domain

import "errors"

var (
	// ErrInvalidQuery signals an empty query text or a non-positive limit.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrVenueNotFound signals a missing venue.
	ErrVenueNotFound = errors.New("venue not found")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")

	// ErrEmbeddingProviderError signals a single failed call to the embedding provider.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrEmbeddingUnavailable signals that the embedding provider failed after all retries.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	// ErrSearchBackendUnavailable signals that the vector store could not serve the query.
	ErrSearchBackendUnavailable = errors.New("search backend unavailable")
)
