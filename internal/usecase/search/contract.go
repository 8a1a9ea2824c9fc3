package search

import (
	"context"

	"github.com/kailas-cloud/corner/internal/domain"
	"github.com/kailas-cloud/corner/internal/domain/candidate"
	"github.com/kailas-cloud/corner/internal/domain/search/filter"
)

// VenueSearcher retrieves the nearest venues to a query vector.
type VenueSearcher interface {
	SearchKNN(
		ctx context.Context, vector []float32, filters filter.Expression, k int, withVectors bool,
	) ([]candidate.Candidate, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// AdjacencyResolver lists neighborhoods bordering a given one.
type AdjacencyResolver interface {
	AdjacentNeighborhoods(name string) []string
}

// LocationResolver finds neighborhoods in query text and knows their neighbors.
type LocationResolver interface {
	ExtractLocation(text string) (remaining string, neighborhood *string)
	AdjacencyResolver
}
