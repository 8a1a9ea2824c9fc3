package search

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/corner/internal/domain"
	"github.com/kailas-cloud/corner/internal/domain/candidate"
	"github.com/kailas-cloud/corner/internal/domain/facets"
	"github.com/kailas-cloud/corner/internal/domain/lexicon"
	"github.com/kailas-cloud/corner/internal/domain/search/filter"
)

// CandidateMultiplier is how many candidates are retrieved per requested result.
const CandidateMultiplier = 2

// Ranker retrieves similarity-ranked candidates, hard-filtered by requested amenities.
type Ranker struct {
	venues VenueSearcher
}

// NewRanker creates a Ranker.
func NewRanker(venues VenueSearcher) *Ranker {
	return &Ranker{venues: venues}
}

// Rank returns up to limit*CandidateMultiplier candidates ordered by similarity.
// An empty result is nil with a nil error.
func (r *Ranker) Rank(
	ctx context.Context, vector []float32, f facets.QueryFacets, limit int, withVectors bool,
) ([]candidate.Candidate, error) {
	filters, err := amenityFilter(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
	}

	cands, err := r.venues.SearchKNN(ctx, vector, filters, limit*CandidateMultiplier, withVectors)
	if err != nil {
		return nil, fmt.Errorf("rank: %w", err)
	}
	if len(cands) == 0 {
		return nil, nil
	}
	return cands, nil
}

// amenityFilter turns every amenity facet into a conjunctive tag condition.
func amenityFilter(f facets.QueryFacets) (filter.Expression, error) {
	amenities := f.Amenities()
	if len(amenities) == 0 {
		return filter.Expression{}, nil
	}

	must := make([]filter.Condition, 0, len(amenities))
	for _, a := range amenities {
		c, err := filter.NewMatch(lexicon.AmenityField(a), "true")
		if err != nil {
			return filter.Expression{}, err
		}
		must = append(must, c)
	}
	return filter.NewExpression(must)
}
