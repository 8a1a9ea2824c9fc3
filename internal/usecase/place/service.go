// Package place serves venue detail pages.
package place

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/corner/internal/domain"
	"github.com/kailas-cloud/corner/internal/domain/venue"
)

// VenueReader loads a full venue record.
type VenueReader interface {
	Get(ctx context.Context, id string) (venue.Venue, error)
}

// Service handles venue detail lookups.
type Service struct {
	venues VenueReader
}

// New creates a Service.
func New(venues VenueReader) *Service {
	return &Service{venues: venues}
}

// Get returns the venue with normalized attributes and at most venue.MaxReviews reviews.
func (s *Service) Get(ctx context.Context, id string) (venue.Venue, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return venue.Venue{}, fmt.Errorf("empty venue id: %w", domain.ErrVenueNotFound)
	}
	v, err := s.venues.Get(ctx, id)
	if err != nil {
		return venue.Venue{}, fmt.Errorf("get venue: %w", err)
	}
	if len(v.Reviews) > venue.MaxReviews {
		v.Reviews = v.Reviews[:venue.MaxReviews]
	}
	return v, nil
}
