package venue

import (
	"github.com/kailas-cloud/corner/internal/db"
	"github.com/kailas-cloud/corner/internal/domain/lexicon"
)

// Hash fields of a venue record.
const (
	fieldName         = "name"
	fieldNeighborhood = "neighborhood"
	fieldAddress      = "address"
	fieldWebsite      = "website"
	fieldInstagram    = "instagram_handle"
	fieldDescription  = "description"
	fieldTags         = "tags"
	fieldPriceRange   = "price_range"
	fieldHours        = "hours"
	fieldAmenities    = "amenities"
	fieldReviews      = "reviews"
)

// buildIndex creates the venue IndexDefinition: tag fields for filtering and
// one vector field.
func buildIndex(cfg Config, prefix string) (*db.IndexDefinition, error) {
	b := db.NewIndex(cfg.IndexName).
		Prefix(prefix).
		TagWithSeparator(fieldNeighborhood, "|").
		TagWithSeparator(fieldPriceRange, "|").
		Tag(lexicon.AmenityFields()...)

	if cfg.Algorithm == db.VectorFlat {
		b = b.VectorFlat(cfg.VectorField, cfg.Dimensions, cfg.Distance)
	} else {
		b = b.VectorHNSW(cfg.VectorField, cfg.Dimensions, cfg.Distance, cfg.HNSWM, cfg.HNSWEF)
	}
	return b.Build()
}

// candidateFields lists the hash fields the ranker needs.
func candidateFields() []string {
	fields := []string{
		fieldName, fieldNeighborhood, fieldTags, fieldPriceRange,
		fieldDescription, fieldAmenities,
	}
	return append(fields, lexicon.AmenityFields()...)
}
