package venue

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/corner/internal/db"
	"github.com/kailas-cloud/corner/internal/domain/candidate"
	"github.com/kailas-cloud/corner/internal/domain/lexicon"
	domvenue "github.com/kailas-cloud/corner/internal/domain/venue"
)

// candidateFromEntry hydrates a Candidate from a KNN hit.
func candidateFromEntry(id string, e db.SearchEntry, vectorField string, withVector bool) (candidate.Candidate, error) {
	f := e.Fields
	sim := candidate.Clamp(e.Score)
	c := candidate.Candidate{
		ID:            id,
		Name:          f[fieldName],
		Neighborhood:  f[fieldNeighborhood],
		Tags:          domvenue.ParseTags(f[fieldTags]),
		PriceRange:    f[fieldPriceRange],
		Description:   f[fieldDescription],
		Amenities:     amenities(f),
		Similarity:    sim,
		RawSimilarity: sim,
		Tier:          candidate.TierNone,
	}

	if withVector {
		if blob, ok := f[vectorField]; ok && blob != "" {
			vec, err := db.DecodeVector(blob)
			if err != nil {
				return candidate.Candidate{}, fmt.Errorf("venue %s vector: %w", id, err)
			}
			c.Vector = vec
		}
	}
	return c, nil
}

// amenities merges the raw amenities attribute with the indexed amenity_* flags.
func amenities(f map[string]string) map[string]bool {
	out := domvenue.ParseAmenities(f[fieldAmenities])
	for _, e := range lexicon.Entries(lexicon.Amenity) {
		if strings.EqualFold(f[lexicon.AmenityField(e.Term)], "true") {
			if out == nil {
				out = make(map[string]bool)
			}
			out[e.Term] = true
		}
	}
	return out
}

// venueFromHash hydrates a Venue from an HGETALL result map. Malformed
// reviews are logged and dropped; the rest of the record is still served.
func venueFromHash(id string, m map[string]string, logger *zap.Logger) domvenue.Venue {
	v := domvenue.Venue{
		ID:              id,
		Name:            m[fieldName],
		Neighborhood:    m[fieldNeighborhood],
		Address:         m[fieldAddress],
		Website:         m[fieldWebsite],
		InstagramHandle: m[fieldInstagram],
		Description:     m[fieldDescription],
		Tags:            domvenue.ParseTags(m[fieldTags]),
		Price:           domvenue.ParsePrice(m[fieldPriceRange]),
		Hours:           domvenue.ParseHours(m[fieldHours]),
		Amenities:       amenities(m),
	}

	if raw := m[fieldReviews]; raw != "" {
		var reviews []domvenue.Review
		if err := json.Unmarshal([]byte(raw), &reviews); err != nil {
			logger.Warn("malformed venue reviews", zap.String("venue", id), zap.Error(err))
		} else {
			if len(reviews) > domvenue.MaxReviews {
				reviews = reviews[:domvenue.MaxReviews]
			}
			v.Reviews = reviews
		}
	}
	return v
}
