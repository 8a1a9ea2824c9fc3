// Package result defines the public shape of a ranked search response.
package result

import (
	"math"

	"github.com/kailas-cloud/corner/internal/domain/candidate"
	"github.com/kailas-cloud/corner/internal/domain/facets"
	"github.com/kailas-cloud/corner/internal/domain/venue"
)

// MaxDescriptionRunes is the description length kept in a ranked result.
const MaxDescriptionRunes = 200

// Ranked is one venue in a search response.
type Ranked struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Neighborhood string         `json:"neighborhood"`
	Tags         []string       `json:"tags"`
	PriceRange   string         `json:"price_range"`
	PriceLevel   int            `json:"price_level"`
	Description  string         `json:"description"`
	Similarity   float64        `json:"similarity"`
	MatchPercent float64        `json:"match_percent"`
	BoostTier    candidate.Tier `json:"boost_tier"`
}

// FromCandidate projects a candidate into its public shape.
func FromCandidate(c *candidate.Candidate) Ranked {
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	return Ranked{
		ID:           c.ID,
		Name:         c.Name,
		Neighborhood: c.Neighborhood,
		Tags:         tags,
		PriceRange:   c.PriceRange,
		PriceLevel:   venue.ParsePrice(c.PriceRange).Level,
		Description:  TruncateDescription(c.Description),
		Similarity:   c.Similarity,
		MatchPercent: Percent(c.Similarity),
		BoostTier:    c.Tier,
	}
}

// TruncateDescription cuts s to MaxDescriptionRunes and marks the cut with "...".
func TruncateDescription(s string) string {
	r := []rune(s)
	if len(r) <= MaxDescriptionRunes {
		return s
	}
	return string(r[:MaxDescriptionRunes]) + "..."
}

// Percent converts a similarity to a percentage rounded to two decimals.
func Percent(sim float64) float64 {
	return math.Round(sim*10000) / 100
}

// Breakdown explains the score of one ranked result.
type Breakdown struct {
	ID            string         `json:"id"`
	Similarity    float64        `json:"similarity"`
	RawSimilarity float64        `json:"raw_similarity"`
	BoostTier     candidate.Tier `json:"boost_tier"`
	BoostDelta    float64        `json:"boost_delta"`
	BoostPercent  float64        `json:"boost_percent"`

	// OriginalSimilarity is the score against the unexpanded query; nil when
	// the venue vector was unavailable.
	OriginalSimilarity *float64 `json:"original_similarity,omitempty"`
	// ExpansionDelta is set only when expansion changed the query text.
	ExpansionDelta *float64 `json:"expansion_delta,omitempty"`

	MatchingTags      []string `json:"matching_tags,omitempty"`
	MatchingAmenities []string `json:"matching_amenities,omitempty"`
	PriceRange        string   `json:"price_range,omitempty"`
}

// Explanation is the diagnostic attached to a search in explain mode.
// Items are aligned with the ranked results.
type Explanation struct {
	Facets        facets.Summary `json:"facets"`
	ExpandedQuery string         `json:"expanded_query"`
	Items         []Breakdown    `json:"items"`
}
