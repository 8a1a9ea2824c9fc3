// Package candidate defines a venue under consideration during one search.
package candidate

// Tier records how a candidate's similarity was adjusted for location relevance.
type Tier string

const (
	// TierNone means no location boost was applied.
	TierNone Tier = "none"
	// TierPrimary means the venue is in the requested neighborhood.
	TierPrimary Tier = "primary"
	// TierAdjacent means the venue is in a neighborhood bordering the requested one.
	TierAdjacent Tier = "adjacent"
)

// Candidate is one venue in flight. Created by the ranker, re-weighted only by
// the booster, read by the merger.
type Candidate struct {
	ID           string
	Name         string
	Neighborhood string
	Tags         []string
	PriceRange   string
	Description  string
	Amenities    map[string]bool

	// Similarity is the current score in [0,1].
	Similarity float64
	// RawSimilarity is the retrieval score before any boost.
	RawSimilarity float64
	Tier          Tier

	// Vector is the stored venue embedding; only loaded for explanations.
	Vector []float32
}

// Boosted reports whether any location boost has been applied.
func (c Candidate) Boosted() bool {
	return c.Tier == TierPrimary || c.Tier == TierAdjacent
}

// Clamp limits a similarity score to [0,1].
func Clamp(s float64) float64 {
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	default:
		return s
	}
}
