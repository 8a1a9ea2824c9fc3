package search

import (
	"strings"

	"github.com/kailas-cloud/corner/internal/domain/candidate"
)

// Location boost factors.
const (
	PrimaryBoost  = 1.2
	AdjacentBoost = 1.1
	// MinPrimaryMatches is the primary count below which adjacent
	// neighborhoods are boosted too.
	MinPrimaryMatches = 3
)

// Booster re-weights candidates by location relevance.
type Booster struct {
	adjacency AdjacencyResolver
}

// NewBooster creates a Booster. adjacency may be nil, which disables the
// adjacent-neighborhood fallback.
func NewBooster(adjacency AdjacencyResolver) *Booster {
	return &Booster{adjacency: adjacency}
}

// Boost returns primaries, then adjacents, then the rest, each group in input
// order. Candidates that already carry a tier keep their score, so applying
// Boost twice gives the same result as applying it once.
func (b *Booster) Boost(cands []candidate.Candidate, location *string) []candidate.Candidate {
	if location == nil || strings.TrimSpace(*location) == "" || len(cands) == 0 {
		return cands
	}
	loc := strings.ToLower(strings.TrimSpace(*location))

	var primary, adjacent, rest []candidate.Candidate
	for _, c := range cands {
		switch {
		case c.Tier == candidate.TierPrimary:
			primary = append(primary, c)
		case c.Tier == candidate.TierNone && containsFold(c.Neighborhood, loc):
			primary = append(primary, boost(c, PrimaryBoost, candidate.TierPrimary))
		default:
			rest = append(rest, c)
		}
	}

	var near []string
	if len(primary) < MinPrimaryMatches && b.adjacency != nil {
		for _, n := range b.adjacency.AdjacentNeighborhoods(*location) {
			if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
				near = append(near, n)
			}
		}
	}

	var others []candidate.Candidate
	for _, c := range rest {
		switch {
		case c.Tier == candidate.TierAdjacent:
			adjacent = append(adjacent, c)
		case len(near) > 0 && containsAny(c.Neighborhood, near):
			adjacent = append(adjacent, boost(c, AdjacentBoost, candidate.TierAdjacent))
		default:
			others = append(others, c)
		}
	}

	out := make([]candidate.Candidate, 0, len(cands))
	out = append(out, primary...)
	out = append(out, adjacent...)
	return append(out, others...)
}

func boost(c candidate.Candidate, factor float64, tier candidate.Tier) candidate.Candidate {
	c.Similarity = candidate.Clamp(c.Similarity * factor)
	c.Tier = tier
	return c
}

// containsFold reports whether s contains the lower-cased needle, ignoring case.
func containsFold(s, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(s), lowerNeedle)
}

func containsAny(s string, lowerNeedles []string) bool {
	lowered := strings.ToLower(s)
	for _, n := range lowerNeedles {
		if strings.Contains(lowered, n) {
			return true
		}
	}
	return false
}
