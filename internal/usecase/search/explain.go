package search

import (
	"math"
	"slices"
	"strings"

	"github.com/kailas-cloud/corner/internal/domain/candidate"
	"github.com/kailas-cloud/corner/internal/domain/facets"
	"github.com/kailas-cloud/corner/internal/domain/search/result"
)

// priceWords in a query make the breakdown include the price range.
var priceWords = []string{"cheap", "affordable", "expensive", "price", "cost"}

// Explain builds the per-result diagnostic for ranked candidates. originalVec
// is the embedding of the unexpanded query; nil leaves OriginalSimilarity unset.
// It never reorders cands.
func Explain(f facets.QueryFacets, expanded string, cands []candidate.Candidate, originalVec []float32) result.Explanation {
	query := strings.ToLower(f.Original())
	tokens := strings.Fields(query)
	expandedChanged := expanded != f.Original()
	mentionsPrice := slices.ContainsFunc(priceWords, func(w string) bool {
		return strings.Contains(query, w)
	})

	items := make([]result.Breakdown, len(cands))
	for i := range cands {
		c := &cands[i]
		b := result.Breakdown{
			ID:                c.ID,
			Similarity:        c.Similarity,
			RawSimilarity:     c.RawSimilarity,
			BoostTier:         c.Tier,
			BoostDelta:        c.Similarity - c.RawSimilarity,
			MatchingTags:      matchingTags(c.Tags, tokens),
			MatchingAmenities: matchingAmenities(c.Amenities, tokens),
		}
		if c.RawSimilarity > 0 {
			b.BoostPercent = round2((c.Similarity - c.RawSimilarity) / c.RawSimilarity * 100)
		}
		if sim, ok := cosine(originalVec, c.Vector); ok {
			sim = candidate.Clamp(sim)
			b.OriginalSimilarity = &sim
			if expandedChanged {
				delta := c.RawSimilarity - sim
				b.ExpansionDelta = &delta
			}
		}
		if mentionsPrice {
			b.PriceRange = c.PriceRange
		}
		items[i] = b
	}

	return result.Explanation{
		Facets:        f.Summary(),
		ExpandedQuery: expanded,
		Items:         items,
	}
}

func matchingTags(tags, tokens []string) []string {
	var out []string
	for _, tag := range tags {
		lowered := strings.ToLower(tag)
		for _, t := range tokens {
			if strings.Contains(lowered, t) {
				out = append(out, tag)
				break
			}
		}
	}
	return out
}

func matchingAmenities(amenities map[string]bool, tokens []string) []string {
	var out []string
	for name, present := range amenities {
		if !present {
			continue
		}
		lowered := strings.ToLower(name)
		for _, t := range tokens {
			if strings.Contains(lowered, t) {
				out = append(out, name)
				break
			}
		}
	}
	slices.Sort(out)
	return out
}

// cosine returns the cosine similarity of a and b; false when it is undefined.
func cosine(a, b []float32) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
