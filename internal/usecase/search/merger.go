package search

import (
	"cmp"
	"slices"

	"github.com/kailas-cloud/corner/internal/domain/candidate"
	"github.com/kailas-cloud/corner/internal/domain/search/result"
)

// Finalize orders candidates by similarity, keeps the top limit and projects
// them into their public shape.
func Finalize(cands []candidate.Candidate, limit int) []result.Ranked {
	return project(top(cands, limit))
}

// top stable-sorts a copy of cands by descending similarity, so ties keep
// their incoming order, and truncates it to limit.
func top(cands []candidate.Candidate, limit int) []candidate.Candidate {
	sorted := slices.Clone(cands)
	slices.SortStableFunc(sorted, func(a, b candidate.Candidate) int {
		return cmp.Compare(b.Similarity, a.Similarity)
	})
	if limit >= 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

func project(cands []candidate.Candidate) []result.Ranked {
	out := make([]result.Ranked, len(cands))
	for i := range cands {
		out[i] = result.FromCandidate(&cands[i])
	}
	return out
}
