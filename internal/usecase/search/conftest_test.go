package search

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/corner/internal/domain"
	"github.com/kailas-cloud/corner/internal/domain/candidate"
	"github.com/kailas-cloud/corner/internal/domain/search/filter"
	"github.com/kailas-cloud/corner/internal/location"
)

// --- Mocks ---

type mockVenues struct {
	cands []candidate.Candidate
	err   error

	calls       int
	lastK       int
	lastFilters filter.Expression
	lastVectors bool
}

func (m *mockVenues) SearchKNN(
	_ context.Context, _ []float32, filters filter.Expression, k int, withVectors bool,
) ([]candidate.Candidate, error) {
	m.calls++
	m.lastK = k
	m.lastFilters = filters
	m.lastVectors = withVectors
	if m.err != nil {
		return nil, m.err
	}
	// callers own their slice
	out := make([]candidate.Candidate, len(m.cands))
	copy(out, m.cands)
	return out, nil
}

// mockEmbedder returns a fixed vector per text, or err for every call.
type mockEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	errs    map[string]error
	err     error
	texts   []string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, text)
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	if err := m.errs[text]; err != nil {
		return domain.EmbeddingResult{}, err
	}
	vec, ok := m.vectors[text]
	if !ok {
		vec = []float32{1, 0, 0}
	}
	return domain.EmbeddingResult{Embedding: vec, TotalTokens: len(text) / 4}, nil
}

func newTestGazetteer(t *testing.T) *location.Gazetteer {
	t.Helper()
	g, err := location.New([]location.Neighborhood{
		{Name: "Chinatown", Adjacent: []string{"Little Italy", "Tribeca"}},
		{Name: "Little Italy"},
		{Name: "Tribeca"},
		{Name: "Williamsburg", Adjacent: []string{"Greenpoint"}},
		{Name: "Greenpoint"},
	})
	require.NoError(t, err)
	return g
}

func cand(id, neighborhood string, sim float64) candidate.Candidate {
	return candidate.Candidate{
		ID:            id,
		Name:          "Venue " + id,
		Neighborhood:  neighborhood,
		Similarity:    sim,
		RawSimilarity: sim,
		Tier:          candidate.TierNone,
	}
}

func ids(cands []candidate.Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.ID
	}
	return out
}

func ptr(s string) *string { return &s }
