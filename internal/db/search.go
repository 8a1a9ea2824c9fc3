package db

import (
	"errors"

	"github.com/kailas-cloud/corner/internal/domain/search/filter"
)

// ScoreField is the alias FT.SEARCH assigns to the KNN distance.
const ScoreField = "__vector_score"

// KNNQuery asks for the K nearest hashes to Vector, optionally pre-filtered.
type KNNQuery struct {
	IndexName    string
	VectorField  string
	Filters      filter.Expression
	Vector       []float32
	K            int
	ReturnFields []string
	// IncludeVector also returns the stored VectorField blob.
	IncludeVector bool
}

// Validate rejects queries the server would refuse.
func (q *KNNQuery) Validate() error {
	var errs []error
	if q.IndexName == "" {
		errs = append(errs, errors.New("index name is required"))
	}
	if q.VectorField == "" {
		errs = append(errs, errors.New("vector field is required"))
	}
	if len(q.Vector) == 0 {
		errs = append(errs, errors.New("vector is required"))
	}
	if q.K <= 0 {
		errs = append(errs, errors.New("k must be positive"))
	}
	return errors.Join(errs...)
}

// SearchResult holds the hits of one KNN query, nearest first.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is one hit. Score is cosine similarity clamped to [0, 1].
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}

// SimilarityFromDistance converts a COSINE distance reply into a similarity in [0, 1].
func SimilarityFromDistance(d float64) float64 {
	return min(1, max(0, 1-d))
}
