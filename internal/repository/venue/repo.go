// Package venue reads venues from the vector store: KNN retrieval for the
// ranker and hash lookups for the details page.
package venue

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/corner/internal/db"
	"github.com/kailas-cloud/corner/internal/domain"
	"github.com/kailas-cloud/corner/internal/domain/candidate"
	"github.com/kailas-cloud/corner/internal/domain/search/filter"
	domvenue "github.com/kailas-cloud/corner/internal/domain/venue"
)

// store is the consumer interface for venue operations (ISP).
type store interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Repo implements usecase/search.VenueSearcher and usecase/place.VenueReader.
type Repo struct {
	store   store
	cfg     Config
	breaker *breaker
	logger  *zap.Logger
}

// New creates a venue repository. Zero config fields take their defaults.
func New(s store, cfg Config, logger *zap.Logger) *Repo {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()
	return &Repo{
		store:   s,
		cfg:     cfg,
		breaker: newBreaker(cfg.Breaker, logger),
		logger:  logger,
	}
}

// SearchKNN returns up to k venues nearest to vector that satisfy filters.
// Candidates start unboosted with RawSimilarity equal to Similarity.
func (r *Repo) SearchKNN(
	ctx context.Context, vector []float32, filters filter.Expression, k int, withVectors bool,
) ([]candidate.Candidate, error) {
	q := &db.KNNQuery{
		IndexName:     r.cfg.IndexName,
		VectorField:   r.cfg.VectorField,
		Filters:       filters,
		Vector:        vector,
		K:             k,
		ReturnFields:  candidateFields(),
		IncludeVector: withVectors,
	}

	sr, err := execute(r.breaker, func() (*db.SearchResult, error) {
		return r.store.SearchKNN(ctx, q)
	})
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			r.logger.Error("venue index missing", zap.String("index", r.cfg.IndexName))
		}
		return nil, fmt.Errorf("venue knn: %w: %w", domain.ErrSearchBackendUnavailable, err)
	}
	if sr == nil || len(sr.Entries) == 0 {
		return nil, nil
	}

	out := make([]candidate.Candidate, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		c, err := candidateFromEntry(r.trimKey(e.Key), e, r.cfg.VectorField, withVectors)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Get loads the full venue record.
func (r *Repo) Get(ctx context.Context, id string) (domvenue.Venue, error) {
	m, err := execute(r.breaker, func() (map[string]string, error) {
		return r.store.HGetAll(ctx, r.key(id))
	})
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domvenue.Venue{}, fmt.Errorf("venue %q: %w", id, domain.ErrVenueNotFound)
		}
		return domvenue.Venue{}, fmt.Errorf("venue get %q: %w: %w", id, domain.ErrSearchBackendUnavailable, err)
	}
	return venueFromHash(id, m, r.logger), nil
}

// EnsureIndex creates the venue index unless it already exists.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.cfg.IndexName)
	if err != nil {
		return fmt.Errorf("check index %s: %w", r.cfg.IndexName, err)
	}
	if exists {
		return nil
	}

	def, err := buildIndex(r.cfg, r.keyPrefix())
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", r.cfg.IndexName, err)
	}
	r.logger.Info("venue index created", zap.String("index", def.String()))
	return nil
}

// IndexReady reports whether the venue index exists.
func (r *Repo) IndexReady(ctx context.Context) (bool, error) {
	return r.store.IndexExists(ctx, r.cfg.IndexName)
}

func (r *Repo) keyPrefix() string {
	return r.cfg.KeyPrefix + "venue:"
}

func (r *Repo) key(id string) string {
	return r.keyPrefix() + id
}

func (r *Repo) trimKey(key string) string {
	return strings.TrimPrefix(key, r.keyPrefix())
}
