package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/corner/internal/domain"
	"github.com/kailas-cloud/corner/internal/domain/candidate"
	"github.com/kailas-cloud/corner/internal/domain/facets"
	"github.com/kailas-cloud/corner/internal/domain/search/result"
	logpkg "github.com/kailas-cloud/corner/internal/logger"
	"github.com/kailas-cloud/corner/internal/metrics"
)

// Pipeline stage names used for metrics.
const (
	stageParse = "parse"
	stageEmbed = "embed"
	stageRank  = "rank"
	stageBoost = "boost"
	stageMerge = "merge"
)

// Service runs the venue search pipeline: parse, expand, embed, rank, boost, merge.
// It is stateless and safe for concurrent use.
type Service struct {
	parser  *facets.Parser
	embed   Embedder
	ranker  *Ranker
	booster *Booster
	logger  *zap.Logger
}

// New creates a search service. locations may be nil, in which case no
// location is extracted and no boost is applied.
func New(embed Embedder, venues VenueSearcher, locations LocationResolver, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	var (
		extractor facets.LocationExtractor
		adjacency AdjacencyResolver
	)
	if locations != nil {
		extractor, adjacency = locations, locations
	}
	return &Service{
		parser:  facets.NewParser(extractor),
		embed:   embed,
		ranker:  NewRanker(venues),
		booster: NewBooster(adjacency),
		logger:  logger,
	}
}

// Search returns up to limit venues ranked by relevance to query.
// No matches is an empty slice with a nil error.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]result.Ranked, error) {
	out, err := s.run(ctx, query, limit, false)
	observeRequest("plain", err)
	if err != nil {
		return nil, err
	}
	return project(out.top), nil
}

// SearchWithExplanation is Search plus a per-result scoring breakdown. The
// unexpanded query is embedded concurrently for comparison; its failure only
// drops the comparison.
func (s *Service) SearchWithExplanation(
	ctx context.Context, query string, limit int,
) ([]result.Ranked, result.Explanation, error) {
	out, err := s.run(ctx, query, limit, true)
	observeRequest("explain", err)
	if err != nil {
		return nil, result.Explanation{}, err
	}
	return project(out.top), Explain(out.facets, out.expanded, out.top, out.originalVec), nil
}

type pipelineOutput struct {
	facets      facets.QueryFacets
	expanded    string
	originalVec []float32
	top         []candidate.Candidate
}

func (s *Service) run(ctx context.Context, query string, limit int, explain bool) (pipelineOutput, error) {
	if strings.TrimSpace(query) == "" {
		return pipelineOutput{}, fmt.Errorf("%w: query is empty", domain.ErrInvalidQuery)
	}
	if limit <= 0 {
		return pipelineOutput{}, fmt.Errorf("%w: limit must be positive, got %d", domain.ErrInvalidQuery, limit)
	}

	var out pipelineOutput

	start := time.Now()
	out.facets = s.parser.Parse(query)
	out.expanded = facets.Expand(out.facets)
	observeStage(stageParse, start)

	logpkg.FromContext(ctx, s.logger).Debug("search query parsed",
		zap.String("query", query),
		zap.Any("facets", out.facets.Summary()),
		zap.String("expanded", out.expanded),
		zap.Bool("explain", explain),
	)

	start = time.Now()
	vector, originalVec, err := s.embedQuery(ctx, out.facets.Original(), out.expanded, explain)
	observeStage(stageEmbed, start)
	if err != nil {
		return pipelineOutput{}, err
	}
	out.originalVec = originalVec

	start = time.Now()
	cands, err := s.ranker.Rank(ctx, vector, out.facets, limit, explain)
	observeStage(stageRank, start)
	if err != nil {
		return pipelineOutput{}, err
	}
	metrics.SearchCandidates.Observe(float64(len(cands)))

	start = time.Now()
	cands = s.booster.Boost(cands, out.facets.Location())
	observeStage(stageBoost, start)
	observeBoosts(cands)

	start = time.Now()
	out.top = top(cands, limit)
	observeStage(stageMerge, start)

	return out, nil
}

// embedQuery embeds the expanded query. In explain mode the original text is
// embedded next to it; when both texts are equal the vector is shared.
func (s *Service) embedQuery(
	ctx context.Context, original, expanded string, explain bool,
) ([]float32, []float32, error) {
	if !explain || original == expanded {
		res, err := s.embed.Embed(ctx, expanded)
		if err != nil {
			return nil, nil, embedErr(err)
		}
		if explain {
			return res.Embedding, res.Embedding, nil
		}
		return res.Embedding, nil, nil
	}

	var vector, originalVec []float32
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := s.embed.Embed(gctx, expanded)
		if err != nil {
			return embedErr(err)
		}
		vector = res.Embedding
		return nil
	})
	g.Go(func() error {
		res, err := s.embed.Embed(gctx, original)
		if err != nil {
			logpkg.FromContext(ctx, s.logger).Warn("original query embedding failed", zap.Error(err))
			return nil
		}
		originalVec = res.Embedding
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return vector, originalVec, nil
}

func embedErr(err error) error {
	if errors.Is(err, domain.ErrEmbeddingUnavailable) {
		return fmt.Errorf("embed query: %w", err)
	}
	return fmt.Errorf("embed query: %w: %w", domain.ErrEmbeddingUnavailable, err)
}

func observeStage(stage string, start time.Time) {
	metrics.SearchStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func observeBoosts(cands []candidate.Candidate) {
	for _, c := range cands {
		if c.Boosted() {
			metrics.SearchBoostsTotal.WithLabelValues(string(c.Tier)).Inc()
		}
	}
}

func observeRequest(mode string, err error) {
	metrics.SearchRequestsTotal.WithLabelValues(mode, statusLabel(err)).Inc()
}

func statusLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidQuery):
		return "invalid"
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, domain.ErrEmbeddingUnavailable):
		return "embedding_error"
	case errors.Is(err, domain.ErrSearchBackendUnavailable):
		return "backend_error"
	default:
		return "error"
	}
}
