package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/corner/internal/domain"
	"github.com/kailas-cloud/corner/internal/domain/search/result"
	domusage "github.com/kailas-cloud/corner/internal/domain/usage"
	"github.com/kailas-cloud/corner/internal/domain/venue"
	logpkg "github.com/kailas-cloud/corner/internal/logger"
	healthuc "github.com/kailas-cloud/corner/internal/usecase/health"
)

// ErrorCode is the machine-readable error code in an error body.
type ErrorCode string

// Error codes returned by the API.
const (
	ErrorCodeBadRequest           ErrorCode = "bad_request"
	ErrorCodeUnauthorized         ErrorCode = "unauthorized"
	ErrorCodeVenueNotFound        ErrorCode = "venue_not_found"
	ErrorCodeRateLimited          ErrorCode = "rate_limited"
	ErrorCodeEmbeddingUnavailable ErrorCode = "embedding_unavailable"
	ErrorCodeBackendUnavailable   ErrorCode = "search_backend_unavailable"
	ErrorCodeInternalError        ErrorCode = "internal_error"
)

// ErrorResponse is the JSON body of every non-2xx API response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// Searcher runs the search pipeline.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]result.Ranked, error)
	SearchWithExplanation(ctx context.Context, query string, limit int) ([]result.Ranked, result.Explanation, error)
}

// PlaceReader loads venue details.
type PlaceReader interface {
	Get(ctx context.Context, id string) (venue.Venue, error)
}

// RecentLister lists popular queries.
type RecentLister interface {
	List(ctx context.Context) []string
}

// UsageService records and reports embedding usage.
type UsageService interface {
	Record(ctx context.Context, tokens int64)
	GetReport(ctx context.Context, period domusage.Period) (domusage.Report, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Options bounds search requests.
type Options struct {
	DefaultLimit int
	MaxLimit     int
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the corner HTTP API.
type Server struct {
	search        Searcher
	places        PlaceReader
	recent        RecentLister
	usage         UsageService
	health        HealthChecker
	opts          Options
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search Searcher,
	places PlaceReader,
	recent RecentLister,
	usage UsageService,
	health HealthChecker,
	opts Options,
	logger *zap.Logger,
) *Server {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 10
	}
	if opts.MaxLimit < opts.DefaultLimit {
		opts.MaxLimit = opts.DefaultLimit
	}
	s := &Server{
		search: search,
		places: places,
		recent: recent,
		usage:  usage,
		health: health,
		opts:   opts,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, ErrorCodeBadRequest),
		sentinelHandler(domain.ErrVenueNotFound, http.StatusNotFound, ErrorCodeVenueNotFound),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, ErrorCodeRateLimited),
		sentinelHandler(domain.ErrEmbeddingUnavailable, http.StatusBadGateway, ErrorCodeEmbeddingUnavailable),
		sentinelHandler(domain.ErrSearchBackendUnavailable,
			http.StatusServiceUnavailable, ErrorCodeBackendUnavailable),
	}
	return s
}

// Mount registers the routes on r. api wraps the /api group only.
func (s *Server) Mount(r chi.Router, api ...func(http.Handler) http.Handler) {
	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(api...)
		r.Get("/search", s.Search)
		r.Get("/place/{id}", s.GetPlace)
		r.Get("/recent_queries", s.RecentQueries)
		r.Get("/usage", s.GetUsage)
	})
}

// SearchResponse is the body of GET /api/search.
type SearchResponse struct {
	Query       string              `json:"query"`
	Results     []result.Ranked     `json:"results"`
	Explanation *result.Explanation `json:"explanation,omitempty"`
}

// Search handles GET /api/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var (
		query   string
		limit   *int
		explain *bool
	)
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, true, "q", q, &query); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid parameter q: "+err.Error())
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", q, &limit); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid parameter limit: "+err.Error())
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "explain", q, &explain); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid parameter explain: "+err.Error())
		return
	}

	n := s.opts.DefaultLimit
	if limit != nil {
		if *limit <= 0 {
			writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "limit must be positive")
			return
		}
		n = min(*limit, s.opts.MaxLimit)
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	resp := SearchResponse{Query: query}
	var err error
	if explain != nil && *explain {
		var exp result.Explanation
		resp.Results, exp, err = s.search.SearchWithExplanation(ctx, query, n)
		resp.Explanation = &exp
	} else {
		resp.Results, err = s.search.Search(ctx, query, n)
	}

	// Tokens spent on a failed search are still billed.
	if usage.Used() {
		s.usage.Record(r.Context(), int64(usage.TotalTokens()))
	}
	setEmbeddingHeaders(w, usage)

	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if resp.Results == nil {
		resp.Results = []result.Ranked{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ReviewResponse is one review in a place response.
type ReviewResponse struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

// PlaceResponse is the body of GET /api/place/{id}.
type PlaceResponse struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Neighborhood     string            `json:"neighborhood"`
	Address          string            `json:"address,omitempty"`
	Website          string            `json:"website,omitempty"`
	InstagramHandle  string            `json:"instagram_handle,omitempty"`
	Description      string            `json:"description"`
	Tags             []string          `json:"tags"`
	PriceRange       string            `json:"price_range"`
	PriceLevel       int               `json:"price_level"`
	PriceDescription string            `json:"price_description"`
	Hours            map[string]string `json:"hours,omitempty"`
	Amenities        map[string]bool   `json:"amenities,omitempty"`
	Reviews          []ReviewResponse  `json:"reviews"`
}

// GetPlace handles GET /api/place/{id}.
func (s *Server) GetPlace(w http.ResponseWriter, r *http.Request) {
	v, err := s.places.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, placeToResponse(&v))
}

// RecentQueriesResponse is the body of GET /api/recent_queries.
type RecentQueriesResponse struct {
	Queries []string `json:"queries"`
}

// RecentQueries handles GET /api/recent_queries.
func (s *Server) RecentQueries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, RecentQueriesResponse{Queries: s.recent.List(r.Context())})
}

// UsageResponse is the body of GET /api/usage.
type UsageResponse struct {
	Period           domusage.Period `json:"period"`
	PeriodStart      time.Time       `json:"period_start"`
	PeriodEnd        time.Time       `json:"period_end"`
	Tokens           int64           `json:"tokens"`
	Requests         int64           `json:"requests"`
	EstimatedCostUSD float64         `json:"estimated_cost_usd"`
}

// GetUsage handles GET /api/usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	var raw *string
	if err := runtime.BindQueryParameter("form", true, false, "period", r.URL.Query(), &raw); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid parameter period: "+err.Error())
		return
	}
	var name string
	if raw != nil {
		name = *raw
	}
	period, err := domusage.ParsePeriod(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}

	report, err := s.usage.GetReport(r.Context(), period)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, UsageResponse{
		Period:           report.Period(),
		PeriodStart:      time.UnixMilli(report.PeriodStart()).UTC(),
		PeriodEnd:        time.UnixMilli(report.PeriodEnd()).UTC(),
		Tokens:           report.Tokens(),
		Requests:         report.Requests(),
		EstimatedCostUSD: report.EstimatedCostUSD(),
	})
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status healthuc.Status                 `json:"status"`
	Checks map[string]healthuc.CheckResult `json:"checks"`
}

// HealthCheck handles GET /health. Only an unhealthy store fails the probe.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: report.Status,
		Checks: report.Checks,
	})
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if !usage.Used() {
		return
	}
	w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens()))
	if usage.Truncated() {
		w.Header().Set("X-Embedding-Truncated", "true")
	}
	if hits := usage.CacheHits(); hits > 0 {
		w.Header().Set("X-Embedding-Cache-Hits", strconv.Itoa(hits))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidQuery,
		domain.ErrVenueNotFound,
		domain.ErrRateLimited,
		domain.ErrEmbeddingUnavailable,
		domain.ErrSearchBackendUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logpkg.FromContext(r.Context(), s.logger)
	logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}

func placeToResponse(v *venue.Venue) PlaceResponse {
	tags := v.Tags
	if tags == nil {
		tags = []string{}
	}
	reviews := make([]ReviewResponse, 0, len(v.Reviews))
	for _, rv := range v.Reviews {
		reviews = append(reviews, ReviewResponse{
			Source: rv.Source,
			Text:   strings.TrimSpace(rv.Text),
		})
	}
	return PlaceResponse{
		ID:               v.ID,
		Name:             v.Name,
		Neighborhood:     v.Neighborhood,
		Address:          v.Address,
		Website:          v.Website,
		InstagramHandle:  v.InstagramHandle,
		Description:      v.Description,
		Tags:             tags,
		PriceRange:       v.Price.Original,
		PriceLevel:       v.Price.Level,
		PriceDescription: v.Price.Description,
		Hours:            v.Hours,
		Amenities:        v.Amenities,
		Reviews:          reviews,
	}
}
