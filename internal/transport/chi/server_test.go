package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/corner/internal/domain"
	"github.com/kailas-cloud/corner/internal/domain/search/result"
	domusage "github.com/kailas-cloud/corner/internal/domain/usage"
	"github.com/kailas-cloud/corner/internal/domain/venue"
	healthuc "github.com/kailas-cloud/corner/internal/usecase/health"
)

type fakeSearcher struct {
	results   []result.Ranked
	exp       result.Explanation
	err       error
	tokens    int
	cached    bool
	gotQuery  string
	gotLimit  int
	explained bool
}

func (f *fakeSearcher) spend(ctx context.Context) {
	if f.tokens > 0 || f.cached {
		domain.UsageFromContext(ctx).Add(domain.EmbeddingResult{TotalTokens: f.tokens, Cached: f.cached})
	}
}

func (f *fakeSearcher) Search(ctx context.Context, query string, limit int) ([]result.Ranked, error) {
	f.gotQuery, f.gotLimit = query, limit
	f.spend(ctx)
	return f.results, f.err
}

func (f *fakeSearcher) SearchWithExplanation(
	ctx context.Context, query string, limit int,
) ([]result.Ranked, result.Explanation, error) {
	f.gotQuery, f.gotLimit, f.explained = query, limit, true
	f.spend(ctx)
	return f.results, f.exp, f.err
}

type fakePlaces struct {
	venues map[string]venue.Venue
	err    error
}

func (f *fakePlaces) Get(_ context.Context, id string) (venue.Venue, error) {
	if f.err != nil {
		return venue.Venue{}, f.err
	}
	v, ok := f.venues[id]
	if !ok {
		return venue.Venue{}, fmt.Errorf("get %s: %w", id, domain.ErrVenueNotFound)
	}
	return v, nil
}

type fakeRecent []string

func (f fakeRecent) List(context.Context) []string { return f }

type fakeUsage struct {
	recorded []int64
	report   domusage.Report
	err      error
}

func (f *fakeUsage) Record(_ context.Context, tokens int64) { f.recorded = append(f.recorded, tokens) }

func (f *fakeUsage) GetReport(_ context.Context, p domusage.Period) (domusage.Report, error) {
	if f.err != nil {
		return domusage.Report{}, f.err
	}
	return f.report, nil
}

type fakeHealth healthuc.Report

func (f fakeHealth) Check(context.Context) healthuc.Report { return healthuc.Report(f) }

type testServer struct {
	search *fakeSearcher
	places *fakePlaces
	usage  *fakeUsage
	health fakeHealth
	router chi.Router
}

func newTestServer() *testServer {
	ts := &testServer{
		search: &fakeSearcher{},
		places: &fakePlaces{venues: map[string]venue.Venue{}},
		usage:  &fakeUsage{},
		health: fakeHealth{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK}},
	}
	srv := NewServer(ts.search, ts.places, fakeRecent{"date night", "cheap eats"}, ts.usage,
		&ts.health, Options{DefaultLimit: 10, MaxLimit: 50}, zap.NewNop())
	r := chi.NewRouter()
	srv.Mount(r)
	ts.router = r
	return ts
}

func (ts *testServer) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	ts.router.ServeHTTP(rr, httptest.NewRequest("GET", target, http.NoBody))
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return v
}

func TestSearch_OK(t *testing.T) {
	ts := newTestServer()
	ts.search.tokens = 7
	ts.search.results = []result.Ranked{{ID: "v1", Name: "Joe's", Similarity: 0.9, MatchPercent: 90, Tags: []string{}}}

	rr := ts.get(t, "/api/search?q=dumplings+in+chinatown")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	if ts.search.gotQuery != "dumplings in chinatown" || ts.search.gotLimit != 10 {
		t.Errorf("service got %q/%d", ts.search.gotQuery, ts.search.gotLimit)
	}
	if got := rr.Header().Get("X-Embedding-Tokens"); got != "7" {
		t.Errorf("X-Embedding-Tokens = %q", got)
	}
	if len(ts.usage.recorded) != 1 || ts.usage.recorded[0] != 7 {
		t.Errorf("usage recorded = %v", ts.usage.recorded)
	}

	resp := decode[SearchResponse](t, rr)
	if resp.Query != "dumplings in chinatown" || len(resp.Results) != 1 || resp.Results[0].ID != "v1" {
		t.Errorf("response = %+v", resp)
	}
	if resp.Explanation != nil {
		t.Error("explanation should be omitted")
	}
}

func TestSearch_LimitCappedAndExplain(t *testing.T) {
	ts := newTestServer()
	ts.search.exp = result.Explanation{ExpandedQuery: "cozy | warm"}

	rr := ts.get(t, "/api/search?q=cozy&limit=500&explain=true")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if ts.search.gotLimit != 50 || !ts.search.explained {
		t.Errorf("limit = %d explained = %v", ts.search.gotLimit, ts.search.explained)
	}

	resp := decode[SearchResponse](t, rr)
	if resp.Explanation == nil || resp.Explanation.ExpandedQuery != "cozy | warm" {
		t.Errorf("explanation = %+v", resp.Explanation)
	}
	if resp.Results == nil {
		t.Error("results must encode as [] not null")
	}
}

func TestSearch_BadParams(t *testing.T) {
	for _, target := range []string{
		"/api/search",
		"/api/search?q=x&limit=abc",
		"/api/search?q=x&limit=0",
		"/api/search?q=x&explain=maybe",
	} {
		ts := newTestServer()
		rr := ts.get(t, target)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, rr.Code)
		}
		if decode[ErrorResponse](t, rr).Code != ErrorCodeBadRequest {
			t.Errorf("%s: wrong error code", target)
		}
	}
}

func TestSearch_ErrorMapping(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		code    ErrorCode
		message string
	}{
		{domain.ErrInvalidQuery, http.StatusBadRequest, ErrorCodeBadRequest, "invalid query"},
		{fmt.Errorf("embed: %w", domain.ErrEmbeddingUnavailable), http.StatusBadGateway,
			ErrorCodeEmbeddingUnavailable, "embedding unavailable"},
		{fmt.Errorf("knn: %w", domain.ErrSearchBackendUnavailable), http.StatusServiceUnavailable,
			ErrorCodeBackendUnavailable, "search backend unavailable"},
		{domain.ErrRateLimited, http.StatusTooManyRequests, ErrorCodeRateLimited, "rate limited"},
		{fmt.Errorf("embed query: embed after 1 attempts: %w: rate limiter: %w",
			domain.ErrEmbeddingUnavailable, domain.ErrRateLimited), http.StatusTooManyRequests,
			ErrorCodeRateLimited, "rate limited"},
		{errors.New("secret detail"), http.StatusInternalServerError, ErrorCodeInternalError, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			ts := newTestServer()
			ts.search.err = tt.err
			rr := ts.get(t, "/api/search?q=x")

			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d", rr.Code, tt.status)
			}
			resp := decode[ErrorResponse](t, rr)
			if resp.Code != tt.code || resp.Message != tt.message {
				t.Errorf("body = %+v", resp)
			}
		})
	}
}

func TestSearch_FailedSearchStillRecordsUsage(t *testing.T) {
	ts := newTestServer()
	ts.search.tokens = 12
	ts.search.err = fmt.Errorf("knn: %w", domain.ErrSearchBackendUnavailable)

	rr := ts.get(t, "/api/search?q=x")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rr.Code)
	}
	if len(ts.usage.recorded) != 1 || ts.usage.recorded[0] != 12 {
		t.Errorf("usage recorded = %v", ts.usage.recorded)
	}
	if rr.Header().Get("X-Embedding-Tokens") != "12" {
		t.Errorf("header = %q", rr.Header().Get("X-Embedding-Tokens"))
	}
}

func TestSearch_CacheHitHeaders(t *testing.T) {
	ts := newTestServer()
	ts.search.cached = true

	rr := ts.get(t, "/api/search?q=quiet+wine+bar")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if got := rr.Header().Get("X-Embedding-Cache-Hits"); got != "1" {
		t.Errorf("X-Embedding-Cache-Hits = %q", got)
	}
	if got := rr.Header().Get("X-Embedding-Tokens"); got != "0" {
		t.Errorf("X-Embedding-Tokens = %q", got)
	}
	if len(ts.usage.recorded) != 1 || ts.usage.recorded[0] != 0 {
		t.Errorf("usage recorded = %v", ts.usage.recorded)
	}
}

func TestSearch_NoEmbeddingNoUsage(t *testing.T) {
	ts := newTestServer()
	ts.search.err = domain.ErrInvalidQuery

	rr := ts.get(t, "/api/search?q=")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	if len(ts.usage.recorded) != 0 {
		t.Errorf("usage recorded = %v", ts.usage.recorded)
	}
	if rr.Header().Get("X-Embedding-Tokens") != "" {
		t.Error("token header set without an embedding")
	}
}

func TestGetPlace(t *testing.T) {
	ts := newTestServer()
	ts.places.venues["v1"] = venue.Venue{
		ID:      "v1",
		Name:    "Nom Wah",
		Tags:    []string{"dim sum"},
		Price:   venue.ParsePrice("$$"),
		Hours:   map[string]string{"monday": "10:00-22:00"},
		Reviews: []venue.Review{{Source: "google", Text: " great buns "}},
	}

	rr := ts.get(t, "/api/place/v1")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	resp := decode[PlaceResponse](t, rr)
	if resp.Name != "Nom Wah" || resp.PriceLevel != 2 || resp.PriceDescription == "" {
		t.Errorf("place = %+v", resp)
	}
	if len(resp.Reviews) != 1 || resp.Reviews[0].Text != "great buns" || resp.Reviews[0].Source != "google" {
		t.Errorf("reviews = %+v", resp.Reviews)
	}

	if rr := ts.get(t, "/api/place/missing"); rr.Code != http.StatusNotFound {
		t.Errorf("missing venue: status = %d", rr.Code)
	}

	ts.places.err = fmt.Errorf("get: %w", domain.ErrSearchBackendUnavailable)
	if rr := ts.get(t, "/api/place/v1"); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("backend down: status = %d", rr.Code)
	}
}

func TestRecentQueries(t *testing.T) {
	ts := newTestServer()
	rr := ts.get(t, "/api/recent_queries")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	resp := decode[RecentQueriesResponse](t, rr)
	if len(resp.Queries) != 2 || resp.Queries[0] != "date night" {
		t.Errorf("queries = %v", resp.Queries)
	}
}

func TestGetUsage(t *testing.T) {
	ts := newTestServer()
	start, end := domusage.PeriodMonth.Bounds(time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC))
	ts.usage.report = domusage.NewReport(domusage.PeriodMonth, start, end,
		domusage.Counters{Tokens: 1_000_000, Requests: 9}, 0.1)

	rr := ts.get(t, "/api/usage?period=month")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	resp := decode[UsageResponse](t, rr)
	if resp.Period != domusage.PeriodMonth || resp.Tokens != 1_000_000 || resp.Requests != 9 {
		t.Errorf("usage = %+v", resp)
	}
	if resp.EstimatedCostUSD != 0.1 || !resp.PeriodStart.Equal(start) {
		t.Errorf("cost/start = %v/%v", resp.EstimatedCostUSD, resp.PeriodStart)
	}

	if rr := ts.get(t, "/api/usage?period=year"); rr.Code != http.StatusBadRequest {
		t.Errorf("bad period: status = %d", rr.Code)
	}

	ts.usage.err = errors.New("READONLY")
	if rr := ts.get(t, "/api/usage"); rr.Code != http.StatusInternalServerError {
		t.Errorf("store error: status = %d", rr.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		status healthuc.Status
		want   int
	}{
		{healthuc.Healthy, http.StatusOK},
		{healthuc.Degraded, http.StatusOK},
		{healthuc.Unhealthy, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			ts := newTestServer()
			ts.health.Status = tt.status

			rr := ts.get(t, "/health")
			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d", rr.Code, tt.want)
			}
			resp := decode[HealthResponse](t, rr)
			if resp.Status != tt.status || resp.Checks["database"] != healthuc.CheckOK {
				t.Errorf("body = %+v", resp)
			}
		})
	}
}

func TestMount_APIMiddlewareScope(t *testing.T) {
	srv := NewServer(&fakeSearcher{}, &fakePlaces{}, fakeRecent{}, &fakeUsage{},
		fakeHealth{Status: healthuc.Healthy}, Options{}, zap.NewNop())
	r := chi.NewRouter()
	srv.Mount(r, BearerAuthMiddleware([]string{"secret"}))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/api/recent_queries", http.NoBody))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("api without token: status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/health", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Errorf("health: status = %d", rr.Code)
	}
}
