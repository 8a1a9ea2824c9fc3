package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded means search still answers but a dependency is failing.
	Degraded Status = "degraded"
	// Unhealthy means the vector store is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckMissing marks a reachable database without the venue index.
	CheckMissing CheckResult = "missing"
)

// Component names used as Report.Checks keys.
const (
	ComponentDatabase  = "database"
	ComponentIndex     = "index"
	ComponentEmbedding = "embedding"
)

// DefaultTimeout bounds a full health check.
const DefaultTimeout = 5 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	store     StorePinger
	index     VenueIndex
	embedding ProviderProbe
	timeout   time.Duration
}

// New creates a Service. index and embedding can be nil.
func New(store StorePinger, index VenueIndex, embedding ProviderProbe) *Service {
	return &Service{store: store, index: index, embedding: embedding, timeout: DefaultTimeout}
}

// Check runs all component checks concurrently.
// Database failure is Unhealthy; index or embedding failure is Degraded.
func (s *Service) Check(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var mu sync.Mutex
	checks := make(map[string]CheckResult, 3)
	set := func(name string, r CheckResult) {
		mu.Lock()
		checks[name] = r
		mu.Unlock()
	}

	// checks never return errors; the group only joins them
	var g errgroup.Group
	g.Go(func() error {
		set(ComponentDatabase, result(s.store.Ping(ctx)))
		return nil
	})
	if s.index != nil {
		g.Go(func() error {
			ok, err := s.index.IndexReady(ctx)
			switch {
			case err != nil:
				set(ComponentIndex, CheckError)
			case !ok:
				set(ComponentIndex, CheckMissing)
			default:
				set(ComponentIndex, CheckOK)
			}
			return nil
		})
	}
	if s.embedding != nil {
		g.Go(func() error {
			set(ComponentEmbedding, result(s.embedding.HealthCheck(ctx)))
			return nil
		})
	}
	_ = g.Wait()

	return Report{Status: aggregate(checks), Checks: checks}
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}

func aggregate(checks map[string]CheckResult) Status {
	if checks[ComponentDatabase] != CheckOK {
		return Unhealthy
	}
	for _, v := range checks {
		if v != CheckOK {
			return Degraded
		}
	}
	return Healthy
}
