package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "corner"

// Search pipeline metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Total number of searches",
		},
		[]string{"mode", "status"}, // mode: plain/explain
	)

	SearchStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_stage_duration_seconds",
			Help:      "Duration of each search pipeline stage",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"stage"}, // parse, embed, rank, boost, merge
	)

	SearchCandidates = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_candidates",
			Help:      "Candidates returned by the vector store per search",
			Buckets:   []float64{0, 1, 5, 10, 20, 50, 100},
		},
	)

	SearchBoostsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_boosts_total",
			Help:      "Candidates boosted by location tier",
		},
		[]string{"tier"},
	)

	SearchBackendBreakerState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "search_backend_breaker_state",
			Help:      "Vector store circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
	)

	UsageTokensRecorded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "usage_tokens_recorded_total",
			Help:      "Embedding tokens written to the usage ledger",
		},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers search pipeline metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchStageDuration)
	prometheus.MustRegister(SearchCandidates)
	prometheus.MustRegister(SearchBoostsTotal)
	prometheus.MustRegister(SearchBackendBreakerState)
	prometheus.MustRegister(UsageTokensRecorded)
	searchMetricsRegistered = true
}
