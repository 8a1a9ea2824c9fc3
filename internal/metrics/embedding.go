package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Provider failure kinds used as the error_type label.
const (
	FailureAPI               = "api_error"
	FailureEmptyResponse     = "empty_response"
	FailureDimensionMismatch = "dimension_mismatch"
)

var (
	embeddingProviderCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "embedding_requests_total",
		Help:      "Embedding provider calls by outcome",
	}, []string{"provider", "model", "status"})

	embeddingProviderLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "embedding_request_duration_seconds",
		Help:      "Latency of successful embedding provider calls",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"provider", "model"})

	embeddingProviderFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "embedding_errors_total",
		Help:      "Failed embedding provider calls by kind",
	}, []string{"provider", "model", "error_type"})

	embeddingTokens = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "embedding_tokens_total",
		Help:      "Tokens billed by the embedding provider",
	}, []string{"provider", "model", "type"})

	embeddingLookupLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "embedding_lookup_duration_seconds",
		Help:      "Time to obtain a query vector, retries included",
		Buckets:   []float64{0.001, 0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 15},
	}, []string{"source"})

	// EmbeddingRetriesTotal counts attempts retried after a transient failure.
	EmbeddingRetriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "embedding_retries_total",
		Help:      "Embedding attempts retried after a failure",
	}, []string{"provider"})

	// EmbeddingTruncationsTotal counts inputs cut to the character ceiling.
	EmbeddingTruncationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "embedding_truncations_total",
		Help:      "Embedding inputs cut to the configured length",
	}, []string{"provider"})

	// EmbeddingCacheTotal is labelled result=hit|miss.
	EmbeddingCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "embedding_cache_total",
		Help:      "Embedding cache hits and misses",
	}, []string{"result"})
)

var embMetricsRegistered bool

// RegisterEmbeddingMetrics registers the embedding collectors. Safe to call twice.
func RegisterEmbeddingMetrics() {
	if embMetricsRegistered {
		return
	}
	prometheus.MustRegister(
		embeddingProviderCalls,
		embeddingProviderLatency,
		embeddingProviderFailures,
		embeddingTokens,
		embeddingLookupLatency,
		EmbeddingRetriesTotal,
		EmbeddingTruncationsTotal,
		EmbeddingCacheTotal,
	)
	embMetricsRegistered = true
}

// ObserveProviderCall records one provider round trip. An empty failure
// means success; latency is only observed for successes.
func ObserveProviderCall(provider, model, failure string, d time.Duration) {
	if failure != "" {
		embeddingProviderCalls.WithLabelValues(provider, model, "error").Inc()
		embeddingProviderFailures.WithLabelValues(provider, model, failure).Inc()
		return
	}
	embeddingProviderCalls.WithLabelValues(provider, model, "success").Inc()
	embeddingProviderLatency.WithLabelValues(provider, model).Observe(d.Seconds())
}

// AddProviderTokens adds billed prompt and total tokens.
func AddProviderTokens(provider, model string, prompt, total int) {
	if total <= 0 {
		return
	}
	embeddingTokens.WithLabelValues(provider, model, "prompt").Add(float64(prompt))
	embeddingTokens.WithLabelValues(provider, model, "total").Add(float64(total))
}

// ObserveEmbeddingLookup records how long a query vector took, by source
// ("cache" or "provider").
func ObserveEmbeddingLookup(source string, d time.Duration) {
	embeddingLookupLatency.WithLabelValues(source).Observe(d.Seconds())
}
