// Package embedding holds the decorators wrapped around the provider client:
// resilience on the inside, usage accounting on the outside.
package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/corner/internal/domain"
	"github.com/kailas-cloud/corner/internal/metrics"
)

// InstrumentedEmbedder is the outermost layer. Every successful call, cache
// hits included, is added to the request's domain.EmbeddingUsage.
type InstrumentedEmbedder struct {
	next domain.Embedder
	log  *zap.Logger
}

// NewInstrumentedEmbedder wraps next; provider and model only label logs.
func NewInstrumentedEmbedder(next domain.Embedder, provider, model string, logger *zap.Logger) *InstrumentedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedEmbedder{
		next: next,
		log:  logger.With(zap.String("provider", provider), zap.String("model", model)),
	}
}

// Embed calls next, observes the lookup latency by source and accounts usage.
func (e *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	start := time.Now()
	res, err := e.next.Embed(ctx, text)
	elapsed := time.Since(start)

	if err != nil {
		e.log.Error("embedding failed", zap.Duration("duration", elapsed), zap.Error(err))
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	source := "provider"
	if res.Cached {
		source = "cache"
	}
	metrics.ObserveEmbeddingLookup(source, elapsed)
	domain.UsageFromContext(ctx).Add(res)

	if ce := e.log.Check(zap.DebugLevel, "embedding done"); ce != nil {
		ce.Write(
			zap.String("source", source),
			zap.Duration("duration", elapsed),
			zap.Int("dimensions", len(res.Embedding)),
			zap.Int("total_tokens", res.TotalTokens),
			zap.Bool("truncated", res.Truncated),
		)
	}
	return res, nil
}
