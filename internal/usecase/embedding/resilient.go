package embedding

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/corner/internal/domain"
	"github.com/kailas-cloud/corner/internal/metrics"
)

// Resilience defaults.
const (
	DefaultMaxAttempts   = 3
	DefaultBaseDelay     = 2 * time.Second
	DefaultMaxInputChars = 25000
)

// ResilientConfig tunes ResilientEmbedder. Zero values take the defaults.
type ResilientConfig struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	MaxInputChars int
	// Limiter, when set, is waited on before every attempt.
	Limiter  *rate.Limiter
	Provider string
}

// ResilientEmbedder truncates oversized input and retries the inner
// embedder with exponential backoff. It never returns a zero vector.
type ResilientEmbedder struct {
	inner       domain.Embedder
	maxAttempts int
	baseDelay   time.Duration
	maxChars    int
	limiter     *rate.Limiter
	provider    string
	logger      *zap.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// NewResilientEmbedder wraps inner with truncation, rate limiting and retries.
func NewResilientEmbedder(inner domain.Embedder, cfg ResilientConfig, logger *zap.Logger) *ResilientEmbedder {
	r := &ResilientEmbedder{
		inner:       inner,
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   cfg.BaseDelay,
		maxChars:    cfg.MaxInputChars,
		limiter:     cfg.Limiter,
		provider:    cfg.Provider,
		logger:      logger,
		sleep:       sleepCtx,
	}
	if r.maxAttempts <= 0 {
		r.maxAttempts = DefaultMaxAttempts
	}
	if r.baseDelay <= 0 {
		r.baseDelay = DefaultBaseDelay
	}
	if r.maxChars <= 0 {
		r.maxChars = DefaultMaxInputChars
	}
	return r
}

// Embed implements domain.Embedder. After attempt n fails it waits
// baseDelay * 2^n, unless that was the last attempt.
func (r *ResilientEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	text, truncated := Truncate(text, r.maxChars)
	if truncated {
		metrics.EmbeddingTruncationsTotal.WithLabelValues(r.provider).Inc()
		r.logger.Warn("Embedding input truncated",
			zap.String("provider", r.provider),
			zap.Int("max_chars", r.maxChars),
		)
	}

	var lastErr error
	attempts := 0
	for attempt := range r.maxAttempts {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				lastErr = fmt.Errorf("rate limiter: %w: %w", domain.ErrRateLimited, err)
				break
			}
		}

		attempts++
		res, err := r.inner.Embed(ctx, text)
		if err == nil {
			res.Truncated = truncated
			return res, nil
		}
		lastErr = err

		if attempt+1 >= r.maxAttempts || ctx.Err() != nil {
			break
		}

		delay := r.baseDelay << attempt
		metrics.EmbeddingRetriesTotal.WithLabelValues(r.provider).Inc()
		r.logger.Warn("Embedding attempt failed, retrying",
			zap.String("provider", r.provider),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
		if err := r.sleep(ctx, delay); err != nil {
			break
		}
	}

	return domain.EmbeddingResult{}, fmt.Errorf("embed after %d attempts: %w: %w",
		attempts, domain.ErrEmbeddingUnavailable, lastErr)
}

// Truncate cuts text to maxChars runes and appends "..." when it was longer.
func Truncate(text string, maxChars int) (string, bool) {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text, false
	}
	return string([]rune(text)[:maxChars]) + "...", true
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
