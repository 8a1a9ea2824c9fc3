package venue

import (
	"context"
	"errors"
	"fmt"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/corner/internal/db"
	"github.com/kailas-cloud/corner/internal/metrics"
)

type breaker = gobreaker.CircuitBreaker[any]

const breakerName = "vector-store"

func newBreaker(cfg BreakerConfig, logger *zap.Logger) *breaker {
	metrics.SearchBackendBreakerState.Set(float64(gobreaker.StateClosed))

	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		// a missing key or a caller that gave up says nothing about store health
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, db.ErrKeyNotFound) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.SearchBackendBreakerState.Set(float64(to))
		},
	})
}

// execute runs fn through the breaker and restores its result type.
func execute[T any](cb *breaker, fn func() (T, error)) (T, error) {
	var zero T
	res, err := cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		return zero, err
	}
	typed, ok := res.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", res)
	}
	return typed, nil
}
