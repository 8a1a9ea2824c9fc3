// Package usage persists the embedding token ledger as expiring counters.
package usage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/corner/internal/db"
	domusage "github.com/kailas-cloud/corner/internal/domain/usage"
)

// store is the consumer interface for ledger operations (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Store keeps per-day and per-month counters (INCRBY + EXPIRE NX).
type Store struct {
	store     store
	keyPrefix string
	dailyTTL  time.Duration
	monthTTL  time.Duration
}

// New creates a ledger store.
// dailyTTL is the TTL for daily keys (recommended: 48h).
// monthTTL is the TTL for monthly keys (recommended: 62 days).
func New(s store, keyPrefix string, dailyTTL, monthTTL time.Duration) *Store {
	return &Store{
		store:     s,
		keyPrefix: keyPrefix + "usage:",
		dailyTTL:  dailyTTL,
		monthTTL:  monthTTL,
	}
}

// Record adds tokens and one request to the day and month buckets holding at.
func (s *Store) Record(ctx context.Context, tokens int64, at time.Time) error {
	for _, p := range []domusage.Period{domusage.PeriodDay, domusage.PeriodMonth} {
		ttl := s.ttlFor(p)
		if tokens > 0 {
			if err := s.incr(ctx, s.key("tokens", p, at), tokens, ttl); err != nil {
				return err
			}
		}
		if err := s.incr(ctx, s.key("requests", p, at), 1, ttl); err != nil {
			return err
		}
	}
	return nil
}

// Counters reads the bucket of period p holding at. Missing keys read as zero.
func (s *Store) Counters(ctx context.Context, p domusage.Period, at time.Time) (domusage.Counters, error) {
	tokens, err := s.get(ctx, s.key("tokens", p, at))
	if err != nil {
		return domusage.Counters{}, err
	}
	requests, err := s.get(ctx, s.key("requests", p, at))
	if err != nil {
		return domusage.Counters{}, err
	}
	return domusage.Counters{Tokens: tokens, Requests: requests}, nil
}

func (s *Store) incr(ctx context.Context, key string, val int64, ttl time.Duration) error {
	if _, err := s.store.IncrBy(ctx, key, val); err != nil {
		return fmt.Errorf("usage INCRBY %s: %w", key, err)
	}
	// NX: the first write of a bucket fixes its lifetime
	if err := s.store.Expire(ctx, key, ttl, true); err != nil {
		return fmt.Errorf("usage EXPIRE %s: %w", key, err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, key string) (int64, error) {
	data, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("usage GET %s: %w", key, err)
	}

	val, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("usage GET %s parse: %w", key, err)
	}
	return val, nil
}

// key follows <prefix>usage:{metric}:{period}:{bucket}.
func (s *Store) key(metric string, p domusage.Period, at time.Time) string {
	return s.keyPrefix + metric + ":" + string(p) + ":" + p.Bucket(at)
}

func (s *Store) ttlFor(p domusage.Period) time.Duration {
	if p == domusage.PeriodDay {
		return s.dailyTTL
	}
	return s.monthTTL
}
