package valkey

import (
	"context"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/corner/internal/db"
)

// Get reads a string key. A nil reply yields db.ErrKeyNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Do(ctx, s.client.B().Get().Key(key).Build()).AsBytes()
	if rueidis.IsRedisNil(err) {
		return nil, db.ErrKeyNotFound
	}
	if err != nil {
		return nil, fail(db.OpGet, key, err)
	}
	return val, nil
}

// SetWithTTL writes value at key, with SET EX when ttl is positive.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	base := s.client.B().Set().Key(key).Value(rueidis.BinaryString(value))
	cmd := base.Build()
	if ttl > 0 {
		cmd = base.Ex(ttl).Build()
	}
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fail(db.OpSet, key, err)
	}
	return nil
}

// IncrBy adds delta to the counter at key and returns the new total.
func (s *Store) IncrBy(ctx context.Context, key string, delta int64) (int64, error) {
	total, err := s.client.Do(ctx, s.client.B().Incrby().Key(key).Increment(delta).Build()).AsInt64()
	if err != nil {
		return 0, fail(db.OpIncrBy, key, err)
	}
	return total, nil
}

// Expire sets a TTL in whole seconds. With onlyIfUnset it sends EXPIRE NX,
// so an existing TTL survives repeated calls.
func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration, onlyIfUnset bool) error {
	seconds := s.client.B().Expire().Key(key).Seconds(int64(ttl / time.Second))
	cmd := seconds.Build()
	if onlyIfUnset {
		cmd = seconds.Nx().Build()
	}
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fail(db.OpExpire, key, err)
	}
	return nil
}
