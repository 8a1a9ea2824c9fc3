// Package db is the storage facade over Valkey or Redis with the search
// module. Repositories declare the subset they need; valkey implements all of it.
package db

import (
	"context"
	"time"
)

// Store is everything the service asks of the database.
type Store interface {
	Lifecycle
	VenueReader
	Counters
	Indexes
}

// Lifecycle covers connectivity.
type Lifecycle interface {
	Ping(ctx context.Context) error
	WaitForReady(ctx context.Context, timeout time.Duration) error
	Close()
}

// VenueReader reads venue hashes and runs KNN over them.
type VenueReader interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
}

// Counters holds plain string keys: cached embeddings and usage counters.
type Counters interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	IncrBy(ctx context.Context, key string, delta int64) (int64, error)
	// Expire with onlyIfUnset sends EXPIRE NX.
	Expire(ctx context.Context, key string, ttl time.Duration, onlyIfUnset bool) error
}

// Indexes manages FT index lifecycle.
type Indexes interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}
