package domain

import (
	"context"
	"sync"
)

type embeddingUsageKey struct{}

// EmbeddingUsage collects token usage for a single search request.
// The handler puts a pointer into the context before calling the service;
// the service adds tokens after every embedding call; the handler reads the total.
// It is safe for concurrent use: explain mode embeds two texts in parallel.
type EmbeddingUsage struct {
	mu          sync.Mutex
	totalTokens int
	calls       int
	cacheHits   int
	truncated   bool
}

// NewContextWithUsage returns a context with an embedded usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *EmbeddingUsage) {
	u := &EmbeddingUsage{}
	return context.WithValue(ctx, embeddingUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *EmbeddingUsage {
	u, _ := ctx.Value(embeddingUsageKey{}).(*EmbeddingUsage)
	return u
}

// Add records one embedding call. Safe on a nil receiver.
func (u *EmbeddingUsage) Add(res EmbeddingResult) {
	if u == nil {
		return
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.totalTokens += res.TotalTokens
	u.calls++
	if res.Cached {
		u.cacheHits++
	}
	u.truncated = u.truncated || res.Truncated
}

// TotalTokens returns the tokens consumed so far.
func (u *EmbeddingUsage) TotalTokens() int {
	if u == nil {
		return 0
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.totalTokens
}

// Used reports whether an embedding was requested, even on a cache hit with 0 tokens.
func (u *EmbeddingUsage) Used() bool {
	if u == nil {
		return false
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls > 0
}

// Truncated reports whether any embedded text was cut to the character ceiling.
func (u *EmbeddingUsage) Truncated() bool {
	if u == nil {
		return false
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.truncated
}

// CacheHits returns how many calls were served from the embedding cache.
func (u *EmbeddingUsage) CacheHits() int {
	if u == nil {
		return 0
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.cacheHits
}
