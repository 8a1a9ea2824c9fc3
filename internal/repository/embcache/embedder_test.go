package embcache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/corner/internal/db"
	"github.com/kailas-cloud/corner/internal/domain"
)

func TestEmbed_CacheMiss(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.1, 0.2, 0.3},
		PromptTokens: 10,
		TotalTokens:  10,
	}}
	ce, ms := newTestCachedEmbedder(t, inner)

	var setKey string
	var setTTL time.Duration
	ms.setFn = func(_ context.Context, key string, _ []byte, ttl time.Duration) error {
		setKey, setTTL = key, ttl
		return nil
	}

	result, err := ce.Embed(context.Background(), "cozy cafe")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.Embedding[0] != 0.1 {
		t.Fatalf("unexpected vector: %v", result.Embedding)
	}
	if result.TotalTokens != 10 || result.Cached {
		t.Fatalf("expected uncached result with 10 tokens, got %+v", result)
	}
	if !strings.HasPrefix(setKey, "corner:emb_cache:test-model:") {
		t.Errorf("cache key = %q", setKey)
	}
	if setTTL != time.Hour {
		t.Errorf("ttl = %v, want 1h", setTTL)
	}
}

func TestEmbed_CacheHit(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}}}
	ce, ms := newTestCachedEmbedder(t, inner)

	cached := []byte(db.EncodeVector([]float32{0.4, 0.5, 0.6}))
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return cached, nil
	}

	result, err := ce.Embed(context.Background(), "cozy cafe")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.Embedding[0] != 0.4 {
		t.Fatalf("expected cached vector, got: %v", result.Embedding)
	}
	if result.TotalTokens != 0 {
		t.Fatalf("expected TotalTokens=0 on cache hit, got %d", result.TotalTokens)
	}
	if !result.Cached {
		t.Error("expected Cached on a hit")
	}
	if inner.calls != 0 {
		t.Errorf("inner called %d times on a hit", inner.calls)
	}
}

func TestEmbed_CacheHitKeepsTruncation(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1}, TotalTokens: 4, Truncated: true}}
	ms := &mockKVStore{}
	entries := make(map[string][]byte)
	ms.getFn = func(_ context.Context, key string) ([]byte, error) {
		if v, ok := entries[key]; ok {
			return v, nil
		}
		return nil, db.ErrKeyNotFound
	}
	ms.setFn = func(_ context.Context, key string, value []byte, _ time.Duration) error {
		entries[key] = value
		return nil
	}
	ce := New(inner, ms, Config{Model: "m", MaxInputChars: 10}, nil, nil)

	long := strings.Repeat("é", 11)
	first, err := ce.Embed(context.Background(), long)
	if err != nil {
		t.Fatalf("miss: %v", err)
	}
	second, err := ce.Embed(context.Background(), long)
	if err != nil {
		t.Fatalf("hit: %v", err)
	}
	if !first.Truncated || !second.Cached || !second.Truncated {
		t.Errorf("miss = %+v, hit = %+v", first, second)
	}

	inner.result.Truncated = false
	short := strings.Repeat("é", 10)
	_, _ = ce.Embed(context.Background(), short)
	hit, err := ce.Embed(context.Background(), short)
	if err != nil {
		t.Fatalf("short hit: %v", err)
	}
	if !hit.Cached || hit.Truncated {
		t.Errorf("short hit = %+v", hit)
	}
	if inner.calls != 2 {
		t.Errorf("inner calls = %d, want 2", inner.calls)
	}
}

func TestEmbed_SameTextSameKey(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	ce, ms := newTestCachedEmbedder(t, inner)

	var keys []string
	ms.setFn = func(_ context.Context, key string, _ []byte, _ time.Duration) error {
		keys = append(keys, key)
		return nil
	}
	_, _ = ce.Embed(context.Background(), "bagels")
	_, _ = ce.Embed(context.Background(), "bagels")
	_, _ = ce.Embed(context.Background(), "ramen")

	if len(keys) != 3 || keys[0] != keys[1] || keys[0] == keys[2] {
		t.Errorf("keys = %v", keys)
	}
}

func TestEmbed_CorruptCacheIsMiss(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.7}, TotalTokens: 3}}
	ce, ms := newTestCachedEmbedder(t, inner)
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return []byte("abc"), nil
	}

	result, err := ce.Embed(context.Background(), "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 || result.TotalTokens != 3 {
		t.Errorf("expected fallthrough to inner, calls=%d", inner.calls)
	}
}

func TestEmbed_StoreErrorsDegradeToMiss(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.7}}}
	ce, ms := newTestCachedEmbedder(t, inner)
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return nil, errors.New("connection reset")
	}
	ms.setFn = func(_ context.Context, _ string, _ []byte, _ time.Duration) error {
		return errors.New("connection reset")
	}

	if _, err := ce.Embed(context.Background(), "x"); err != nil {
		t.Fatalf("cache failures must not fail the embedding: %v", err)
	}
}

func TestEmbed_InnerError(t *testing.T) {
	inner := &mockEmbedder{err: domain.ErrEmbeddingUnavailable}
	ce, _ := newTestCachedEmbedder(t, inner)

	_, err := ce.Embed(context.Background(), "x")
	if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
	}
}

func TestEmbed_CacheCounter(t *testing.T) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_cache_total"}, []string{"result"})
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	ms := &mockKVStore{}
	ce := New(inner, ms, Config{Model: "m"}, counter, zap.NewNop())

	_, _ = ce.Embed(context.Background(), "x")

	if got := testutil.ToFloat64(counter.WithLabelValues("miss")); got != 1 {
		t.Errorf("miss counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("hit")); got != 0 {
		t.Errorf("hit counter = %v, want 0", got)
	}
}

func TestEmbed_ModelIsolatesKeys(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	var keys []string
	ms := &mockKVStore{setFn: func(_ context.Context, key string, _ []byte, _ time.Duration) error {
		keys = append(keys, key)
		return nil
	}}

	_, _ = New(inner, ms, Config{KeyPrefix: "corner:", Model: "small"}, nil, nil).Embed(context.Background(), "tacos")
	_, _ = New(inner, ms, Config{KeyPrefix: "corner:", Model: "large"}, nil, nil).Embed(context.Background(), "tacos")

	if len(keys) != 2 || keys[0] == keys[1] {
		t.Errorf("keys = %v, want distinct per model", keys)
	}
}

func TestEmbed_EmptyVectorNotCached(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{}}
	ce, ms := newTestCachedEmbedder(t, inner)
	ms.setFn = func(_ context.Context, _ string, _ []byte, _ time.Duration) error {
		t.Error("empty vector must not be written")
		return nil
	}

	if _, err := ce.Embed(context.Background(), "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
