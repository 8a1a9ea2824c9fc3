// Package embcache keeps query embeddings in the key-value store so repeated
// searches skip the provider.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/corner/internal/db"
	"github.com/kailas-cloud/corner/internal/domain"
)

const (
	outcomeHit  = "hit"
	outcomeMiss = "miss"
)

type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Config controls cache keys and lifetime.
type Config struct {
	// KeyPrefix is the deployment-wide key prefix, e.g. "corner:".
	KeyPrefix string
	// Model is part of the key so switching models never serves old vectors.
	Model string
	// TTL of each entry; zero keeps entries until evicted.
	TTL time.Duration
	// MaxInputChars is the provider-side truncation limit in runes. A hit on
	// longer text is reported as truncated; zero never reports truncation.
	MaxInputChars int
}

// CachedEmbedder serves embeddings from the store and fills it on a miss.
// Store failures are logged and treated as misses.
type CachedEmbedder struct {
	next      domain.Embedder
	kv        store
	namespace string
	ttl       time.Duration
	maxChars  int
	outcomes  *prometheus.CounterVec
	logger    *zap.Logger
}

// New wraps next. outcomes, when non-nil, is incremented with label "result"
// set to "hit" or "miss".
func New(
	next domain.Embedder,
	kv store,
	cfg Config,
	outcomes *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedEmbedder{
		next:      next,
		kv:        kv,
		namespace: fmt.Sprintf("%semb_cache:%s:", cfg.KeyPrefix, cfg.Model),
		ttl:       cfg.TTL,
		maxChars:  cfg.MaxInputChars,
		outcomes:  outcomes,
		logger:    logger,
	}
}

// Embed returns the cached vector for text with Cached set and zero tokens,
// or asks next and stores its vector. Truncated on a hit matches what the
// provider path reported for the same text.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.key(text)

	if vec := c.lookup(ctx, key); vec != nil {
		c.count(outcomeHit)
		return domain.EmbeddingResult{
			Embedding: vec,
			Cached:    true,
			Truncated: c.maxChars > 0 && utf8.RuneCountInString(text) > c.maxChars,
		}, nil
	}
	c.count(outcomeMiss)

	res, err := c.next.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}
	if len(res.Embedding) > 0 {
		c.remember(ctx, key, res.Embedding)
	}
	return res, nil
}

func (c *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return c.namespace + hex.EncodeToString(sum[:])
}

// lookup returns nil on a miss, an empty entry, a store error or a corrupt blob.
func (c *CachedEmbedder) lookup(ctx context.Context, key string) []float32 {
	blob, err := c.kv.Get(ctx, key)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		return nil
	case err != nil:
		c.logger.Warn("embedding cache read failed", zap.String("key", key), zap.Error(err))
		return nil
	case len(blob) == 0:
		return nil
	}

	vec, err := db.DecodeVector(string(blob))
	if err != nil {
		c.logger.Warn("embedding cache entry corrupt", zap.String("key", key), zap.Error(err))
		return nil
	}
	return vec
}

func (c *CachedEmbedder) remember(ctx context.Context, key string, vec []float32) {
	if err := c.kv.SetWithTTL(ctx, key, []byte(db.EncodeVector(vec)), c.ttl); err != nil {
		c.logger.Warn("embedding cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *CachedEmbedder) count(outcome string) {
	if c.outcomes != nil {
		c.outcomes.WithLabelValues(outcome).Inc()
	}
}
