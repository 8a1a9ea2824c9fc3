package venue

import (
	"time"

	"github.com/kailas-cloud/corner/internal/db"
)

// Defaults for the venue index.
const (
	DefaultVectorField = "embedding"
	DefaultDimensions  = 1536
	DefaultHNSWM       = 16
	DefaultHNSWEF      = 200
)

// Config describes the venue keyspace and index.
type Config struct {
	KeyPrefix   string // e.g. "corner:"; venues live at <KeyPrefix>venue:<id>
	IndexName   string // defaults to <KeyPrefix>venues:idx
	VectorField string
	Dimensions  int
	Distance    db.DistanceMetric
	Algorithm   db.VectorAlgorithm // HNSW (default) or FLAT
	HNSWM       int
	HNSWEF      int
	Breaker     BreakerConfig
}

// BreakerConfig tunes the vector store circuit breaker.
type BreakerConfig struct {
	MaxRequests  uint32        // probes allowed while half-open
	Interval     time.Duration // closed-state counter reset period
	Timeout      time.Duration // open -> half-open delay
	MinRequests  uint32        // requests needed before the ratio is considered
	FailureRatio float64
}

func (c Config) withDefaults() Config {
	if c.IndexName == "" {
		c.IndexName = c.KeyPrefix + "venues:idx"
	}
	if c.VectorField == "" {
		c.VectorField = DefaultVectorField
	}
	if c.Dimensions <= 0 {
		c.Dimensions = DefaultDimensions
	}
	if c.Distance == "" {
		c.Distance = db.DistanceCosine
	}
	if c.Algorithm == "" {
		c.Algorithm = db.VectorHNSW
	}
	if c.HNSWM <= 0 {
		c.HNSWM = DefaultHNSWM
	}
	if c.HNSWEF <= 0 {
		c.HNSWEF = DefaultHNSWEF
	}
	c.Breaker = c.Breaker.withDefaults()
	return c
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.MaxRequests == 0 {
		c.MaxRequests = 3
	}
	if c.Interval <= 0 {
		c.Interval = time.Minute
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MinRequests == 0 {
		c.MinRequests = 10
	}
	if c.FailureRatio <= 0 || c.FailureRatio > 1 {
		c.FailureRatio = 0.6
	}
	return c
}
