package usage

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/corner/internal/domain/usage"
)

// Ledger persists per-period token and request counters.
type Ledger interface {
	Record(ctx context.Context, tokens int64, at time.Time) error
	Counters(ctx context.Context, p domusage.Period, at time.Time) (domusage.Counters, error)
}
