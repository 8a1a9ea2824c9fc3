package usage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	domusage "github.com/kailas-cloud/corner/internal/domain/usage"
	"github.com/kailas-cloud/corner/internal/metrics"
)

// DefaultCostPerMillion is the estimated USD price of one million embedding tokens.
const DefaultCostPerMillion = 0.1

// Service records and reports embedding usage.
type Service struct {
	ledger         Ledger
	costPerMillion float64
	logger         *zap.Logger
	now            func() time.Time
}

// New creates a Service. A non-positive costPerMillion falls back to DefaultCostPerMillion.
func New(ledger Ledger, costPerMillion float64, logger *zap.Logger) *Service {
	if costPerMillion <= 0 {
		costPerMillion = DefaultCostPerMillion
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		ledger:         ledger,
		costPerMillion: costPerMillion,
		logger:         logger,
		now:            time.Now,
	}
}

// Record adds a finished request to the ledger. Failures are logged, not returned.
func (s *Service) Record(ctx context.Context, tokens int64) {
	if err := s.ledger.Record(ctx, tokens, s.now()); err != nil {
		s.logger.Warn("usage record failed", zap.Int64("tokens", tokens), zap.Error(err))
		return
	}
	metrics.UsageTokensRecorded.Add(float64(tokens))
}

// GetReport builds a usage report for the current period.
func (s *Service) GetReport(ctx context.Context, period domusage.Period) (domusage.Report, error) {
	now := s.now()
	start, end := period.Bounds(now)

	c, err := s.ledger.Counters(ctx, period, now)
	if err != nil {
		return domusage.Report{}, fmt.Errorf("usage report %s: %w", period, err)
	}
	return domusage.NewReport(period, start, end, c, s.costPerMillion), nil
}
