// Package usage models the embedding token ledger.
package usage

import (
	"fmt"
	"math"
	"time"
)

// Period is the aggregation granularity.
type Period string

// Aggregation period constants.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod validates a period name; empty means day.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", PeriodDay:
		return PeriodDay, nil
	case PeriodMonth:
		return PeriodMonth, nil
	default:
		return "", fmt.Errorf("unknown period %q (want day or month)", s)
	}
}

// Bounds returns the UTC [start, end) interval of the period containing t.
func (p Period) Bounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	if p == PeriodMonth {
		start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0)
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// Bucket names the ledger bucket holding t, e.g. "2026-10-18" or "2026-10".
func (p Period) Bucket(t time.Time) string {
	if p == PeriodMonth {
		return t.UTC().Format("2006-01")
	}
	return t.UTC().Format("2006-01-02")
}

// Counters are the raw ledger values for one bucket.
type Counters struct {
	Tokens   int64
	Requests int64
}

// Report is an embedding usage report for one period.
type Report struct {
	period      Period
	periodStart int64
	periodEnd   int64
	counters    Counters
	costUSD     float64
}

// NewReport creates a usage report. Cost is priced per million tokens and
// rounded to 6 decimals.
func NewReport(period Period, start, end time.Time, c Counters, costPerMillion float64) Report {
	cost := float64(c.Tokens) / 1e6 * costPerMillion
	return Report{
		period:      period,
		periodStart: start.UnixMilli(),
		periodEnd:   end.UnixMilli(),
		counters:    c,
		costUSD:     math.Round(cost*1e6) / 1e6,
	}
}

// Period returns the aggregation granularity.
func (r *Report) Period() Period { return r.period }

// PeriodStart returns the period start timestamp (unix millis).
func (r *Report) PeriodStart() int64 { return r.periodStart }

// PeriodEnd returns the period end timestamp (unix millis).
func (r *Report) PeriodEnd() int64 { return r.periodEnd }

// Tokens returns the embedding tokens consumed.
func (r *Report) Tokens() int64 { return r.counters.Tokens }

// Requests returns the number of searches that embedded text.
func (r *Report) Requests() int64 { return r.counters.Requests }

// EstimatedCostUSD returns the estimated embedding spend.
func (r *Report) EstimatedCostUSD() float64 { return r.costUSD }
