// Package recent lists popular queries shown as search suggestions.
package recent

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

// DefaultLimit is the number of queries returned.
const DefaultLimit = 20

// Service reads recent queries from a CSV file whose first column holds the
// query text. The first row is a header.
type Service struct {
	path   string
	limit  int
	logger *zap.Logger
}

// New creates a Service. A non-positive limit means DefaultLimit.
func New(path string, limit int, logger *zap.Logger) *Service {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{path: path, limit: limit, logger: logger}
}

// List returns up to limit queries. A missing or unreadable file yields an
// empty list; the failure is logged.
func (s *Service) List(_ context.Context) []string {
	queries, err := s.read()
	if err != nil {
		s.logger.Warn("recent queries unavailable", zap.String("path", s.path), zap.Error(err))
		return []string{}
	}
	return queries
}

func (s *Service) read() ([]string, error) {
	if s.path == "" {
		return nil, errors.New("no recent queries file configured")
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	if _, err := r.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	out := make([]string, 0, s.limit)
	for len(out) < s.limit {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(out)+1, err)
		}
		if q := strings.TrimSpace(rec[0]); q != "" {
			out = append(out, q)
		}
	}
	return out, nil
}
