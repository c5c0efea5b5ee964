package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/draftboard/internal/adapters/repository"
	"github.com/okian/draftboard/internal/domain/types"
	"github.com/okian/draftboard/pkg/logger"
)

// Service implements the read dependencies of the HTTP API on top of a
// store session.
type Service struct {
	reader   Reader
	maxLimit int
	logger   logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithMaxLimit caps the number of rows a single read may return.
func WithMaxLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithServiceLogger sets a custom logger for the service.
func WithServiceLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService constructs a Service.
func NewService(reader Reader, opts ...Option) *Service {
	s := &Service{reader: reader, maxLimit: 100}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s
}

// MaxLimit reports the largest accepted limit.
func (s *Service) MaxLimit() int { return s.maxLimit }

// Standings returns up to n rows of the most recent gameweek, best first.
func (s *Service) Standings(ctx context.Context, n int) ([]types.Entry, error) {
	if err := s.checkLimit(n); err != nil {
		return nil, err
	}
	rows, err := s.reader.LatestWindow(ctx, n)
	if err != nil {
		return nil, s.translate(ctx, "standings", err)
	}
	return toEntries(rows), nil
}

// History returns up to n rows across gameweeks, newest first.
func (s *Service) History(ctx context.Context, n int) ([]types.Entry, error) {
	if err := s.checkLimit(n); err != nil {
		return nil, err
	}
	rows, err := s.reader.History(ctx, n)
	if err != nil {
		return nil, s.translate(ctx, "history", err)
	}
	return toEntries(rows), nil
}

// Entry returns one row per gameweek for a single league entry.
func (s *Service) Entry(ctx context.Context, entryID int64) ([]types.Entry, error) {
	rows, err := s.reader.EntryHistory(ctx, entryID)
	if err != nil {
		return nil, s.translate(ctx, "entry", err)
	}
	return toEntries(rows), nil
}

// GetStats returns store statistics for monitoring. enriched_rows counts
// physical appends across runs; latest_rows counts the one-row-per-window view.
func (s *Service) GetStats(ctx context.Context) (map[string]any, error) {
	st, err := s.reader.Stats(ctx)
	if err != nil {
		return nil, s.translate(ctx, "stats", err)
	}
	stats := map[string]any{
		"raw_snapshots":   st.RawSnapshots,
		"enriched_rows":   st.EnrichedRows,
		"latest_rows":     st.LatestRows,
		"entries":         st.Entries,
		"latest_window":   st.LatestWindow,
		"latest_gameweek": st.LatestSequence,
	}
	if !st.Watermark.IsZero() {
		stats["watermark"] = st.Watermark.UTC().Format(time.RFC3339)
	}
	if st.LastRun != nil {
		stats["last_run"] = map[string]any{
			"run_id":     st.LastRun.ID,
			"started_at": st.LastRun.StartedAt.UTC().Format(time.RFC3339),
			"read":       st.LastRun.Read,
			"appended":   st.LastRun.Appended,
			"unresolved": st.LastRun.Unresolved,
			"superseded": st.LastRun.Superseded,
		}
	}
	return stats, nil
}

func (s *Service) checkLimit(n int) error {
	if n < 1 || n > s.maxLimit {
		return fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidLimit, n, s.maxLimit)
	}
	return nil
}

func (s *Service) translate(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, repository.ErrInvalidLimit):
		return fmt.Errorf("%w: %w", ErrInvalidLimit, err)
	}
	s.logger.Error(ctx, "read failed", logger.String("op", op), logger.Error(err))
	return fmt.Errorf("%s: %w", op, err)
}

func toEntries(rows []repository.Standing) []types.Entry {
	out := make([]types.Entry, len(rows))
	for i, r := range rows {
		out[i] = types.FromRow(r.Row, r.Entry)
	}
	return out
}
