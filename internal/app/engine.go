// Package app wires the domain transforms to the stores and sources: the
// incremental merge engine, capture ingestion and the read-side service used
// by the HTTP API.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/draftboard/internal/adapters/repository"
	"github.com/okian/draftboard/internal/domain/dedupe"
	"github.com/okian/draftboard/internal/domain/enrich"
	"github.com/okian/draftboard/internal/domain/window"
	"github.com/okian/draftboard/pkg/logger"
	"github.com/okian/draftboard/pkg/metrics"
)

// Report describes one merge run.
type Report struct {
	RunID string
	// Outcome is one of the metrics.Outcome* values.
	Outcome string
	// NoNewData is set when the source had nothing newer than the watermark.
	NoNewData bool
	// WatermarkBefore is zero when the enriched store was empty.
	WatermarkBefore time.Time
	WatermarkAfter  time.Time
	Read            int
	Appended        int
	Unresolved      int
	Superseded      int
	// Windows lists the labels of the windows that received rows.
	Windows  []string
	Duration time.Duration
}

// Engine runs incremental merges from the raw snapshot source into the
// enriched store. One Engine serves one store session and is not meant for
// concurrent Merge calls.
type Engine struct {
	snapshots  SnapshotSource
	boundaries BoundarySource
	store      EnrichedStore

	logger logger.Logger
	now    func() time.Time
	newID  func() string
}

// EngineOption applies a configuration option to the Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock overrides the time source stamped on run audit records.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithRunIDs overrides the run id generator.
func WithRunIDs(next func() string) EngineOption {
	return func(e *Engine) {
		if next != nil {
			e.newID = next
		}
	}
}

// NewEngine constructs an Engine.
func NewEngine(snapshots SnapshotSource, boundaries BoundarySource, store EnrichedStore, opts ...EngineOption) *Engine {
	e := &Engine{
		snapshots:  snapshots,
		boundaries: boundaries,
		store:      store,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logger.Get().Named("merge")
	}
	return e
}

// Merge appends the latest observation per entry per window for every raw
// snapshot newer than the store's watermark. Rerunning without new snapshots
// appends nothing and reports NoNewData.
func (e *Engine) Merge(ctx context.Context) (Report, error) {
	started := e.now().UTC()
	report := Report{RunID: e.newID()}
	log := e.logger.With(logger.String("run_id", report.RunID))

	report, err := e.merge(ctx, report, started, log)
	report.Duration = e.now().Sub(started)

	switch {
	case err != nil:
		report.Outcome = metrics.OutcomeFailed
		metrics.RecordError("merge", errorKind(err))
		log.Error(ctx, "merge failed", logger.Error(err))
	case report.NoNewData:
		report.Outcome = metrics.OutcomeNoNewData
		log.Info(ctx, "no new data", logger.Time("watermark", report.WatermarkBefore))
	case report.Appended == 0:
		report.Outcome = metrics.OutcomeSkipped
		log.Warn(ctx, "merge appended nothing",
			logger.Int("read", report.Read),
			logger.Int("unresolved", report.Unresolved),
			logger.Time("watermark", report.WatermarkBefore))
	default:
		report.Outcome = metrics.OutcomeAppended
		metrics.UpdateWatermark(report.WatermarkAfter)
		log.Info(ctx, "merge finished",
			logger.Int("read", report.Read),
			logger.Int("appended", report.Appended),
			logger.Int("unresolved", report.Unresolved),
			logger.Int("superseded", report.Superseded),
			logger.Time("watermark", report.WatermarkAfter),
			logger.Duration("duration", report.Duration),
		)
	}
	metrics.RecordMergeRun(report.Outcome, report.Duration)
	return report, err
}

func (e *Engine) merge(ctx context.Context, report Report, started time.Time, log logger.Logger) (Report, error) {
	watermark, ok, err := e.store.Watermark(ctx)
	if err != nil {
		return report, fmt.Errorf("read watermark: %w", err)
	}
	if ok {
		report.WatermarkBefore = watermark
	}
	report.WatermarkAfter = report.WatermarkBefore

	snaps, err := e.snapshots.SnapshotsAfter(ctx, watermark, ok)
	if err != nil {
		return report, fmt.Errorf("%w: raw snapshots: %w", ErrSourceUnavailable, err)
	}
	report.Read = len(snaps)
	metrics.RecordMergeRows(metrics.StageRead, report.Read)
	if len(snaps) == 0 {
		report.NoNewData = true
		return report, nil
	}

	bounds, err := e.boundaries.Boundaries(ctx)
	if err != nil {
		return report, fmt.Errorf("%w: boundaries: %w", ErrSourceUnavailable, err)
	}
	catalog, err := window.Build(bounds)
	if err != nil {
		return report, err
	}

	rows := enrich.Batch(snaps)
	catalog.Assign(rows)
	res := dedupe.LatestPerWindow(rows)

	report.Unresolved = res.Unresolved
	report.Superseded = res.Superseded
	metrics.RecordMergeRows(metrics.StageUnresolved, res.Unresolved)
	metrics.RecordMergeRows(metrics.StageSuperseded, res.Superseded)
	if res.Unresolved > 0 {
		log.Warn(ctx, "snapshots precede the first window and were skipped",
			logger.Int("count", res.Unresolved),
			logger.Time("first_window_start", catalog.Windows()[0].Start))
	}
	if len(res.Rows) == 0 {
		return report, nil
	}

	after := report.WatermarkBefore
	seen := make(map[string]struct{})
	for _, r := range res.Rows {
		if r.ObservedAt.After(after) {
			after = r.ObservedAt
		}
		if _, dup := seen[r.WindowLabel]; !dup {
			seen[r.WindowLabel] = struct{}{}
			report.Windows = append(report.Windows, r.WindowLabel)
		}
	}

	run := repository.MergeRun{
		ID:              report.RunID,
		StartedAt:       started,
		WatermarkBefore: report.WatermarkBefore,
		WatermarkAfter:  after,
		Read:            report.Read,
		Appended:        len(res.Rows),
		Unresolved:      res.Unresolved,
		Superseded:      res.Superseded,
	}
	if err := e.store.AppendEnriched(ctx, run, res.Rows); err != nil {
		return report, fmt.Errorf("append enriched rows: %w", err)
	}

	report.Appended = len(res.Rows)
	report.WatermarkAfter = after
	metrics.RecordMergeRows(metrics.StageAppended, report.Appended)
	return report, nil
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrSourceUnavailable):
		return "source_unavailable"
	case errors.Is(err, window.ErrInvalidBoundarySequence):
		return "invalid_boundaries"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "store"
	}
}
