package app

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/draftboard/internal/adapters/upstream"
	"github.com/okian/draftboard/pkg/logger"
	"github.com/okian/draftboard/pkg/metrics"
)

// IngestReport describes one stored capture.
type IngestReport struct {
	ObservedAt time.Time
	Entries    int
	Fetched    int
	Inserted   int
}

// Capture fetches the league once and stores the capture.
func Capture(ctx context.Context, src DetailsSource, store RawStore) (IngestReport, error) {
	d, err := src.LeagueDetails(ctx)
	if err != nil {
		metrics.RecordError("ingest", "source_unavailable")
		return IngestReport{}, fmt.Errorf("%w: league details: %w", ErrSourceUnavailable, err)
	}
	return Ingest(ctx, store, d)
}

// Ingest persists one capture: roster metadata first, then the raw snapshots.
// Re-ingesting the same capture inserts nothing.
func Ingest(ctx context.Context, store RawStore, d upstream.Details) (IngestReport, error) {
	report := IngestReport{ObservedAt: d.ObservedAt, Entries: len(d.Entries), Fetched: len(d.Snapshots)}

	if err := store.UpsertEntries(ctx, d.Entries); err != nil {
		metrics.RecordError("ingest", "store")
		return report, fmt.Errorf("upsert entries: %w", err)
	}
	metrics.RecordEntriesUpserted(len(d.Entries))

	n, err := store.AppendSnapshots(ctx, d.Snapshots)
	if err != nil {
		metrics.RecordError("ingest", "store")
		return report, fmt.Errorf("append snapshots: %w", err)
	}
	report.Inserted = n
	metrics.RecordSnapshotsIngested(n)

	logger.Get().Named("ingest").Info(ctx, "capture stored",
		logger.Time("observed_at", d.ObservedAt),
		logger.Int("entries", report.Entries),
		logger.Int("fetched", report.Fetched),
		logger.Int("inserted", report.Inserted))
	return report, nil
}
