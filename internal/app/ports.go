package app

import (
	"context"
	"time"

	"github.com/okian/draftboard/internal/adapters/repository"
	"github.com/okian/draftboard/internal/adapters/upstream"
	"github.com/okian/draftboard/internal/domain/model"
)

// SnapshotSource yields raw snapshots strictly newer than a watermark.
// When ok is false there is no watermark and every snapshot is returned.
type SnapshotSource interface {
	SnapshotsAfter(ctx context.Context, watermark time.Time, ok bool) ([]model.Snapshot, error)
}

// BoundarySource yields the ordered period boundaries.
type BoundarySource interface {
	Boundaries(ctx context.Context) ([]model.Boundary, error)
}

// EnrichedStore is the append-only destination of the merge engine.
type EnrichedStore interface {
	Watermark(ctx context.Context) (time.Time, bool, error)
	AppendEnriched(ctx context.Context, run repository.MergeRun, rows []model.EnrichedRow) error
}

// DetailsSource fetches one capture of the league.
type DetailsSource interface {
	LeagueDetails(ctx context.Context) (upstream.Details, error)
}

// RawStore persists captures.
type RawStore interface {
	AppendSnapshots(ctx context.Context, snaps []model.Snapshot) (int, error)
	UpsertEntries(ctx context.Context, entries []model.Entry) error
}

// Reader serves the downstream read queries.
type Reader interface {
	LatestWindow(ctx context.Context, limit int) ([]repository.Standing, error)
	History(ctx context.Context, limit int) ([]repository.Standing, error)
	EntryHistory(ctx context.Context, entryID int64) ([]repository.Standing, error)
	Stats(ctx context.Context) (repository.Stats, error)
}

// StaticBoundaries serves boundaries fetched ahead of a merge run.
type StaticBoundaries []model.Boundary

// Boundaries implements BoundarySource.
func (b StaticBoundaries) Boundaries(context.Context) ([]model.Boundary, error) {
	return []model.Boundary(b), nil
}
