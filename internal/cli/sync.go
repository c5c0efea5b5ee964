package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/okian/draftboard/internal/adapters/upstream"
	"github.com/okian/draftboard/internal/app"
	"github.com/okian/draftboard/internal/domain/model"
	"github.com/okian/draftboard/pkg/logger"
)

// LeagueSource is the upstream surface sync needs.
type LeagueSource interface {
	app.DetailsSource
	app.BoundarySource
}

// SyncStore is the store surface sync writes to and merges from.
type SyncStore interface {
	app.RawStore
	app.SnapshotSource
	app.EnrichedStore
}

// SyncResult is the outcome of one sync.
type SyncResult struct {
	Ingest app.IngestReport
	Merge  app.Report
}

// Sync fetches the league details and the gameweek boundaries concurrently,
// stores the capture and merges it. Nothing is written unless both fetches
// succeed.
func Sync(ctx context.Context, src LeagueSource, store SyncStore, opts ...app.EngineOption) (SyncResult, error) {
	var (
		details upstream.Details
		bounds  []model.Boundary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := src.LeagueDetails(gctx)
		if err != nil {
			return err
		}
		details = d
		return nil
	})
	g.Go(func() error {
		b, err := src.Boundaries(gctx)
		if err != nil {
			return err
		}
		bounds = b
		return nil
	})
	if err := g.Wait(); err != nil {
		return SyncResult{}, fmt.Errorf("%w: %w", app.ErrSourceUnavailable, err)
	}

	var (
		res SyncResult
		err error
	)
	if res.Ingest, err = app.Ingest(ctx, store, details); err != nil {
		return res, err
	}
	res.Merge, err = app.NewEngine(store, app.StaticBoundaries(bounds), store, opts...).Merge(ctx)
	return res, err
}

// SyncCmd returns the sync command.
func SyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Capture the league and merge it in one step",
		Long: `Fetch league details and gameweek boundaries in parallel, store the capture
and run an incremental merge against the fetched boundaries.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := bootstrap(ctx, "sync")
			if err != nil {
				return err
			}
			defer e.push(ctx, "draftboard_sync")

			client, err := e.client()
			if err != nil {
				return err
			}
			store, err := e.openStore(ctx)
			if err != nil {
				return err
			}
			defer e.closeStore(ctx, store)

			res, err := Sync(ctx, client, store, app.WithLogger(e.log))
			if err != nil {
				e.log.Error(ctx, "sync failed", logger.Error(err))
				return err
			}
			printIngest(cmd.OutOrStdout(), res.Ingest)
			printMerge(cmd.OutOrStdout(), res.Merge)
			return nil
		},
	}
}
