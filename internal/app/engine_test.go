package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/draftboard/internal/adapters/repository"
	"github.com/okian/draftboard/internal/adapters/upstream"
	"github.com/okian/draftboard/internal/app"
	"github.com/okian/draftboard/internal/domain/model"
	"github.com/okian/draftboard/internal/domain/window"
	"github.com/okian/draftboard/pkg/logger"
	"github.com/okian/draftboard/pkg/metrics"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

var gameweeks = app.StaticBoundaries{
	{Seq: 1, Label: "GW1", Start: time.Date(2025, 8, 22, 0, 0, 0, 0, time.UTC)},
	{Seq: 2, Label: "GW2", Start: time.Date(2025, 8, 29, 0, 0, 0, 0, time.UTC)},
}

func ts(day, hour int) time.Time {
	return time.Date(2025, 8, day, hour, 0, 0, 0, time.UTC)
}

func intp(v int) *int { return &v }

func openStore(ctx context.Context) *repository.SQLStore {
	s, err := repository.Open(ctx, repository.WithDriver(repository.DriverSQLite), repository.WithPath(":memory:"))
	So(err, ShouldBeNil)
	return s
}

func ingest(ctx context.Context, s *repository.SQLStore, snaps ...model.Snapshot) {
	_, err := app.Ingest(ctx, s, upstream.Details{Snapshots: snaps})
	So(err, ShouldBeNil)
}

type failingSnapshots struct{ err error }

func (f failingSnapshots) SnapshotsAfter(context.Context, time.Time, bool) ([]model.Snapshot, error) {
	return nil, f.err
}

type failingBoundaries struct{ err error }

func (f failingBoundaries) Boundaries(context.Context) ([]model.Boundary, error) { return nil, f.err }

// countingStore records append calls and optionally fails them.
type countingStore struct {
	app.EnrichedStore
	appends   int
	appendErr error
}

func (c *countingStore) AppendEnriched(ctx context.Context, run repository.MergeRun, rows []model.EnrichedRow) error {
	c.appends++
	if c.appendErr != nil {
		return c.appendErr
	}
	return c.EnrichedStore.AppendEnriched(ctx, run, rows)
}

func TestMergeScenarios(t *testing.T) {
	Convey("Given a store with raw snapshots and two gameweeks", t, func() {
		ctx := context.Background()
		s := openStore(ctx)
		defer s.Close()
		engine := app.NewEngine(s, gameweeks, s)

		Convey("When an entry improves within one gameweek", func() {
			ingest(ctx, s,
				model.Snapshot{EntryID: 7, ObservedAt: ts(25, 9), Rank: 3, RankSort: 3, Total: 40, PeriodTotal: 20},
				model.Snapshot{EntryID: 7, ObservedAt: ts(25, 10), Rank: 1, RankSort: 1, Total: 60, PeriodTotal: 40, PreviousRank: intp(3)},
			)
			report, err := engine.Merge(ctx)

			Convey("Then one row holds the latest observation and its rank change", func() {
				So(err, ShouldBeNil)
				So(report.Read, ShouldEqual, 2)
				So(report.Appended, ShouldEqual, 1)
				So(report.Outcome, ShouldEqual, metrics.OutcomeAppended)
				So(report.Superseded, ShouldEqual, 1)
				So(report.Windows, ShouldResemble, []string{"GW1"})

				rows, err := s.LatestWindow(ctx, 10)
				So(err, ShouldBeNil)
				So(len(rows), ShouldEqual, 1)
				So(rows[0].Row.Rank, ShouldEqual, 1)
				So(rows[0].Row.RankChange, ShouldEqual, model.RankImproved)
				So(rows[0].Row.WindowLabel, ShouldEqual, "GW1")
				So(rows[0].Row.BestPeriod, ShouldBeTrue)
			})

			Convey("And rerunning appends nothing", func() {
				again, err := engine.Merge(ctx)
				So(err, ShouldBeNil)
				So(again.NoNewData, ShouldBeTrue)
				So(again.Appended, ShouldEqual, 0)
				So(again.Outcome, ShouldEqual, metrics.OutcomeNoNewData)
				So(again.WatermarkBefore, ShouldEqual, report.WatermarkAfter)

				st, err := s.Stats(ctx)
				So(err, ShouldBeNil)
				So(st.EnrichedRows, ShouldEqual, 1)
			})
		})

		Convey("When a snapshot precedes the first gameweek", func() {
			ingest(ctx, s,
				model.Snapshot{EntryID: 1, ObservedAt: ts(20, 12), Rank: 1, RankSort: 1},
				model.Snapshot{EntryID: 2, ObservedAt: ts(25, 12), Rank: 1, RankSort: 1},
			)
			report, err := engine.Merge(ctx)

			Convey("Then it is excluded from the enriched store but kept raw", func() {
				So(err, ShouldBeNil)
				So(report.Unresolved, ShouldEqual, 1)
				So(report.Appended, ShouldEqual, 1)

				_, err := s.EntryHistory(ctx, 1)
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)

				raw, err := s.SnapshotsAfter(ctx, time.Time{}, false)
				So(err, ShouldBeNil)
				So(len(raw), ShouldEqual, 2)
			})
		})

		Convey("When only unresolvable snapshots are new", func() {
			ingest(ctx, s, model.Snapshot{EntryID: 1, ObservedAt: ts(20, 12), Rank: 1, RankSort: 1})
			report, err := engine.Merge(ctx)

			Convey("Then nothing is appended and the watermark stays absent", func() {
				So(err, ShouldBeNil)
				So(report.NoNewData, ShouldBeFalse)
				So(report.Outcome, ShouldEqual, metrics.OutcomeSkipped)
				So(report.Unresolved, ShouldEqual, 1)
				So(report.Appended, ShouldEqual, 0)
				_, ok, err := s.Watermark(ctx)
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When captures arrive over several runs", func() {
			ingest(ctx, s, model.Snapshot{EntryID: 1, ObservedAt: ts(25, 10), Rank: 2, RankSort: 2})
			first, err := engine.Merge(ctx)
			So(err, ShouldBeNil)

			ingest(ctx, s, model.Snapshot{EntryID: 1, ObservedAt: ts(26, 10), Rank: 1, RankSort: 1, PreviousRank: intp(2)})
			second, err := engine.Merge(ctx)
			So(err, ShouldBeNil)

			ingest(ctx, s, model.Snapshot{EntryID: 1, ObservedAt: ts(30, 10), Rank: 1, RankSort: 1, PreviousRank: intp(1)})
			third, err := engine.Merge(ctx)
			So(err, ShouldBeNil)

			Convey("Then the watermark never moves backwards", func() {
				So(first.WatermarkBefore.IsZero(), ShouldBeTrue)
				So(second.WatermarkBefore, ShouldEqual, first.WatermarkAfter)
				So(second.WatermarkAfter.After(second.WatermarkBefore), ShouldBeTrue)
				So(third.WatermarkAfter.After(third.WatermarkBefore), ShouldBeTrue)
				So(third.WatermarkAfter, ShouldEqual, ts(30, 10))
			})

			Convey("And each run reads only newer snapshots", func() {
				So(first.Read, ShouldEqual, 1)
				So(second.Read, ShouldEqual, 1)
				So(third.Read, ShouldEqual, 1)
			})

			Convey("And readers see one row per entry per gameweek", func() {
				hist, err := s.EntryHistory(ctx, 1)
				So(err, ShouldBeNil)
				So(len(hist), ShouldEqual, 2)
				So(hist[0].Row.WindowLabel, ShouldEqual, "GW1")
				So(hist[0].Row.ObservedAt, ShouldEqual, ts(26, 10))
				So(hist[0].Row.RankChange, ShouldEqual, model.RankImproved)
				So(hist[1].Row.WindowLabel, ShouldEqual, "GW2")
				So(hist[1].Row.RankChange, ShouldEqual, model.RankNone)

				st, err := s.Stats(ctx)
				So(err, ShouldBeNil)
				So(st.EnrichedRows, ShouldEqual, 3)
				So(st.LatestRows, ShouldEqual, 2)
			})
		})

		Convey("When run ids are injected", func() {
			engine := app.NewEngine(s, gameweeks, s,
				app.WithRunIDs(func() string { return "run-42" }),
				app.WithClock(func() time.Time { return ts(31, 8) }),
				app.WithLogger(logger.Get().Named("test")),
			)
			ingest(ctx, s, model.Snapshot{EntryID: 3, ObservedAt: ts(25, 10), Rank: 1, RankSort: 1})
			report, err := engine.Merge(ctx)
			So(err, ShouldBeNil)

			Convey("Then the audit record carries them", func() {
				So(report.RunID, ShouldEqual, "run-42")
				last, err := s.LastRun(ctx)
				So(err, ShouldBeNil)
				So(last.ID, ShouldEqual, "run-42")
				So(last.StartedAt, ShouldEqual, ts(31, 8))
				So(last.Read, ShouldEqual, 1)
				So(last.Appended, ShouldEqual, 1)
			})
		})
	})
}

func TestMergeFailures(t *testing.T) {
	Convey("Given a store with one new snapshot", t, func() {
		ctx := context.Background()
		s := openStore(ctx)
		defer s.Close()
		ingest(ctx, s, model.Snapshot{EntryID: 1, ObservedAt: ts(25, 10), Rank: 1, RankSort: 1})
		store := &countingStore{EnrichedStore: s}

		Convey("When the raw source fails", func() {
			_, err := app.NewEngine(failingSnapshots{errors.New("disk gone")}, gameweeks, store).Merge(ctx)

			Convey("Then the source is reported unavailable and nothing is written", func() {
				So(errors.Is(err, app.ErrSourceUnavailable), ShouldBeTrue)
				So(store.appends, ShouldEqual, 0)
			})
		})

		Convey("When the boundary source fails", func() {
			_, err := app.NewEngine(s, failingBoundaries{errors.New("timeout")}, store).Merge(ctx)

			Convey("Then the source is reported unavailable and nothing is written", func() {
				So(errors.Is(err, app.ErrSourceUnavailable), ShouldBeTrue)
				So(store.appends, ShouldEqual, 0)
				_, ok, err := s.Watermark(ctx)
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When boundaries are not ascending", func() {
			bad := app.StaticBoundaries{gameweeks[1], gameweeks[0]}
			_, err := app.NewEngine(s, bad, store).Merge(ctx)

			Convey("Then the catalog error surfaces", func() {
				So(errors.Is(err, window.ErrInvalidBoundarySequence), ShouldBeTrue)
				So(store.appends, ShouldEqual, 0)
			})
		})

		Convey("When the append fails", func() {
			store.appendErr = errors.New("constraint failed")
			report, err := app.NewEngine(s, gameweeks, store).Merge(ctx)

			Convey("Then the run fails without moving the watermark", func() {
				So(err, ShouldNotBeNil)
				So(store.appends, ShouldEqual, 1)
				So(report.Appended, ShouldEqual, 0)
				So(report.Outcome, ShouldEqual, metrics.OutcomeFailed)
				So(report.WatermarkAfter.IsZero(), ShouldBeTrue)
				_, ok, err := s.Watermark(ctx)
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})

			Convey("And a later run picks the same snapshot up", func() {
				store.appendErr = nil
				report, err := app.NewEngine(s, gameweeks, store).Merge(ctx)
				So(err, ShouldBeNil)
				So(report.Appended, ShouldEqual, 1)
			})
		})
	})
}
