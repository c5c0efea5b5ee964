package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should use the draftboard namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "draftboard")
				So(manager.subsystem, ShouldEqual, "standings")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("merge"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithConstLabels(map[string]string{"league": "49439"}),
				WithPrometheusRegistry(registry),
			)
			manager.mergeRuns.WithLabelValues(OutcomeAppended).Inc()

			Convey("Then metrics should carry the options", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				var found bool
				for _, mf := range families {
					if mf.GetName() != "test_merge_merge_runs_total" {
						continue
					}
					found = true
					labels := mf.GetMetric()[0].GetLabel()
					names := make([]string, 0, len(labels))
					for _, l := range labels {
						names = append(names, l.GetName())
					}
					So(names, ShouldContain, "league")
					So(names, ShouldContain, "outcome")
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When empty options are given", func() {
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "draftboard")
				So(manager.subsystem, ShouldEqual, "standings")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When a merge run is recorded", func() {
			before := testutil.ToFloat64(globalManager.mergeRuns.WithLabelValues(OutcomeNoNewData))
			RecordMergeRun(OutcomeNoNewData, 20*time.Millisecond)

			Convey("Then the outcome counter increases", func() {
				after := testutil.ToFloat64(globalManager.mergeRuns.WithLabelValues(OutcomeNoNewData))
				So(after-before, ShouldEqual, 1)
			})
		})

		Convey("When a merge run that appended nothing is recorded", func() {
			skipped := testutil.ToFloat64(globalManager.mergeRuns.WithLabelValues(OutcomeSkipped))
			appended := testutil.ToFloat64(globalManager.mergeRuns.WithLabelValues(OutcomeAppended))
			RecordMergeRun(OutcomeSkipped, 5*time.Millisecond)

			Convey("Then it is counted apart from appended runs", func() {
				So(testutil.ToFloat64(globalManager.mergeRuns.WithLabelValues(OutcomeSkipped))-skipped, ShouldEqual, 1)
				So(testutil.ToFloat64(globalManager.mergeRuns.WithLabelValues(OutcomeAppended)), ShouldEqual, appended)
			})
		})

		Convey("When merge rows are recorded", func() {
			before := testutil.ToFloat64(globalManager.mergeRows.WithLabelValues(StageSuperseded))
			RecordMergeRows(StageSuperseded, 3)
			RecordMergeRows(StageSuperseded, 0)
			RecordMergeRows(StageSuperseded, -1)

			Convey("Then only positive counts are added", func() {
				after := testutil.ToFloat64(globalManager.mergeRows.WithLabelValues(StageSuperseded))
				So(after-before, ShouldEqual, 3)
			})
		})

		Convey("When the watermark is updated", func() {
			ts := time.Date(2025, 8, 25, 12, 0, 0, 0, time.UTC)
			UpdateWatermark(ts)

			Convey("Then the gauge holds unix seconds", func() {
				So(testutil.ToFloat64(globalManager.mergeWatermark), ShouldEqual, float64(ts.Unix()))
			})

			Convey("And a zero time clears it", func() {
				UpdateWatermark(time.Time{})
				So(testutil.ToFloat64(globalManager.mergeWatermark), ShouldEqual, 0)
			})
		})

		Convey("When upstream and ingest activity is recorded", func() {
			before := testutil.ToFloat64(globalManager.upstreamRequests.WithLabelValues("details", "ok"))
			RecordUpstreamRequest("details", "ok", 150*time.Millisecond)
			RecordSnapshotsIngested(12)
			RecordEntriesUpserted(12)

			Convey("Then the counters move", func() {
				after := testutil.ToFloat64(globalManager.upstreamRequests.WithLabelValues("details", "ok"))
				So(after-before, ShouldEqual, 1)
				So(testutil.ToFloat64(globalManager.snapshotsIngested), ShouldBeGreaterThanOrEqualTo, 12)
			})
		})

		Convey("When HTTP, store and error metrics are recorded", func() {
			So(func() {
				RecordHTTPRequest("/standings", "GET", "200")
				RecordHTTPRequestDuration("/standings", "GET", "200", 5.0)
				RecordStoreQuery("append_enriched", 3*time.Millisecond)
				RecordError("merge", "source_unavailable")
			}, ShouldNotPanic)
			So(testutil.ToFloat64(globalManager.errors.WithLabelValues("merge", "source_unavailable")), ShouldBeGreaterThanOrEqualTo, 1)
		})

		Convey("When the registry is requested", func() {
			Convey("Then it is the shared custom registry", func() {
				So(GetRegistry(), ShouldEqual, customRegistry)
			})
		})
	})
}

func TestPush(t *testing.T) {
	Convey("Given a pushgateway", t, func() {
		var (
			mu     sync.Mutex
			method string
			path   string
		)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			method, path = r.Method, r.URL.Path
			mu.Unlock()
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		Convey("When pushing the registry", func() {
			RecordMergeRun(OutcomeAppended, time.Second)
			err := Push(context.Background(), srv.URL, "draftboard_merge")

			Convey("Then the job is replaced with PUT", func() {
				So(err, ShouldBeNil)
				mu.Lock()
				defer mu.Unlock()
				So(method, ShouldEqual, http.MethodPut)
				So(path, ShouldEqual, "/metrics/job/draftboard_merge")
			})
		})

		Convey("When no url is configured", func() {
			Convey("Then push is a no-op", func() {
				So(Push(context.Background(), "", "draftboard_merge"), ShouldBeNil)
			})
		})
	})

	Convey("Given a failing pushgateway", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		err := Push(context.Background(), srv.URL, "draftboard_merge")

		So(errors.Is(err, ErrPushFailed), ShouldBeTrue)
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent metric recording", t, func() {
		before := testutil.ToFloat64(globalManager.mergeRows.WithLabelValues(StageRead))
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					RecordMergeRows(StageRead, 1)
				}
			}()
		}
		wg.Wait()

		So(testutil.ToFloat64(globalManager.mergeRows.WithLabelValues(StageRead))-before, ShouldEqual, 1000)
	})
}
