package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created with the default namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "userstats")
				So(manager.enabled, ShouldBeTrue)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithSizeBuckets([]float64{10, 100}),
				WithMetricsEnabled(false),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options should be applied", func() {
				So(manager.namespace, ShouldEqual, "test_namespace")
				So(manager.subsystem, ShouldEqual, "test_subsystem")
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
				So(manager.sizeBuckets, ShouldResemble, []float64{10, 100})
				So(manager.enabled, ShouldBeFalse)
				So(manager.constLabels["env"], ShouldEqual, "test")
			})

			Convey("And metrics should be registered under the custom names", func() {
				manager.namesCounted.Add(2)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_namespace_test_subsystem_names_counted_total" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When empty options are given", func() {
			manager := NewManager(
				WithNamespace(""),
				WithHistogramBuckets(nil),
				WithPrometheusRegistry(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "userstats")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics", t, func() {
		Convey("When recording decode metrics", func() {
			before := testutil.ToFloat64(globalManager.recordsDecoded)
			RecordRecordsDecoded(3)
			RecordDecodeError("not_array")

			Convey("Then counters should move", func() {
				So(testutil.ToFloat64(globalManager.recordsDecoded), ShouldEqual, before+3)
				So(testutil.ToFloat64(globalManager.decodeErrors.WithLabelValues("not_array")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When recording report metrics", func() {
			before := testutil.ToFloat64(globalManager.recordsSkipped.WithLabelValues("top_countries", "invalid_score"))
			RecordRecordSkipped("top_countries", "invalid_score")
			RecordNamesCounted(4)
			RecordReport("count_names", "ok")
			RecordReportLatency("count_names", 1.5)

			Convey("Then the labelled counters should move", func() {
				So(testutil.ToFloat64(globalManager.recordsSkipped.WithLabelValues("top_countries", "invalid_score")), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.reportsServed.WithLabelValues("count_names", "ok")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When recording store and upload metrics", func() {
			UpdateNameStoreSize(42)
			RecordStoreUpdateLatency(0.2)
			RecordStoreQueryLatency(0.3)
			RecordUploadBytes(1024)
			RecordUploadSaved()
			RecordUploadRejected("extension")

			Convey("Then gauges hold the last value", func() {
				So(testutil.ToFloat64(globalManager.nameStoreSize), ShouldEqual, 42)
				So(testutil.ToFloat64(globalManager.uploadRejected.WithLabelValues("extension")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When recording HTTP and system metrics", func() {
			Convey("Then it should not panic", func() {
				So(func() {
					RecordHTTPRequest("users", "POST", "200")
					RecordHTTPRequestDuration("users", "POST", "200", 12)
					RecordErrorByEndpoint("users", "POST", "client_error")
					UpdateSystemMemoryUsage(1 << 20)
					UpdateSystemGoroutineCount(10)
					RecordSystemGCPauseTime(0.5)
				}, ShouldNotPanic)
			})
		})

		Convey("When reading the registry", func() {
			Convey("Then it should be the custom registry", func() {
				So(GetRegistry(), ShouldEqual, customRegistry)
			})
		})
	})
}
