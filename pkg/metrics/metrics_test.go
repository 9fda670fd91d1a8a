package metrics

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

// counterValue sums every series of the named family in reg.
func counterValue(reg *prometheus.Registry, name string) float64 {
	families, err := reg.Gather()
	if err != nil {
		return -1
	}
	total := 0.0
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				total += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				total += m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				total += float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return total
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then the collectors are registered under the default names", func() {
				So(manager, ShouldNotBeNil)
				manager.rendersTotal.WithLabelValues("pistol_25m_rf", "ok").Inc()
				So(counterValue(registry, "bullseye_render_renders_total"), ShouldEqual, 1)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("frames"),
				WithHistogramBuckets([]float64{1, 2}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then names and buckets follow the options", func() {
				manager.cacheHits.Inc()
				So(counterValue(registry, "test_frames_cache_hits_total"), ShouldEqual, 1)
				So(manager.histogramBuckets, ShouldResemble, []float64{1, 2})
			})
		})

		Convey("When options carry empty values", func() {
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithPrometheusRegistry(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then the defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "bullseye")
				So(manager.subsystem, ShouldEqual, "render")
				So(manager.histogramBuckets, ShouldNotBeEmpty)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		reg := GetRegistry()

		Convey("When a render is recorded", func() {
			before := counterValue(reg, "bullseye_render_renders_total")
			beforeLatency := counterValue(reg, "bullseye_render_render_latency_milliseconds")
			RecordRender("air_rifle_10m", "ok", 3.2)
			RecordShotsDrawn(4)

			Convey("Then the counter and histogram advance", func() {
				So(counterValue(reg, "bullseye_render_renders_total"), ShouldEqual, before+1)
				So(counterValue(reg, "bullseye_render_render_latency_milliseconds"), ShouldEqual, beforeLatency+1)
			})
		})

		Convey("When cache outcomes are recorded", func() {
			hits := counterValue(reg, "bullseye_render_cache_hits_total")
			misses := counterValue(reg, "bullseye_render_cache_misses_total")
			RecordCacheHit()
			RecordCacheMiss()
			RecordCacheMiss()

			Convey("Then both counters advance", func() {
				So(counterValue(reg, "bullseye_render_cache_hits_total"), ShouldEqual, hits+1)
				So(counterValue(reg, "bullseye_render_cache_misses_total"), ShouldEqual, misses+2)
			})
		})

		Convey("When queue gauges are set", func() {
			UpdateQueueCapacity(64)
			UpdateQueueSize(16)
			UpdateQueueUtilization(0.25)

			Convey("Then the gauges hold the last value", func() {
				So(counterValue(reg, "bullseye_render_queue_capacity"), ShouldEqual, 64)
				So(counterValue(reg, "bullseye_render_queue_size"), ShouldEqual, 16)
				So(counterValue(reg, "bullseye_render_queue_utilization_ratio"), ShouldEqual, 0.25)
			})
		})

		Convey("When the remaining recorders are called", func() {
			So(func() {
				RecordReport("ok", 5)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordQueueProcessingLatency(0.02)
				UpdateWorkerCount(4)
				AddWorkerActive(1)
				AddWorkerActive(-1)
				RecordWorkerProcessingLatency(12)
				RecordWorkerError()
				RecordHTTPRequest("/render", "POST", "200")
				RecordHTTPRequestDuration("/render", "POST", "200", 8)
				RecordErrorByComponent("queue", "full")
				RecordErrorByEndpoint("/render", "POST", "bad_request")
				SampleRuntime()
			}, ShouldNotPanic)

			Convey("Then the runtime gauges are populated", func() {
				So(counterValue(reg, "bullseye_render_system_goroutine_count"), ShouldBeGreaterThan, 0)
				So(counterValue(reg, "bullseye_render_worker_active_count"), ShouldEqual, 0)
			})
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent recorders", t, func() {
		reg := GetRegistry()
		before := counterValue(reg, "bullseye_render_shots_drawn_total")

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					RecordShotsDrawn(1)
				}
			}()
		}
		wg.Wait()

		Convey("Then no increment is lost", func() {
			So(counterValue(reg, "bullseye_render_shots_drawn_total"), ShouldEqual, before+1000)
		})
	})
}
