// Package metrics backs the Runner API's "profile" option (§6) with
// Prometheus counters/histograms, grounded on the prometheus/client_golang
// usage in cuemby-warren and moby-moby (see SPEC_FULL.md DOMAIN STACK).
// Each Simulator owns a private registry so multiple simulators can coexist
// in one process (e.g. in tests) without colliding on the default registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is the profiling surface enabled by simulator.Options.Profile.
type Metrics struct {
	Registry      *prometheus.Registry
	EventsByCtx   *prometheus.CounterVec
	StepDuration  prometheus.Histogram
}

// New builds a Metrics bound to a fresh, private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		EventsByCtx: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gradysim",
			Name:      "events_processed_total",
			Help:      "Number of events dispatched by the event loop, by context tag.",
		}, []string{"context"}),
		StepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gradysim",
			Name:      "step_duration_seconds",
			Help:      "Wall-clock duration of Simulator.Step, in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.EventsByCtx, m.StepDuration)
	return m
}

// ObserveEvent records one dispatched event tagged with context.
func (m *Metrics) ObserveEvent(context string) {
	if m == nil {
		return
	}
	m.EventsByCtx.WithLabelValues(context).Inc()
}

// ObserveStep records how long a single step() call took.
func (m *Metrics) ObserveStep(d time.Duration) {
	if m == nil {
		return
	}
	m.StepDuration.Observe(d.Seconds())
}
