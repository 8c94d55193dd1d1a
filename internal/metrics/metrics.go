// Package metrics exposes Prometheus collectors describing the sentinel's
// own activity: decision cycles, sample statuses, restarts and
// notifications. Collectors live on a private registry so tests and
// embedders never collide with the global default registry.
//
// In serve mode the registry is scraped through the status API. One-shot
// cron runs can export it with WriteTextfile for node_exporter's textfile
// collector.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ceph_sentinel"

// Metrics holds the sentinel collectors. All methods are safe on a nil
// receiver so callers may run without metrics.
type Metrics struct {
	registry *prometheus.Registry

	cycles        *prometheus.CounterVec
	samples       *prometheus.CounterVec
	outcomes      *prometheus.CounterVec
	restarts      *prometheus.CounterVec
	notifications *prometheus.CounterVec
	zeroSamples   prometheus.Gauge
	idleCounter   prometheus.Gauge
	lastRun       prometheus.Gauge
	cycleDuration prometheus.Histogram
}

// New creates and registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Decision cycles completed, by decision.",
		}, []string{"decision"}),
		samples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_total",
			Help:      "Client I/O samples acquired, by status.",
		}, []string{"status"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Top-level sentinel runs, by final outcome.",
		}, []string{"outcome"}),
		restarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "osd_restarts_total",
			Help:      "OSD restart attempts, by result.",
		}, []string{"result"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Operator notifications, by result.",
		}, []string{"result"}),
		zeroSamples: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "window_zero_samples",
			Help:      "Zero-I/O samples in the most recent window.",
		}),
		idleCounter: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "no_client_io_count",
			Help:      "Persisted consecutive ambiguous-idle window counter.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last sentinel run finished.",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of one sampling and decision cycle.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}),
	}

	m.registry.MustRegister(
		m.cycles, m.samples, m.outcomes, m.restarts, m.notifications,
		m.zeroSamples, m.idleCounter, m.lastRun, m.cycleDuration,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler returns an HTTP handler serving the registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveSample counts one sample by status name.
func (m *Metrics) ObserveSample(status string) {
	if m == nil {
		return
	}
	m.samples.WithLabelValues(status).Inc()
}

// ObserveCycle records a completed decision cycle.
func (m *Metrics) ObserveCycle(decision string, zeroCount int, seconds float64) {
	if m == nil {
		return
	}
	m.cycles.WithLabelValues(decision).Inc()
	m.zeroSamples.Set(float64(zeroCount))
	m.cycleDuration.Observe(seconds)
}

// SetIdleCounter publishes the persisted idle counter after it was read or
// written.
func (m *Metrics) SetIdleCounter(n int) {
	if m == nil {
		return
	}
	m.idleCounter.Set(float64(n))
}

// ObserveOutcome records the final outcome of a run and its finish time.
func (m *Metrics) ObserveOutcome(outcome string, finishedUnix float64) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(outcome).Inc()
	m.lastRun.Set(finishedUnix)
}

// ObserveRestart counts a restart attempt.
func (m *Metrics) ObserveRestart(ok bool) {
	if m == nil {
		return
	}
	m.restarts.WithLabelValues(result(ok)).Inc()
}

// ObserveNotification counts a notification attempt.
func (m *Metrics) ObserveNotification(ok bool) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(result(ok)).Inc()
}

// WriteTextfile writes the registry in the text exposition format to path,
// atomically, for node_exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile %s: %w", path, err)
	}
	return nil
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
