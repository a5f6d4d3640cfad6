// Package metrics exposes run progress as Prometheus metrics.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vk/exrun/internal/executor"
)

// Metrics records block outcomes. It implements executor.Observer and owns
// its registry, so several runs in one process do not collide.
type Metrics struct {
	reg *prometheus.Registry

	// blocksTotal counts finished blocks by status
	blocksTotal *prometheus.CounterVec
	// blockDuration tracks process run time by status
	blockDuration *prometheus.HistogramVec
	// warningsTotal counts pre-flight warnings across blocks
	warningsTotal prometheus.Counter
	// runsTotal counts finished runs by result
	runsTotal *prometheus.CounterVec
	// lastRunFailed is the number of failed blocks in the last run
	lastRunFailed prometheus.Gauge
	// lastRunTimestamp is when the last run finished
	lastRunTimestamp prometheus.Gauge
}

// New registers every metric on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		reg: reg,
		blocksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "exrun_blocks_total",
			Help: "Finished command blocks by status",
		}, []string{"status"}),
		blockDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "exrun_block_duration_seconds",
			Help:    "Command block run time in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 9), // 10ms to ~11min
		}, []string{"status"}),
		warningsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "exrun_block_warnings_total",
			Help: "Pre-flight warnings such as missing inputs",
		}),
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "exrun_runs_total",
			Help: "Finished runs by result",
		}, []string{"result"}),
		lastRunFailed: factory.NewGauge(prometheus.GaugeOpts{
			Name: "exrun_last_run_failed_blocks",
			Help: "Failed blocks in the most recent run",
		}),
		lastRunTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "exrun_last_run_timestamp_seconds",
			Help: "Unix time the most recent run finished",
		}),
	}
}

// Registry returns the registry holding every metric.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// BlockFinished implements executor.Observer.
func (m *Metrics) BlockFinished(_ context.Context, o *executor.Outcome) {
	status := string(o.Status)
	m.blocksTotal.WithLabelValues(status).Inc()
	if o.Status != executor.StatusSkipped {
		m.blockDuration.WithLabelValues(status).Observe(o.Duration.Seconds())
	}
	m.warningsTotal.Add(float64(len(o.Warnings)))
}

// RunFinished implements executor.Observer.
func (m *Metrics) RunFinished(_ context.Context, s *executor.Summary) {
	result := "success"
	if !s.OK() {
		result = "failure"
	}
	m.runsTotal.WithLabelValues(result).Inc()
	m.lastRunFailed.Set(float64(len(s.Failed())))
	m.lastRunTimestamp.Set(float64(s.Finished.Unix()))
}
