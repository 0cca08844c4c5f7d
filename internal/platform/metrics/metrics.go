// Package metrics exposes Prometheus counters for the profiler surfaces
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and histograms for parse and API work.
type Metrics struct {
	registry         *prometheus.Registry
	requestsTotal    prometheus.Counter
	errorsTotal      prometheus.Counter
	runsParsedTotal  prometheus.Counter
	parseFailedTotal prometheus.Counter
	linesParsedTotal prometheus.Counter
	parseSeconds     prometheus.Histogram
}

// New creates and registers the profiler metrics on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "printprof_requests_total",
		Help: "Total number of HTTP requests received",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "printprof_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})
	runsParsedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "printprof_runs_parsed_total",
		Help: "Total number of gcode runs parsed successfully",
	})
	parseFailedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "printprof_parse_failed_total",
		Help: "Total number of gcode runs that failed to parse",
	})
	linesParsedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "printprof_lines_parsed_total",
		Help: "Total number of gcode lines consumed by the parser",
	})
	parseSeconds := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "printprof_parse_seconds",
		Help:    "Wall time spent parsing one gcode run",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	registry.MustRegister(
		requestsTotal,
		errorsTotal,
		runsParsedTotal,
		parseFailedTotal,
		linesParsedTotal,
		parseSeconds,
	)

	return &Metrics{
		registry:         registry,
		requestsTotal:    requestsTotal,
		errorsTotal:      errorsTotal,
		runsParsedTotal:  runsParsedTotal,
		parseFailedTotal: parseFailedTotal,
		linesParsedTotal: linesParsedTotal,
		parseSeconds:     parseSeconds,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// RunParsed records one successful parse with its line count and duration.
func (m *Metrics) RunParsed(lines int, took time.Duration) {
	m.runsParsedTotal.Inc()
	m.linesParsedTotal.Add(float64(lines))
	m.parseSeconds.Observe(took.Seconds())
}

// ParseFailed increments the failed parse counter.
func (m *Metrics) ParseFailed() {
	m.parseFailedTotal.Inc()
}

// Handler returns an http.Handler that serves Prometheus metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
