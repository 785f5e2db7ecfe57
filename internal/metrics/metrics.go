// Package metrics provides Prometheus instrumentation for the report server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/wizreport/internal/core"
)

// Metrics holds the collectors of one registry. Each server gets its own
// registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	// Runs counts pipeline runs by kind (upload, query) and outcome.
	Runs *prometheus.CounterVec

	// StageLatency tracks per-stage pipeline latency.
	StageLatency *prometheus.HistogramVec

	// RowsMatched tracks how many rows survive filtering per run.
	RowsMatched prometheus.Histogram

	// InputBytes counts CSV bytes parsed by successful runs.
	InputBytes prometheus.Counter

	// HighlightsDisabled counts highlight rules disabled by a bad value,
	// column, or color.
	HighlightsDisabled prometheus.Counter

	// Requests counts HTTP requests by route and status.
	Requests *prometheus.CounterVec

	// RequestLatency tracks HTTP latency by route.
	RequestLatency *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry. sessions and activeRuns
// are sampled at scrape time; either may be nil.
func New(sessions, activeRuns func() int) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wizreport_runs_total",
			Help: "Total number of pipeline runs by kind and outcome",
		}, []string{"kind", "outcome"}),
		StageLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wizreport_stage_duration_seconds",
			Help:    "Latency of pipeline stages in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		}, []string{"stage"}),
		RowsMatched: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "wizreport_rows_matched",
			Help:    "Rows left after filtering per run",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),
		InputBytes: f.NewCounter(prometheus.CounterOpts{
			Name: "wizreport_input_bytes_total",
			Help: "CSV bytes parsed by successful pipeline runs",
		}),
		HighlightsDisabled: f.NewCounter(prometheus.CounterOpts{
			Name: "wizreport_highlights_disabled_total",
			Help: "Highlight rules disabled during evaluation",
		}),
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wizreport_http_requests_total",
			Help: "HTTP requests by route and status code",
		}, []string{"route", "status"}),
		RequestLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wizreport_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	if sessions != nil {
		f.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "wizreport_sessions_open",
			Help: "Number of open report sessions",
		}, func() float64 { return float64(sessions()) })
	}
	if activeRuns != nil {
		f.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "wizreport_runs_active",
			Help: "Number of pipeline runs holding a slot",
		}, func() float64 { return float64(activeRuns()) })
	}
	return m
}

// ObserveStage records one stage duration. It satisfies core.StageObserver.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	m.StageLatency.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveRun records the outcome of one run.
func (m *Metrics) ObserveRun(kind string, res *core.Result, err error) {
	if err != nil {
		m.Runs.WithLabelValues(kind, "error").Inc()
		return
	}
	m.Runs.WithLabelValues(kind, "ok").Inc()
	m.RowsMatched.Observe(float64(res.MatchedRows()))
	m.InputBytes.Add(float64(res.InputBytes))
	for _, h := range res.Highlights {
		if !h.Active() {
			m.HighlightsDisabled.Inc()
		}
	}
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(route string, status int, d time.Duration) {
	m.Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.RequestLatency.WithLabelValues(route).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
