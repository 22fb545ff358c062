package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for MarketLens.
// All methods are safe on a nil receiver so callers can run without metrics.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec   // labels: route, code
	RequestDuration *prometheus.HistogramVec // labels: route
	FetchDuration   *prometheus.HistogramVec // labels: source, kind
	FetchErrors     *prometheus.CounterVec   // labels: source, kind
	ComputeDuration prometheus.Histogram
	AdviceTotal     *prometheus.CounterVec // labels: action
	ScanRuns        prometheus.Counter
	ActionChanges   prometheus.Counter
}

// New registers and returns all metrics on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketlens_http_requests_total",
			Help: "HTTP requests served, by route and status code",
		}, []string{"route", "code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "marketlens_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "marketlens_fetch_duration_seconds",
			Help:    "Upstream market data fetch latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"source", "kind"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketlens_fetch_errors_total",
			Help: "Upstream market data fetch failures",
		}, []string{"source", "kind"}),
		ComputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "marketlens_indicator_compute_duration_seconds",
			Help:    "Time to compute the full indicator set for one series",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}),
		AdviceTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketlens_advice_total",
			Help: "Recommendations produced, by action",
		}, []string{"action"}),
		ScanRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketlens_watchlist_scans_total",
			Help: "Completed watchlist scans",
		}),
		ActionChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketlens_action_changes_total",
			Help: "Watchlist symbols whose recommendation changed between scans",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestsTotal,
		m.RequestDuration,
		m.FetchDuration,
		m.FetchErrors,
		m.ComputeDuration,
		m.AdviceTotal,
		m.ScanRuns,
		m.ActionChanges,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveRequest(route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) ObserveFetch(source, kind string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.FetchDuration.WithLabelValues(source, kind).Observe(d.Seconds())
	if err != nil {
		m.FetchErrors.WithLabelValues(source, kind).Inc()
	}
}

func (m *Metrics) ObserveCompute(d time.Duration) {
	if m == nil {
		return
	}
	m.ComputeDuration.Observe(d.Seconds())
}

func (m *Metrics) CountAdvice(action string) {
	if m == nil {
		return
	}
	m.AdviceTotal.WithLabelValues(action).Inc()
}

func (m *Metrics) CountScan(changes int) {
	if m == nil {
		return
	}
	m.ScanRuns.Inc()
	m.ActionChanges.Add(float64(changes))
}
