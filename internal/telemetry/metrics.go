// Package telemetry exposes screener counters and histograms for Prometheus.
// All methods are safe on a nil *Metrics so callers can run without metrics.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Cache lookup results
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Fetch attempt outcomes
const (
	FetchSuccess     = "success"
	FetchRetry       = "retry"
	FetchUnavailable = "unavailable"
)

// Metrics holds the screener's collectors on a private registry
// ⭐ SSOT: 메트릭 정의는 여기서만
type Metrics struct {
	registry *prometheus.Registry

	cacheLookups   *prometheus.CounterVec
	cacheWrites    *prometheus.CounterVec
	fetchAttempts  *prometheus.CounterVec
	outcomes       *prometheus.CounterVec
	batchDuration  prometheus.Histogram
	tickerDuration prometheus.Histogram

	requestDuration *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "canslim_cache_lookups_total",
			Help: "Result cache lookups by result (hit, miss, error)",
		}, []string{"result"}),
		cacheWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "canslim_cache_writes_total",
			Help: "Result cache writes by result (ok, error)",
		}, []string{"result"}),
		fetchAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "canslim_fetch_attempts_total",
			Help: "Provider calls by operation and outcome",
		}, []string{"op", "outcome"}),
		outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "canslim_screen_outcomes_total",
			Help: "Screened tickers by status",
		}, []string{"status", "from_cache"}),
		batchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "canslim_batch_duration_seconds",
			Help:    "ScreenBatch wall time",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}),
		tickerDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "canslim_ticker_duration_seconds",
			Help:    "Per-ticker screen time including fetch and backoff",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10, 30},
		}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name: "canslim_http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		}, []string{"method", "route", "status"}),
	}
}

// CacheLookup counts one Get
func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// CacheWrite counts one Put
func (m *Metrics) CacheWrite(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.cacheWrites.WithLabelValues(result).Inc()
}

// FetchAttempt counts one provider call result
func (m *Metrics) FetchAttempt(op, outcome string) {
	if m == nil {
		return
	}
	m.fetchAttempts.WithLabelValues(op, outcome).Inc()
}

// Outcome counts one screened ticker
func (m *Metrics) Outcome(status string, fromCache bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(status, strconv.FormatBool(fromCache)).Inc()
	m.tickerDuration.Observe(elapsed.Seconds())
}

// Batch records one ScreenBatch duration
func (m *Metrics) Batch(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.batchDuration.Observe(elapsed.Seconds())
}

// Request records one HTTP request
func (m *Metrics) Request(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
