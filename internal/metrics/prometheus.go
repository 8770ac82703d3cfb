// Package metrics exposes Prometheus metrics for refreshes and the query API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Refresh outcomes.
const (
	OutcomeSuccess     = "success"
	OutcomeUnavailable = "source_unavailable"
	OutcomeInvalid     = "invalid_exchange_data"
	OutcomePersistence = "persistence_error"
	OutcomeError       = "error"
)

// Metrics holds all service metrics on a private registry.
type Metrics struct {
	RefreshesTotal    *prometheus.CounterVec
	RefreshDuration   prometheus.Histogram
	RowsWritten       *prometheus.CounterVec
	SourceFetch       *prometheus.HistogramVec
	SummaryFailures   prometheus.Counter
	CountriesStored   prometheus.Gauge
	LastRefreshUnix   prometheus.Gauge
	HTTPRequestsTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers every metric.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.RefreshesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "countryrates",
			Name:      "refreshes_total",
			Help:      "Refresh runs by outcome",
		},
		[]string{"outcome"},
	)
	m.RefreshDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "countryrates",
			Name:      "refresh_duration_seconds",
			Help:      "Wall time of refresh runs, fetches included",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
	)
	m.RowsWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "countryrates",
			Name:      "rows_written_total",
			Help:      "Country rows committed by refreshes",
		},
		[]string{"op"},
	)
	m.SourceFetch = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "countryrates",
			Name:      "source_fetch_duration_seconds",
			Help:      "Latency of external source fetches",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"source", "status"},
	)
	m.SummaryFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "countryrates",
			Name:      "summary_failures_total",
			Help:      "Summary image generations that failed",
		},
	)
	m.CountriesStored = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "countryrates",
			Name:      "countries_stored",
			Help:      "Countries stored after the last refresh",
		},
	)
	m.LastRefreshUnix = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "countryrates",
			Name:      "last_refresh_timestamp_seconds",
			Help:      "Timestamp of the last committed refresh",
		},
	)
	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "countryrates",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code",
		},
		[]string{"method", "route", "code"},
	)

	m.registry.MustRegister(
		m.RefreshesTotal,
		m.RefreshDuration,
		m.RowsWritten,
		m.SourceFetch,
		m.SummaryFailures,
		m.CountriesStored,
		m.LastRefreshUnix,
		m.HTTPRequestsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// ObserveFetch records one source fetch.
func (m *Metrics) ObserveFetch(source string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.SourceFetch.WithLabelValues(source, status).Observe(time.Since(start).Seconds())
}

// ObserveRefresh records a finished refresh run.
func (m *Metrics) ObserveRefresh(outcome string, start time.Time) {
	m.RefreshesTotal.WithLabelValues(outcome).Inc()
	m.RefreshDuration.Observe(time.Since(start).Seconds())
}

// ObserveCommit records what a committed refresh wrote.
func (m *Metrics) ObserveCommit(inserted, updated, total int, refreshedAt time.Time) {
	m.RowsWritten.WithLabelValues("insert").Add(float64(inserted))
	m.RowsWritten.WithLabelValues("update").Add(float64(updated))
	m.CountriesStored.Set(float64(total))
	m.LastRefreshUnix.Set(float64(refreshedAt.Unix()))
}

// Registry exposes the registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
