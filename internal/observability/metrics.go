package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// refresh pipeline, the source clients, and the serving API.
type Metrics struct {
	RefreshRuns     *prometheus.CounterVec // labels: outcome={success,error}
	RefreshDuration prometheus.Histogram
	RefreshRunning  prometheus.Gauge
	RowsUpserted    *prometheus.CounterVec // labels: table

	// Source client metrics.
	SourceRequests      *prometheus.CounterVec   // labels: source, outcome={success,error}
	SourceFetchDuration *prometheus.HistogramVec // labels: source

	// Serving metrics.
	ComputeDuration *prometheus.HistogramVec // labels: series
	CacheLookups    *prometheus.CounterVec   // labels: result={hit,miss}
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RefreshRuns,
		m.RefreshDuration,
		m.RefreshRunning,
		m.RowsUpserted,
		m.SourceRequests,
		m.SourceFetchDuration,
		m.ComputeDuration,
		m.CacheLookups,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RefreshRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "transit_metrics",
			Name:      "refresh_runs_total",
			Help:      "Refresh pipeline runs by outcome.",
		}, []string{"outcome"}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "transit_metrics",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a complete fetch-clean-upsert refresh cycle.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		RefreshRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "transit_metrics",
			Name:      "refresh_running",
			Help:      "1 while a refresh cycle is in progress.",
		}),
		RowsUpserted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "transit_metrics",
			Name:      "rows_upserted_total",
			Help:      "Rows written to the store by table.",
		}, []string{"table"}),
		SourceRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "transit_metrics",
			Name:      "source_requests_total",
			Help:      "Upstream API requests by source and outcome.",
		}, []string{"source", "outcome"}),
		SourceFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "transit_metrics",
			Name:      "source_fetch_duration_seconds",
			Help:      "Duration of a complete fetch from an upstream source.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"source"}),
		ComputeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "transit_metrics",
			Name:      "compute_duration_seconds",
			Help:      "Duration of a derived-series computation.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}, []string{"series"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "transit_metrics",
			Name:      "cache_lookups_total",
			Help:      "Derived-series response cache lookups by result.",
		}, []string{"result"}),
	}
}
