// Package metrics defines the Prometheus metric collectors used across the
// search engine and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the engine.
type Metrics struct {
	PagesCrawledTotal    prometheus.Counter
	PagesSkippedTotal    *prometheus.CounterVec
	CrawlErrorsTotal     prometheus.Counter
	FetchDuration        prometheus.Histogram
	FrontierSize         prometheus.Gauge
	PagesIndexedTotal    prometheus.Counter
	IndexUniqueTerms     prometheus.Gauge
	SearchQueriesTotal   *prometheus.CounterVec
	SearchLatency        prometheus.Histogram
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		PagesCrawledTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pages_crawled_total",
				Help: "Total pages fetched and persisted.",
			},
		),
		PagesSkippedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pages_skipped_total",
				Help: "Total pages skipped by reason (disallowed, duplicate).",
			},
			[]string{"reason"},
		),
		CrawlErrorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "crawl_errors_total",
				Help: "Total per-page fetch or parse failures.",
			},
		),
		FetchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fetch_duration_seconds",
				Help:    "Page fetch latency in seconds.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		FrontierSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "frontier_size",
				Help: "URLs currently queued in the frontier.",
			},
		),
		PagesIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pages_indexed_total",
				Help: "Total pages run through the indexer.",
			},
		),
		IndexUniqueTerms: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "index_unique_terms",
				Help: "Unique terms held by the in-memory index.",
			},
		),
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "search_queries_total",
				Help: "Total search queries by result type (hit, zero_result, empty_query, error).",
			},
			[]string{"result_type"},
		),
		SearchLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "search_latency_seconds",
				Help:    "Search query latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
	}

	prometheus.MustRegister(
		m.PagesCrawledTotal,
		m.PagesSkippedTotal,
		m.CrawlErrorsTotal,
		m.FetchDuration,
		m.FrontierSize,
		m.PagesIndexedTotal,
		m.IndexUniqueTerms,
		m.SearchQueriesTotal,
		m.SearchLatency,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
