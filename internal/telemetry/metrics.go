// Package telemetry exposes Prometheus collectors for the ingestion service.
package telemetry

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ingestCyclesTotal          *prometheus.CounterVec
	documentsExtractedTotal    prometheus.Counter
	documentsPersistedTotal    prometheus.Counter
	fetchDurationSeconds       *prometheus.HistogramVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus collectors. Safe to call more than once.
func Init() {
	once.Do(func() {
		ingestCyclesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_cycles_total",
				Help: "Total number of ingestion cycles, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		documentsExtractedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "ingest_documents_extracted_total",
				Help: "Total number of raw documents extracted from listings.",
			},
		)

		documentsPersistedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "ingest_documents_persisted_total",
				Help: "Total number of new documents persisted.",
			},
		)

		fetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ingest_fetch_duration_seconds",
				Help:    "Histogram of page fetch latencies, labeled by mode.",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"mode"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler exposing the Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveCycle records a completed cycle with its outcome.
func ObserveCycle(outcome string) {
	if ingestCyclesTotal == nil {
		return
	}
	ingestCyclesTotal.WithLabelValues(outcome).Inc()
}

// ObserveExtracted records raw documents pulled from a listing.
func ObserveExtracted(count int) {
	if documentsExtractedTotal == nil || count <= 0 {
		return
	}
	documentsExtractedTotal.Add(float64(count))
}

// ObservePersisted records newly persisted documents.
func ObservePersisted(count int) {
	if documentsPersistedTotal == nil || count <= 0 {
		return
	}
	documentsPersistedTotal.Add(float64(count))
}

// ObserveFetch records one page fetch.
func ObserveFetch(mode string, duration time.Duration) {
	if fetchDurationSeconds == nil {
		return
	}
	fetchDurationSeconds.WithLabelValues(mode).Observe(duration.Seconds())
}

// ObserveHTTPRequest records one API request.
func ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
