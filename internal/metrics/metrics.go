// Package metrics exposes Prometheus collectors for the search service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Searches counts completed resilient searches by side and outcome.
	Searches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nami_searches_total",
			Help: "Total resilient searches, labeled by side and outcome.",
		},
		[]string{"side", "outcome"},
	)

	// FetchAttempts counts individual upstream fetch attempts, retries
	// included.
	FetchAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nami_fetch_attempts_total",
			Help: "Total upstream fetch attempts including retries.",
		},
	)

	// FetchFailures counts failed fetch attempts by upstream status code
	// (0 for transport errors).
	FetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nami_fetch_failures_total",
			Help: "Total failed fetch attempts, labeled by status code.",
		},
		[]string{"status"},
	)

	// CacheLookups counts result cache lookups by outcome (hit or miss).
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nami_cache_lookups_total",
			Help: "Total result cache lookups, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	// HTTPRequestDuration observes inbound request latencies.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nami_http_request_duration_seconds",
			Help:    "Histogram of inbound HTTP request latencies, labeled by method and route.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"method", "route"},
	)
)
