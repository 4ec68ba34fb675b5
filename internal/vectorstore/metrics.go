// Package vectorstore provides Prometheus metrics for index monitoring.
package vectorstore

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SearchesTotal counts similarity searches by provider and result.
	// Labels: provider (chromem, qdrant), result (success, error)
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scoutd",
			Subsystem: "vectorstore",
			Name:      "searches_total",
			Help:      "Total number of similarity searches",
		},
		[]string{"provider", "result"},
	)

	// SearchDuration tracks similarity search latency per provider.
	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "scoutd",
			Subsystem: "vectorstore",
			Name:      "search_duration_seconds",
			Help:      "Duration of similarity searches in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	// DocumentsAddedTotal counts documents written to the index.
	DocumentsAddedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scoutd",
			Subsystem: "vectorstore",
			Name:      "documents_added_total",
			Help:      "Total number of documents added to the index",
		},
		[]string{"provider"},
	)

	// RetriesTotal counts retried backend operations.
	// Labels: operation (upsert, search, create_collection, ...)
	RetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scoutd",
			Subsystem: "vectorstore",
			Name:      "retries_total",
			Help:      "Total number of retried backend operations",
		},
		[]string{"operation"},
	)

	// CircuitBreakerOpen indicates whether the backend circuit breaker is
	// open (1) or closed (0).
	CircuitBreakerOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "scoutd",
			Subsystem: "vectorstore",
			Name:      "circuit_breaker_open",
			Help:      "Whether the backend circuit breaker is open (1) or closed (0)",
		},
	)

	// HealthStatus indicates current backend health (1=healthy, 0=degraded).
	HealthStatus = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "scoutd",
			Subsystem: "vectorstore",
			Name:      "health_status",
			Help:      "Current backend health status (1=healthy, 0=degraded)",
		},
	)
)

// observeSearch records the outcome and latency of one search call.
func observeSearch(provider string, start time.Time, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	SearchesTotal.WithLabelValues(provider, result).Inc()
	SearchDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
}

// recordHealth updates the health gauge from a health check outcome.
func recordHealth(healthy bool) {
	if healthy {
		HealthStatus.Set(1)
	} else {
		HealthStatus.Set(0)
	}
}
