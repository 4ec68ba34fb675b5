// Package retrieval provides Prometheus metrics for the search pipeline.
package retrieval

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SearchesTotal counts pipeline searches by collection and outcome.
	// Labels: collection, status (success, degraded, error)
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scoutd",
			Subsystem: "retrieval",
			Name:      "searches_total",
			Help:      "Total number of pipeline searches",
		},
		[]string{"collection", "status"},
	)

	// StageDuration tracks per-stage latency of the pipeline.
	// Labels: stage (retrieve, rerank)
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "scoutd",
			Subsystem: "retrieval",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	// DegradedTotal counts searches served in retrieval order because the
	// reranker could not score the candidates.
	DegradedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scoutd",
			Subsystem: "retrieval",
			Name:      "degraded_total",
			Help:      "Total number of searches served without reranking",
		},
		[]string{"collection"},
	)

	// ResultsPerSearch tracks how many results each search returned.
	ResultsPerSearch = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "scoutd",
			Subsystem: "retrieval",
			Name:      "results_per_search",
			Help:      "Number of results returned per search",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 20, 50},
		},
	)
)

// Outcome labels for SearchesTotal.
const (
	statusSuccess  = "success"
	statusDegraded = "degraded"
	statusError    = "error"
)

// observeStage records the latency of one pipeline stage.
func observeStage(stage string, start time.Time) {
	StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
