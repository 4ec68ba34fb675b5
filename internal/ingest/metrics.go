package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DocumentsIngestedTotal counts documents written per collection.
	DocumentsIngestedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scoutd",
			Subsystem: "ingest",
			Name:      "documents_total",
			Help:      "Total number of documents ingested per collection",
		},
		[]string{"collection"},
	)

	// LinesSkippedTotal counts skipped corpus lines by reason.
	// Labels: collection, reason (too_large, invalid_utf8, bad_json,
	// missing_id, empty_text)
	LinesSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scoutd",
			Subsystem: "ingest",
			Name:      "lines_skipped_total",
			Help:      "Total number of corpus lines skipped during ingestion, by reason",
		},
		[]string{"collection", "reason"},
	)

	// BatchFlushDuration tracks the latency of one batch write to the store,
	// embedding included.
	BatchFlushDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "scoutd",
			Subsystem: "ingest",
			Name:      "batch_flush_duration_seconds",
			Help:      "Duration of one document batch write in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)
)
