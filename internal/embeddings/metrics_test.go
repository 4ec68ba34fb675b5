package embeddings

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/fastbreaklabs/scoutd/internal/logging"
)

func newTestMetrics(reader *metric.ManualReader) *Metrics {
	mp := metric.NewMeterProvider(metric.WithReader(reader))
	m := &Metrics{
		meter:  mp.Meter(instrumentationName),
		logger: logging.NewNop(),
	}
	m.init()
	return m
}

func TestMetrics_RecordGeneration(t *testing.T) {
	reader := metric.NewManualReader()
	m := newTestMetrics(reader)
	ctx := context.Background()

	m.RecordGeneration(ctx, "BAAI/bge-small-en-v1.5", "embed_documents", 100*time.Millisecond, 10, nil)
	m.RecordGeneration(ctx, "BAAI/bge-small-en-v1.5", "embed_query", 50*time.Millisecond, 1, nil)
	m.RecordGeneration(ctx, "BAAI/bge-small-en-v1.5", "embed_documents", 25*time.Millisecond, 5, errors.New("generation failed"))

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	if len(rm.ScopeMetrics) == 0 {
		t.Fatal("expected scope metrics, got none")
	}

	foundDuration := false
	foundBatchSize := false
	foundErrors := false

	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			switch md.Name {
			case "scoutd.embedding.generation_duration_seconds":
				foundDuration = true
				if hist, ok := md.Data.(metricdata.Histogram[float64]); ok {
					total := uint64(0)
					for _, dp := range hist.DataPoints {
						total += dp.Count
					}
					if total != 3 {
						t.Errorf("expected 3 duration recordings, got %d", total)
					}
				}
			case "scoutd.embedding.batch_size":
				foundBatchSize = true
			case "scoutd.embedding.errors_total":
				foundErrors = true
				if sum, ok := md.Data.(metricdata.Sum[int64]); ok {
					total := int64(0)
					for _, dp := range sum.DataPoints {
						total += dp.Value
					}
					if total != 1 {
						t.Errorf("expected 1 error, got %d", total)
					}
				}
			}
		}
	}

	if !foundDuration {
		t.Error("duration histogram not found")
	}
	if !foundBatchSize {
		t.Error("batch size histogram not found")
	}
	if !foundErrors {
		t.Error("errors counter not found")
	}
}

func TestMetrics_RecordCacheLookup(t *testing.T) {
	reader := metric.NewManualReader()
	m := newTestMetrics(reader)
	ctx := context.Background()

	m.RecordCacheLookup(ctx, "BAAI/bge-small-en-v1.5", true)
	m.RecordCacheLookup(ctx, "BAAI/bge-small-en-v1.5", true)
	m.RecordCacheLookup(ctx, "BAAI/bge-small-en-v1.5", false)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}

	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			sum, ok := md.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				counts[md.Name] += dp.Value
			}
		}
	}

	if counts["scoutd.embedding.cache_hits_total"] != 2 {
		t.Errorf("expected 2 cache hits, got %d", counts["scoutd.embedding.cache_hits_total"])
	}
	if counts["scoutd.embedding.cache_misses_total"] != 1 {
		t.Errorf("expected 1 cache miss, got %d", counts["scoutd.embedding.cache_misses_total"])
	}
}
