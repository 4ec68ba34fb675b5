// Command generate_metrics serves sample scoutd metrics for Grafana
// dashboard development, so dashboards can be built and reviewed without a
// live corpus or query traffic.
//
// It drives the real metric vectors from the retrieval, ingest, and
// vectorstore packages, which keeps dashboard queries aligned with the
// metric names the pipeline actually exports.
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fastbreaklabs/scoutd/internal/ingest"
	"github.com/fastbreaklabs/scoutd/internal/retrieval"
	"github.com/fastbreaklabs/scoutd/internal/vectorstore"
)

var (
	searchCollections = []string{"players", "strategies", "trades"}
	storeProviders    = []string{"chromem", "qdrant"}
	skipReasons       = []string{"too_large", "invalid_utf8", "bad_json", "missing_id", "empty_text"}
	storeOperations   = []string{"upsert", "search", "create_collection"}
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "9090"
	}

	generateSampleData()

	ctx, cancel := context.WithCancel(context.Background())
	go generateContinuousData(ctx)

	http.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: ":" + port}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		cancel()
		server.Shutdown(context.Background())
	}()

	fmt.Printf("Sample metrics server running on http://localhost:%s/metrics\n", port)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println("\nTo use with Prometheus, add this to prometheus.yml:")
	fmt.Printf("  - job_name: 'scoutd-test'\n    static_configs:\n      - targets: ['localhost:%s']\n", port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

func generateSampleData() {
	// Search traffic: mostly reranked, some degraded, rare errors.
	for i := 0; i < 200; i++ {
		collection := randomChoice(searchCollections)
		status := weightedStatus()
		retrieval.SearchesTotal.WithLabelValues(collection, status).Inc()
		if status == "degraded" {
			retrieval.DegradedTotal.WithLabelValues(collection).Inc()
		}
		if status != "error" {
			retrieval.StageDuration.WithLabelValues("retrieve").Observe(0.005 + rand.Float64()*0.05)
			retrieval.ResultsPerSearch.Observe(float64(rand.Intn(6)))
		}
		if status == "success" {
			retrieval.StageDuration.WithLabelValues("rerank").Observe(0.02 + rand.Float64()*0.3)
		}
	}

	// Store-level traffic backing the searches.
	for i := 0; i < 250; i++ {
		provider := randomChoice(storeProviders)
		result := "success"
		if rand.Float64() > 0.97 {
			result = "error"
		}
		vectorstore.SearchesTotal.WithLabelValues(provider, result).Inc()
		vectorstore.SearchDuration.WithLabelValues(provider).Observe(rand.Float64() * 0.1)
	}
	for i := 0; i < 10; i++ {
		vectorstore.RetriesTotal.WithLabelValues(randomChoice(storeOperations)).Inc()
	}
	vectorstore.CircuitBreakerOpen.Set(0)
	vectorstore.HealthStatus.Set(1)

	// A few ingest runs.
	for i := 0; i < 15; i++ {
		collection := randomChoice(searchCollections)
		batch := float64(rand.Intn(64) + 1)
		ingest.DocumentsIngestedTotal.WithLabelValues(collection).Add(batch)
		ingest.BatchFlushDuration.Observe(0.1 + rand.Float64()*2.0)
		vectorstore.DocumentsAddedTotal.WithLabelValues(randomChoice(storeProviders)).Add(batch)
	}
	for i := 0; i < 8; i++ {
		ingest.LinesSkippedTotal.WithLabelValues(randomChoice(searchCollections), randomChoice(skipReasons)).Inc()
	}
}

func generateContinuousData(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			collection := randomChoice(searchCollections)
			status := weightedStatus()
			retrieval.SearchesTotal.WithLabelValues(collection, status).Inc()
			if status == "degraded" {
				retrieval.DegradedTotal.WithLabelValues(collection).Inc()
			}
			if status != "error" {
				retrieval.StageDuration.WithLabelValues("retrieve").Observe(0.005 + rand.Float64()*0.05)
				retrieval.ResultsPerSearch.Observe(float64(rand.Intn(6)))
				vectorstore.SearchesTotal.WithLabelValues(randomChoice(storeProviders), "success").Inc()
				vectorstore.SearchDuration.WithLabelValues(randomChoice(storeProviders)).Observe(rand.Float64() * 0.1)
			}
			if status == "success" {
				retrieval.StageDuration.WithLabelValues("rerank").Observe(0.02 + rand.Float64()*0.3)
			}

			if rand.Float64() > 0.8 {
				batch := float64(rand.Intn(64) + 1)
				ingest.DocumentsIngestedTotal.WithLabelValues(collection).Add(batch)
				ingest.BatchFlushDuration.Observe(0.1 + rand.Float64()*2.0)
				vectorstore.DocumentsAddedTotal.WithLabelValues(randomChoice(storeProviders)).Add(batch)
			}

			// Occasionally flap the backend health for alert testing.
			if rand.Float64() > 0.95 {
				vectorstore.HealthStatus.Set(0)
				vectorstore.CircuitBreakerOpen.Set(1)
			} else {
				vectorstore.HealthStatus.Set(1)
				vectorstore.CircuitBreakerOpen.Set(0)
			}
		}
	}
}

// weightedStatus returns a search status with a realistic distribution:
// reranker outages are uncommon, hard failures rare.
func weightedStatus() string {
	r := rand.Float64()
	switch {
	case r > 0.98:
		return "error"
	case r > 0.85:
		return "degraded"
	default:
		return "success"
	}
}

func randomChoice(choices []string) string {
	return choices[rand.Intn(len(choices))]
}
