package main

import (
	"context"
	"fmt"

	"github.com/fastbreaklabs/scoutd/internal/config"
	"github.com/fastbreaklabs/scoutd/internal/embeddings"
	"github.com/fastbreaklabs/scoutd/internal/ingest"
	"github.com/fastbreaklabs/scoutd/internal/logging"
	"github.com/fastbreaklabs/scoutd/internal/reranker"
	"github.com/fastbreaklabs/scoutd/internal/retrieval"
	"github.com/fastbreaklabs/scoutd/internal/telemetry"
	"github.com/fastbreaklabs/scoutd/internal/vectorstore"
)

// app holds the wired pipeline for one command invocation.
type app struct {
	cfg    *config.Config
	logger *logging.Logger
	tel    *telemetry.Telemetry

	embedder embeddings.Provider
	store    vectorstore.Store
	reranker reranker.Reranker
	searcher *retrieval.Service
	ingester *ingest.Service
}

// newApp loads configuration and wires the embedder, vector store, reranker,
// and services behind the subcommands. Callers must Close the returned app.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	tel, err := telemetry.New(ctx, &cfg.Telemetry)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("initializing telemetry: %w", err)
	}

	embedder, err := embeddings.NewFromConfig(cfg.Embeddings)
	if err != nil {
		_ = tel.Shutdown(ctx)
		_ = logger.Sync()
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	// The index dimension must match the embedding model; a configured size
	// that disagrees would reject every insert.
	if dim := embedder.Dimension(); dim > 0 {
		cfg.VectorStore.Chromem.VectorSize = dim
		cfg.VectorStore.Qdrant.VectorSize = dim
	}

	store, err := vectorstore.NewStore(cfg.VectorStore, embedder, logger)
	if err != nil {
		_ = embedder.Close()
		_ = tel.Shutdown(ctx)
		_ = logger.Sync()
		return nil, fmt.Errorf("creating vector store: %w", err)
	}

	// The cross-encoder is constructed on first use so that ingest and
	// collections never pay its startup cost, and so a broken reranker
	// config degrades searches instead of failing them.
	rr := reranker.NewLazyReranker(func() (reranker.Reranker, error) {
		return reranker.NewFromConfig(cfg.Reranker)
	})

	searcher, err := retrieval.NewService(store, rr, retrieval.Config{
		DefaultInitialK:  cfg.Retrieval.DefaultInitialK,
		DefaultFinalK:    cfg.Retrieval.DefaultFinalK,
		RetrievalTimeout: cfg.Retrieval.RetrievalTimeout.Duration(),
		RerankTimeout:    cfg.Retrieval.RerankTimeout.Duration(),
	}, logger)
	if err != nil {
		_ = rr.Close()
		_ = store.Close()
		_ = embedder.Close()
		_ = tel.Shutdown(ctx)
		_ = logger.Sync()
		return nil, fmt.Errorf("creating retrieval service: %w", err)
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		tel:      tel,
		embedder: embedder,
		store:    store,
		reranker: rr,
		searcher: searcher,
		ingester: ingest.NewService(store, logger),
	}, nil
}

// Close releases resources in reverse construction order.
func (a *app) Close(ctx context.Context) {
	_ = a.reranker.Close()
	_ = a.store.Close()
	_ = a.embedder.Close()
	_ = a.tel.Shutdown(ctx)
	_ = a.logger.Sync()
}
