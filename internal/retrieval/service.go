// Package retrieval orchestrates the two-stage search pipeline: vector
// similarity retrieval of initial-K candidates, then cross-encoder reranking
// down to final-K results.
//
// The two stages fail differently on purpose. Reranking is an accuracy
// refinement: when the reranker cannot serve, Search degrades to the
// retrieval ordering and still answers. Retrieval is load-bearing: when no
// candidates can be obtained at all, Search returns ErrSearchUnavailable and
// the caller falls back to whatever non-semantic lookup it has.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fastbreaklabs/scoutd/internal/collections"
	"github.com/fastbreaklabs/scoutd/internal/logging"
	"github.com/fastbreaklabs/scoutd/internal/reranker"
	"github.com/fastbreaklabs/scoutd/internal/vectorstore"
)

// tracer for OpenTelemetry instrumentation.
var tracer = otel.Tracer("scoutd.retrieval")

var (
	// ErrSearchUnavailable is the only error Search returns for
	// infrastructure failure: the retrieval stage produced no candidates
	// and there is nothing to degrade to. It always wraps the cause, so
	// errors.Is still classifies the underlying store error.
	ErrSearchUnavailable = errors.New("search unavailable")

	// ErrEmptyQuery is returned when the query is empty or whitespace.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrInvalidConfig indicates invalid service configuration.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Request describes one search against a single collection.
type Request struct {
	// Query is the natural-language question.
	Query string

	// Collection names the partition to search.
	Collection string

	// InitialK is the candidate count for the retrieval stage.
	// Zero means the configured default.
	InitialK int

	// FinalK is the result count after reranking. Zero means the
	// configured default; values above InitialK are clamped down to it.
	FinalK int
}

// Result is one ranked search hit.
type Result struct {
	// DocumentID identifies the document within its collection.
	DocumentID string

	// Text is the document content.
	Text string

	// Metadata carries the document's key-value pairs.
	Metadata map[string]interface{}

	// Score orders the results, descending. It is on the reranker's scale
	// when Reranked is true, otherwise it repeats RetrievalScore. Scores
	// are not comparable across the two scales.
	Score float32

	// RetrievalScore is the similarity score from the retrieval stage.
	RetrievalScore float32

	// RetrievalRank is the zero-based position the retriever gave this
	// document before reranking.
	RetrievalRank int

	// Reranked is false when the degraded path served retrieval order.
	Reranked bool
}

// Searcher is the slice of the vector store the pipeline depends on.
type Searcher interface {
	Search(ctx context.Context, collection string, query string, topN int) ([]vectorstore.SearchResult, error)
}

// Config bounds the pipeline stages.
type Config struct {
	// DefaultInitialK is used when Request.InitialK is zero.
	// Default: 20
	DefaultInitialK int

	// DefaultFinalK is used when Request.FinalK is zero.
	// Default: 5
	DefaultFinalK int

	// RetrievalTimeout bounds the vector search stage.
	// Default: 5s
	RetrievalTimeout time.Duration

	// RerankTimeout bounds the rerank stage. A stage that overruns it
	// degrades, it does not fail the search.
	// Default: 10s
	RerankTimeout time.Duration
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.DefaultInitialK == 0 {
		c.DefaultInitialK = 20
	}
	if c.DefaultFinalK == 0 {
		c.DefaultFinalK = 5
	}
	if c.RetrievalTimeout == 0 {
		c.RetrievalTimeout = 5 * time.Second
	}
	if c.RerankTimeout == 0 {
		c.RerankTimeout = 10 * time.Second
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.DefaultInitialK < 1 {
		return fmt.Errorf("%w: default initial_k must be >= 1, got %d", ErrInvalidConfig, c.DefaultInitialK)
	}
	if c.DefaultFinalK < 1 {
		return fmt.Errorf("%w: default final_k must be >= 1, got %d", ErrInvalidConfig, c.DefaultFinalK)
	}
	if c.DefaultFinalK > c.DefaultInitialK {
		return fmt.Errorf("%w: default final_k %d exceeds default initial_k %d",
			ErrInvalidConfig, c.DefaultFinalK, c.DefaultInitialK)
	}
	if c.RetrievalTimeout < 0 || c.RerankTimeout < 0 {
		return fmt.Errorf("%w: stage timeouts cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// Service runs the pipeline. It is stateless per request and safe for
// concurrent use; stages within one call run strictly sequentially.
type Service struct {
	searcher Searcher
	reranker reranker.Reranker
	config   Config
	logger   *logging.Logger
}

// NewService creates a Service over the given retriever and reranker.
func NewService(searcher Searcher, rr reranker.Reranker, cfg Config, logger *logging.Logger) (*Service, error) {
	if searcher == nil {
		return nil, fmt.Errorf("%w: searcher is required", ErrInvalidConfig)
	}
	if rr == nil {
		return nil, fmt.Errorf("%w: reranker is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Service{
		searcher: searcher,
		reranker: rr,
		config:   cfg,
		logger:   logger,
	}, nil
}

// Search runs the full pipeline and returns results descending by Score,
// ties keeping the retriever's relative order.
//
// len(results) == min(finalK, candidate count); an empty collection yields
// an empty slice, not an error. Reranker failure of any kind is absorbed by
// serving the retrieval ordering; only retrieval failure surfaces, as
// ErrSearchUnavailable.
func (s *Service) Search(ctx context.Context, req Request) ([]Result, error) {
	ctx, span := tracer.Start(ctx, "Service.Search")
	defer span.End()

	query := strings.TrimSpace(req.Query)
	if query == "" {
		span.SetStatus(codes.Error, "empty query")
		return nil, ErrEmptyQuery
	}
	if err := collections.Validate(req.Collection); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	initialK, finalK := s.normalizeKs(req.InitialK, req.FinalK)

	ctx = logging.WithCollection(ctx, req.Collection)
	span.SetAttributes(
		attribute.String("collection", req.Collection),
		attribute.Int("initial_k", initialK),
		attribute.Int("final_k", finalK),
	)

	start := time.Now()

	candidates, err := s.retrieve(ctx, req.Collection, query, initialK)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		SearchesTotal.WithLabelValues(req.Collection, statusError).Inc()
		return nil, err
	}
	span.SetAttributes(attribute.Int("candidates", len(candidates)))

	if len(candidates) == 0 {
		span.SetStatus(codes.Ok, "no candidates")
		SearchesTotal.WithLabelValues(req.Collection, statusSuccess).Inc()
		ResultsPerSearch.Observe(0)
		s.logger.Debug(ctx, "search found no candidates",
			zap.Int("initial_k", initialK),
		)
		return []Result{}, nil
	}

	results, degraded := s.rerank(ctx, query, candidates, finalK)

	status := statusSuccess
	if degraded {
		status = statusDegraded
		DegradedTotal.WithLabelValues(req.Collection).Inc()
	}
	SearchesTotal.WithLabelValues(req.Collection, status).Inc()
	ResultsPerSearch.Observe(float64(len(results)))

	span.SetAttributes(
		attribute.Int("results", len(results)),
		attribute.Bool("degraded", degraded),
	)
	span.SetStatus(codes.Ok, "success")

	s.logger.Debug(ctx, "search completed",
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(results)),
		zap.Bool("degraded", degraded),
		zap.Duration("duration", time.Since(start)),
	)

	return results, nil
}

// normalizeKs applies configured defaults and clamps finalK into
// [1, initialK]. Out-of-range values are normalized, never rejected.
func (s *Service) normalizeKs(initialK, finalK int) (int, int) {
	if initialK <= 0 {
		initialK = s.config.DefaultInitialK
	}
	if finalK <= 0 {
		finalK = s.config.DefaultFinalK
	}
	if finalK > initialK {
		finalK = initialK
	}
	return initialK, finalK
}

// retrieve runs the vector-similarity stage under its own deadline. Any
// failure here is terminal for the search and comes back wrapped in
// ErrSearchUnavailable, with a stage deadline mapped to ErrStoreUnavailable
// first so callers classify it like any other store outage.
func (s *Service) retrieve(ctx context.Context, collection, query string, initialK int) ([]vectorstore.SearchResult, error) {
	ctx, span := tracer.Start(ctx, "Service.retrieve")
	defer span.End()
	span.SetAttributes(attribute.Int("initial_k", initialK))

	ctx, cancel := context.WithTimeout(ctx, s.config.RetrievalTimeout)
	defer cancel()

	start := time.Now()
	candidates, err := s.searcher.Search(ctx, collection, query, initialK)
	observeStage("retrieve", start)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, vectorstore.ErrStoreUnavailable) {
			err = fmt.Errorf("%w: %w", vectorstore.ErrStoreUnavailable, err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %w", ErrSearchUnavailable, err)
	}

	span.SetAttributes(attribute.Int("candidates", len(candidates)))
	span.SetStatus(codes.Ok, "success")
	return candidates, nil
}

// rerank runs the cross-encoder stage under its own deadline. It never
// fails: any reranker error, including a stage deadline or an out-of-contract
// response, falls back to the retrieval ordering. The bool reports whether
// the degraded path was taken.
func (s *Service) rerank(ctx context.Context, query string, candidates []vectorstore.SearchResult, finalK int) ([]Result, bool) {
	ctx, span := tracer.Start(ctx, "Service.rerank")
	defer span.End()
	span.SetAttributes(
		attribute.Int("candidates", len(candidates)),
		attribute.Int("final_k", finalK),
	)

	ctx, cancel := context.WithTimeout(ctx, s.config.RerankTimeout)
	defer cancel()

	docs := make([]reranker.Document, len(candidates))
	for i, c := range candidates {
		docs[i] = reranker.Document{ID: c.ID, Text: c.Text, Score: c.Score}
	}

	start := time.Now()
	scored, err := s.reranker.Rerank(ctx, query, docs, finalK)
	observeStage("rerank", start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn(ctx, "reranker failed, serving retrieval order",
			zap.Error(err),
			zap.Int("candidates", len(candidates)),
			zap.Int("final_k", finalK),
		)
		return degradedResults(candidates, finalK), true
	}

	results := make([]Result, len(scored))
	for i, sd := range scored {
		if sd.OriginalRank < 0 || sd.OriginalRank >= len(candidates) {
			s.logger.Warn(ctx, "reranker returned out-of-range rank, serving retrieval order",
				zap.Int("original_rank", sd.OriginalRank),
				zap.Int("candidates", len(candidates)),
			)
			return degradedResults(candidates, finalK), true
		}
		c := candidates[sd.OriginalRank]
		results[i] = Result{
			DocumentID:     c.ID,
			Text:           c.Text,
			Metadata:       c.Metadata,
			Score:          sd.RerankScore,
			RetrievalScore: c.Score,
			RetrievalRank:  sd.OriginalRank,
			Reranked:       true,
		}
	}

	span.SetAttributes(attribute.Int("results", len(results)))
	span.SetStatus(codes.Ok, "success")
	return results, false
}

// degradedResults serves the retriever's top finalK in retrieval order with
// retrieval scores standing in for rerank scores.
func degradedResults(candidates []vectorstore.SearchResult, finalK int) []Result {
	if finalK > len(candidates) {
		finalK = len(candidates)
	}

	results := make([]Result, finalK)
	for i, c := range candidates[:finalK] {
		results[i] = Result{
			DocumentID:     c.ID,
			Text:           c.Text,
			Metadata:       c.Metadata,
			Score:          c.Score,
			RetrievalScore: c.Score,
			RetrievalRank:  i,
			Reranked:       false,
		}
	}
	return results
}
