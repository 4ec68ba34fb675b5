// Package reranker rescores retrieval candidates for query relevance.
//
// A Reranker sees the query and each candidate's text together, which lets
// it rank with query-document interaction that independent embeddings miss.
// Reranking cost grows with the candidate count, so callers bound the input
// (retrieve initial-K, rerank to final-K) rather than rescoring a whole
// collection.
//
// Two implementations are provided: TEIReranker calls a remote TEI
// cross-encoder, OverlapReranker is a dependency-free lexical scorer.
// LazyReranker defers construction of either until first use.
package reranker

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrUnavailable indicates the reranker could not load or execute.
	// Callers are expected to degrade to retrieval order rather than fail.
	ErrUnavailable = errors.New("reranker unavailable")

	// ErrNilContext is returned when a nil context is passed to Rerank.
	ErrNilContext = errors.New("context cannot be nil")

	// ErrEmptyQuery is returned when the query is empty or whitespace.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrInvalidTopK is returned when topK is zero or negative.
	ErrInvalidTopK = errors.New("topK must be positive")

	// ErrInvalidConfig indicates invalid reranker configuration.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Document is a retrieval candidate to be rescored.
type Document struct {
	// ID identifies the document within its collection.
	ID string

	// Text is the content scored against the query.
	Text string

	// Score is the retrieval similarity score the candidate arrived with.
	Score float32
}

// ScoredDocument is a reranked candidate. RerankScore uses the reranker's
// own scale; only relative order within one Rerank call is meaningful.
type ScoredDocument struct {
	Document

	// RerankScore is the joint query-document relevance score.
	RerankScore float32

	// OriginalRank is the candidate's zero-based position in the input.
	OriginalRank int
}

// Reranker rescores candidates against a query.
type Reranker interface {
	// Rerank returns up to topK documents ordered by descending
	// RerankScore. Ties keep the input's relative order. topK larger than
	// len(docs) is clamped; topK <= 0 is ErrInvalidTopK. Empty docs yield
	// an empty slice and no error.
	Rerank(ctx context.Context, query string, docs []Document, topK int) ([]ScoredDocument, error)

	// Close releases any resources held by the reranker.
	Close() error
}

// validateRerankArgs applies the argument contract shared by all
// implementations.
func validateRerankArgs(ctx context.Context, query string, topK int) error {
	if ctx == nil {
		return ErrNilContext
	}
	if strings.TrimSpace(query) == "" {
		return ErrEmptyQuery
	}
	if topK <= 0 {
		return ErrInvalidTopK
	}
	return nil
}

// clampTopK bounds topK to the candidate count.
func clampTopK(topK, n int) int {
	if topK > n {
		return n
	}
	return topK
}
