package reranker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"
)

// defaultTEITimeout bounds a single rerank request when the config leaves
// Timeout unset.
const defaultTEITimeout = 10 * time.Second

// TEIConfig holds configuration for the TEI cross-encoder reranker.
type TEIConfig struct {
	// BaseURL is the TEI reranker endpoint, for example http://localhost:8081.
	// Cross-encoder models run as a separate TEI instance from the
	// embedding model.
	BaseURL string

	// Model is the cross-encoder model served by the TEI instance.
	// Informational; the server decides which model it runs.
	Model string

	// Timeout bounds a single HTTP request. Defaults to 10s.
	Timeout time.Duration
}

// Validate validates the configuration.
func (c TEIConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base URL required", ErrInvalidConfig)
	}
	return nil
}

// TEIReranker scores (query, document) pairs jointly by calling a TEI
// cross-encoder over HTTP. Any transport, status, or decoding failure is
// reported as ErrUnavailable so callers can degrade to retrieval order.
type TEIReranker struct {
	config TEIConfig
	client *http.Client
}

var _ Reranker = (*TEIReranker)(nil)

// NewTEIReranker creates a TEI-backed cross-encoder reranker.
func NewTEIReranker(cfg TEIConfig) (*TEIReranker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTEITimeout
	}

	return &TEIReranker{
		config: cfg,
		client: &http.Client{Timeout: timeout},
	}, nil
}

// teiRerankRequest is the request body for the TEI /rerank endpoint.
type teiRerankRequest struct {
	Query     string   `json:"query"`
	Texts     []string `json:"texts"`
	RawScores bool     `json:"raw_scores"`
}

// teiRerankResult is one scored candidate in the TEI response. Index refers
// to the position in the request's Texts.
type teiRerankResult struct {
	Index int     `json:"index"`
	Score float32 `json:"score"`
}

// Rerank scores every document against the query and returns the top K by
// descending score, ties keeping the input order.
func (r *TEIReranker) Rerank(ctx context.Context, query string, docs []Document, topK int) ([]ScoredDocument, error) {
	if err := validateRerankArgs(ctx, query, topK); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return []ScoredDocument{}, nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Text
	}

	results, err := r.rerank(ctx, teiRerankRequest{
		Query:     query,
		Texts:     texts,
		RawScores: false,
	})
	if err != nil {
		return nil, err
	}

	scores, err := scoresByIndex(results, len(docs))
	if err != nil {
		return nil, err
	}

	scored := make([]ScoredDocument, len(docs))
	for i, doc := range docs {
		scored[i] = ScoredDocument{
			Document:     doc,
			RerankScore:  scores[i],
			OriginalRank: i,
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RerankScore > scored[j].RerankScore
	})

	return scored[:clampTopK(topK, len(scored))], nil
}

// rerank posts the request to the /rerank endpoint and decodes the response.
func (r *TEIReranker) rerank(ctx context.Context, req teiRerankRequest) ([]teiRerankResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.config.BaseURL+"/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, string(respBody))
	}

	var results []teiRerankResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrUnavailable, err)
	}

	return results, nil
}

// scoresByIndex arranges response scores by candidate position. Every
// candidate must receive exactly one score; anything else means the server
// answered for a different request shape and the response cannot be trusted.
func scoresByIndex(results []teiRerankResult, n int) ([]float32, error) {
	scores := make([]float32, n)
	seen := make([]bool, n)

	for _, result := range results {
		if result.Index < 0 || result.Index >= n {
			return nil, fmt.Errorf("%w: response index %d out of range for %d texts", ErrUnavailable, result.Index, n)
		}
		if seen[result.Index] {
			return nil, fmt.Errorf("%w: duplicate response index %d", ErrUnavailable, result.Index)
		}
		seen[result.Index] = true
		scores[result.Index] = result.Score
	}

	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("%w: response missing score for text %d", ErrUnavailable, i)
		}
	}

	return scores, nil
}

// Close is a no-op; the reranker holds no persistent connections.
func (r *TEIReranker) Close() error {
	return nil
}
