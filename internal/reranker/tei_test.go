package reranker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newRerankTestServer returns a server that answers /rerank by scoring each
// text from the scores map. Results are returned highest-score-first, the
// way a TEI instance orders them; the client must align them by index.
func newRerankTestServer(t *testing.T, scores map[string]float32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rerank", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req teiRerankRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.RawScores)
		assert.NotEmpty(t, req.Query)

		results := make([]teiRerankResult, len(req.Texts))
		for i, text := range req.Texts {
			score, ok := scores[text]
			require.True(t, ok, "no score configured for text %q", text)
			results[i] = teiRerankResult{Index: i, Score: score}
		}
		// Highest first, as TEI responds.
		for i := 0; i < len(results); i++ {
			for j := i + 1; j < len(results); j++ {
				if results[j].Score > results[i].Score {
					results[i], results[j] = results[j], results[i]
				}
			}
		}

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(results))
	}))
}

func TestNewTEIReranker(t *testing.T) {
	tests := []struct {
		name    string
		config  TEIConfig
		wantErr bool
	}{
		{
			name: "valid configuration",
			config: TEIConfig{
				BaseURL: "http://localhost:8081",
				Model:   "BAAI/bge-reranker-base",
			},
		},
		{
			name:    "missing base URL",
			config:  TEIConfig{Model: "BAAI/bge-reranker-base"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewTEIReranker(tt.config)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, r)
			assert.NoError(t, r.Close())
		})
	}
}

func TestTEIReranker_Rerank(t *testing.T) {
	// The cross-encoder disagrees with retrieval: the lowest-retrieval
	// candidate is the most relevant to the query.
	docs := []Document{
		{ID: "t1", Text: "Celtics depth chart after the trade deadline", Score: 0.91},
		{ID: "t2", Text: "Porzingis arrival changes Tatum shot profile", Score: 0.72},
		{ID: "t3", Text: "Western conference playoff seeding odds", Score: 0.64},
	}
	server := newRerankTestServer(t, map[string]float32{
		docs[0].Text: 0.31,
		docs[1].Text: 0.97,
		docs[2].Text: 0.05,
	})
	defer server.Close()

	r, err := NewTEIReranker(TEIConfig{BaseURL: server.URL, Model: "BAAI/bge-reranker-base"})
	require.NoError(t, err)

	results, err := r.Rerank(context.Background(), "How does the Porzingis trade affect Tatum?", docs, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "t2", results[0].ID)
	assert.Equal(t, "t1", results[1].ID)
	assert.Equal(t, "t3", results[2].ID)

	assert.InDelta(t, 0.97, results[0].RerankScore, 0.001)
	assert.InDelta(t, 0.31, results[1].RerankScore, 0.001)
	assert.InDelta(t, 0.05, results[2].RerankScore, 0.001)

	// Retrieval metadata survives the reorder.
	assert.Equal(t, 1, results[0].OriginalRank)
	assert.InDelta(t, 0.72, results[0].Score, 0.001)

	// Scores are non-increasing.
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].RerankScore, results[i].RerankScore)
	}
}

func TestTEIReranker_Rerank_TopKClamping(t *testing.T) {
	docs := []Document{
		{ID: "a", Text: "alpha", Score: 0.9},
		{ID: "b", Text: "beta", Score: 0.8},
		{ID: "c", Text: "gamma", Score: 0.7},
	}
	server := newRerankTestServer(t, map[string]float32{
		"alpha": 0.3, "beta": 0.2, "gamma": 0.1,
	})
	defer server.Close()

	r, err := NewTEIReranker(TEIConfig{BaseURL: server.URL})
	require.NoError(t, err)

	// topK below the candidate count truncates.
	results, err := r.Rerank(context.Background(), "query", docs, 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	// topK above the candidate count is clamped, not an error.
	results, err = r.Rerank(context.Background(), "query", docs, 25)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestTEIReranker_Rerank_TiesKeepInputOrder(t *testing.T) {
	docs := []Document{
		{ID: "first", Text: "one", Score: 0.5},
		{ID: "second", Text: "two", Score: 0.4},
		{ID: "third", Text: "three", Score: 0.3},
	}
	server := newRerankTestServer(t, map[string]float32{
		"one": 0.7, "two": 0.7, "three": 0.7,
	})
	defer server.Close()

	r, err := NewTEIReranker(TEIConfig{BaseURL: server.URL})
	require.NoError(t, err)

	results, err := r.Rerank(context.Background(), "query", docs, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "first", results[0].ID)
	assert.Equal(t, "second", results[1].ID)
	assert.Equal(t, "third", results[2].ID)
}

func TestTEIReranker_Rerank_EmptyDocs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("server must not be called for empty candidates")
	}))
	defer server.Close()

	r, err := NewTEIReranker(TEIConfig{BaseURL: server.URL})
	require.NoError(t, err)

	results, err := r.Rerank(context.Background(), "query", nil, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestTEIReranker_Rerank_ArgValidation(t *testing.T) {
	r, err := NewTEIReranker(TEIConfig{BaseURL: "http://localhost:8081"})
	require.NoError(t, err)

	docs := []Document{{ID: "d", Text: "text", Score: 0.5}}

	_, err = r.Rerank(context.Background(), "  ", docs, 5)
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = r.Rerank(context.Background(), "query", docs, 0)
	assert.ErrorIs(t, err, ErrInvalidTopK)

	_, err = r.Rerank(nil, "query", docs, 5) //nolint:staticcheck // nil context contract
	assert.ErrorIs(t, err, ErrNilContext)
}

func TestTEIReranker_Rerank_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	r, err := NewTEIReranker(TEIConfig{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = r.Rerank(context.Background(), "query", []Document{{ID: "d", Text: "text"}}, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "status 503")
}

func TestTEIReranker_Rerank_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	r, err := NewTEIReranker(TEIConfig{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = r.Rerank(context.Background(), "query", []Document{{ID: "d", Text: "text"}}, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestTEIReranker_Rerank_IncompleteResponse(t *testing.T) {
	tests := []struct {
		name    string
		results []teiRerankResult
		wantMsg string
	}{
		{
			name:    "missing score",
			results: []teiRerankResult{{Index: 0, Score: 0.5}},
			wantMsg: "missing score",
		},
		{
			name:    "duplicate index",
			results: []teiRerankResult{{Index: 0, Score: 0.5}, {Index: 0, Score: 0.4}},
			wantMsg: "duplicate",
		},
		{
			name:    "index out of range",
			results: []teiRerankResult{{Index: 0, Score: 0.5}, {Index: 7, Score: 0.4}},
			wantMsg: "out of range",
		},
		{
			name:    "negative index",
			results: []teiRerankResult{{Index: -1, Score: 0.5}, {Index: 1, Score: 0.4}},
			wantMsg: "out of range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(tt.results)
			}))
			defer server.Close()

			r, err := NewTEIReranker(TEIConfig{BaseURL: server.URL})
			require.NoError(t, err)

			docs := []Document{
				{ID: "a", Text: "one", Score: 0.9},
				{ID: "b", Text: "two", Score: 0.8},
			}
			_, err = r.Rerank(context.Background(), "query", docs, 2)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnavailable)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestTEIReranker_Rerank_ServerUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	r, err := NewTEIReranker(TEIConfig{BaseURL: server.URL, Timeout: time.Second})
	require.NoError(t, err)

	_, err = r.Rerank(context.Background(), "query", []Document{{ID: "d", Text: "text"}}, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestTEIReranker_Rerank_ContextCancellation(t *testing.T) {
	server := newRerankTestServer(t, map[string]float32{"text": 0.5})
	defer server.Close()

	r, err := NewTEIReranker(TEIConfig{BaseURL: server.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = r.Rerank(ctx, "query", []Document{{ID: "d", Text: "text"}}, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}
