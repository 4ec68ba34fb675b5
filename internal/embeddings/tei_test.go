package embeddings

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

// newTEITestServer returns a server that answers /embed with one vector per
// input text. Vectors encode the input order so tests can check alignment.
func newTEITestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/embed", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req teiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Truncate)

		var count int
		switch inputs := req.Inputs.(type) {
		case string:
			count = 1
		case []interface{}:
			count = len(inputs)
		default:
			t.Errorf("unexpected inputs type %T", req.Inputs)
		}

		vectors := make([][]float32, count)
		for i := range vectors {
			vectors[i] = []float32{float32(i), float32(i) + 0.5}
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(vectors))
	}))
}

func TestNewTEIProvider(t *testing.T) {
	tests := []struct {
		name       string
		config     TEIConfig
		wantErr    bool
		errMessage string
	}{
		{
			name: "valid configuration",
			config: TEIConfig{
				BaseURL: "http://localhost:8080",
				Model:   "BAAI/bge-small-en-v1.5",
			},
		},
		{
			name:       "empty base URL",
			config:     TEIConfig{Model: "BAAI/bge-small-en-v1.5"},
			wantErr:    true,
			errMessage: "base URL required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := NewTEIProvider(tt.config)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidConfig)
				assert.Contains(t, err.Error(), tt.errMessage)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, provider)
		})
	}
}

func TestTEIProvider_EmbedDocuments(t *testing.T) {
	server := newTEITestServer(t)
	defer server.Close()

	provider, err := NewTEIProvider(TEIConfig{BaseURL: server.URL, Model: "BAAI/bge-small-en-v1.5"})
	require.NoError(t, err)

	vectors, err := provider.EmbedDocuments(context.Background(), []string{
		"Jokic averages a triple-double",
		"Wembanyama leads the league in blocks",
		"SGA is the scoring champion",
	})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, []float32{0, 0.5}, vectors[0])
	assert.Equal(t, []float32{2, 2.5}, vectors[2])
}

func TestTEIProvider_EmbedDocuments_EmptyInput(t *testing.T) {
	provider, err := NewTEIProvider(TEIConfig{BaseURL: "http://localhost:8080"})
	require.NoError(t, err)

	_, err = provider.EmbedDocuments(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = provider.EmbedDocuments(context.Background(), []string{})
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestTEIProvider_EmbedDocuments_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	provider, err := NewTEIProvider(TEIConfig{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = provider.EmbedDocuments(context.Background(), []string{"text"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmbeddingFailed)
	assert.Contains(t, err.Error(), "status 503")
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestTEIProvider_EmbedDocuments_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	provider, err := NewTEIProvider(TEIConfig{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = provider.EmbedDocuments(context.Background(), []string{"text"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmbeddingFailed)
}

func TestTEIProvider_EmbedDocuments_CountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([][]float32{{0.1, 0.2}})
	}))
	defer server.Close()

	provider, err := NewTEIProvider(TEIConfig{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = provider.EmbedDocuments(context.Background(), []string{"one", "two"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmbeddingFailed)
	assert.Contains(t, err.Error(), "got 1 vectors for 2 texts")
}

func TestTEIProvider_EmbedDocuments_ServerUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	provider, err := NewTEIProvider(TEIConfig{BaseURL: server.URL, Timeout: time.Second})
	require.NoError(t, err)

	_, err = provider.EmbedDocuments(context.Background(), []string{"text"})
	assert.ErrorIs(t, err, ErrEmbeddingFailed)
}

func TestTEIProvider_EmbedQuery(t *testing.T) {
	server := newTEITestServer(t)
	defer server.Close()

	provider, err := NewTEIProvider(TEIConfig{BaseURL: server.URL, Model: "BAAI/bge-small-en-v1.5"})
	require.NoError(t, err)

	vector, err := provider.EmbedQuery(context.Background(), "best waiver wire pickups this week")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0.5}, vector)
}

func TestTEIProvider_EmbedQuery_EmptyText(t *testing.T) {
	provider, err := NewTEIProvider(TEIConfig{BaseURL: "http://localhost:8080"})
	require.NoError(t, err)

	_, err = provider.EmbedQuery(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestTEIProvider_EmbedQuery_EmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([][]float32{})
	}))
	defer server.Close()

	provider, err := NewTEIProvider(TEIConfig{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = provider.EmbedQuery(context.Background(), "query")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmbeddingFailed)
	assert.Contains(t, err.Error(), "empty response")
}

func TestTEIProvider_ContextCancellation(t *testing.T) {
	server := newTEITestServer(t)
	defer server.Close()

	provider, err := NewTEIProvider(TEIConfig{BaseURL: server.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = provider.EmbedQuery(ctx, "query")
	assert.Error(t, err)
}

func TestTEIProvider_Dimension(t *testing.T) {
	provider, err := NewTEIProvider(TEIConfig{
		BaseURL: "http://localhost:8080",
		Model:   "BAAI/bge-base-en-v1.5",
	})
	require.NoError(t, err)
	assert.Equal(t, 768, provider.Dimension())
	assert.NoError(t, provider.Close())
}
