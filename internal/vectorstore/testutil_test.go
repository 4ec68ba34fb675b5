package vectorstore_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fastbreaklabs/scoutd/internal/vectorstore"
)

// TestEmbedder returns deterministic normalized vectors derived from a text
// hash, so identical text always embeds to the identical vector.
type TestEmbedder struct {
	VectorSize int

	// DocCalls counts EmbedDocuments invocations, used to verify that
	// pre-embedded documents skip the embedder.
	DocCalls int
}

func (e *TestEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	e.DocCalls++
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = e.makeEmbedding(text)
	}
	return embeddings, nil
}

func (e *TestEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.makeEmbedding(text), nil
}

// makeEmbedding creates a normalized embedding based on a text hash.
func (e *TestEmbedder) makeEmbedding(text string) []float32 {
	embedding := make([]float32, e.VectorSize)
	hash := 0
	for _, c := range text {
		hash = (hash*31 + int(c)) % 1000
	}
	var sumSq float64
	for i := range embedding {
		embedding[i] = float32((hash+i)%100) / 100.0
		sumSq += float64(embedding[i]) * float64(embedding[i])
	}
	// chromem expects unit vectors
	if sumSq > 0 {
		norm := float32(1.0 / math.Sqrt(sumSq))
		for i := range embedding {
			embedding[i] *= norm
		}
	}
	return embedding
}

func newTestChromemStore(t *testing.T) (*vectorstore.ChromemStore, *TestEmbedder) {
	t.Helper()

	embedder := &TestEmbedder{VectorSize: 384}
	config := vectorstore.ChromemConfig{
		Path:       t.TempDir(),
		Compress:   false, // faster for tests
		VectorSize: 384,
	}

	store, err := vectorstore.NewChromemStore(config, embedder, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store, embedder
}
