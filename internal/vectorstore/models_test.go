package vectorstore

import (
	"context"
	"errors"
	"testing"
)

type stubEmbedder struct {
	dim   int
	calls int
	err   error
}

func (e *stubEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, e.dim)
	}
	return out, nil
}

func (e *stubEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return make([]float32, e.dim), nil
}

func TestResolveEmbeddings(t *testing.T) {
	ctx := context.Background()

	t.Run("generates missing embeddings in one batch", func(t *testing.T) {
		embedder := &stubEmbedder{dim: 4}
		docs := []Document{
			{ID: "a", Text: "alpha"},
			{ID: "b", Text: "beta", Embedding: []float32{1, 0, 0, 0}},
			{ID: "c", Text: "gamma"},
		}

		embeddings, err := resolveEmbeddings(ctx, embedder, docs, 4)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(embeddings) != 3 {
			t.Fatalf("expected 3 embeddings, got %d", len(embeddings))
		}
		if embedder.calls != 1 {
			t.Errorf("expected 1 embedder call, got %d", embedder.calls)
		}
		if embeddings[1][0] != 1 {
			t.Errorf("pre-supplied embedding was not preserved")
		}
	})

	t.Run("all pre-embedded skips embedder", func(t *testing.T) {
		embedder := &stubEmbedder{dim: 4}
		docs := []Document{
			{ID: "a", Text: "alpha", Embedding: []float32{0, 1, 0, 0}},
		}

		_, err := resolveEmbeddings(ctx, embedder, docs, 4)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if embedder.calls != 0 {
			t.Errorf("expected no embedder calls, got %d", embedder.calls)
		}
	})

	t.Run("pre-supplied dimension mismatch", func(t *testing.T) {
		docs := []Document{
			{ID: "a", Text: "alpha", Embedding: []float32{1, 2}},
		}

		_, err := resolveEmbeddings(ctx, &stubEmbedder{dim: 4}, docs, 4)
		if !errors.Is(err, ErrDimensionMismatch) {
			t.Errorf("expected ErrDimensionMismatch, got %v", err)
		}
	})

	t.Run("generated dimension mismatch", func(t *testing.T) {
		docs := []Document{{ID: "a", Text: "alpha"}}

		_, err := resolveEmbeddings(ctx, &stubEmbedder{dim: 2}, docs, 4)
		if !errors.Is(err, ErrDimensionMismatch) {
			t.Errorf("expected ErrDimensionMismatch, got %v", err)
		}
	})

	t.Run("embedder failure wrapped", func(t *testing.T) {
		docs := []Document{{ID: "a", Text: "alpha"}}
		embedder := &stubEmbedder{dim: 4, err: errors.New("model offline")}

		_, err := resolveEmbeddings(ctx, embedder, docs, 4)
		if !errors.Is(err, ErrEmbeddingFailed) {
			t.Errorf("expected ErrEmbeddingFailed, got %v", err)
		}
	})

	t.Run("nil embedder with unembedded documents", func(t *testing.T) {
		docs := []Document{{ID: "a", Text: "alpha"}}

		_, err := resolveEmbeddings(ctx, nil, docs, 4)
		if !errors.Is(err, ErrEmbeddingFailed) {
			t.Errorf("expected ErrEmbeddingFailed, got %v", err)
		}
	})
}

func TestPointIDDeterministic(t *testing.T) {
	a := pointID("players", "jokic")
	b := pointID("players", "jokic")
	if a != b {
		t.Errorf("point ID not deterministic: %s != %s", a, b)
	}

	if pointID("players", "jokic") == pointID("trades", "jokic") {
		t.Errorf("point ID must differ across collections")
	}
	if pointID("players", "jokic") == pointID("players", "sga") {
		t.Errorf("point ID must differ across documents")
	}
}

func TestConvertMetadataRoundTrip(t *testing.T) {
	in := map[string]interface{}{
		"position": "C",
		"rank":     12,
		"adp":      3.5,
		"keeper":   true,
	}

	flat := convertMetadataToString(in)
	if flat["position"] != "C" || flat["rank"] != "12" || flat["keeper"] != "true" {
		t.Errorf("unexpected flattened metadata: %v", flat)
	}

	back := convertMetadataFromString(flat)
	if back["position"] != "C" {
		t.Errorf("round trip lost position: %v", back)
	}

	if convertMetadataToString(nil) != nil {
		t.Errorf("nil metadata must stay nil")
	}
	if convertMetadataFromString(nil) != nil {
		t.Errorf("nil metadata must stay nil")
	}
}
