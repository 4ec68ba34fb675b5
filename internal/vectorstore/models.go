package vectorstore

import (
	"context"
	"fmt"
)

// Document represents a document to be stored in the vector store.
type Document struct {
	// ID is the unique identifier for the document. Stores generate one
	// when empty, but callers should provide explicit IDs so re-ingesting
	// the same corpus upserts instead of duplicating.
	ID string

	// Text is the document content that gets embedded and returned as a
	// retrieval candidate.
	Text string

	// Metadata contains additional key-value pairs carried alongside the
	// document. Common fields: position, team, season, source.
	Metadata map[string]interface{}

	// Embedding is an optional pre-computed vector. When empty the store
	// embeds Text itself; when set its dimension must match the
	// collection's vector size.
	Embedding []float32
}

// SearchResult represents a single retrieval candidate.
type SearchResult struct {
	// ID is the document identifier.
	ID string

	// Text is the document content.
	Text string

	// Score is the similarity score (higher = more similar).
	Score float32

	// Metadata contains the document metadata.
	Metadata map[string]interface{}
}

// resolveEmbeddings returns one embedding per document in input order.
// Pre-supplied embeddings are kept; the rest are generated in a single
// batch call. vectorSize > 0 enables dimension validation.
func resolveEmbeddings(ctx context.Context, embedder Embedder, docs []Document, vectorSize int) ([][]float32, error) {
	embeddings := make([][]float32, len(docs))

	var (
		pendingTexts []string
		pendingIdx   []int
	)
	for i, doc := range docs {
		if len(doc.Embedding) > 0 {
			if vectorSize > 0 && len(doc.Embedding) != vectorSize {
				return nil, fmt.Errorf("%w: document %q has dimension %d, expected %d",
					ErrDimensionMismatch, doc.ID, len(doc.Embedding), vectorSize)
			}
			embeddings[i] = doc.Embedding
			continue
		}
		pendingTexts = append(pendingTexts, doc.Text)
		pendingIdx = append(pendingIdx, i)
	}

	if len(pendingTexts) == 0 {
		return embeddings, nil
	}
	if embedder == nil {
		return nil, fmt.Errorf("%w: no embedder configured", ErrEmbeddingFailed)
	}

	generated, err := embedder.EmbedDocuments(ctx, pendingTexts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	if len(generated) != len(pendingTexts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts",
			ErrEmbeddingFailed, len(generated), len(pendingTexts))
	}
	for j, idx := range pendingIdx {
		if vectorSize > 0 && len(generated[j]) != vectorSize {
			return nil, fmt.Errorf("%w: embedder returned dimension %d, expected %d",
				ErrDimensionMismatch, len(generated[j]), vectorSize)
		}
		embeddings[idx] = generated[j]
	}
	return embeddings, nil
}

// convertMetadataToString converts map[string]interface{} to map[string]string
// for backends that only store string metadata.
func convertMetadataToString(metadata map[string]interface{}) map[string]string {
	if metadata == nil {
		return nil
	}

	result := make(map[string]string, len(metadata))
	for k, v := range metadata {
		switch val := v.(type) {
		case string:
			result[k] = val
		case int:
			result[k] = fmt.Sprintf("%d", val)
		case int64:
			result[k] = fmt.Sprintf("%d", val)
		case float64:
			result[k] = fmt.Sprintf("%f", val)
		case bool:
			result[k] = fmt.Sprintf("%t", val)
		default:
			result[k] = fmt.Sprintf("%v", val)
		}
	}
	return result
}

// convertMetadataFromString converts map[string]string back to map[string]interface{}.
func convertMetadataFromString(metadata map[string]string) map[string]interface{} {
	if metadata == nil {
		return nil
	}

	result := make(map[string]interface{}, len(metadata))
	for k, v := range metadata {
		result[k] = v
	}
	return result
}
