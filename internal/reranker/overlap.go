package reranker

import (
	"context"
	"sort"
	"strings"
)

// OverlapReranker scores candidates by lexical term overlap with the query.
// It needs no external service, which makes it the fallback scorer for
// deployments without a cross-encoder.
//
// The score blends the query-term overlap ratio with the retrieval score,
// min-max normalized within the batch so dot-product and cosine scales rank
// the same way. Each contributes half. A query with no usable terms leaves
// only the retrieval component, reproducing the retriever's order.
type OverlapReranker struct{}

var _ Reranker = (*OverlapReranker)(nil)

// NewOverlapReranker creates an OverlapReranker.
func NewOverlapReranker() *OverlapReranker {
	return &OverlapReranker{}
}

// Rerank scores each document by blended overlap and returns the top K.
func (r *OverlapReranker) Rerank(ctx context.Context, query string, docs []Document, topK int) ([]ScoredDocument, error) {
	if err := validateRerankArgs(ctx, query, topK); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return []ScoredDocument{}, nil
	}

	queryTokens := tokenize(query)
	retrievalWeight := normalizeScores(docs)

	scored := make([]ScoredDocument, len(docs))
	for i, doc := range docs {
		overlap := termOverlap(queryTokens, tokenize(doc.Text))
		scored[i] = ScoredDocument{
			Document:     doc,
			RerankScore:  0.5*retrievalWeight[i] + 0.5*overlap,
			OriginalRank: i,
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RerankScore > scored[j].RerankScore
	})

	return scored[:clampTopK(topK, len(scored))], nil
}

// Close is a no-op; the reranker holds no resources.
func (r *OverlapReranker) Close() error {
	return nil
}

// normalizeScores maps retrieval scores into [0, 1] within the batch.
// When all scores are equal the component cancels out of the ordering,
// so every document gets 1.
func normalizeScores(docs []Document) []float32 {
	lo, hi := docs[0].Score, docs[0].Score
	for _, doc := range docs[1:] {
		if doc.Score < lo {
			lo = doc.Score
		}
		if doc.Score > hi {
			hi = doc.Score
		}
	}

	normalized := make([]float32, len(docs))
	if hi == lo {
		for i := range normalized {
			normalized[i] = 1
		}
		return normalized
	}
	for i, doc := range docs {
		normalized[i] = (doc.Score - lo) / (hi - lo)
	}
	return normalized
}

// stopwords are common English terms excluded from overlap scoring.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "as": true, "is": true, "was": true,
	"are": true, "be": true, "been": true, "being": true, "have": true, "has": true,
	"had": true, "do": true, "does": true, "did": true, "will": true, "would": true,
	"could": true, "should": true, "may": true, "might": true, "can": true, "this": true,
	"that": true, "these": true, "those": true, "i": true, "you": true, "he": true,
	"she": true, "it": true, "we": true, "they": true, "what": true, "which": true,
	"who": true, "when": true, "where": true, "why": true, "how": true,
}

// tokenize splits text into lowercase terms, dropping stopwords and tokens
// shorter than three characters.
func tokenize(text string) []string {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !isAlphanumeric(r)
	})

	filtered := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if !stopwords[token] && len(token) > 2 {
			filtered = append(filtered, token)
		}
	}
	return filtered
}

// isAlphanumeric reports whether the rune is a letter, digit, or underscore.
func isAlphanumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') || r == '_'
}

// termOverlap returns the fraction of unique query terms found in the
// document tokens, in [0, 1].
func termOverlap(queryTokens, docTokens []string) float32 {
	if len(queryTokens) == 0 {
		return 0
	}

	docSet := make(map[string]bool, len(docTokens))
	for _, token := range docTokens {
		docSet[token] = true
	}

	matched := make(map[string]bool, len(queryTokens))
	unique := 0
	hits := 0
	for _, token := range queryTokens {
		if matched[token] {
			continue
		}
		matched[token] = true
		unique++
		if docSet[token] {
			hits++
		}
	}

	return float32(hits) / float32(unique)
}
