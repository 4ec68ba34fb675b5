package embeddings

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

const (
	defaultCacheTTL        = 15 * time.Minute
	defaultCacheMaxEntries = 4096
)

// cacheEntry holds one embedding with expiry and LRU bookkeeping.
type cacheEntry struct {
	vector       []float32
	expiresAt    time.Time
	lastAccessed time.Time
}

// CachedProvider wraps a Provider with a thread-safe in-process cache.
// Entries expire after a TTL and the least recently used entry is evicted
// when the cache is full. Embeddings are deterministic for a given model
// and text, so hits are exact.
type CachedProvider struct {
	inner      Provider
	model      string
	ttl        time.Duration
	maxEntries int
	metrics    *Metrics

	mu      sync.Mutex
	entries map[string]*cacheEntry
}

var _ Provider = (*CachedProvider)(nil)

// NewCachedProvider wraps inner with a cache keyed by model and text.
// Non-positive ttl or maxEntries fall back to 15m and 4096.
func NewCachedProvider(inner Provider, model string, ttl time.Duration, maxEntries int) *CachedProvider {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if maxEntries <= 0 {
		maxEntries = defaultCacheMaxEntries
	}
	return &CachedProvider{
		inner:      inner,
		model:      model,
		ttl:        ttl,
		maxEntries: maxEntries,
		metrics:    NewMetrics(nil),
		entries:    make(map[string]*cacheEntry),
	}
}

// cacheKey derives the cache key for one text. Query and passage embeddings
// differ for prefixing models, so the operation kind is part of the key.
func cacheKey(model, kind, text string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + kind + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

// EmbedDocuments returns cached embeddings where available and generates
// the rest in a single call to the wrapped provider.
func (c *CachedProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts cannot be empty", ErrEmptyInput)
	}

	results := make([][]float32, len(texts))
	var missingIdx []int
	var missingTexts []string

	for i, text := range texts {
		if vector, ok := c.get(cacheKey(c.model, "doc", text)); ok {
			results[i] = vector
			c.metrics.RecordCacheLookup(ctx, c.model, true)
			continue
		}
		c.metrics.RecordCacheLookup(ctx, c.model, false)
		missingIdx = append(missingIdx, i)
		missingTexts = append(missingTexts, text)
	}

	if len(missingTexts) == 0 {
		return results, nil
	}

	vectors, err := c.inner.EmbedDocuments(ctx, missingTexts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(missingTexts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", ErrEmbeddingFailed, len(vectors), len(missingTexts))
	}

	for j, i := range missingIdx {
		results[i] = vectors[j]
		c.put(cacheKey(c.model, "doc", texts[i]), vectors[j])
	}

	return results, nil
}

// EmbedQuery returns the cached embedding for the query or generates it
// through the wrapped provider.
func (c *CachedProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", ErrEmptyInput)
	}

	key := cacheKey(c.model, "query", text)
	if vector, ok := c.get(key); ok {
		c.metrics.RecordCacheLookup(ctx, c.model, true)
		return vector, nil
	}
	c.metrics.RecordCacheLookup(ctx, c.model, false)

	vector, err := c.inner.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	c.put(key, vector)

	return vector, nil
}

// Dimension returns the wrapped provider's embedding dimension.
func (c *CachedProvider) Dimension() int {
	return c.inner.Dimension()
}

// Close releases the wrapped provider's resources. Cached entries are
// dropped with the CachedProvider itself.
func (c *CachedProvider) Close() error {
	return c.inner.Close()
}

// get returns the cached vector when present and not expired.
// Expired entries are removed.
func (c *CachedProvider) get(key string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}

	entry.lastAccessed = time.Now()
	return entry.vector, true
}

// put stores a vector, evicting the least recently used entry when full.
func (c *CachedProvider) put(key string, vector []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxEntries {
		if _, exists := c.entries[key]; !exists {
			c.evictLRU()
		}
	}

	now := time.Now()
	c.entries[key] = &cacheEntry{
		vector:       vector,
		expiresAt:    now.Add(c.ttl),
		lastAccessed: now,
	}
}

// evictLRU removes the entry with the oldest access time.
// Caller must hold the lock.
func (c *CachedProvider) evictLRU() {
	var oldestKey string
	var oldestTime time.Time

	first := true
	for key, entry := range c.entries {
		if first || entry.lastAccessed.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.lastAccessed
			first = false
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
