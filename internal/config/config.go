// Package config provides configuration loading for scoutd.
//
// Configuration is layered: hardcoded defaults, then an optional YAML file,
// then SCOUTD_-prefixed environment variables. Every section carries its own
// defaults and validation.
package config

import (
	"fmt"
	"time"

	"github.com/fastbreaklabs/scoutd/internal/logging"
	"github.com/fastbreaklabs/scoutd/internal/telemetry"
)

// Config holds the complete scoutd configuration.
type Config struct {
	Logging     logging.Config    `koanf:"logging"`
	Telemetry   telemetry.Config  `koanf:"telemetry"`
	VectorStore VectorStoreConfig `koanf:"vectorstore"`
	Embeddings  EmbeddingsConfig  `koanf:"embeddings"`
	Reranker    RerankerConfig    `koanf:"reranker"`
	Retrieval   RetrievalConfig   `koanf:"retrieval"`
	Ingest      IngestConfig      `koanf:"ingest"`
}

// VectorStoreConfig selects and configures the vector index backend.
type VectorStoreConfig struct {
	// Provider selects the backend: "chromem" (embedded, default) or "qdrant".
	Provider string        `koanf:"provider"`
	Chromem  ChromemConfig `koanf:"chromem"`
	Qdrant   QdrantConfig  `koanf:"qdrant"`
}

// ChromemConfig configures the embedded chromem-go backend.
type ChromemConfig struct {
	// Path is the directory for persistent storage.
	Path string `koanf:"path"`

	// Compress enables gzip compression for stored data.
	Compress bool `koanf:"compress"`

	// VectorSize is the expected embedding dimension.
	// Must match the embedder's output dimension.
	VectorSize int `koanf:"vector_size"`
}

// QdrantConfig configures the remote Qdrant gRPC backend.
type QdrantConfig struct {
	// Host is the Qdrant server hostname or IP address.
	Host string `koanf:"host"`

	// Port is the Qdrant gRPC port (6334), not the HTTP REST port (6333).
	Port int `koanf:"port"`

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool `koanf:"use_tls"`

	// APIKey authenticates against Qdrant Cloud. Optional for local instances.
	APIKey Secret `koanf:"api_key"`

	// VectorSize is the dimensionality of embeddings.
	// Must match the embedder's output dimension.
	VectorSize int `koanf:"vector_size"`

	// Distance is the similarity metric: "cosine" (default), "dot", or "euclid".
	Distance string `koanf:"distance"`

	// MaxRetries is the retry budget for transient gRPC failures.
	MaxRetries int `koanf:"max_retries"`

	// RetryBackoff is the initial backoff, doubled per attempt.
	RetryBackoff Duration `koanf:"retry_backoff"`

	// CircuitBreakerThreshold is the failure count that opens the circuit.
	CircuitBreakerThreshold int `koanf:"circuit_breaker_threshold"`

	// CircuitBreakerResetTimeout is how long the circuit stays open.
	CircuitBreakerResetTimeout Duration `koanf:"circuit_breaker_reset_timeout"`

	// MaxMessageSize is the maximum gRPC message size in bytes.
	MaxMessageSize int `koanf:"max_message_size"`
}

// EmbeddingsConfig configures the text-to-vector provider.
type EmbeddingsConfig struct {
	// Provider selects the embedder: "tei" (default), "openai", or "fastembed".
	Provider string `koanf:"provider"`

	// Model is the embedding model name.
	Model string `koanf:"model"`

	// BaseURL is the API base URL for the tei and openai providers.
	BaseURL string `koanf:"base_url"`

	// APIKey authenticates the openai provider. Unused by tei and fastembed.
	APIKey Secret `koanf:"api_key"`

	// CacheDir is the model download directory for the fastembed provider.
	CacheDir string `koanf:"cache_dir"`

	// Timeout bounds a single embedding request.
	Timeout Duration `koanf:"timeout"`

	Cache EmbeddingCacheConfig `koanf:"cache"`
}

// EmbeddingCacheConfig configures the in-process embedding cache.
// Embeddings are deterministic per model and text, so cache hits are exact.
type EmbeddingCacheConfig struct {
	Enabled    bool     `koanf:"enabled"`
	TTL        Duration `koanf:"ttl"`
	MaxEntries int      `koanf:"max_entries"`
}

// RerankerConfig configures the cross-encoder reranking stage.
type RerankerConfig struct {
	// Provider selects the reranker: "tei" (remote cross-encoder, default)
	// or "overlap" (local lexical scorer, no external service).
	Provider string `koanf:"provider"`

	// BaseURL is the TEI reranker endpoint. Cross-encoder models run as a
	// separate TEI instance from the embedding model.
	BaseURL string `koanf:"base_url"`

	// Model is the cross-encoder model name.
	Model string `koanf:"model"`

	// Timeout bounds a single rerank request.
	Timeout Duration `koanf:"timeout"`
}

// RetrievalConfig configures the two-stage search pipeline.
type RetrievalConfig struct {
	// DefaultInitialK is the first-stage candidate count used when a
	// request leaves InitialK unset. Reranking cost grows linearly with
	// this value, so it is kept small.
	DefaultInitialK int `koanf:"default_initial_k"`

	// DefaultFinalK is the result count used when a request leaves
	// FinalK unset.
	DefaultFinalK int `koanf:"default_final_k"`

	// RetrievalTimeout bounds the vector search stage. Exceeding it is
	// treated as the store being unavailable.
	RetrievalTimeout Duration `koanf:"retrieval_timeout"`

	// RerankTimeout bounds the reranking stage. Exceeding it triggers
	// degradation to retrieval-order results.
	RerankTimeout Duration `koanf:"rerank_timeout"`
}

// IngestConfig configures offline corpus ingestion.
type IngestConfig struct {
	// BatchSize is the number of documents per AddDocuments call.
	BatchSize int `koanf:"batch_size"`

	// MaxDocBytes is the per-line size cap; oversized lines are skipped.
	MaxDocBytes int `koanf:"max_doc_bytes"`

	// RatePerSec paces batches to avoid saturating a remote embedder.
	// Zero disables pacing.
	RatePerSec float64 `koanf:"rate_per_sec"`
}

// NewDefaultConfig returns a Config with production-ready defaults.
func NewDefaultConfig() *Config {
	cfg := &Config{
		Logging:   *logging.NewDefaultConfig(),
		Telemetry: *telemetry.NewDefaultConfig(),
	}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in zero-valued fields section by section.
func (c *Config) applyDefaults() {
	if c.VectorStore.Provider == "" {
		c.VectorStore.Provider = "chromem"
	}
	if c.VectorStore.Chromem.Path == "" {
		c.VectorStore.Chromem.Path = "~/.config/scoutd/index"
	}
	if c.VectorStore.Chromem.VectorSize == 0 {
		c.VectorStore.Chromem.VectorSize = 384
	}

	if c.VectorStore.Qdrant.Host == "" {
		c.VectorStore.Qdrant.Host = "localhost"
	}
	if c.VectorStore.Qdrant.Port == 0 {
		c.VectorStore.Qdrant.Port = 6334
	}
	if c.VectorStore.Qdrant.VectorSize == 0 {
		c.VectorStore.Qdrant.VectorSize = 384
	}
	if c.VectorStore.Qdrant.Distance == "" {
		c.VectorStore.Qdrant.Distance = "cosine"
	}
	if c.VectorStore.Qdrant.MaxRetries == 0 {
		c.VectorStore.Qdrant.MaxRetries = 3
	}
	if c.VectorStore.Qdrant.RetryBackoff == 0 {
		c.VectorStore.Qdrant.RetryBackoff = Duration(time.Second)
	}
	if c.VectorStore.Qdrant.CircuitBreakerThreshold == 0 {
		c.VectorStore.Qdrant.CircuitBreakerThreshold = 5
	}
	if c.VectorStore.Qdrant.CircuitBreakerResetTimeout == 0 {
		c.VectorStore.Qdrant.CircuitBreakerResetTimeout = Duration(30 * time.Second)
	}
	if c.VectorStore.Qdrant.MaxMessageSize == 0 {
		c.VectorStore.Qdrant.MaxMessageSize = 50 * 1024 * 1024
	}

	if c.Embeddings.Provider == "" {
		c.Embeddings.Provider = "tei"
	}
	if c.Embeddings.Model == "" {
		c.Embeddings.Model = "BAAI/bge-small-en-v1.5"
	}
	if c.Embeddings.BaseURL == "" {
		c.Embeddings.BaseURL = "http://localhost:8080"
	}
	if c.Embeddings.Timeout == 0 {
		c.Embeddings.Timeout = Duration(30 * time.Second)
	}
	if c.Embeddings.Cache.TTL == 0 {
		c.Embeddings.Cache.TTL = Duration(15 * time.Minute)
	}
	if c.Embeddings.Cache.MaxEntries == 0 {
		c.Embeddings.Cache.MaxEntries = 4096
	}

	if c.Reranker.Provider == "" {
		c.Reranker.Provider = "tei"
	}
	if c.Reranker.BaseURL == "" {
		c.Reranker.BaseURL = "http://localhost:8081"
	}
	if c.Reranker.Model == "" {
		c.Reranker.Model = "BAAI/bge-reranker-base"
	}
	if c.Reranker.Timeout == 0 {
		c.Reranker.Timeout = Duration(10 * time.Second)
	}

	if c.Retrieval.DefaultInitialK == 0 {
		c.Retrieval.DefaultInitialK = 20
	}
	if c.Retrieval.DefaultFinalK == 0 {
		c.Retrieval.DefaultFinalK = 5
	}
	if c.Retrieval.RetrievalTimeout == 0 {
		c.Retrieval.RetrievalTimeout = Duration(5 * time.Second)
	}
	if c.Retrieval.RerankTimeout == 0 {
		c.Retrieval.RerankTimeout = Duration(10 * time.Second)
	}

	if c.Ingest.BatchSize == 0 {
		c.Ingest.BatchSize = 64
	}
	if c.Ingest.MaxDocBytes == 0 {
		c.Ingest.MaxDocBytes = 1024 * 1024
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	switch c.VectorStore.Provider {
	case "chromem":
		if c.VectorStore.Chromem.VectorSize <= 0 {
			return fmt.Errorf("vectorstore.chromem: vector_size must be positive, got %d", c.VectorStore.Chromem.VectorSize)
		}
	case "qdrant":
		q := c.VectorStore.Qdrant
		if q.Host == "" {
			return fmt.Errorf("vectorstore.qdrant: host required")
		}
		if q.Port < 1 || q.Port > 65535 {
			return fmt.Errorf("vectorstore.qdrant: invalid port: %d", q.Port)
		}
		if q.VectorSize <= 0 {
			return fmt.Errorf("vectorstore.qdrant: vector_size must be positive, got %d", q.VectorSize)
		}
		switch q.Distance {
		case "cosine", "dot", "euclid":
		default:
			return fmt.Errorf("vectorstore.qdrant: distance must be cosine, dot, or euclid, got %q", q.Distance)
		}
	default:
		return fmt.Errorf("vectorstore: provider must be 'chromem' or 'qdrant', got %q", c.VectorStore.Provider)
	}

	switch c.Embeddings.Provider {
	case "tei", "openai":
		if c.Embeddings.BaseURL == "" {
			return fmt.Errorf("embeddings: base_url required for provider %q", c.Embeddings.Provider)
		}
	case "fastembed":
	default:
		return fmt.Errorf("embeddings: provider must be 'tei', 'openai', or 'fastembed', got %q", c.Embeddings.Provider)
	}
	if c.Embeddings.Timeout.Duration() <= 0 {
		return fmt.Errorf("embeddings: timeout must be positive")
	}

	switch c.Reranker.Provider {
	case "tei":
		if c.Reranker.BaseURL == "" {
			return fmt.Errorf("reranker: base_url required for provider 'tei'")
		}
	case "overlap":
	default:
		return fmt.Errorf("reranker: provider must be 'tei' or 'overlap', got %q", c.Reranker.Provider)
	}
	if c.Reranker.Timeout.Duration() <= 0 {
		return fmt.Errorf("reranker: timeout must be positive")
	}

	r := c.Retrieval
	if r.DefaultInitialK < 1 {
		return fmt.Errorf("retrieval: default_initial_k must be >= 1, got %d", r.DefaultInitialK)
	}
	if r.DefaultFinalK < 1 {
		return fmt.Errorf("retrieval: default_final_k must be >= 1, got %d", r.DefaultFinalK)
	}
	if r.DefaultFinalK > r.DefaultInitialK {
		return fmt.Errorf("retrieval: default_final_k (%d) cannot exceed default_initial_k (%d)", r.DefaultFinalK, r.DefaultInitialK)
	}
	if r.RetrievalTimeout.Duration() <= 0 {
		return fmt.Errorf("retrieval: retrieval_timeout must be positive")
	}
	if r.RerankTimeout.Duration() <= 0 {
		return fmt.Errorf("retrieval: rerank_timeout must be positive")
	}

	if c.Ingest.BatchSize < 1 {
		return fmt.Errorf("ingest: batch_size must be >= 1, got %d", c.Ingest.BatchSize)
	}
	if c.Ingest.MaxDocBytes < 1 {
		return fmt.Errorf("ingest: max_doc_bytes must be >= 1, got %d", c.Ingest.MaxDocBytes)
	}
	if c.Ingest.RatePerSec < 0 {
		return fmt.Errorf("ingest: rate_per_sec cannot be negative")
	}

	return nil
}
