package embeddings

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fastbreaklabs/scoutd/internal/vectorstore"
)

var (
	// ErrEmptyInput indicates empty or nil input texts.
	ErrEmptyInput = errors.New("empty or nil input texts")

	// ErrInvalidConfig indicates invalid provider configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmbeddingFailed indicates embedding generation failure.
	ErrEmbeddingFailed = errors.New("embedding generation failed")

	// ErrFastEmbedNotAvailable is returned when the fastembed provider is
	// requested in a binary built without cgo.
	ErrFastEmbedNotAvailable = errors.New("fastembed: not available (binary built without cgo, use the tei provider instead)")
)

// Provider is the interface implemented by all embedding providers.
type Provider interface {
	vectorstore.Embedder
	// Dimension returns the embedding dimension for the configured model.
	Dimension() int
	// Close releases resources held by the provider.
	Close() error
}

// ProviderConfig holds configuration for creating an embedding provider.
type ProviderConfig struct {
	// Provider selects the implementation: "tei" (default), "openai",
	// or "fastembed".
	Provider string
	// Model is the embedding model name.
	Model string
	// BaseURL is the API base URL for the tei and openai providers.
	BaseURL string
	// APIKey authenticates the openai provider. Unused by tei and fastembed.
	APIKey string
	// CacheDir is the model download directory for the fastembed provider.
	CacheDir string
	// Timeout bounds a single request for the HTTP providers.
	Timeout time.Duration
}

// NewProvider creates an embedding provider based on the configuration.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	switch cfg.Provider {
	case "tei", "":
		return NewTEIProvider(TEIConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})
	case "openai":
		return NewOpenAIProvider(OpenAIConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			APIKey:  cfg.APIKey,
		})
	case "fastembed":
		return NewFastEmbedProvider(FastEmbedConfig{
			Model:    cfg.Model,
			CacheDir: cfg.CacheDir,
		})
	default:
		return nil, fmt.Errorf("%w: unknown provider %q (supported: tei, openai, fastembed)", ErrInvalidConfig, cfg.Provider)
	}
}

// knownModelDimensions maps model names to their embedding dimensions.
var knownModelDimensions = map[string]int{
	"BAAI/bge-small-en-v1.5":                  384,
	"BAAI/bge-small-en":                       384,
	"BAAI/bge-base-en-v1.5":                   768,
	"BAAI/bge-base-en":                        768,
	"BAAI/bge-large-en-v1.5":                  1024,
	"BAAI/bge-small-zh-v1.5":                  512,
	"sentence-transformers/all-MiniLM-L6-v2":  384,
	"sentence-transformers/all-MiniLM-L12-v2": 384,
	"text-embedding-ada-002":                  1536,
	"text-embedding-3-small":                  1536,
	"text-embedding-3-large":                  3072,
}

// detectDimension returns the embedding dimension for a model name.
// Unknown models fall back to common naming patterns, then to 384.
func detectDimension(model string) int {
	if dim, ok := knownModelDimensions[model]; ok {
		return dim
	}
	name := strings.ToLower(model)
	switch {
	case strings.Contains(name, "large"):
		return 1024
	case strings.Contains(name, "base"):
		return 768
	case strings.Contains(name, "small"), strings.Contains(name, "mini"):
		return 384
	default:
		return 384
	}
}
