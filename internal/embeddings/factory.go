package embeddings

import (
	"github.com/fastbreaklabs/scoutd/internal/config"
)

// NewFromConfig creates an embedding provider from configuration, wrapped
// with the in-process cache when the config enables it.
//
// Example usage:
//
//	cfg, err := config.Load(path)
//	provider, err := embeddings.NewFromConfig(cfg.Embeddings)
//	defer provider.Close()
func NewFromConfig(cfg config.EmbeddingsConfig) (Provider, error) {
	provider, err := NewProvider(ProviderConfig{
		Provider: cfg.Provider,
		Model:    cfg.Model,
		BaseURL:  cfg.BaseURL,
		APIKey:   cfg.APIKey.Value(),
		CacheDir: cfg.CacheDir,
		Timeout:  cfg.Timeout.Duration(),
	})
	if err != nil {
		return nil, err
	}

	if cfg.Cache.Enabled {
		return NewCachedProvider(provider, cfg.Model, cfg.Cache.TTL.Duration(), cfg.Cache.MaxEntries), nil
	}

	return provider, nil
}
