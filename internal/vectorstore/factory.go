package vectorstore

import (
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/fastbreaklabs/scoutd/internal/config"
	"github.com/fastbreaklabs/scoutd/internal/logging"
)

// NewStore creates a Store from configuration.
//
// The factory examines VectorStoreConfig.Provider and builds the matching
// implementation:
//   - "chromem" (default): embedded ChromemStore, no external service
//   - "qdrant": QdrantStore against an external Qdrant server
//
// Example usage:
//
//	cfg, err := config.Load(path)
//	store, err := vectorstore.NewStore(cfg.VectorStore, embedder, logger)
//	defer store.Close()
func NewStore(cfg config.VectorStoreConfig, embedder Embedder, logger *logging.Logger) (Store, error) {
	switch cfg.Provider {
	case "chromem", "":
		return NewChromemStore(ChromemConfig{
			Path:       cfg.Chromem.Path,
			Compress:   cfg.Chromem.Compress,
			VectorSize: cfg.Chromem.VectorSize,
		}, embedder, logger)

	case "qdrant":
		return NewQdrantStore(QdrantConfig{
			Host:                       cfg.Qdrant.Host,
			Port:                       cfg.Qdrant.Port,
			APIKey:                     cfg.Qdrant.APIKey.Value(),
			UseTLS:                     cfg.Qdrant.UseTLS,
			VectorSize:                 uint64(cfg.Qdrant.VectorSize),
			Distance:                   distanceFromName(cfg.Qdrant.Distance),
			MaxRetries:                 cfg.Qdrant.MaxRetries,
			RetryBackoff:               cfg.Qdrant.RetryBackoff.Duration(),
			MaxMessageSize:             cfg.Qdrant.MaxMessageSize,
			CircuitBreakerThreshold:    cfg.Qdrant.CircuitBreakerThreshold,
			CircuitBreakerResetTimeout: cfg.Qdrant.CircuitBreakerResetTimeout.Duration(),
		}, embedder, logger)

	default:
		return nil, fmt.Errorf("%w: unsupported vectorstore provider: %s (supported: chromem, qdrant)",
			ErrInvalidConfig, cfg.Provider)
	}
}

// distanceFromName maps a config distance name to the Qdrant metric.
// Unknown names fall back to cosine; config validation rejects them upstream.
func distanceFromName(name string) qdrant.Distance {
	switch name {
	case "dot":
		return qdrant.Distance_Dot
	case "euclid":
		return qdrant.Distance_Euclid
	default:
		return qdrant.Distance_Cosine
	}
}
