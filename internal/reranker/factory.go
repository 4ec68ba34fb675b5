package reranker

import (
	"fmt"

	"github.com/fastbreaklabs/scoutd/internal/config"
)

// NewFromConfig creates a reranker from configuration.
//
// Construction is cheap for both providers; deployments that want to defer
// the first reranker round-trip (or survive a misconfigured endpoint until
// first use) wrap the result in a LazyReranker:
//
//	rr := reranker.NewLazyReranker(func() (reranker.Reranker, error) {
//	    return reranker.NewFromConfig(cfg.Reranker)
//	})
func NewFromConfig(cfg config.RerankerConfig) (Reranker, error) {
	switch cfg.Provider {
	case "tei", "":
		return NewTEIReranker(TEIConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout.Duration(),
		})
	case "overlap":
		return NewOverlapReranker(), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q (supported: tei, overlap)", ErrInvalidConfig, cfg.Provider)
	}
}
