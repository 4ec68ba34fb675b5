// Package embeddings turns text into vectors.
//
// Three providers are supported:
//
//   - "tei": a Text Embeddings Inference server reached over HTTP. This is
//     the default and the recommended setup for scoutd.
//   - "openai": the OpenAI embeddings API, or any OpenAI-compatible
//     endpoint, via langchaingo.
//   - "fastembed": local ONNX inference. Only available in cgo builds;
//     without cgo the constructor returns ErrFastEmbedNotAvailable.
//
// All providers implement Provider, which extends vectorstore.Embedder with
// Dimension and Close. Embeddings are deterministic for a given model and
// text, so NewCachedProvider can wrap any Provider with an exact in-process
// cache keyed by model and text.
//
// Example:
//
//	provider, err := embeddings.NewProvider(embeddings.ProviderConfig{
//	    Provider: "tei",
//	    BaseURL:  "http://localhost:8080",
//	    Model:    "BAAI/bge-small-en-v1.5",
//	})
//	if err != nil {
//	    // Handle error
//	}
//	defer provider.Close()
//	vectors, err := provider.EmbedDocuments(ctx, []string{"Jokic triple-double streak"})
package embeddings
