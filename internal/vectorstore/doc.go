// Package vectorstore provides the embedding index behind scoutd's retrieval
// stage: document storage, similarity search, and collection management.
//
// Two implementations are provided behind the Store interface:
//
//   - ChromemStore: embedded chromem-go database. Pure Go, no external
//     service, persistence to disk. The default for single-node deployments.
//
//   - QdrantStore: external Qdrant server over native gRPC (port 6334).
//     Retries transient failures with exponential backoff and fails fast
//     through a circuit breaker when the server is persistently down.
//
// Both stores accept documents with pre-computed embeddings and fall back to
// the configured Embedder for documents without one. Search results are
// returned in descending similarity order; searching an empty collection
// yields an empty slice, not an error.
//
// Error contract:
//
//   - ErrCollectionNotFound: the named collection does not exist.
//   - ErrStoreUnavailable: the backend is unreachable or persistently
//     failing (retries exhausted, circuit breaker open).
//   - ErrInvalidCollectionName: the name fails validation.
//
// Callers distinguish these with errors.Is; everything else is wrapped with
// operation context.
package vectorstore
