package vectorstore

import (
	"context"
	"errors"

	"github.com/fastbreaklabs/scoutd/internal/collections"
)

// Sentinel errors for vector store operations.
var (
	// ErrCollectionNotFound is returned when a collection does not exist.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrCollectionExists is returned when attempting to create an existing collection.
	ErrCollectionExists = errors.New("collection already exists")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyDocuments indicates empty or nil documents.
	ErrEmptyDocuments = errors.New("empty or nil documents")

	// ErrConnectionFailed indicates the store backend could not be reached
	// during construction.
	ErrConnectionFailed = errors.New("failed to connect to vector store")

	// ErrEmbeddingFailed indicates embedding generation failure.
	ErrEmbeddingFailed = errors.New("failed to generate embeddings")

	// ErrStoreUnavailable indicates the backend is unreachable or
	// persistently failing: retries exhausted, circuit breaker open, or the
	// index itself is gone. Retrieval maps this to a search-unavailable
	// response so callers can fall back to structured queries.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrDimensionMismatch indicates an embedding whose dimension does not
	// match the collection's configured vector size.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrInvalidCollectionName indicates collection name validation failure.
	// Aliases collections.ErrInvalidName so errors.Is matches either.
	ErrInvalidCollectionName = collections.ErrInvalidName
)

// ValidateCollectionName validates a collection name against the naming
// rules shared with the collections registry: ^[a-z0-9_]{1,64}$.
// Rejects uppercase, special chars, path traversal, spaces.
func ValidateCollectionName(name string) error {
	return collections.Validate(name)
}

// CollectionInfo contains metadata about a vector collection.
type CollectionInfo struct {
	// Name is the collection name.
	Name string `json:"name"`

	// PointCount is the number of vectors in the collection.
	PointCount int `json:"point_count"`

	// VectorSize is the dimensionality of vectors in this collection.
	VectorSize int `json:"vector_size"`
}

// Embedder generates vector embeddings from text.
//
// Embeddings are dense numerical representations that capture semantic
// meaning, enabling similarity search. Implementations can use local models
// (TEI, fastembed) or cloud APIs (OpenAI). Embedding must be deterministic:
// identical text yields an identical vector, which is what makes retrieval
// reproducible and cacheable.
type Embedder interface {
	// EmbedDocuments generates embeddings for multiple texts.
	// Returns a slice of embeddings (one per input text) or an error.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single query.
	// Some models optimize differently for queries vs documents.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Store is the interface for vector storage operations.
//
// Every operation addresses a collection by name: collections are
// independent partitions of the index ("players", "strategies", "trades")
// and a search never crosses collection boundaries. Implementations must be
// safe for concurrent readers.
//
// Implementations:
//   - ChromemStore: embedded chromem-go (default)
//   - QdrantStore: external Qdrant gRPC client
type Store interface {
	// AddDocuments adds documents to the named collection.
	//
	// Documents carrying an Embedding are stored as-is; documents without
	// one are embedded via the store's Embedder. Returns the IDs under
	// which the documents were stored.
	AddDocuments(ctx context.Context, collection string, docs []Document) ([]string, error)

	// Search performs similarity search in the named collection.
	//
	// Returns up to topN results ordered by similarity score (highest
	// first). topN is clamped to the collection size; searching an empty
	// collection returns an empty slice and a nil error. A missing
	// collection returns ErrCollectionNotFound.
	Search(ctx context.Context, collection string, query string, topN int) ([]SearchResult, error)

	// CreateCollection creates a new collection with the given vector
	// dimensionality. vectorSize 0 means the store's configured default.
	// Returns ErrCollectionExists if the collection already exists.
	CreateCollection(ctx context.Context, collection string, vectorSize int) error

	// DeleteCollection deletes a collection and all its documents.
	// This is a destructive operation that cannot be undone.
	DeleteCollection(ctx context.Context, collection string) error

	// CollectionExists checks if a collection exists.
	// Returns an error only if the check operation itself fails.
	CollectionExists(ctx context.Context, collection string) (bool, error)

	// ListCollections returns all collection names.
	ListCollections(ctx context.Context) ([]string, error)

	// GetCollectionInfo returns metadata about a collection, including
	// point count and vector size. Returns ErrCollectionNotFound if the
	// collection doesn't exist.
	GetCollectionInfo(ctx context.Context, collection string) (*CollectionInfo, error)

	// HealthCheck verifies the backend is reachable and serving.
	HealthCheck(ctx context.Context) error

	// Close closes the vector store connection and releases resources.
	Close() error
}
