package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks founder-ai/internal/vectorstore VectorStore

import "context"

// Row is a stored transcript chunk: embedding vector plus payload metadata.
// Payload content is immutable after insert; the only mutation the pipeline
// performs is full replacement of all rows sharing a source identity.
type Row struct {
	ID      string
	Vec     []float32
	Payload map[string]any
}

// Match is a Row projection returned by similarity search, with the cosine
// similarity score. Never persisted.
type Match struct {
	ID         string
	Similarity float32
	Payload    map[string]any
}

// VectorStore defines the narrow datastore interface the pipeline depends on.
type VectorStore interface {
	// Upsert inserts or updates rows in the collection.
	Upsert(ctx context.Context, collection string, rows []Row) error

	// DeleteBySource removes every row whose payload matches the given
	// (source_origin, source_id) identity.
	DeleteBySource(ctx context.Context, collection, sourceOrigin, sourceID string) error

	// Search returns rows ranked by cosine similarity to query, dropping
	// anything below threshold, at most limit results.
	Search(ctx context.Context, collection string, query []float32, threshold float32, limit int) ([]Match, error)

	// EnsureCollection creates the collection if missing and validates its
	// vector size otherwise.
	EnsureCollection(ctx context.Context, collection string, vectorSize int) error

	// CollectionExists reports whether the collection exists.
	CollectionExists(ctx context.Context, collection string) (bool, error)
}
