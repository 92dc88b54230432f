package driven

import "context"

// VectorIndex provides semantic similarity search operations.
// The document store remains the source of truth; an index may be rebuilt from it.
type VectorIndex interface {
	// Add inserts or replaces the vector for the given chunk ID.
	Add(ctx context.Context, chunkID string, embedding []float32) error

	// Delete removes vectors from the index. Unknown IDs are ignored.
	Delete(ctx context.Context, chunkIDs ...string) error

	// Search finds the k nearest neighbours to the query vector.
	// Hits are ordered by descending similarity.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Len returns the number of indexed vectors.
	Len() int

	// Reset removes every vector.
	Reset(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Similarity is the cosine similarity score.
	Similarity float64
}
