package driving

import (
	"context"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
)

// IngestResult reports a successful document ingestion.
type IngestResult struct {
	// DocumentID is the store-assigned document identifier.
	DocumentID string

	// ChunkCount is the number of chunks stored.
	ChunkCount int
}

// VectorStore wraps the embedding provider and the persistent index.
// It is safe for concurrent use.
type VectorStore interface {
	// IsDuplicate reports whether a complete document with the fingerprint is stored.
	// Fails only with domain.ErrStorageUnavailable.
	IsDuplicate(ctx context.Context, fp domain.Fingerprint) (bool, error)

	// Ingest embeds and stores chunks for a new document.
	// Returns domain.ErrDuplicateDocument when the fingerprint is already stored.
	// A failed ingest leaves nothing behind, so it can be retried.
	Ingest(ctx context.Context, name string, chunks []string, fp domain.Fingerprint) (IngestResult, error)

	// Query returns up to topK chunks by descending similarity.
	// Returns domain.ErrEmptyIndex when nothing has been ingested.
	Query(ctx context.Context, text string, topK int) ([]domain.RetrievalHit, error)

	// Stats counts complete documents and chunks.
	Stats(ctx context.Context) (domain.IndexStats, error)

	// Documents lists complete documents.
	Documents(ctx context.Context) ([]domain.Document, error)

	// Reset removes every document, chunk and index entry.
	Reset(ctx context.Context) error
}
