package driven

import (
	"context"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
)

// DocumentStore persists documents, their chunks and embeddings.
// It owns the fingerprint record used for duplicate detection.
type DocumentStore interface {
	// CreateDocument inserts a document in the ingesting state.
	// Returns domain.ErrDuplicateDocument if any document already has the fingerprint.
	CreateDocument(ctx context.Context, doc *domain.Document) error

	// SaveChunks stores chunks and their embeddings atomically.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// CompleteDocument marks a document complete with its final chunk count.
	CompleteDocument(ctx context.Context, id string, chunkCount int) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound if absent.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetDocumentByFingerprint retrieves the document with the given fingerprint in any state.
	// Returns domain.ErrNotFound if absent.
	GetDocumentByFingerprint(ctx context.Context, fp domain.Fingerprint) (*domain.Document, error)

	// GetChunks retrieves chunks by ID, in the order requested. Unknown IDs are skipped.
	GetChunks(ctx context.Context, ids []string) ([]domain.Chunk, error)

	// ChunkIDs returns the IDs of every chunk belonging to a document.
	ChunkIDs(ctx context.Context, documentID string) ([]string, error)

	// DeleteDocument removes a document and its chunks.
	DeleteDocument(ctx context.Context, id string) error

	// ListDocuments returns complete documents, oldest first.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// Stats counts complete documents and their chunks.
	Stats(ctx context.Context) (domain.IndexStats, error)

	// WalkEmbeddings calls fn for every chunk of every complete document.
	// Used to rebuild in-process vector indexes.
	WalkEmbeddings(ctx context.Context, fn func(chunkID string, embedding []float32) error) error

	// Reset removes every document and chunk.
	Reset(ctx context.Context) error

	// Close releases resources.
	Close() error
}
