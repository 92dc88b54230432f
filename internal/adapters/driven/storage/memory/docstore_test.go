package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
)

func newDoc(id, name string) *domain.Document {
	return &domain.Document{
		ID:             id,
		Name:           name,
		Fingerprint:    domain.NewFingerprint([]byte(name)),
		EmbeddingModel: "test-embed",
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
}

func newChunks(docID string, n int) []domain.Chunk {
	chunks := make([]domain.Chunk, n)
	for i := range chunks {
		chunks[i] = domain.Chunk{
			ID:         fmt.Sprintf("%s-c%d", docID, i),
			DocumentID: docID,
			Content:    fmt.Sprintf("chunk %d", i),
			Position:   i,
			Embedding:  []float32{float32(i), 1},
		}
	}
	return chunks
}

func ingest(t *testing.T, store *DocumentStore, id, name string, n int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.CreateDocument(ctx, newDoc(id, name)))
	require.NoError(t, store.SaveChunks(ctx, newChunks(id, n)))
	require.NoError(t, store.CompleteDocument(ctx, id, n))
}

func TestNewDocumentStore(t *testing.T) {
	store := NewDocumentStore()
	require.NotNil(t, store)
	assert.NotNil(t, store.documents)
	assert.NotNil(t, store.chunks)
}

func TestDocumentStore_CreateDocument_Ingesting(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	doc := newDoc("doc-1", "manual.pdf")
	doc.Status = domain.DocumentComplete
	require.NoError(t, store.CreateDocument(ctx, doc))

	saved, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentIngesting, saved.Status)
	assert.Equal(t, "manual.pdf", saved.Name)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.True(t, stats.IsEmpty())
}

func TestDocumentStore_CreateDocument_DuplicateFingerprint(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	require.NoError(t, store.CreateDocument(ctx, newDoc("doc-1", "manual.pdf")))
	err := store.CreateDocument(ctx, newDoc("doc-2", "manual.pdf"))

	assert.ErrorIs(t, err, domain.ErrDuplicateDocument)
}

func TestDocumentStore_CompleteDocument(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	ingest(t, store, "doc-1", "manual.pdf", 3)

	doc, err := store.GetDocumentByFingerprint(ctx, domain.NewFingerprint([]byte("manual.pdf")))
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentComplete, doc.Status)
	assert.Equal(t, 3, doc.ChunkCount)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.IndexStats{DocumentCount: 1, ChunkCount: 3}, stats)
}

func TestDocumentStore_CompleteDocument_NotFound(t *testing.T) {
	store := NewDocumentStore()
	err := store.CompleteDocument(context.Background(), "missing", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_SaveChunks_UnknownDocument(t *testing.T) {
	store := NewDocumentStore()
	err := store.SaveChunks(context.Background(), newChunks("missing", 1))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_GetChunks_Order(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	ingest(t, store, "doc-1", "a.pdf", 3)

	chunks, err := store.GetChunks(ctx, []string{"doc-1-c2", "unknown", "doc-1-c0"})
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "doc-1-c2", chunks[0].ID)
	assert.Equal(t, "doc-1-c0", chunks[1].ID)
}

func TestDocumentStore_GetByFingerprint_NotFound(t *testing.T) {
	store := NewDocumentStore()
	_, err := store.GetDocumentByFingerprint(context.Background(), "abc")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestDocumentStore_DeleteDocument(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	ingest(t, store, "doc-1", "a.pdf", 2)

	require.NoError(t, store.DeleteDocument(ctx, "doc-1"))

	_, err := store.GetDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	chunks, err := store.GetChunks(ctx, []string{"doc-1-c0"})
	require.NoError(t, err)
	assert.Empty(t, chunks)

	// The fingerprint is free again.
	require.NoError(t, store.CreateDocument(ctx, newDoc("doc-2", "a.pdf")))
}

func TestDocumentStore_ListDocuments_CompleteOnly(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	ingest(t, store, "doc-1", "a.pdf", 1)
	require.NoError(t, store.CreateDocument(ctx, newDoc("doc-2", "b.pdf")))

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "a.pdf", docs[0].Name)
}

func TestDocumentStore_WalkEmbeddings(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	ingest(t, store, "doc-1", "a.pdf", 2)
	require.NoError(t, store.CreateDocument(ctx, newDoc("doc-2", "b.pdf")))
	require.NoError(t, store.SaveChunks(ctx, newChunks("doc-2", 4)))

	seen := map[string]int{}
	err := store.WalkEmbeddings(ctx, func(id string, emb []float32) error {
		seen[id] = len(emb)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"doc-1-c0": 2, "doc-1-c1": 2}, seen)
}

func TestDocumentStore_Reset(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	ingest(t, store, "doc-1", "a.pdf", 2)

	require.NoError(t, store.Reset(ctx))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.True(t, stats.IsEmpty())
	assert.NoError(t, store.Close())
}

func TestDocumentStore_ConcurrentAccess(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("doc-%d", n)
			_ = store.CreateDocument(ctx, newDoc(id, id))
			_ = store.SaveChunks(ctx, newChunks(id, 2))
			_ = store.CompleteDocument(ctx, id, 2)
			_, _ = store.Stats(ctx)
		}(i)
	}
	wg.Wait()

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, stats.DocumentCount)
	assert.Equal(t, 40, stats.ChunkCount)
}
