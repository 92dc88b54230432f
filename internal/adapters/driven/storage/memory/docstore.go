package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
// Nothing survives the process; it backs tests and the "memory" storage backend.
type DocumentStore struct {
	mu            sync.RWMutex
	documents     map[string]domain.Document
	byFingerprint map[domain.Fingerprint]string
	chunks        map[string][]domain.Chunk
	chunkOwner    map[string]string
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents:     make(map[string]domain.Document),
		byFingerprint: make(map[domain.Fingerprint]string),
		chunks:        make(map[string][]domain.Chunk),
		chunkOwner:    make(map[string]string),
	}
}

// CreateDocument inserts a document in the ingesting state.
func (s *DocumentStore) CreateDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byFingerprint[doc.Fingerprint]; ok {
		return fmt.Errorf("%w: fingerprint %s", domain.ErrDuplicateDocument, doc.Fingerprint.Short())
	}
	if _, ok := s.documents[doc.ID]; ok {
		return fmt.Errorf("%w: document %s already exists", domain.ErrInvalidInput, doc.ID)
	}

	stored := *doc
	stored.Status = domain.DocumentIngesting
	stored.Metadata = copyMetadata(doc.Metadata)
	s.documents[doc.ID] = stored
	s.byFingerprint[doc.Fingerprint] = doc.ID
	return nil
}

// SaveChunks stores chunks for their documents.
func (s *DocumentStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range chunks {
		if _, ok := s.documents[chunks[i].DocumentID]; !ok {
			return fmt.Errorf("%w: document %s", domain.ErrNotFound, chunks[i].DocumentID)
		}
	}
	for i := range chunks {
		c := chunks[i]
		c.Embedding = append([]float32(nil), c.Embedding...)
		c.Metadata = copyMetadata(c.Metadata)
		s.chunks[c.DocumentID] = append(s.chunks[c.DocumentID], c)
		s.chunkOwner[c.ID] = c.DocumentID
	}
	return nil
}

// CompleteDocument marks a document complete.
func (s *DocumentStore) CompleteDocument(_ context.Context, id string, chunkCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Status = domain.DocumentComplete
	doc.ChunkCount = chunkCount
	doc.UpdatedAt = time.Now()
	s.documents[id] = doc
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// GetDocumentByFingerprint retrieves a document by content fingerprint.
func (s *DocumentStore) GetDocumentByFingerprint(_ context.Context, fp domain.Fingerprint) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byFingerprint[fp]
	if !ok {
		return nil, domain.ErrNotFound
	}
	doc := s.documents[id]
	return &doc, nil
}

// GetChunks retrieves chunks by ID in the requested order.
func (s *DocumentStore) GetChunks(_ context.Context, ids []string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Chunk, 0, len(ids))
	for _, id := range ids {
		docID, ok := s.chunkOwner[id]
		if !ok {
			continue
		}
		for _, c := range s.chunks[docID] {
			if c.ID == id {
				result = append(result, c)
				break
			}
		}
	}
	return result, nil
}

// ChunkIDs returns the chunk IDs of a document in position order.
func (s *DocumentStore) ChunkIDs(_ context.Context, documentID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks := s.chunks[documentID]
	ids := make([]string, len(chunks))
	for i := range chunks {
		ids[i] = chunks[i].ID
	}
	return ids, nil
}

// DeleteDocument removes a document and its chunks.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[id]
	if !ok {
		return domain.ErrNotFound
	}
	for _, c := range s.chunks[id] {
		delete(s.chunkOwner, c.ID)
	}
	delete(s.chunks, id)
	delete(s.byFingerprint, doc.Fingerprint)
	delete(s.documents, id)
	return nil
}

// ListDocuments returns complete documents, oldest first.
func (s *DocumentStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Document, 0, len(s.documents))
	for id := range s.documents {
		if doc := s.documents[id]; doc.Status == domain.DocumentComplete {
			result = append(result, doc)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// Stats counts complete documents and their chunks.
func (s *DocumentStore) Stats(_ context.Context) (domain.IndexStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats domain.IndexStats
	for id := range s.documents {
		if s.documents[id].Status != domain.DocumentComplete {
			continue
		}
		stats.DocumentCount++
		stats.ChunkCount += len(s.chunks[id])
	}
	return stats, nil
}

// WalkEmbeddings calls fn for each chunk of each complete document.
func (s *DocumentStore) WalkEmbeddings(ctx context.Context, fn func(string, []float32) error) error {
	s.mu.RLock()
	type entry struct {
		id  string
		emb []float32
	}
	var entries []entry
	for id := range s.documents {
		if s.documents[id].Status != domain.DocumentComplete {
			continue
		}
		for _, c := range s.chunks[id] {
			entries = append(entries, entry{c.ID, c.Embedding})
		}
	}
	s.mu.RUnlock()

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(e.id, e.emb); err != nil {
			return err
		}
	}
	return nil
}

// Reset removes every document and chunk.
func (s *DocumentStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = make(map[string]domain.Document)
	s.byFingerprint = make(map[domain.Fingerprint]string)
	s.chunks = make(map[string][]domain.Chunk)
	s.chunkOwner = make(map[string]string)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *DocumentStore) Close() error {
	return nil
}

func copyMetadata(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
