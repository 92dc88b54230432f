package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driven"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driving"
	"github.com/infinitegrit26/ACD2/internal/logger"
)

// Ensure VectorStoreService implements the interface.
var _ driving.VectorStore = (*VectorStoreService)(nil)

// searchOverfetch multiplies top_k for the first index search.
const searchOverfetch = 2

// VectorStoreOptions tunes embedding batches and external call handling.
type VectorStoreOptions struct {
	// BatchSize is the number of chunks embedded per provider call.
	BatchSize int

	// Retry controls attempts and per-call timeouts for embedding calls.
	Retry RetryPolicy
}

// VectorStoreOptionsFromConfig derives options from the application config.
func VectorStoreOptionsFromConfig(cfg domain.Config) VectorStoreOptions {
	return VectorStoreOptions{
		BatchSize: cfg.EmbedBatchSize,
		Retry:     NewRetryPolicy(cfg.MaxRetries, cfg.RequestTimeout),
	}
}

// VectorStoreService embeds chunks and keeps the document store and the
// vector index in step. The document store is the source of truth.
type VectorStoreService struct {
	store    driven.DocumentStore
	index    driven.VectorIndex
	embedder driven.EmbeddingService
	opts     VectorStoreOptions
	locks    *keyedMutex
	now      func() time.Time
}

// NewVectorStoreService creates a new vector store service.
func NewVectorStoreService(
	store driven.DocumentStore,
	index driven.VectorIndex,
	embedder driven.EmbeddingService,
	opts VectorStoreOptions,
) *VectorStoreService {
	if opts.BatchSize <= 0 {
		opts.BatchSize = domain.DefaultEmbedBatchSize
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry.MaxAttempts = domain.DefaultMaxRetries
	}
	return &VectorStoreService{
		store:    store,
		index:    index,
		embedder: embedder,
		opts:     opts,
		locks:    newKeyedMutex(),
		now:      time.Now,
	}
}

// Load fills an empty vector index from the embeddings in the document store.
// Indexes that persist their own vectors are left untouched.
func (s *VectorStoreService) Load(ctx context.Context) error {
	if s.index.Len() > 0 {
		return nil
	}

	start := time.Now()
	n := 0
	err := s.store.WalkEmbeddings(ctx, func(chunkID string, embedding []float32) error {
		n++
		return s.index.Add(ctx, chunkID, embedding)
	})
	if err != nil {
		return fmt.Errorf("%w: load index: %w", domain.ErrStorageUnavailable, err)
	}
	if n > 0 {
		logger.Debug("Loaded %d vectors into index in %s", n, time.Since(start))
	}
	return nil
}

// IsDuplicate reports whether a complete document with the fingerprint exists.
func (s *VectorStoreService) IsDuplicate(ctx context.Context, fp domain.Fingerprint) (bool, error) {
	doc, err := s.store.GetDocumentByFingerprint(ctx, fp)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: lookup fingerprint: %w", domain.ErrStorageUnavailable, err)
	}
	return doc.Status == domain.DocumentComplete, nil
}

// Ingest embeds and stores the chunks of a new document.
// Ingests of the same fingerprint are serialised; different fingerprints proceed in parallel.
func (s *VectorStoreService) Ingest(
	ctx context.Context, name string, chunks []string, fp domain.Fingerprint,
) (driving.IngestResult, error) {
	if fp.IsZero() {
		return driving.IngestResult{}, fmt.Errorf("%w: empty fingerprint", domain.ErrInvalidInput)
	}
	if len(chunks) == 0 {
		return driving.IngestResult{}, fmt.Errorf("%w: no chunks for %s", domain.ErrInvalidInput, name)
	}

	unlock := s.locks.Lock(fp.String())
	defer unlock()

	logger.Section("Ingest")
	logger.Debug("Document %q (%s): %d chunks", name, fp.Short(), len(chunks))

	existing, err := s.store.GetDocumentByFingerprint(ctx, fp)
	switch {
	case err == nil && existing.Status == domain.DocumentComplete:
		return driving.IngestResult{}, fmt.Errorf("%w: %s matches %q", domain.ErrDuplicateDocument, name, existing.Name)
	case err == nil:
		logger.Warn("Removing incomplete ingest of %q from an earlier run", existing.Name)
		if perr := s.purge(ctx, existing.ID); perr != nil {
			return driving.IngestResult{}, perr
		}
	case !errors.Is(err, domain.ErrNotFound):
		return driving.IngestResult{}, fmt.Errorf("%w: lookup fingerprint: %w", domain.ErrStorageUnavailable, err)
	}

	now := s.now()
	doc := &domain.Document{
		ID:             uuid.New().String(),
		Name:           name,
		Fingerprint:    fp,
		Status:         domain.DocumentIngesting,
		EmbeddingModel: s.embedder.ModelName(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreateDocument(ctx, doc); err != nil {
		if errors.Is(err, domain.ErrDuplicateDocument) {
			return driving.IngestResult{}, err
		}
		return driving.IngestResult{}, fmt.Errorf("%w: create document: %w", domain.ErrStorageUnavailable, err)
	}

	count, err := s.fill(ctx, doc, chunks)
	if err != nil {
		if perr := s.purge(ctx, doc.ID); perr != nil {
			logger.Warn("Cleanup of %q failed: %v", name, perr)
		}
		return driving.IngestResult{}, err
	}

	logger.Info("Ingested %q: %d chunks", name, count)
	return driving.IngestResult{DocumentID: doc.ID, ChunkCount: count}, nil
}

// fill embeds, saves and indexes the chunks, then marks the document complete.
func (s *VectorStoreService) fill(ctx context.Context, doc *domain.Document, texts []string) (int, error) {
	embeddings, err := s.embedAll(ctx, texts)
	if err != nil {
		return 0, err
	}

	chunks := make([]domain.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Content:    text,
			Position:   i,
			Embedding:  embeddings[i],
			Metadata: map[string]any{
				domain.MetaSource:      doc.Name,
				domain.MetaChunkIndex:  i,
				domain.MetaTotalChunks: len(texts),
				domain.MetaChunkSize:   utf8.RuneCountInString(text),
			},
		}
	}

	if err := s.store.SaveChunks(ctx, chunks); err != nil {
		return 0, fmt.Errorf("%w: save chunks: %w", domain.ErrStorageUnavailable, err)
	}
	for i := range chunks {
		if err := s.index.Add(ctx, chunks[i].ID, chunks[i].Embedding); err != nil {
			return 0, fmt.Errorf("%w: index chunk: %w", domain.ErrStorageUnavailable, err)
		}
	}
	if err := s.store.CompleteDocument(ctx, doc.ID, len(chunks)); err != nil {
		return 0, fmt.Errorf("%w: complete document: %w", domain.ErrStorageUnavailable, err)
	}
	return len(chunks), nil
}

// embedAll embeds texts in batches, retrying transient provider failures.
func (s *VectorStoreService) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.opts.BatchSize {
		end := min(start+s.opts.BatchSize, len(texts))
		batch := texts[start:end]

		var vecs [][]float32
		err := s.opts.Retry.Do(ctx, "embed batch", func(ctx context.Context) error {
			var err error
			vecs, err = s.embedder.EmbedBatch(ctx, batch)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("%w: chunks %d-%d: %w", domain.ErrEmbeddingFailure, start, end-1, err)
		}
		if len(vecs) != len(batch) {
			return nil, fmt.Errorf("%w: got %d vectors for %d chunks", domain.ErrEmbeddingFailure, len(vecs), len(batch))
		}
		for i, v := range vecs {
			if len(v) == 0 {
				return nil, fmt.Errorf("%w: empty vector for chunk %d", domain.ErrEmbeddingFailure, start+i)
			}
		}
		logger.Debug("Embedded chunks %d-%d", start, end-1)
		out = append(out, vecs...)
	}
	return out, nil
}

// purge removes a document, its chunks and their index entries.
// It runs even when ctx has been cancelled.
func (s *VectorStoreService) purge(ctx context.Context, docID string) error {
	ctx = context.WithoutCancel(ctx)

	ids, err := s.store.ChunkIDs(ctx, docID)
	if err != nil {
		return fmt.Errorf("%w: list chunks: %w", domain.ErrStorageUnavailable, err)
	}
	if len(ids) > 0 {
		if err := s.index.Delete(ctx, ids...); err != nil {
			return fmt.Errorf("%w: unindex chunks: %w", domain.ErrStorageUnavailable, err)
		}
	}
	if err := s.store.DeleteDocument(ctx, docID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: delete document: %w", domain.ErrStorageUnavailable, err)
	}
	return nil
}

// Query returns up to topK chunks ordered by descending similarity,
// ties broken by chunk ID.
func (s *VectorStoreService) Query(ctx context.Context, text string, topK int) ([]domain.RetrievalHit, error) {
	logger.Section("Query")
	logger.Debug("Query: %q, top_k=%d", text, topK)

	if topK <= 0 {
		topK = domain.DefaultTopK
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		return nil, err
	}
	if stats.IsEmpty() {
		return nil, domain.ErrEmptyIndex
	}

	var vec []float32
	err = s.opts.Retry.Do(ctx, "embed query", func(ctx context.Context) error {
		var err error
		vec, err = s.embedder.Embed(ctx, text)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", domain.ErrEmbeddingFailure, err)
	}

	hits, err := s.search(ctx, vec, topK)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// search returns at least topK hits from complete documents when the index
// holds that many. Hits from documents still ingesting are skipped, so the
// index is asked for more and the search widens until enough remain.
func (s *VectorStoreService) search(ctx context.Context, vec []float32, topK int) ([]domain.RetrievalHit, error) {
	k := topK * searchOverfetch
	for {
		vhits, err := s.index.Search(ctx, vec, k)
		if err != nil {
			return nil, fmt.Errorf("%w: search index: %w", domain.ErrStorageUnavailable, err)
		}
		logger.Debug("Index returned %d hits for k=%d", len(vhits), k)

		hits, err := s.hydrate(ctx, vhits)
		if err != nil {
			return nil, err
		}
		if len(hits) >= topK || len(vhits) < k {
			return hits, nil
		}
		k *= 2
	}
}

// hydrate loads chunk text and document names for index hits.
// Hits whose chunk is no longer stored are dropped.
func (s *VectorStoreService) hydrate(ctx context.Context, vhits []driven.VectorHit) ([]domain.RetrievalHit, error) {
	if len(vhits) == 0 {
		return []domain.RetrievalHit{}, nil
	}

	ids := make([]string, len(vhits))
	scores := make(map[string]float64, len(vhits))
	for i, h := range vhits {
		ids[i] = h.ChunkID
		scores[h.ChunkID] = h.Similarity
	}

	chunks, err := s.store.GetChunks(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: load chunks: %w", domain.ErrStorageUnavailable, err)
	}

	docs := make(map[string]*domain.Document)
	hits := make([]domain.RetrievalHit, 0, len(chunks))
	for i := range chunks {
		c := &chunks[i]
		doc, ok := docs[c.DocumentID]
		if !ok {
			doc, err = s.store.GetDocument(ctx, c.DocumentID)
			if errors.Is(err, domain.ErrNotFound) {
				docs[c.DocumentID] = nil
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("%w: load document: %w", domain.ErrStorageUnavailable, err)
			}
			if doc.EmbeddingModel != "" && doc.EmbeddingModel != s.embedder.ModelName() {
				logger.Warn("Document %q was embedded with %s but queries use %s",
					doc.Name, doc.EmbeddingModel, s.embedder.ModelName())
			}
			docs[c.DocumentID] = doc
		}
		if doc == nil || doc.Status != domain.DocumentComplete {
			continue
		}
		hits = append(hits, domain.RetrievalHit{
			ChunkID:      c.ID,
			DocumentID:   c.DocumentID,
			DocumentName: doc.Name,
			Position:     c.Position,
			Content:      c.Content,
			Score:        scores[c.ID],
		})
	}
	return hits, nil
}

// Stats counts complete documents and their chunks.
func (s *VectorStoreService) Stats(ctx context.Context) (domain.IndexStats, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return domain.IndexStats{}, fmt.Errorf("%w: stats: %w", domain.ErrStorageUnavailable, err)
	}
	return stats, nil
}

// Documents lists complete documents, oldest first.
func (s *VectorStoreService) Documents(ctx context.Context) ([]domain.Document, error) {
	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list documents: %w", domain.ErrStorageUnavailable, err)
	}
	return docs, nil
}

// Reset removes every document, chunk and index entry.
func (s *VectorStoreService) Reset(ctx context.Context) error {
	if err := s.index.Reset(ctx); err != nil {
		return fmt.Errorf("%w: reset index: %w", domain.ErrStorageUnavailable, err)
	}
	if err := s.store.Reset(ctx); err != nil {
		return fmt.Errorf("%w: reset store: %w", domain.ErrStorageUnavailable, err)
	}
	logger.Info("Vector store reset")
	return nil
}

// EmbeddingModel returns the name of the model used for ingest and query.
func (s *VectorStoreService) EmbeddingModel() string {
	return s.embedder.ModelName()
}
