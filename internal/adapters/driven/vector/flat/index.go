// Package flat provides an exact, in-process cosine similarity index.
//
// Every query scores all stored vectors. That is fast enough for the few
// thousand chunks a set of uploaded PDFs produces, and it needs no native
// library. The index is not persisted; it is rebuilt from the document
// store at startup.
package flat

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driven"
	"github.com/infinitegrit26/ACD2/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index stores normalised vectors keyed by chunk ID.
type Index struct {
	mu         sync.RWMutex
	dimensions int
	vectors    map[string][]float32
}

// New creates an empty index. A dimensions value of zero accepts the
// length of the first vector added.
func New(dimensions int) *Index {
	return &Index{
		dimensions: dimensions,
		vectors:    make(map[string][]float32),
	}
}

// Add inserts or replaces the vector for a chunk.
func (i *Index) Add(_ context.Context, chunkID string, embedding []float32) error {
	if len(embedding) == 0 {
		return fmt.Errorf("%w: empty vector for chunk %s", domain.ErrInvalidInput, chunkID)
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.dimensions == 0 {
		i.dimensions = len(embedding)
	}
	if len(embedding) != i.dimensions {
		return fmt.Errorf("%w: vector has %d dimensions, index has %d",
			domain.ErrInvalidInput, len(embedding), i.dimensions)
	}

	i.vectors[chunkID] = normalise(embedding)
	return nil
}

// Delete removes vectors. Unknown IDs are ignored.
func (i *Index) Delete(_ context.Context, chunkIDs ...string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, id := range chunkIDs {
		delete(i.vectors, id)
	}
	return nil
}

// Search returns the k most similar vectors, ties broken by chunk ID.
func (i *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", domain.ErrInvalidInput)
	}
	if k <= 0 {
		return []driven.VectorHit{}, nil
	}

	q := normalise(query)

	i.mu.RLock()
	if i.dimensions != 0 && len(q) != i.dimensions {
		dims := i.dimensions
		i.mu.RUnlock()
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrInvalidInput, len(q), dims)
	}
	hits := make([]driven.VectorHit, 0, len(i.vectors))
	for id, v := range i.vectors {
		hits = append(hits, driven.VectorHit{ChunkID: id, Similarity: dot(q, v)})
	}
	i.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(hits, func(a, b int) bool {
		if hits[a].Similarity == hits[b].Similarity {
			return hits[a].ChunkID < hits[b].ChunkID
		}
		return hits[a].Similarity > hits[b].Similarity
	})
	scored := len(hits)
	if len(hits) > k {
		hits = hits[:k]
	}

	logger.Debug("flat index: scored %d vectors, returning %d", scored, len(hits))
	return hits, nil
}

// Len returns the number of stored vectors.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.vectors)
}

// Dimensions returns the vector size, or zero before the first Add.
func (i *Index) Dimensions() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.dimensions
}

// Reset removes every vector.
func (i *Index) Reset(_ context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.vectors = make(map[string][]float32)
	return nil
}

// Close releases the vectors.
func (i *Index) Close() error {
	return i.Reset(context.Background())
}

// normalise returns a unit-length copy of v. A zero vector stays zero.
func normalise(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		return out
	}
	norm := math.Sqrt(sum)
	for j, x := range v {
		out[j] = float32(float64(x) / norm)
	}
	return out
}

func dot(a, b []float32) float64 {
	var s float64
	for j := range a {
		s += float64(a[j]) * float64(b[j])
	}
	return s
}
