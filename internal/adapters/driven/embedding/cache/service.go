package cache

import (
	"context"
	"fmt"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driven"
	"github.com/infinitegrit26/ACD2/internal/logger"
)

// EmbeddingService decorates another EmbeddingService with a cache.
// Cache failures are logged and never fail the embedding call.
type EmbeddingService struct {
	inner driven.EmbeddingService
	cache driven.EmbeddingCache
}

// Wrap returns inner decorated with cache.
func Wrap(inner driven.EmbeddingService, cache driven.EmbeddingCache) *EmbeddingService {
	return &EmbeddingService{inner: inner, cache: cache}
}

// Embed returns the cached vector or computes and stores it.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch only sends the texts missing from the cache to the inner service.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	model := s.inner.ModelName()
	out := make([][]float32, len(texts))

	var missing []string
	var slots []int
	for i, text := range texts {
		vec, ok, err := s.cache.Get(ctx, model, text)
		if err != nil {
			logger.Warn("embedding cache lookup failed: %v", err)
		}
		if ok {
			out[i] = vec
			continue
		}
		missing = append(missing, text)
		slots = append(slots, i)
	}

	if len(missing) == 0 {
		logger.Debug("embedding cache: %d/%d hits", len(texts), len(texts))
		return out, nil
	}

	fresh, err := s.inner.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missing) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", domain.ErrEmbeddingFailure, len(fresh), len(missing))
	}
	for j, vec := range fresh {
		out[slots[j]] = vec
		if err := s.cache.Put(ctx, model, missing[j], vec); err != nil {
			logger.Warn("embedding cache store failed: %v", err)
		}
	}
	logger.Debug("embedding cache: %d/%d hits", len(texts)-len(missing), len(texts))
	return out, nil
}

// Dimensions returns the inner service's vector size.
func (s *EmbeddingService) Dimensions() int { return s.inner.Dimensions() }

// ModelName returns the inner service's model.
func (s *EmbeddingService) ModelName() string { return s.inner.ModelName() }

// Ping checks the inner service.
func (s *EmbeddingService) Ping(ctx context.Context) error { return s.inner.Ping(ctx) }

// Close closes the inner service and the cache.
func (s *EmbeddingService) Close() error {
	err := s.inner.Close()
	if cerr := s.cache.Close(); err == nil {
		err = cerr
	}
	return err
}
