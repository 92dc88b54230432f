// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/infinitegrit26/ACD2/internal/adapters/driven/embedding/cache"
	ollamaembed "github.com/infinitegrit26/ACD2/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/infinitegrit26/ACD2/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/infinitegrit26/ACD2/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/infinitegrit26/ACD2/internal/adapters/driven/llm/ollama"
	openaillm "github.com/infinitegrit26/ACD2/internal/adapters/driven/llm/openai"
	"github.com/infinitegrit26/ACD2/internal/core/domain"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driven"
	"github.com/infinitegrit26/ACD2/internal/logger"
)

// Services holds the AI adapters built from configuration.
type Services struct {
	Embedding driven.EmbeddingService
	LLM       driven.LLMService
}

// Close releases all resources held by the services.
func (s *Services) Close() error {
	var errs []error
	if s.Embedding != nil {
		errs = append(errs, s.Embedding.Close())
	}
	if s.LLM != nil {
		errs = append(errs, s.LLM.Close())
	}
	return errors.Join(errs...)
}

// NewServices builds the embedding and LLM adapters for cfg.
// When cfg.EmbeddingCache is set and dataDir is not empty, embeddings are
// cached in dataDir/embeddings.db.
func NewServices(cfg domain.Config, dataDir string) (*Services, error) {
	embedding, err := CreateEmbeddingService(&cfg.Embedding, cfg.RequestTimeout)
	if err != nil {
		return nil, err
	}
	if cfg.EmbeddingCache && dataDir != "" {
		embedding = WithEmbeddingCache(embedding, filepath.Join(dataDir, cache.FileName))
	}

	llm, err := CreateLLMService(&cfg.LLM, cfg.RequestTimeout)
	if err != nil {
		embedding.Close()
		return nil, err
	}
	return &Services{Embedding: embedding, LLM: llm}, nil
}

// WithEmbeddingCache decorates svc with the on-disk cache at path.
// A cache that cannot be opened (another process holds the lock) is skipped.
func WithEmbeddingCache(svc driven.EmbeddingService, path string) driven.EmbeddingService {
	store, err := cache.Open(path)
	if err != nil {
		logger.Warn("embedding cache disabled: %v", err)
		return svc
	}
	return cache.Wrap(svc, store)
}

// CreateEmbeddingService creates the embedding service selected by settings.
// Returns domain.ErrInvalidConfig for unsupported providers or missing API keys.
func CreateEmbeddingService(settings *domain.EmbeddingSettings, timeout time.Duration) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: embedding provider is not configured", domain.ErrInvalidConfig)
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		})

	case domain.AIProviderAnthropic:
		return nil, fmt.Errorf("%w: anthropic does not support embeddings, use ollama or openai",
			domain.ErrInvalidConfig)

	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider: %q", domain.ErrInvalidConfig, settings.Provider)
	}
}

// CreateLLMService creates the LLM service selected by settings.
// Returns domain.ErrInvalidConfig for unsupported providers or missing API keys.
func CreateLLMService(settings *domain.LLMSettings, timeout time.Duration) (driven.LLMService, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: llm provider is not configured", domain.ErrInvalidConfig)
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		})

	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider: %q", domain.ErrInvalidConfig, settings.Provider)
	}
}
