package ai

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infinitegrit26/ACD2/internal/adapters/driven/embedding/cache"
	"github.com/infinitegrit26/ACD2/internal/core/domain"
)

func TestServices_Close(t *testing.T) {
	t.Run("close with nil services", func(t *testing.T) {
		result := &Services{}
		assert.NoError(t, result.Close())
	})
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name      string
		settings  *domain.EmbeddingSettings
		wantModel string
		wantErr   error
	}{
		{
			name:    "nil settings",
			wantErr: domain.ErrInvalidConfig,
		},
		{
			name: "ollama provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOllama,
				BaseURL:  "http://localhost:11434",
				Model:    "nomic-embed-text",
			},
			wantModel: "nomic-embed-text",
		},
		{
			name: "openai provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
				APIKey:   "test-key",
				Model:    "text-embedding-3-small",
			},
			wantModel: "text-embedding-3-small",
		},
		{
			name:     "openai without key",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI},
			wantErr:  domain.ErrInvalidConfig,
		},
		{
			name:     "anthropic has no embeddings",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderAnthropic, APIKey: "k"},
			wantErr:  domain.ErrInvalidConfig,
		},
		{
			name:     "unknown provider",
			settings: &domain.EmbeddingSettings{Provider: "unknown", APIKey: "k"},
			wantErr:  domain.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings, time.Second)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, svc)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantModel, svc.ModelName())
			assert.Positive(t, svc.Dimensions())
		})
	}
}

func TestCreateLLMService(t *testing.T) {
	tests := []struct {
		name      string
		settings  *domain.LLMSettings
		wantModel string
		wantErr   error
	}{
		{
			name:    "nil settings",
			wantErr: domain.ErrInvalidConfig,
		},
		{
			name:      "ollama provider creates service",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderOllama, Model: "llama3.1"},
			wantModel: "llama3.1",
		},
		{
			name:      "openai defaults model",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "k"},
			wantModel: domain.DefaultLLMModel,
		},
		{
			name:      "anthropic provider creates service",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderAnthropic, APIKey: "k", Model: "claude-3-5-haiku-latest"},
			wantModel: "claude-3-5-haiku-latest",
		},
		{
			name:     "anthropic without key",
			settings: &domain.LLMSettings{Provider: domain.AIProviderAnthropic},
			wantErr:  domain.ErrInvalidConfig,
		},
		{
			name:     "unknown provider",
			settings: &domain.LLMSettings{Provider: "mystery"},
			wantErr:  domain.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(tt.settings, time.Second)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, svc)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantModel, svc.ModelName())
		})
	}
}

func TestNewServices_WithCache(t *testing.T) {
	dir := t.TempDir()
	cfg := domain.DefaultConfig()
	cfg.Embedding = domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "all-minilm"}
	cfg.LLM = domain.LLMSettings{Provider: domain.AIProviderOllama, Model: "llama3.2"}

	svcs, err := NewServices(cfg, dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svcs.Close() })

	assert.IsType(t, &cache.EmbeddingService{}, svcs.Embedding)
	assert.Equal(t, "all-minilm", svcs.Embedding.ModelName())
	assert.Equal(t, 384, svcs.Embedding.Dimensions())
	_, err = os.Stat(filepath.Join(dir, cache.FileName))
	assert.NoError(t, err)
}

func TestNewServices_CacheDisabled(t *testing.T) {
	dir := t.TempDir()
	cfg := domain.DefaultConfig()
	cfg.EmbeddingCache = false
	cfg.Embedding = domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "nomic-embed-text"}
	cfg.LLM = domain.LLMSettings{Provider: domain.AIProviderOllama}

	svcs, err := NewServices(cfg, dir)
	require.NoError(t, err)
	defer svcs.Close()

	_, cached := svcs.Embedding.(*cache.EmbeddingService)
	assert.False(t, cached)
	_, err = os.Stat(filepath.Join(dir, cache.FileName))
	assert.True(t, os.IsNotExist(err))
}

func TestNewServices_MissingKey(t *testing.T) {
	cfg := domain.DefaultConfig()

	_, err := NewServices(cfg, t.TempDir())

	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestNewServices_MissingLLMKeyClosesEmbedding(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.Embedding = domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "nomic-embed-text"}
	cfg.LLM = domain.LLMSettings{Provider: domain.AIProviderAnthropic}
	dir := t.TempDir()

	_, err := NewServices(cfg, dir)
	require.ErrorIs(t, err, domain.ErrInvalidConfig)

	// The cache was closed, so it can be opened again without waiting on the lock.
	store, err := cache.Open(filepath.Join(dir, cache.FileName))
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}
