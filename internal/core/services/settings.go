package services

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driven"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyChunkSize      = "chunking.size"
	keyChunkOverlap   = "chunking.overlap"
	keyTopK           = "retrieval.top_k"
	keyMaxContext     = "retrieval.max_context_length"
	keyEmbedProvider  = "embedding.provider"
	keyEmbedModel     = "embedding.model"
	keyEmbedBaseURL   = "embedding.base_url"
	keyEmbedAPIKey    = "embedding.api_key"
	keyEmbedBatchSize = "embedding.batch_size"
	keyEmbedCache     = "embedding.cache"
	keyLLMProvider    = "llm.provider"
	keyLLMModel       = "llm.model"
	keyLLMBaseURL     = "llm.base_url"
	keyLLMAPIKey      = "llm.api_key"
	keyStorageBackend = "storage.backend"
	keyStoragePath    = "storage.path"
	keyPostgresDSN    = "storage.postgres_dsn"
	keyLogLevel       = "log.level"
	keyRequestTimeout = "network.request_timeout"
	keyMaxRetries     = "network.max_retries"
)

// Provider-wide API key variables used when no pdfchat-specific key is set.
//
//nolint:gosec // G101: environment variable names.
const (
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
)

// setting binds a config key and environment variable to a Config field.
type setting struct {
	key       string
	env       string
	sensitive bool
	apply     func(cfg *domain.Config, raw string) error
	format    func(cfg domain.Config) string
	// typed converts raw input to the value written to the config file.
	typed func(raw string) (any, error)
}

// settings lists every configurable option in display order.
var settings = []setting{
	intSetting(keyChunkSize, "PDFCHAT_CHUNK_SIZE", func(c *domain.Config) *int { return &c.ChunkSize }),
	intSetting(keyChunkOverlap, "PDFCHAT_CHUNK_OVERLAP", func(c *domain.Config) *int { return &c.ChunkOverlap }),
	intSetting(keyTopK, "PDFCHAT_TOP_K", func(c *domain.Config) *int { return &c.TopK }),
	intSetting(keyMaxContext, "PDFCHAT_MAX_CONTEXT_LENGTH", func(c *domain.Config) *int { return &c.MaxContextLength }),
	providerSetting(keyEmbedProvider, "PDFCHAT_EMBEDDING_PROVIDER",
		func(c *domain.Config) *domain.AIProvider { return &c.Embedding.Provider }),
	stringSetting(keyEmbedModel, "PDFCHAT_EMBEDDING_MODEL", false,
		func(c *domain.Config) *string { return &c.Embedding.Model }),
	stringSetting(keyEmbedBaseURL, "PDFCHAT_EMBEDDING_BASE_URL", false,
		func(c *domain.Config) *string { return &c.Embedding.BaseURL }),
	stringSetting(keyEmbedAPIKey, "PDFCHAT_EMBEDDING_API_KEY", true,
		func(c *domain.Config) *string { return &c.Embedding.APIKey }),
	intSetting(keyEmbedBatchSize, "PDFCHAT_EMBED_BATCH_SIZE", func(c *domain.Config) *int { return &c.EmbedBatchSize }),
	boolSetting(keyEmbedCache, "PDFCHAT_EMBEDDING_CACHE", func(c *domain.Config) *bool { return &c.EmbeddingCache }),
	providerSetting(keyLLMProvider, "PDFCHAT_LLM_PROVIDER",
		func(c *domain.Config) *domain.AIProvider { return &c.LLM.Provider }),
	stringSetting(keyLLMModel, "PDFCHAT_LLM_MODEL", false, func(c *domain.Config) *string { return &c.LLM.Model }),
	stringSetting(keyLLMBaseURL, "PDFCHAT_LLM_BASE_URL", false, func(c *domain.Config) *string { return &c.LLM.BaseURL }),
	stringSetting(keyLLMAPIKey, "PDFCHAT_LLM_API_KEY", true, func(c *domain.Config) *string { return &c.LLM.APIKey }),
	{
		key: keyStorageBackend,
		env: "PDFCHAT_STORAGE_BACKEND",
		apply: func(c *domain.Config, raw string) error {
			b := domain.StorageBackend(strings.ToLower(raw))
			if !b.IsValid() {
				return fmt.Errorf("unknown storage backend %q (use sqlite, memory or postgres)", raw)
			}
			c.Storage.Backend = b
			return nil
		},
		format: func(c domain.Config) string { return string(c.Storage.Backend) },
	},
	stringSetting(keyStoragePath, "PDFCHAT_STORAGE_PATH", false, func(c *domain.Config) *string { return &c.Storage.Path }),
	stringSetting(keyPostgresDSN, "PDFCHAT_POSTGRES_DSN", true,
		func(c *domain.Config) *string { return &c.Storage.PostgresDSN }),
	{
		key: keyLogLevel,
		env: "PDFCHAT_LOG_LEVEL",
		apply: func(c *domain.Config, raw string) error {
			level, err := domain.ParseLogLevel(raw)
			if err != nil {
				return err
			}
			c.LogLevel = level
			return nil
		},
		format: func(c domain.Config) string { return string(c.LogLevel) },
	},
	{
		key: keyRequestTimeout,
		env: "PDFCHAT_REQUEST_TIMEOUT",
		apply: func(c *domain.Config, raw string) error {
			d, err := parseDuration(raw)
			if err != nil {
				return err
			}
			c.RequestTimeout = d
			return nil
		},
		format: func(c domain.Config) string { return c.RequestTimeout.String() },
	},
	intSetting(keyMaxRetries, "PDFCHAT_MAX_RETRIES", func(c *domain.Config) *int { return &c.MaxRetries }),
}

func intSetting(key, env string, ref func(*domain.Config) *int) setting {
	return setting{
		key: key,
		env: env,
		apply: func(c *domain.Config, raw string) error {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("%s must be an integer, got %q", key, raw)
			}
			*ref(c) = n
			return nil
		},
		format: func(c domain.Config) string { return strconv.Itoa(*ref(&c)) },
		typed: func(raw string) (any, error) {
			n, err := strconv.Atoi(raw)
			return n, err
		},
	}
}

func boolSetting(key, env string, ref func(*domain.Config) *bool) setting {
	return setting{
		key: key,
		env: env,
		apply: func(c *domain.Config, raw string) error {
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return fmt.Errorf("%s must be true or false, got %q", key, raw)
			}
			*ref(c) = b
			return nil
		},
		format: func(c domain.Config) string { return strconv.FormatBool(*ref(&c)) },
		typed: func(raw string) (any, error) {
			b, err := strconv.ParseBool(raw)
			return b, err
		},
	}
}

func stringSetting(key, env string, sensitive bool, ref func(*domain.Config) *string) setting {
	return setting{
		key:       key,
		env:       env,
		sensitive: sensitive,
		apply: func(c *domain.Config, raw string) error {
			*ref(c) = raw
			return nil
		},
		format: func(c domain.Config) string { return *ref(&c) },
	}
}

func providerSetting(key, env string, ref func(*domain.Config) *domain.AIProvider) setting {
	return setting{
		key: key,
		env: env,
		apply: func(c *domain.Config, raw string) error {
			p := domain.AIProvider(strings.ToLower(raw))
			if !p.IsValid() {
				return fmt.Errorf("unknown provider %q (use ollama, openai or anthropic)", raw)
			}
			*ref(c) = p
			return nil
		},
		format: func(c domain.Config) string { return string(*ref(&c)) },
	}
}

// parseDuration accepts Go duration strings ("45s", "2m") or whole seconds.
func parseDuration(raw string) (time.Duration, error) {
	if d, err := time.ParseDuration(raw); err == nil {
		return d, nil
	}
	secs, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", raw)
	}
	return time.Duration(secs) * time.Second, nil
}

func findSetting(key string) (setting, bool) {
	for _, s := range settings {
		if s.key == key {
			return s, true
		}
	}
	return setting{}, false
}

// SettingKeys returns every recognised config key.
func SettingKeys() []string {
	keys := make([]string, len(settings))
	for i, s := range settings {
		keys[i] = s.key
	}
	return keys
}

// SettingsService resolves configuration from the config store and the environment.
type SettingsService struct {
	configStore driven.ConfigStore
	checker     driven.ProviderChecker
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
// checker may be nil, in which case providers are never pinged.
func NewSettingsService(configStore driven.ConfigStore, checker driven.ProviderChecker) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		checker:     checker,
		lookupEnv:   os.LookupEnv,
	}
}

// SetEnvLookup replaces the environment source. Intended for tests.
func (s *SettingsService) SetEnvLookup(fn func(string) (string, bool)) {
	s.lookupEnv = fn
}

// Config returns the effective configuration.
func (s *SettingsService) Config() (domain.Config, error) {
	cfg, _, err := s.resolve()
	return cfg, err
}

// Fields lists every option with its effective value and source.
func (s *SettingsService) Fields() ([]domain.ConfigField, error) {
	cfg, sources, err := s.resolve()
	if err != nil {
		return nil, err
	}

	fields := make([]domain.ConfigField, 0, len(settings))
	for _, st := range settings {
		value := st.format(cfg)
		if st.sensitive {
			value = domain.MaskSecret(value)
		}
		fields = append(fields, domain.ConfigField{
			Key:       st.key,
			EnvVar:    st.env,
			Value:     value,
			Source:    sources[st.key],
			Sensitive: st.sensitive,
		})
	}
	return fields, nil
}

// resolve layers defaults, the config file and the environment.
func (s *SettingsService) resolve() (domain.Config, map[string]domain.ConfigSource, error) {
	cfg := domain.DefaultConfig()
	sources := make(map[string]domain.ConfigSource, len(settings))

	for _, st := range settings {
		sources[st.key] = domain.SourceDefault

		if raw, ok := s.fileValue(st.key); ok {
			if err := st.apply(&cfg, raw); err != nil {
				return cfg, nil, fmt.Errorf("%w: %s in %s: %w", domain.ErrInvalidConfig, st.key, s.ConfigPath(), err)
			}
			sources[st.key] = domain.SourceFile
		}

		if raw, ok := s.env(st.env); ok {
			if err := st.apply(&cfg, raw); err != nil {
				return cfg, nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidConfig, st.env, err)
			}
			sources[st.key] = domain.SourceEnv
		}
	}

	s.applyKeyFallbacks(&cfg, sources)
	return cfg, sources, nil
}

// applyKeyFallbacks fills empty API keys from the provider-wide variables.
func (s *SettingsService) applyKeyFallbacks(cfg *domain.Config, sources map[string]domain.ConfigSource) {
	if cfg.Embedding.APIKey == "" {
		if key, ok := s.providerKey(cfg.Embedding.Provider); ok {
			cfg.Embedding.APIKey = key
			sources[keyEmbedAPIKey] = domain.SourceEnv
		}
	}
	if cfg.LLM.APIKey == "" {
		if key, ok := s.providerKey(cfg.LLM.Provider); ok {
			cfg.LLM.APIKey = key
			sources[keyLLMAPIKey] = domain.SourceEnv
		}
	}
}

func (s *SettingsService) providerKey(provider domain.AIProvider) (string, bool) {
	switch provider {
	case domain.AIProviderOpenAI:
		return s.env(EnvOpenAIKey)
	case domain.AIProviderAnthropic:
		return s.env(EnvAnthropicKey)
	default:
		return "", false
	}
}

func (s *SettingsService) env(name string) (string, bool) {
	if s.lookupEnv == nil {
		return "", false
	}
	v, ok := s.lookupEnv(name)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// fileValue returns the stored value for key as a string.
// TOML integers decode as int64 and are formatted accordingly.
func (s *SettingsService) fileValue(key string) (string, bool) {
	if s.configStore == nil {
		return "", false
	}
	val, ok := s.configStore.Get(key)
	if !ok || val == nil {
		return "", false
	}
	raw := strings.TrimSpace(fmt.Sprint(val))
	return raw, raw != ""
}

// Set parses value for key and persists it to the config file.
func (s *SettingsService) Set(key, value string) error {
	st, ok := findSetting(key)
	if !ok {
		return fmt.Errorf("%w: unknown config key %q", domain.ErrInvalidInput, key)
	}
	value = strings.TrimSpace(value)

	trial := domain.DefaultConfig()
	if err := st.apply(&trial, value); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	var stored any = st.format(trial)
	if st.typed != nil {
		v, err := st.typed(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
		}
		stored = v
	}

	if err := s.configStore.Set(key, stored); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidInput, provider)
	}
	if !provider.SupportsEmbeddings() {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrInvalidInput, provider)
	}

	if model == "" {
		model = domain.DefaultEmbeddingModels()[provider]
	}

	// Endpoints belong to a provider; drop any stale override.
	values := map[string]any{
		keyEmbedProvider: provider.String(),
		keyEmbedModel:    model,
		keyEmbedBaseURL:  "",
	}
	if apiKey != "" {
		values[keyEmbedAPIKey] = apiKey
	}
	if err := s.configStore.Update(values); err != nil {
		return fmt.Errorf("save embedding provider: %w", err)
	}
	return nil
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInvalidInput, provider)
	}

	if model == "" {
		model = domain.DefaultLLMModels()[provider]
	}

	values := map[string]any{
		keyLLMProvider: provider.String(),
		keyLLMModel:    model,
		keyLLMBaseURL:  "",
	}
	if apiKey != "" {
		values[keyLLMAPIKey] = apiKey
	}
	if err := s.configStore.Update(values); err != nil {
		return fmt.Errorf("save llm provider: %w", err)
	}
	return nil
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.checker == nil {
		return nil
	}
	cfg, err := s.Config()
	if err != nil {
		return err
	}
	return s.checker.CheckEmbedding(context.Background(), cfg.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.checker == nil {
		return nil
	}
	cfg, err := s.Config()
	if err != nil {
		return err
	}
	return s.checker.CheckLLM(context.Background(), cfg.LLM)
}

// ConfigPath returns the config file location.
func (s *SettingsService) ConfigPath() string {
	if s.configStore == nil {
		return ""
	}
	return s.configStore.Path()
}
