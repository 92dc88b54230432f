package driving

import "github.com/infinitegrit26/ACD2/internal/core/domain"

// SettingsService resolves and edits application settings.
type SettingsService interface {
	// Config returns the effective configuration: defaults, then the config
	// file, then environment variables. The result is not validated so that
	// callers can apply flag overrides first.
	Config() (domain.Config, error)

	// Fields lists every option with its effective value and source.
	Fields() ([]domain.ConfigField, error)

	// Set parses value for key and persists it to the config file.
	Set(key, value string) error

	// SetEmbeddingProvider configures the embedding provider.
	// An empty model selects the provider default.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// SetLLMProvider configures the LLM provider.
	// An empty model selects the provider default.
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// ValidateEmbeddingConfig pings the configured embedding provider.
	ValidateEmbeddingConfig() error

	// ValidateLLMConfig pings the configured LLM provider.
	ValidateLLMConfig() error

	// ConfigPath returns the config file location.
	ConfigPath() string
}
