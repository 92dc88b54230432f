package domain

import (
	"fmt"
	"strings"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API or any OpenAI-compatible endpoint.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// SupportsEmbeddings returns true if the provider can produce embeddings.
func (p AIProvider) SupportsEmbeddings() bool {
	return p == AIProviderOllama || p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint. Empty means the provider default.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.SupportsEmbeddings() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint. Empty means the provider default.
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// StorageBackend selects the document store implementation.
type StorageBackend string

// Available storage backends.
const (
	// StorageSQLite is the default embedded store.
	StorageSQLite StorageBackend = "sqlite"

	// StorageMemory keeps everything in process memory (nothing persists).
	StorageMemory StorageBackend = "memory"

	// StoragePostgres stores chunks in Postgres with the pgvector extension.
	StoragePostgres StorageBackend = "postgres"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	switch b {
	case StorageSQLite, StorageMemory, StoragePostgres:
		return true
	default:
		return false
	}
}

// StorageSettings holds persistence configuration.
type StorageSettings struct {
	// Backend selects the store implementation.
	Backend StorageBackend

	// Path is the data directory for file-backed stores.
	// Empty means ~/.pdfchat/data.
	Path string

	// PostgresDSN is the connection string for the postgres backend.
	PostgresDSN string
}

// LogLevel is the minimum severity written by the logger.
type LogLevel string

// Recognised log levels.
const (
	LogDebug    LogLevel = "debug"
	LogInfo     LogLevel = "info"
	LogWarning  LogLevel = "warning"
	LogError    LogLevel = "error"
	LogCritical LogLevel = "critical"
)

// ParseLogLevel accepts any case and the "warn" alias.
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogDebug, nil
	case "info":
		return LogInfo, nil
	case "warn", "warning":
		return LogWarning, nil
	case "error":
		return LogError, nil
	case "critical":
		return LogCritical, nil
	default:
		return "", fmt.Errorf("%w: unknown log level %q (use debug, info, warning, error or critical)",
			ErrInvalidConfig, s)
	}
}

// Default configuration values.
const (
	DefaultChunkSize        = 1000
	DefaultChunkOverlap     = 200
	DefaultTopK             = 5
	DefaultMaxContextLength = 4000
	DefaultEmbedBatchSize   = 64
	DefaultRequestTimeout   = 30 * time.Second
	DefaultMaxRetries       = 3
	DefaultEmbeddingModel   = "text-embedding-3-large"
	DefaultLLMModel         = "gpt-4.1-mini"
)

// Config is the runtime configuration.
// It is passed by value to every constructor and never mutated afterwards.
type Config struct {
	// ChunkSize is the maximum chunk length in characters.
	ChunkSize int

	// ChunkOverlap is the number of characters shared by consecutive chunks.
	ChunkOverlap int

	// TopK is the number of chunks returned by a retrieval query.
	TopK int

	// MaxContextLength bounds the retrieval tool output in characters.
	MaxContextLength int

	// Embedding configures the embedding provider.
	Embedding EmbeddingSettings

	// LLM configures the language model provider.
	LLM LLMSettings

	// Storage configures persistence.
	Storage StorageSettings

	// LogLevel is the minimum log severity.
	LogLevel LogLevel

	// EmbedBatchSize is the number of chunks sent per embedding request.
	EmbedBatchSize int

	// RequestTimeout bounds every external call.
	RequestTimeout time.Duration

	// MaxRetries is the number of attempts for transient failures.
	MaxRetries int

	// EmbeddingCache enables the on-disk embedding cache.
	EmbeddingCache bool
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		ChunkSize:        DefaultChunkSize,
		ChunkOverlap:     DefaultChunkOverlap,
		TopK:             DefaultTopK,
		MaxContextLength: DefaultMaxContextLength,
		Embedding: EmbeddingSettings{
			Provider: AIProviderOpenAI,
			Model:    DefaultEmbeddingModel,
		},
		LLM: LLMSettings{
			Provider: AIProviderOpenAI,
			Model:    DefaultLLMModel,
		},
		Storage: StorageSettings{
			Backend: StorageSQLite,
		},
		LogLevel:       LogInfo,
		EmbedBatchSize: DefaultEmbedBatchSize,
		RequestTimeout: DefaultRequestTimeout,
		MaxRetries:     DefaultMaxRetries,
		EmbeddingCache: true,
	}
}

// Validate checks the configuration for internal consistency.
// API keys are not checked here; the AI factory reports missing keys.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrInvalidConfig, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap must be in [0, chunk_size), got %d", ErrInvalidConfig, c.ChunkOverlap)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive, got %d", ErrInvalidConfig, c.TopK)
	}
	if c.MaxContextLength <= 0 {
		return fmt.Errorf("%w: max_context_length must be positive", ErrInvalidConfig)
	}
	if c.EmbedBatchSize <= 0 {
		return fmt.Errorf("%w: embed_batch_size must be positive", ErrInvalidConfig)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w: request_timeout must be positive", ErrInvalidConfig)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("%w: max_retries must be at least 1", ErrInvalidConfig)
	}
	if _, err := ParseLogLevel(string(c.LogLevel)); err != nil {
		return err
	}
	if !c.Embedding.Provider.SupportsEmbeddings() {
		return fmt.Errorf("%w: unsupported embedding provider %q", ErrInvalidConfig, c.Embedding.Provider)
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("%w: embedding_model is required", ErrInvalidConfig)
	}
	if !c.LLM.Provider.IsValid() {
		return fmt.Errorf("%w: unsupported llm provider %q", ErrInvalidConfig, c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("%w: llm_model is required", ErrInvalidConfig)
	}
	if !c.Storage.Backend.IsValid() {
		return fmt.Errorf("%w: unsupported storage backend %q", ErrInvalidConfig, c.Storage.Backend)
	}
	if c.Storage.Backend == StoragePostgres && c.Storage.PostgresDSN == "" {
		return fmt.Errorf("%w: storage.postgres_dsn is required for the postgres backend", ErrInvalidConfig)
	}
	return nil
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: DefaultEmbeddingModel,
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    DefaultLLMModel,
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

// ConfigSource records which layer supplied a configuration value.
type ConfigSource string

// Configuration layers, lowest precedence first.
const (
	SourceDefault ConfigSource = "default"
	SourceFile    ConfigSource = "file"
	SourceEnv     ConfigSource = "env"
)

// ConfigField describes one resolved configuration option.
type ConfigField struct {
	// Key is the dot-notation key used in config.toml.
	Key string

	// EnvVar overrides the file value when set.
	EnvVar string

	// Value is the effective value. Sensitive values are masked.
	Value string

	// Source is the layer the value came from.
	Source ConfigSource

	// Sensitive marks API keys and connection strings.
	Sensitive bool
}

// MaskSecret hides all but the last four characters of s.
func MaskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}
