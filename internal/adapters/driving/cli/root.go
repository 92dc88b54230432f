// Package cli implements the pdfchat command line.
//
// Commands receive their services through SetServices. The CLI never
// constructs adapters itself: main resolves the configuration, and the
// RuntimeFactory opens storage and AI providers for commands that need them.
package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driven"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driving"
	"github.com/infinitegrit26/ACD2/internal/logger"
)

// version is set by SetVersion from build flags.
var version = "dev"

// Runtime holds the services opened for one command invocation.
type Runtime struct {
	Config    domain.Config
	Store     driving.VectorStore
	Ingest    driving.IngestService
	Retrieval driving.RetrievalTool
	Agent     driving.ChatAgent

	// Prompts is optional. Without it /reload is unavailable.
	Prompts driven.PromptStore

	// Close releases storage and provider resources. May be nil.
	Close func() error
}

// RuntimeFactory opens the runtime for a validated configuration.
type RuntimeFactory func(ctx context.Context, cfg domain.Config) (*Runtime, error)

var (
	settingsService driving.SettingsService
	runtimeFactory  RuntimeFactory
	secretWriter    func(key, value string) error
)

// Persistent flag values.
var (
	flagVerbose      bool
	flagLogLevel     string
	flagChunkSize    int
	flagChunkOverlap int
	flagTopK         int
	flagStorage      string
	flagStoragePath  string
)

var rootCmd = &cobra.Command{
	Use:   "pdfchat",
	Short: "Chat with your PDF documents",
	Long: `pdfchat ingests PDF documents into a local vector index and answers
questions about them with a language model.

The model decides per question whether to search your documents or to
answer directly, so greetings and general questions skip retrieval.

Get started:
  pdfchat config set-key llm
  pdfchat ingest manual.pdf
  pdfchat chat`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if flagVerbose {
			logger.SetVerbose(true)
		}
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	pf.StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warning, error or critical")
	pf.IntVar(&flagChunkSize, "chunk-size", domain.DefaultChunkSize, "maximum chunk length in characters")
	pf.IntVar(&flagChunkOverlap, "chunk-overlap", domain.DefaultChunkOverlap, "characters shared by consecutive chunks")
	pf.IntVar(&flagTopK, "top-k", domain.DefaultTopK, "number of chunks retrieved per query")
	pf.StringVar(&flagStorage, "storage", "", "storage backend: sqlite, memory or postgres")
	pf.StringVar(&flagStoragePath, "storage-path", "", "data directory for the sqlite backend")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetServices injects the settings service and the runtime factory.
func SetServices(settings driving.SettingsService, factory RuntimeFactory) {
	settingsService = settings
	runtimeFactory = factory
}

// SetSecretWriter injects the function that persists API keys.
func SetSecretWriter(fn func(key, value string) error) {
	secretWriter = fn
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// resolveConfig returns the settings layers with flags applied, validated.
func resolveConfig(cmd *cobra.Command) (domain.Config, error) {
	if settingsService == nil {
		return domain.Config{}, errors.New("settings service not configured")
	}

	cfg, err := settingsService.Config()
	if err != nil {
		return domain.Config{}, fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg, err = applyFlags(cmd, cfg)
	if err != nil {
		return domain.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return domain.Config{}, err
	}
	return cfg, nil
}

// applyFlags overrides cfg with every flag the user set explicitly.
func applyFlags(cmd *cobra.Command, cfg domain.Config) (domain.Config, error) {
	f := cmd.Flags()
	if f.Changed("chunk-size") {
		cfg.ChunkSize = flagChunkSize
	}
	if f.Changed("chunk-overlap") {
		cfg.ChunkOverlap = flagChunkOverlap
	}
	if f.Changed("top-k") {
		cfg.TopK = flagTopK
	}
	if f.Changed("storage") {
		cfg.Storage.Backend = domain.StorageBackend(strings.ToLower(flagStorage))
	}
	if f.Changed("storage-path") {
		cfg.Storage.Path = flagStoragePath
	}
	if f.Changed("log-level") {
		level, err := domain.ParseLogLevel(flagLogLevel)
		if err != nil {
			return cfg, err
		}
		cfg.LogLevel = level
	}
	if flagVerbose {
		cfg.LogLevel = domain.LogDebug
	}
	return cfg, nil
}

// openRuntime resolves the configuration and opens the services.
// Callers must call closeRuntime when done.
func openRuntime(cmd *cobra.Command) (*Runtime, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := logger.SetLevel(string(cfg.LogLevel)); err != nil {
		return nil, err
	}
	if runtimeFactory == nil {
		return nil, errors.New("runtime not configured")
	}

	logger.Debug("opening %s storage", cfg.Storage.Backend)
	rt, err := runtimeFactory(cmd.Context(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise: %w", err)
	}
	rt.Config = cfg
	return rt, nil
}

func closeRuntime(rt *Runtime) {
	if rt == nil || rt.Close == nil {
		return
	}
	if err := rt.Close(); err != nil {
		logger.Warn("close: %v", err)
	}
}
