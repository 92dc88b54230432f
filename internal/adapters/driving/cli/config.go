package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
)

// Environment variables that set-key writes.
//
//nolint:gosec // G101: variable names, not credentials.
var secretEnvVars = map[string]string{
	"embedding": "PDFCHAT_EMBEDDING_API_KEY",
	"llm":       "PDFCHAT_LLM_API_KEY",
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and change pdfchat configuration.

Values are resolved in order: built-in defaults, the config file,
environment variables (PDFCHAT_*), then command line flags.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the config file.

Keys use dot notation, for example:
  pdfchat config set chunking.size 800
  pdfchat config set llm.model gpt-4.1
  pdfchat config set storage.backend memory

Run 'pdfchat config show' to list every key.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configSetKeyCmd = &cobra.Command{
	Use:   "set-key <embedding|llm>",
	Short: "Store an API key",
	Long: `Prompt for an API key and store it in the .env file next to the
config file. The key is read without echo when run in a terminal.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"embedding", "llm"},
	RunE:      runConfigSetKey,
}

var configEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure the embedding provider",
	Args:  cobra.NoArgs,
	RunE:  runConfigEmbedding,
}

var configLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure the LLM provider",
	Args:  cobra.NoArgs,
	RunE:  runConfigLLM,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configSetKeyCmd)
	configCmd.AddCommand(configEmbeddingCmd)
	configCmd.AddCommand(configLLMCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	fields, err := settingsService.Fields()
	if err != nil {
		return fmt.Errorf("failed to read configuration: %w", err)
	}

	cmd.Printf("Config file: %s\n", settingsService.ConfigPath())
	group := ""
	for _, f := range fields {
		prefix, _, _ := strings.Cut(f.Key, ".")
		if prefix != group {
			group = prefix
			cmd.Println()
			cmd.Printf("[%s]\n", group)
		}
		value := f.Value
		if value == "" {
			value = "(not set)"
		}
		cmd.Printf("  %-30s %-34s %s\n", f.Key, value, fieldSource(f))
	}
	cmd.Println()

	if _, err := resolveConfig(cmd); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'pdfchat config set <key> <value>' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func fieldSource(f domain.ConfigField) string {
	switch f.Source {
	case domain.SourceEnv:
		return "(env " + f.EnvVar + ")"
	case domain.SourceFile:
		return "(file)"
	default:
		return "(default)"
	}
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	cmd.Println(settingsService.ConfigPath())
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	cmd.Printf("%s = %s\n", key, value)
	return nil
}

func runConfigSetKey(cmd *cobra.Command, args []string) error {
	envVar, ok := secretEnvVars[strings.ToLower(args[0])]
	if !ok {
		return fmt.Errorf("unknown key %q (use embedding or llm)", args[0])
	}
	if secretWriter == nil {
		return errors.New("secret storage not configured")
	}

	cmd.Print("Enter API key: ")
	key := readPassword(cmd.InOrStdin())
	cmd.Println()
	if key == "" {
		return errors.New("API key must not be empty")
	}

	if err := secretWriter(envVar, key); err != nil {
		return fmt.Errorf("failed to save API key: %w", err)
	}
	cmd.Printf("Saved %s (%s)\n", envVar, domain.MaskSecret(key))
	return nil
}

func runConfigEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	return configureEmbeddingProvider(cmd, bufio.NewReader(cmd.InOrStdin()))
}

func runConfigLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	return configureLLMProvider(cmd, bufio.NewReader(cmd.InOrStdin()))
}

//nolint:dupl // Similar to configureLLMProvider but for embeddings - intentional for CLI flow clarity
func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select Embedding Provider")
	providers := embeddingProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(providers), 1)
	selected := providers[idx-1]

	defaultModel := domain.DefaultEmbeddingModels()[selected]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	// An empty key keeps whatever the environment or .env provides.
	var apiKey string
	if selected.RequiresAPIKey() {
		cmd.Print("Enter API key (leave empty to use the environment): ")
		apiKey = readLine(reader)
	}

	if err := settingsService.SetEmbeddingProvider(selected, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("Embedding provider configured: %s (%s)\n", selected.Description(), model)
	cmd.Println("Documents embedded with a different model must be re-ingested.")
	return nil
}

//nolint:dupl // Similar to configureEmbeddingProvider but for LLM - intentional for CLI flow clarity
func configureLLMProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select LLM Provider")
	providers := domain.AllLLMProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(providers), 1)
	selected := providers[idx-1]

	defaultModel := domain.DefaultLLMModels()[selected]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if selected.RequiresAPIKey() {
		cmd.Print("Enter API key (leave empty to use the environment): ")
		apiKey = readLine(reader)
	}

	if err := settingsService.SetLLMProvider(selected, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}

	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateLLMConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("LLM configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("LLM provider configured: %s (%s)\n", selected.Description(), model)
	return nil
}

func embeddingProviders() []domain.AIProvider {
	var out []domain.AIProvider
	for _, p := range domain.AllLLMProviders() {
		if p.SupportsEmbeddings() {
			out = append(out, p)
		}
	}
	return out
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo from a terminal, otherwise one line from in.
func readPassword(in io.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(bufio.NewReader(in))
}
