package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driven"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driving"
	"github.com/infinitegrit26/ACD2/internal/logger"
)

// mockSettings implements driving.SettingsService.
type mockSettings struct {
	cfg       domain.Config
	cfgErr    error
	fields    []domain.ConfigField
	setErr    error
	set       map[string]string
	provider  domain.AIProvider
	model     string
	apiKey    string
	pingErr   error
	path      string
	providers []string
}

func (m *mockSettings) Config() (domain.Config, error) { return m.cfg, m.cfgErr }

func (m *mockSettings) Fields() ([]domain.ConfigField, error) { return m.fields, m.cfgErr }

func (m *mockSettings) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	if m.set == nil {
		m.set = map[string]string{}
	}
	m.set[key] = value
	return nil
}

func (m *mockSettings) SetEmbeddingProvider(p domain.AIProvider, model, apiKey string) error {
	m.providers = append(m.providers, "embedding")
	m.provider, m.model, m.apiKey = p, model, apiKey
	return nil
}

func (m *mockSettings) SetLLMProvider(p domain.AIProvider, model, apiKey string) error {
	m.providers = append(m.providers, "llm")
	m.provider, m.model, m.apiKey = p, model, apiKey
	return nil
}

func (m *mockSettings) ValidateEmbeddingConfig() error { return m.pingErr }
func (m *mockSettings) ValidateLLMConfig() error       { return m.pingErr }
func (m *mockSettings) ConfigPath() string             { return m.path }

// mockStore implements driving.VectorStore.
type mockStore struct {
	stats    domain.IndexStats
	docs     []domain.Document
	err      error
	resets   int
	resetErr error
}

func (m *mockStore) IsDuplicate(context.Context, domain.Fingerprint) (bool, error) {
	return false, m.err
}

func (m *mockStore) Ingest(context.Context, string, []string, domain.Fingerprint) (driving.IngestResult, error) {
	return driving.IngestResult{}, m.err
}

func (m *mockStore) Query(context.Context, string, int) ([]domain.RetrievalHit, error) {
	return nil, m.err
}

func (m *mockStore) Stats(context.Context) (domain.IndexStats, error) { return m.stats, m.err }

func (m *mockStore) Documents(context.Context) ([]domain.Document, error) { return m.docs, m.err }

func (m *mockStore) Reset(context.Context) error {
	m.resets++
	return m.resetErr
}

// mockIngest implements driving.IngestService. Only .pdf files are supported.
type mockIngest struct {
	batches  [][]string
	files    []string
	outcomes map[string]domain.IngestReport
	onBatch  func()
}

func (m *mockIngest) report(path string) domain.IngestReport {
	if r, ok := m.outcomes[filepath.Base(path)]; ok {
		r.Path = path
		return r
	}
	return domain.IngestReport{Path: path, Outcome: domain.IngestOutcomeIngested, ChunkCount: 3}
}

func (m *mockIngest) IngestFile(_ context.Context, path string) domain.IngestReport {
	m.files = append(m.files, path)
	return m.report(path)
}

func (m *mockIngest) IngestBatch(_ context.Context, paths []string) (domain.BatchReport, error) {
	m.batches = append(m.batches, paths)
	var batch domain.BatchReport
	for _, p := range paths {
		batch.Reports = append(batch.Reports, m.report(p))
	}
	if m.onBatch != nil {
		m.onBatch()
	}
	return batch, nil
}

func (m *mockIngest) Supports(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// mockAgent implements driving.ChatAgent.
type mockAgent struct {
	AskFunc   func(history []driven.ChatMessage, message string) (*domain.Answer, error)
	histories [][]driven.ChatMessage
	messages  []string
}

func (m *mockAgent) Ask(_ context.Context, history []driven.ChatMessage, message string) (*domain.Answer, error) {
	m.histories = append(m.histories, append([]driven.ChatMessage(nil), history...))
	m.messages = append(m.messages, message)
	if m.AskFunc != nil {
		return m.AskFunc(history, message)
	}
	return &domain.Answer{Text: "answer to " + message, Route: domain.RouteDirect}, nil
}

func (m *mockAgent) State() domain.AgentState { return domain.AgentIdle }

// mockRetrieval implements driving.RetrievalTool.
type mockRetrieval struct{}

func (mockRetrieval) Definition() driven.ToolDefinition {
	return driven.ToolDefinition{Name: "query_documents"}
}

func (mockRetrieval) QueryDocuments(context.Context, string) (string, error) { return "", nil }

// testEnv records what commands did with the injected services.
type testEnv struct {
	settings *mockSettings
	store    *mockStore
	ingest   *mockIngest
	agent    *mockAgent
	secrets  map[string]string

	opens      int
	opened     domain.Config
	closed     bool
	factoryErr error
}

// setupTestServices injects mocks and restores global state on cleanup.
func setupTestServices(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		settings: &mockSettings{cfg: domain.DefaultConfig(), path: "/home/me/.pdfchat/config.toml"},
		store:    &mockStore{},
		ingest:   &mockIngest{},
		agent:    &mockAgent{},
		secrets:  map[string]string{},
	}

	SetServices(env.settings, func(_ context.Context, cfg domain.Config) (*Runtime, error) {
		env.opens++
		env.opened = cfg
		if env.factoryErr != nil {
			return nil, env.factoryErr
		}
		return &Runtime{
			Store:     env.store,
			Ingest:    env.ingest,
			Retrieval: mockRetrieval{},
			Agent:     env.agent,
			Close: func() error {
				env.closed = true
				return nil
			},
		}, nil
	})
	SetSecretWriter(func(key, value string) error {
		env.secrets[key] = value
		return nil
	})

	resetFlags(rootCmd)
	logger.SetOutput(io.Discard)

	t.Cleanup(func() {
		SetServices(nil, nil)
		SetSecretWriter(nil)
		resetFlags(rootCmd)
		logger.SetOutput(os.Stderr)
		logger.SetVerbose(false)
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	return env
}

// resetFlags restores every flag below cmd to its default.
// Flag values live in package variables and survive between Execute calls.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue) //nolint:errcheck // defaults always parse
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command with args and stdin, returning all output.
func execute(in string, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(in))
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return buf.String(), err
}
