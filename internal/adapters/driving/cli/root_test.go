package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
	"github.com/infinitegrit26/ACD2/internal/logger"
)

func TestRootCmd_RegistersCommands(t *testing.T) {
	names := make([]string, 0, len(rootCmd.Commands()))
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
	}

	for _, want := range []string{
		"ingest", "ask", "chat", "stats", "documents", "reset", "watch", "mcp", "config", "version",
	} {
		assert.Contains(t, names, want)
	}
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	pf := rootCmd.PersistentFlags()

	for _, name := range []string{"verbose", "log-level", "chunk-size", "chunk-overlap", "top-k", "storage", "storage-path"} {
		assert.NotNil(t, pf.Lookup(name), name)
	}
	assert.Equal(t, "v", pf.Lookup("verbose").Shorthand)
	assert.Equal(t, "1000", pf.Lookup("chunk-size").DefValue)
	assert.Equal(t, "200", pf.Lookup("chunk-overlap").DefValue)
	assert.Equal(t, "5", pf.Lookup("top-k").DefValue)
}

func TestOpenRuntime_UsesSettingsWithoutFlags(t *testing.T) {
	env := setupTestServices(t)
	env.settings.cfg.TopK = 8

	_, err := execute("", "stats")

	require.NoError(t, err)
	assert.Equal(t, 1, env.opens)
	assert.Equal(t, 8, env.opened.TopK)
	assert.Equal(t, domain.StorageSQLite, env.opened.Storage.Backend)
}

func TestOpenRuntime_FlagsOverrideSettings(t *testing.T) {
	env := setupTestServices(t)
	env.settings.cfg.TopK = 8

	_, err := execute("", "--top-k", "2", "--chunk-size", "500", "--chunk-overlap", "0",
		"--storage", "MEMORY", "--storage-path", "/data", "stats")

	require.NoError(t, err)
	assert.Equal(t, 2, env.opened.TopK)
	assert.Equal(t, 500, env.opened.ChunkSize)
	assert.Equal(t, 0, env.opened.ChunkOverlap)
	assert.Equal(t, domain.StorageMemory, env.opened.Storage.Backend)
	assert.Equal(t, "/data", env.opened.Storage.Path)
}

func TestOpenRuntime_InvalidConfigRejectedBeforeFactory(t *testing.T) {
	env := setupTestServices(t)

	_, err := execute("", "--chunk-size", "100", "--chunk-overlap", "100", "stats")

	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.Zero(t, env.opens)
}

func TestOpenRuntime_UnknownLogLevel(t *testing.T) {
	env := setupTestServices(t)

	_, err := execute("", "--log-level", "loud", "stats")

	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.Zero(t, env.opens)
}

func TestOpenRuntime_LogLevel(t *testing.T) {
	env := setupTestServices(t)

	_, err := execute("", "--log-level", "WARN", "stats")

	require.NoError(t, err)
	assert.Equal(t, domain.LogWarning, env.opened.LogLevel)
	assert.Equal(t, domain.LogWarning, logger.Level())
}

func TestOpenRuntime_VerboseForcesDebug(t *testing.T) {
	env := setupTestServices(t)

	_, err := execute("", "-v", "--log-level", "error", "stats")

	require.NoError(t, err)
	assert.Equal(t, domain.LogDebug, env.opened.LogLevel)
	assert.True(t, logger.IsVerbose())
}

func TestOpenRuntime_SettingsError(t *testing.T) {
	env := setupTestServices(t)
	env.settings.cfgErr = errors.New("bad toml")

	_, err := execute("", "stats")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
	assert.Zero(t, env.opens)
}

func TestOpenRuntime_FactoryError(t *testing.T) {
	env := setupTestServices(t)
	env.factoryErr = domain.ErrStorageUnavailable

	_, err := execute("", "stats")

	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	assert.Contains(t, err.Error(), "failed to initialise")
}

func TestOpenRuntime_NotConfigured(t *testing.T) {
	setupTestServices(t)
	SetServices(nil, nil)

	_, err := execute("", "stats")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestOpenRuntime_ClosesRuntime(t *testing.T) {
	env := setupTestServices(t)

	_, err := execute("", "stats")

	require.NoError(t, err)
	assert.True(t, env.closed)
}

func TestCloseRuntime_NilSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		closeRuntime(nil)
		closeRuntime(&Runtime{})
	})
}

func TestSetVersion(t *testing.T) {
	original := version
	defer func() { version = original }()

	SetVersion("1.2.3")

	assert.Equal(t, "1.2.3", version)
}
