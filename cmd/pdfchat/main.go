// Command pdfchat answers questions about ingested PDF documents.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/infinitegrit26/ACD2/internal/adapters/driven/ai"
	"github.com/infinitegrit26/ACD2/internal/adapters/driven/config/file"
	"github.com/infinitegrit26/ACD2/internal/adapters/driven/storage/memory"
	"github.com/infinitegrit26/ACD2/internal/adapters/driving/cli"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driven"
	"github.com/infinitegrit26/ACD2/internal/core/services"
	"github.com/infinitegrit26/ACD2/internal/logger"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	configDir, err := file.DefaultDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}

	// Real environment first, then ./.env, then the per-user secrets file.
	if err := file.LoadDotEnv(file.EnvFileName, filepath.Join(configDir, file.EnvFileName)); err != nil {
		logger.Warn("loading .env: %v", err)
	}

	settings := services.NewSettingsService(openConfigStore(configDir), ai.NewChecker(ai.DefaultCheckTimeout))

	cli.SetVersion(version)
	cli.SetServices(settings, buildRuntime)
	cli.SetSecretWriter(func(key, value string) error {
		return file.SaveSecret(configDir, key, value)
	})

	return cli.ExecuteContext(ctx)
}

// openConfigStore returns the TOML store, or an in-memory store when the
// config directory cannot be created, so read-only homes still work.
func openConfigStore(dir string) driven.ConfigStore {
	store, err := file.NewConfigStore(dir)
	if err != nil {
		logger.Warn("config file unavailable, using defaults: %v", err)
		return memory.NewConfigStore()
	}
	return store
}
