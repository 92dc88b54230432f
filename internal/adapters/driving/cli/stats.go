package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer closeRuntime(rt)

	if rt.Store == nil {
		return errors.New("vector store not configured")
	}

	stats, err := rt.Store.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read stats: %w", err)
	}

	cfg := rt.Config
	cmd.Printf("Documents:       %d\n", stats.DocumentCount)
	cmd.Printf("Chunks:          %d\n", stats.ChunkCount)
	cmd.Printf("LLM:             %s (%s)\n", cfg.LLM.Model, cfg.LLM.Provider)
	cmd.Printf("Embedding model: %s (%s)\n", cfg.Embedding.Model, cfg.Embedding.Provider)
	cmd.Printf("Storage:         %s\n", storageDescription(cfg.Storage))
	return nil
}

// storageDescription names the backend and where it keeps data.
// Postgres connection strings are never printed.
func storageDescription(s domain.StorageSettings) string {
	switch s.Backend {
	case domain.StorageMemory:
		return "memory (not persisted)"
	case domain.StoragePostgres:
		return "postgres"
	default:
		path := s.Path
		if path == "" {
			path = "~/.pdfchat/data"
		}
		return fmt.Sprintf("%s (%s)", s.Backend, path)
	}
}
