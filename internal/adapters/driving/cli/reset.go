package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every ingested document",
	Long: `Remove all documents, chunks and embeddings from the index.

The embedding cache and configuration are kept.`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, _ []string) error {
	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer closeRuntime(rt)

	if rt.Store == nil {
		return errors.New("vector store not configured")
	}

	if !resetYes {
		stats, err := rt.Store.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to read stats: %w", err)
		}
		cmd.Printf("Delete %d documents (%d chunks)? [y/N]: ", stats.DocumentCount, stats.ChunkCount)
		answer := readLine(bufio.NewReader(cmd.InOrStdin()))
		if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
			cmd.Println("Aborted.")
			return nil
		}
	}

	if err := rt.Store.Reset(cmd.Context()); err != nil {
		return fmt.Errorf("failed to reset index: %w", err)
	}
	cmd.Println("Index cleared.")
	return nil
}
