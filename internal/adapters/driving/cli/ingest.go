package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/infinitegrit26/ACD2/internal/connectors/filesystem"
	"github.com/infinitegrit26/ACD2/internal/core/domain"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file|dir>...",
	Short: "Add documents to the index",
	Long: `Extract, chunk and embed documents so they can be searched.

Directories are expanded to the supported files below them (.pdf, .txt, .md).
A document whose content is already indexed is skipped, even under a
different file name. A failure on one file does not stop the others.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer closeRuntime(rt)

	if rt.Ingest == nil {
		return errors.New("ingest service not configured")
	}

	paths, err := filesystem.ExpandPaths(args, rt.Ingest.Supports)
	if err != nil {
		return fmt.Errorf("failed to resolve paths: %w", err)
	}
	if len(paths) == 0 {
		cmd.Println("No supported documents found.")
		return nil
	}

	batch, err := rt.Ingest.IngestBatch(cmd.Context(), paths)
	printBatchReport(cmd, batch)
	if err != nil {
		return err
	}
	if n := batch.Count(domain.IngestOutcomeFailed); n > 0 && n == len(batch.Reports) {
		return fmt.Errorf("%d document(s) failed to ingest", n)
	}
	return nil
}

func printBatchReport(cmd *cobra.Command, batch domain.BatchReport) {
	for i := range batch.Reports {
		printIngestReport(cmd, batch.Reports[i])
	}
	if len(batch.Reports) > 1 {
		cmd.Println()
		cmd.Printf("%d ingested, %d duplicate, %d failed (%d chunks)\n",
			batch.Count(domain.IngestOutcomeIngested),
			batch.Count(domain.IngestOutcomeDuplicate),
			batch.Count(domain.IngestOutcomeFailed),
			batch.TotalChunks())
	}
}

func printIngestReport(cmd *cobra.Command, r domain.IngestReport) {
	name := filepath.Base(r.Path)
	switch r.Outcome {
	case domain.IngestOutcomeIngested:
		cmd.Printf("  ingested  %s (%d chunks)\n", name, r.ChunkCount)
	case domain.IngestOutcomeDuplicate:
		cmd.Printf("  skipped   %s (already indexed)\n", name)
	default:
		cmd.Printf("  failed    %s: %v\n", name, r.Err)
	}
}
