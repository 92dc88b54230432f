package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/infinitegrit26/ACD2/internal/connectors/filesystem"
	"github.com/infinitegrit26/ACD2/internal/core/domain"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driving"
	"github.com/infinitegrit26/ACD2/internal/logger"
)

var watchSkipScan bool

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Ingest documents as they appear in a folder",
	Long: `Watch a folder and ingest new or changed documents automatically.

Existing files are ingested first unless --skip-scan is set. Documents
already in the index are skipped by content, so restarting the watcher
is cheap. Deleted files stay in the index; use 'pdfchat reset' to clear it.

Press Ctrl+C to stop.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchSkipScan, "skip-scan", false, "do not ingest existing files on start")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	root, err := filesystem.ResolvePath(args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", args[0], err)
	}

	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer closeRuntime(rt)

	if rt.Ingest == nil {
		return errors.New("ingest service not configured")
	}

	w := filesystem.New(root, filesystem.WithFilter(rt.Ingest.Supports))
	defer func() {
		if err := w.Close(); err != nil {
			logger.Warn("closing watcher: %v", err)
		}
	}()

	ctx := cmd.Context()
	if !watchSkipScan {
		paths, err := w.Scan(ctx)
		if err != nil {
			return fmt.Errorf("failed to scan %s: %w", root, err)
		}
		if len(paths) > 0 {
			batch, err := rt.Ingest.IngestBatch(ctx, paths)
			printBatchReport(cmd, batch)
			if err != nil {
				return ignoreCancel(err)
			}
		}
	}

	changes, err := w.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}
	cmd.Printf("Watching %s\n", root)

	return ignoreCancel(consumeChanges(ctx, cmd, rt.Ingest, changes))
}

// consumeChanges ingests created and updated files until changes closes.
func consumeChanges(
	ctx context.Context,
	cmd *cobra.Command,
	ingest driving.IngestService,
	changes <-chan domain.FileChange,
) error {
	for change := range changes {
		switch change.Type {
		case domain.ChangeCreated, domain.ChangeUpdated:
			logger.Debug("%s: %s", change.Type, change.Path)
			printIngestReport(cmd, ingest.IngestFile(ctx, change.Path))
		case domain.ChangeDeleted:
			logger.Info("%s removed from folder; its chunks stay indexed", filepath.Base(change.Path))
		}
	}
	return ctx.Err()
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
