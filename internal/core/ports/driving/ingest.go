package driving

import (
	"context"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
)

// IngestService turns files on disk into stored chunks.
type IngestService interface {
	// IngestFile extracts, fingerprints, chunks and stores one file.
	// Duplicates and failures are reported in the returned report, never as an error.
	IngestFile(ctx context.Context, path string) domain.IngestReport

	// IngestBatch ingests files in order, continuing past per-file failures.
	// The error is non-nil only when ctx is cancelled.
	IngestBatch(ctx context.Context, paths []string) (domain.BatchReport, error)

	// Supports reports whether the file type can be ingested.
	Supports(path string) bool
}
