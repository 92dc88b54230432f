package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driven"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driving"
	"github.com/infinitegrit26/ACD2/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService extracts text from files and hands the chunks to the vector store.
// Each file is fingerprinted from its raw bytes before any extraction work.
type IngestService struct {
	normalisers driven.NormaliserRegistry
	splitter    driven.TextSplitter
	store       driving.VectorStore
	readFile    func(string) ([]byte, error)
}

// NewIngestService creates a new ingest service.
func NewIngestService(
	normalisers driven.NormaliserRegistry,
	splitter driven.TextSplitter,
	store driving.VectorStore,
) *IngestService {
	return &IngestService{
		normalisers: normalisers,
		splitter:    splitter,
		store:       store,
		readFile:    os.ReadFile,
	}
}

// Supports reports whether a normaliser is registered for the file type.
func (s *IngestService) Supports(path string) bool {
	return s.normalisers.Supports(path)
}

// IngestFile ingests one file. The outcome and any failure are in the report.
func (s *IngestService) IngestFile(ctx context.Context, path string) domain.IngestReport {
	report := domain.IngestReport{Path: path}
	name := filepath.Base(path)

	fail := func(err error) domain.IngestReport {
		report.Outcome = domain.IngestOutcomeFailed
		report.Err = err
		logger.Warn("Failed to ingest %s: %v", name, err)
		return report
	}
	duplicate := func(err error) domain.IngestReport {
		report.Outcome = domain.IngestOutcomeDuplicate
		report.Err = err
		logger.Info("Skipping %s: already ingested", name)
		return report
	}

	if !s.normalisers.Supports(path) {
		return fail(fmt.Errorf("%w: unsupported file type %q", domain.ErrExtractionFailure, filepath.Ext(path)))
	}

	content, err := s.readFile(path)
	if err != nil {
		return fail(fmt.Errorf("%w: read %s: %w", domain.ErrExtractionFailure, name, err))
	}
	report.Fingerprint = domain.NewFingerprint(content)

	dup, err := s.store.IsDuplicate(ctx, report.Fingerprint)
	if err != nil {
		return fail(err)
	}
	if dup {
		return duplicate(fmt.Errorf("%w: %s", domain.ErrDuplicateDocument, name))
	}

	text, err := s.normalisers.Normalise(ctx, path)
	if err != nil {
		if !errors.Is(err, domain.ErrExtractionFailure) {
			err = fmt.Errorf("%w: %s: %w", domain.ErrExtractionFailure, name, err)
		}
		return fail(err)
	}
	if strings.TrimSpace(text) == "" {
		return fail(fmt.Errorf("%w: %s contains no extractable text", domain.ErrExtractionFailure, name))
	}

	chunks, err := s.splitter.SplitText(ctx, text)
	if err != nil {
		return fail(fmt.Errorf("split %s: %w", name, err))
	}
	logger.Debug("%s: %d characters, %d chunks", name, len([]rune(text)), len(chunks))

	result, err := s.store.Ingest(ctx, name, chunks, report.Fingerprint)
	if errors.Is(err, domain.ErrDuplicateDocument) {
		return duplicate(err)
	}
	if err != nil {
		return fail(err)
	}

	report.Outcome = domain.IngestOutcomeIngested
	report.DocumentID = result.DocumentID
	report.ChunkCount = result.ChunkCount
	return report
}

// IngestBatch ingests files in order. A failed file does not stop the batch;
// only cancellation of ctx does.
func (s *IngestService) IngestBatch(ctx context.Context, paths []string) (domain.BatchReport, error) {
	batch := domain.BatchReport{Reports: make([]domain.IngestReport, 0, len(paths))}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return batch, err
		}
		batch.Reports = append(batch.Reports, s.IngestFile(ctx, path))
	}

	logger.Info("Batch complete: %d ingested, %d duplicates, %d failed",
		batch.Count(domain.IngestOutcomeIngested),
		batch.Count(domain.IngestOutcomeDuplicate),
		batch.Count(domain.IngestOutcomeFailed))
	return batch, nil
}
