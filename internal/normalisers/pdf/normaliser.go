// Package pdf extracts text from PDF files.
//
// Extraction uses the pure-Go reader first. When it yields nothing (scanned
// or unusual encodings) and pdftotext is installed, the poppler tool is tried.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driven"
	"github.com/infinitegrit26/ACD2/internal/logger"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// ErrPDFToolNotFound is returned when pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found: install poppler-utils")

const (
	pdftotextBin = "pdftotext"
	pageSep      = "\n\n"
)

var pdfMagic = []byte("%PDF-")

// CommandRunner executes external commands. Tests substitute a fake.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Normaliser handles PDF documents.
type Normaliser struct {
	runner   CommandRunner
	lookPath func(string) (string, error)
	extract  func(path string) (string, error)
}

// New creates a PDF normaliser that shells out to the real pdftotext.
func New() *Normaliser {
	return NewWithRunner(execRunner{})
}

// NewWithRunner creates a PDF normaliser with a custom command runner.
func NewWithRunner(runner CommandRunner) *Normaliser {
	return &Normaliser{
		runner:   runner,
		lookPath: exec.LookPath,
		extract:  extractText,
	}
}

// Name returns the normaliser name.
func (n *Normaliser) Name() string {
	return "pdf"
}

// SupportedExtensions returns the extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".pdf"}
}

// Normalise extracts the text of every page, joined by blank lines.
func (n *Normaliser) Normalise(ctx context.Context, path string) (string, error) {
	if err := Validate(path); err != nil {
		return "", err
	}

	text, err := n.extract(path)
	if err == nil && strings.TrimSpace(text) != "" {
		return text, nil
	}
	if err != nil {
		logger.Debug("pdf reader failed on %s: %v", filepath.Base(path), err)
	}

	fallback, ferr := n.pdftotext(ctx, path)
	switch {
	case ferr == nil && strings.TrimSpace(fallback) != "":
		return fallback, nil
	case err != nil:
		return "", fmt.Errorf("%w: %s: %w", domain.ErrExtractionFailure, filepath.Base(path), err)
	case ferr != nil && !errors.Is(ferr, ErrPDFToolNotFound):
		return "", fmt.Errorf("%w: %s: %w", domain.ErrExtractionFailure, filepath.Base(path), ferr)
	default:
		return "", fmt.Errorf("%w: %s contains no extractable text", domain.ErrExtractionFailure, filepath.Base(path))
	}
}

func (n *Normaliser) pdftotext(ctx context.Context, path string) (string, error) {
	if _, err := n.lookPath(pdftotextBin); err != nil {
		return "", ErrPDFToolNotFound
	}
	out, err := n.runner.Run(ctx, pdftotextBin, "-enc", "UTF-8", "-layout", path, "-")
	if err != nil {
		return "", fmt.Errorf("pdftotext failed: %w", err)
	}
	return string(out), nil
}

// Validate checks that the file starts with the PDF header.
func Validate(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrExtractionFailure, err)
	}
	defer f.Close()

	head := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(f, head); err != nil || !bytes.Equal(head, pdfMagic) {
		return fmt.Errorf("%w: %s is not a PDF file", domain.ErrExtractionFailure, filepath.Base(path))
	}
	return nil
}

// extractText reads every page with the pure-Go reader.
// Pages without text are skipped; a page that fails to decode is skipped too.
func extractText(path string) (text string, err error) {
	defer func() {
		// The reader panics on some malformed xref tables.
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var parts []string
	total := r.NumPage()
	for i := 1; i <= total; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		pageText, perr := p.GetPlainText(nil)
		if perr != nil {
			logger.Debug("skipping page %d of %s: %v", i, filepath.Base(path), perr)
			continue
		}
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		parts = append(parts, pageText)
	}
	logger.Debug("extracted %d of %d pages from %s", len(parts), total, filepath.Base(path))
	return strings.Join(parts, pageSep), nil
}

// CheckAvailable reports whether pdftotext is installed.
func CheckAvailable() error {
	if _, err := exec.LookPath(pdftotextBin); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions describes how to install the optional pdftotext fallback.
func InstallInstructions() string {
	return `pdftotext is optional and improves extraction of unusual PDFs.

  macOS:          brew install poppler
  Debian/Ubuntu:  apt install poppler-utils
  Fedora:         dnf install poppler-utils`
}
