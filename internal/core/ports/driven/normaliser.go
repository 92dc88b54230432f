package driven

import "context"

// Normaliser extracts plain text from a source file.
// Each normaliser handles specific file types (e.g., PDF, plain text).
type Normaliser interface {
	// Name returns the normaliser name for logging.
	Name() string

	// SupportedExtensions returns lower-case file extensions including the dot.
	SupportedExtensions() []string

	// Normalise extracts the text content of the file at path.
	// Returns domain.ErrExtractionFailure when no text can be obtained.
	Normalise(ctx context.Context, path string) (string, error)
}
