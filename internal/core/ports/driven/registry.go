package driven

import "context"

// NormaliserRegistry selects the appropriate normaliser for a file.
// Dispatch is by file extension; later registrations win.
type NormaliserRegistry interface {
	// Normalise extracts text from the file using the matching normaliser.
	// Returns domain.ErrExtractionFailure for unsupported extensions.
	Normalise(ctx context.Context, path string) (string, error)

	// Register adds a normaliser to the registry.
	Register(normaliser Normaliser)

	// Supports reports whether a normaliser is registered for the file's extension.
	Supports(path string) bool

	// SupportedExtensions returns all extensions that can be normalised.
	SupportedExtensions() []string
}
