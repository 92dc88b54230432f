package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates a configuration value failed validation.
	ErrInvalidConfig = errors.New("invalid configuration")

	// Pipeline Errors.

	// ErrExtractionFailure indicates a source could not be turned into text.
	// Unreadable, password-protected, unsupported and empty documents all report this.
	ErrExtractionFailure = errors.New("text extraction failed")

	// ErrDuplicateDocument indicates a document with the same fingerprint is already stored.
	// It is an informational outcome, not a fatal error.
	ErrDuplicateDocument = errors.New("duplicate document")

	// ErrStorageUnavailable indicates the document store or vector index failed.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrEmbeddingFailure indicates the embedding provider failed.
	ErrEmbeddingFailure = errors.New("embedding failed")

	// ErrEmptyIndex indicates a query ran against a store with no documents.
	// Callers treat it as "no relevant context".
	ErrEmptyIndex = errors.New("no documents have been ingested")

	// ErrModelUnavailable indicates the language model call failed.
	ErrModelUnavailable = errors.New("language model unavailable")

	// ErrToolInvocationFailure indicates the retrieval tool failed during a chat turn.
	ErrToolInvocationFailure = errors.New("tool invocation failed")

	// Provider Errors.

	// ErrTransient marks a failure worth retrying: timeouts, rate limits, server errors.
	ErrTransient = errors.New("transient failure")

	// ErrRateLimited indicates the API rate limit was exceeded.
	// Rate limit errors are always transient.
	ErrRateLimited = fmt.Errorf("%w: rate limited", ErrTransient)
)

// RetryAfterError is a transient error carrying a server-provided delay.
type RetryAfterError struct {
	Err   error
	After time.Duration
}

func (e *RetryAfterError) Error() string {
	return fmt.Sprintf("%v (retry after %s)", e.Err, e.After)
}

func (e *RetryAfterError) Unwrap() error {
	return e.Err
}

// Is reports RetryAfterError as transient.
func (e *RetryAfterError) Is(target error) bool {
	return target == ErrTransient
}

// IsTransient reports whether err is worth retrying.
// Cancellation of the caller's context is never transient.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrTransient) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// RetryAfter returns the server-provided delay carried by err, if any.
func RetryAfter(err error) (time.Duration, bool) {
	var ra *RetryAfterError
	if errors.As(err, &ra) && ra.After > 0 {
		return ra.After, true
	}
	return 0, false
}

// ApologyMessage is the chat reply shown in place of an answer when a turn fails.
func ApologyMessage(err error) string {
	return "I apologize, but I encountered an error: " + err.Error()
}
