package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrInvalidConfig", ErrInvalidConfig},
		{"ErrExtractionFailure", ErrExtractionFailure},
		{"ErrDuplicateDocument", ErrDuplicateDocument},
		{"ErrStorageUnavailable", ErrStorageUnavailable},
		{"ErrEmbeddingFailure", ErrEmbeddingFailure},
		{"ErrEmptyIndex", ErrEmptyIndex},
		{"ErrModelUnavailable", ErrModelUnavailable},
		{"ErrToolInvocationFailure", ErrToolInvocationFailure},
		{"ErrTransient", ErrTransient},
		{"ErrRateLimited", ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrors_WrappingPreservesIdentity(t *testing.T) {
	wrapped := fmt.Errorf("%w: disk full", ErrStorageUnavailable)

	assert.True(t, errors.Is(wrapped, ErrStorageUnavailable))
	assert.False(t, errors.Is(wrapped, ErrEmbeddingFailure))
	assert.Contains(t, wrapped.Error(), "storage unavailable")
}

func TestErrRateLimited_IsTransient(t *testing.T) {
	assert.True(t, errors.Is(ErrRateLimited, ErrTransient))
	assert.True(t, IsTransient(fmt.Errorf("openai: %w", ErrRateLimited)))
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("bad request"), false},
		{"marked transient", fmt.Errorf("%w: status 503", ErrTransient), true},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"wrapped deadline", fmt.Errorf("send request: %w", context.DeadlineExceeded), true},
		{"cancelled", context.Canceled, false},
		{"network timeout", fmt.Errorf("dial: %w", timeoutErr{}), true},
		{"retry after", &RetryAfterError{Err: errors.New("429"), After: time.Second}, true},
		{"invalid input", ErrInvalidInput, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsTransient(tt.err))
		})
	}
}

func TestRetryAfter(t *testing.T) {
	t.Run("carried delay", func(t *testing.T) {
		err := fmt.Errorf("embed: %w", &RetryAfterError{Err: ErrRateLimited, After: 2 * time.Second})

		after, ok := RetryAfter(err)
		assert.True(t, ok)
		assert.Equal(t, 2*time.Second, after)
		assert.True(t, errors.Is(err, ErrRateLimited))
	})

	t.Run("no delay", func(t *testing.T) {
		_, ok := RetryAfter(errors.New("boom"))
		assert.False(t, ok)
	})

	t.Run("message includes delay", func(t *testing.T) {
		err := &RetryAfterError{Err: errors.New("slow down"), After: 3 * time.Second}
		assert.Equal(t, "slow down (retry after 3s)", err.Error())
	})
}

func TestApologyMessage(t *testing.T) {
	err := fmt.Errorf("%w: upstream returned 503", ErrModelUnavailable)

	assert.Equal(t,
		"I apologize, but I encountered an error: language model unavailable: upstream returned 503",
		ApologyMessage(err))
}
