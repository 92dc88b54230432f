package ratelimit

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
)

const maxErrorBody = 512

// StatusError converts a non-2xx provider response into an error.
// Rate limits, timeouts and server errors are transient; a 429 carrying
// Retry-After yields a domain.RetryAfterError. Everything else is permanent.
// Returns nil for 2xx responses.
func StatusError(provider string, resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	msg := errorMessage(body)
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		err := fmt.Errorf("%s: %w: %s", provider, domain.ErrRateLimited, msg)
		if d, ok := ParseRetryAfter(resp.Header.Get(HeaderRetryAfter), time.Now()); ok && d > 0 {
			return &domain.RetryAfterError{Err: err, After: d}
		}
		return err
	case resp.StatusCode == http.StatusRequestTimeout,
		resp.StatusCode == 529, // Anthropic: overloaded
		resp.StatusCode >= 500:
		return fmt.Errorf("%s: %w: status %d: %s", provider, domain.ErrTransient, resp.StatusCode, msg)
	default:
		return fmt.Errorf("%s: API returned status %d: %s", provider, resp.StatusCode, msg)
	}
}

// errorMessage extracts a readable message from a provider error body.
// OpenAI and Anthropic use {"error":{"message":...}}; Ollama uses {"error":"..."}.
func errorMessage(body []byte) string {
	var nested struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &nested) == nil && nested.Error.Message != "" {
		return nested.Error.Message
	}
	var flat struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &flat) == nil && flat.Error != "" {
		return flat.Error
	}
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "..."
	}
	return s
}
