// Package ratelimit throttles requests to AI providers and classifies their
// HTTP failures as transient or permanent.
//
// Limiting is dual-strategy: a proactive token bucket spaces requests out,
// and the provider's own rate limit headers pause callers once the remaining
// quota drops below a buffer.
package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Rate limit headers understood by the limiter.
const (
	HeaderRetryAfter = "Retry-After"

	// OpenAI (and compatible servers) report the reset as a duration, e.g. "6m0s".
	HeaderOpenAIRemaining = "X-Ratelimit-Remaining-Requests"
	HeaderOpenAIReset     = "X-Ratelimit-Reset-Requests"

	// Anthropic reports the reset as an RFC 3339 timestamp.
	HeaderAnthropicRemaining = "Anthropic-Ratelimit-Requests-Remaining"
	HeaderAnthropicReset     = "Anthropic-Ratelimit-Requests-Reset"
)

// Config holds rate limiting configuration for a provider.
type Config struct {
	// RequestsPerSecond is the sustained request rate. Zero disables the bucket.
	RequestsPerSecond float64

	// Burst is the maximum burst size.
	Burst int

	// MinRemaining is the reported quota below which callers wait for the reset.
	MinRemaining int
}

// Conservative defaults per provider. Local servers are not throttled.
var (
	OpenAI    = Config{RequestsPerSecond: 8, Burst: 8, MinRemaining: 2}
	Anthropic = Config{RequestsPerSecond: 4, Burst: 4, MinRemaining: 2}
	Local     = Config{}
)

// Limiter paces requests to a single provider. It is safe for concurrent use.
type Limiter struct {
	mu        sync.Mutex
	bucket    *rate.Limiter
	minBuffer int
	remaining int
	resetAt   time.Time
	retryAt   time.Time
	now       func() time.Time
}

// New creates a limiter from cfg.
func New(cfg Config) *Limiter {
	l := &Limiter{
		minBuffer: cfg.MinRemaining,
		remaining: -1,
		now:       time.Now,
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		l.bucket = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return l
}

// Wait blocks until it's safe to make a request.
func (l *Limiter) Wait(ctx context.Context) error {
	if until := l.pauseUntil(); !until.IsZero() {
		timer := time.NewTimer(until.Sub(l.now()))
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	if l.bucket == nil {
		return nil
	}
	return l.bucket.Wait(ctx)
}

// pauseUntil returns the time callers must wait for, or zero.
func (l *Limiter) pauseUntil() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	until := time.Time{}
	if now.Before(l.retryAt) {
		until = l.retryAt
	}
	if l.remaining >= 0 && l.remaining < l.minBuffer && now.Before(l.resetAt) && l.resetAt.After(until) {
		until = l.resetAt
	}
	return until
}

// Observe updates the limiter from a provider response.
func (l *Limiter) Observe(resp *http.Response) {
	if resp == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if v, ok := firstInt(resp.Header, HeaderOpenAIRemaining, HeaderAnthropicRemaining); ok {
		l.remaining = v
	}
	if v := resp.Header.Get(HeaderOpenAIReset); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			l.resetAt = now.Add(d)
		}
	}
	if v := resp.Header.Get(HeaderAnthropicReset); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			l.resetAt = t
		}
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		if d, ok := ParseRetryAfter(resp.Header.Get(HeaderRetryAfter), now); ok {
			l.retryAt = now.Add(d)
		}
	}
}

// Remaining returns the last reported quota, or -1 when unknown.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.remaining
}

// ParseRetryAfter parses a Retry-After value given in seconds or as an HTTP date.
func ParseRetryAfter(v string, now time.Time) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs * float64(time.Second)), true
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d, true
		}
		return 0, true
	}
	return 0, false
}

func firstInt(h http.Header, keys ...string) (int, bool) {
	for _, k := range keys {
		if v := h.Get(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}
