package services

import (
	"context"
	"time"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
	"github.com/infinitegrit26/ACD2/internal/logger"
)

const (
	retryBaseDelay = 200 * time.Millisecond
	retryMaxDelay  = 5 * time.Second
)

// RetryPolicy bounds the attempts and the per-attempt timeout of an external call.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// Timeout bounds each attempt. Zero means no per-attempt timeout.
	Timeout time.Duration

	// sleep is replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetryPolicy returns a policy from the configured retry count and request timeout.
func NewRetryPolicy(maxRetries int, timeout time.Duration) RetryPolicy {
	if maxRetries <= 0 {
		maxRetries = domain.DefaultMaxRetries
	}
	return RetryPolicy{MaxAttempts: maxRetries, Timeout: timeout}
}

// retryDelay returns the exponential backoff for an attempt, capped at retryMaxDelay.
func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 10 {
		return retryMaxDelay
	}
	d := retryBaseDelay << attempt
	if d > retryMaxDelay {
		return retryMaxDelay
	}
	return d
}

// Do calls fn until it succeeds, fails permanently, or attempts run out.
// Each attempt runs under its own timeout derived from ctx.
// Only errors for which domain.IsTransient holds are retried. A server
// provided delay (domain.RetryAfterError) replaces the backoff.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		err = p.attempt(ctx, fn)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || !domain.IsTransient(err) || attempt == attempts-1 {
			return err
		}

		delay := retryDelay(attempt)
		if after, ok := domain.RetryAfter(err); ok && after > 0 {
			delay = min(after, retryMaxDelay)
		}
		logger.Warn("%s failed (attempt %d/%d), retrying in %s: %v", op, attempt+1, attempts, delay, err)

		if serr := sleep(ctx, delay); serr != nil {
			return err
		}
	}
	return err
}

func (p RetryPolicy) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	return callOnce(ctx, p.Timeout, fn)
}

// callOnce runs fn a single time under timeout. Zero means no timeout.
func callOnce(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(callCtx)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
