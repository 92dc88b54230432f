package services

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
	"github.com/infinitegrit26/ACD2/internal/logger"
)

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{-1, 200 * time.Millisecond},
		{0, 200 * time.Millisecond},
		{1, 400 * time.Millisecond},
		{2, 800 * time.Millisecond},
		{4, 3200 * time.Millisecond},
		{5, 5 * time.Second},
		{40, 5 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, retryDelay(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestNewRetryPolicy(t *testing.T) {
	p := NewRetryPolicy(0, time.Second)
	assert.Equal(t, domain.DefaultMaxRetries, p.MaxAttempts)
	assert.Equal(t, time.Second, p.Timeout)
}

type recordingSleeper struct {
	delays []time.Duration
}

func (r *recordingSleeper) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func TestRetryPolicy_SucceedsFirstTime(t *testing.T) {
	calls := 0
	err := testRetry(3).Do(context.Background(), "op", func(context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_PermanentErrorNotRetried(t *testing.T) {
	permanent := errors.New("400 bad request")
	calls := 0

	err := testRetry(3).Do(context.Background(), "op", func(context.Context) error {
		calls++
		return permanent
	})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_TransientRetriedWithBackoff(t *testing.T) {
	rec := &recordingSleeper{}
	p := RetryPolicy{MaxAttempts: 3, sleep: rec.sleep}
	calls := 0

	err := p.Do(context.Background(), "op", func(context.Context) error {
		calls++
		return domain.ErrTransient
	})

	assert.ErrorIs(t, err, domain.ErrTransient)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{200 * time.Millisecond, 400 * time.Millisecond}, rec.delays)
}

func TestRetryPolicy_HonoursRetryAfter(t *testing.T) {
	rec := &recordingSleeper{}
	p := RetryPolicy{MaxAttempts: 2, sleep: rec.sleep}
	calls := 0

	err := p.Do(context.Background(), "op", func(context.Context) error {
		calls++
		if calls == 1 {
			return &domain.RetryAfterError{Err: domain.ErrRateLimited, After: 2 * time.Second}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{2 * time.Second}, rec.delays)
}

func TestRetryPolicy_RetryAfterCapped(t *testing.T) {
	rec := &recordingSleeper{}
	p := RetryPolicy{MaxAttempts: 2, sleep: rec.sleep}

	_ = p.Do(context.Background(), "op", func(context.Context) error {
		return &domain.RetryAfterError{Err: domain.ErrRateLimited, After: time.Minute}
	})

	assert.Equal(t, []time.Duration{5 * time.Second}, rec.delays)
}

func TestRetryPolicy_CancelledContextStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := testRetry(5).Do(ctx, "op", func(context.Context) error {
		calls++
		cancel()
		return domain.ErrTransient
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_PerAttemptTimeout(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 1, Timeout: 10 * time.Millisecond, sleep: noSleep}

	err := p.Do(context.Background(), "op", func(ctx context.Context) error {
		deadline, ok := ctx.Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(10*time.Millisecond), deadline, time.Second)
		<-ctx.Done()
		return ctx.Err()
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSleepContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))
}

func TestKeyedMutex(t *testing.T) {
	km := newKeyedMutex()

	unlockA := km.Lock("a")
	unlockB := km.Lock("b")
	assert.Equal(t, 2, km.held())

	done := make(chan struct{})
	go func() {
		unlock := km.Lock("a")
		unlock()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("second lock on the same key should block")
	case <-time.After(20 * time.Millisecond):
	}

	unlockA()
	<-done
	unlockB()
	assert.Equal(t, 0, km.held())
}

func TestRetryPolicy_LogsRetryAsWarning(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(os.Stderr) })

	p := RetryPolicy{MaxAttempts: 2, sleep: noSleep}
	_ = p.Do(context.Background(), "embed batch", func(context.Context) error {
		return domain.ErrTransient
	})

	assert.Contains(t, buf.String(), "[WARN] embed batch failed (attempt 1/2), retrying in 200ms")
	assert.Equal(t, 1, strings.Count(buf.String(), "[WARN]"))
}

func TestCallOnce(t *testing.T) {
	calls := 0
	err := callOnce(context.Background(), time.Minute, func(ctx context.Context) error {
		calls++
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		return domain.ErrTransient
	})

	assert.ErrorIs(t, err, domain.ErrTransient)
	assert.Equal(t, 1, calls)
}
