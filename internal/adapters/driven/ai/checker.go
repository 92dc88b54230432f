package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driven"
	"github.com/infinitegrit26/ACD2/internal/logger"
)

// DefaultCheckTimeout bounds a single provider ping.
const DefaultCheckTimeout = 5 * time.Second

var _ driven.ProviderChecker = (*Checker)(nil)

// Checker builds a throwaway client for the given settings and pings it.
type Checker struct {
	timeout time.Duration
}

// NewChecker returns a checker; a non-positive timeout uses DefaultCheckTimeout.
func NewChecker(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}
	return &Checker{timeout: timeout}
}

// CheckEmbedding pings the embedding provider. A missing API key fails with
// ErrInvalidConfig before any request is made.
func (c *Checker) CheckEmbedding(ctx context.Context, settings domain.EmbeddingSettings) error {
	if settings.Provider == "" {
		return nil
	}
	svc, err := CreateEmbeddingService(&settings, c.timeout)
	if err != nil {
		return err
	}
	defer svc.Close()

	return c.ping(ctx, settings.Provider, domain.ErrEmbeddingFailure, svc.Ping)
}

// CheckLLM pings the LLM provider.
func (c *Checker) CheckLLM(ctx context.Context, settings domain.LLMSettings) error {
	if settings.Provider == "" {
		return nil
	}
	svc, err := CreateLLMService(&settings, c.timeout)
	if err != nil {
		return err
	}
	defer svc.Close()

	return c.ping(ctx, settings.Provider, domain.ErrModelUnavailable, svc.Ping)
}

func (c *Checker) ping(
	ctx context.Context,
	provider domain.AIProvider,
	kind error,
	ping func(context.Context) error,
) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	if err := ping(ctx); err != nil {
		return fmt.Errorf("%w: %s unreachable: %w", kind, provider, err)
	}
	logger.Debug("check: %s answered in %s", provider, time.Since(start).Round(time.Millisecond))
	return nil
}
