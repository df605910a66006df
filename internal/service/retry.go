package service

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/irakliskhirtladze/Library-management-system/internal/repository"
)

const (
	defaultMaxAttempts  = 6
	defaultBaseDelay    = 10 * time.Millisecond
	defaultJitterFactor = 0.3
)

type retryConfig struct {
	maxAttempts  int
	baseDelay    time.Duration
	jitterFactor float64
}

func defaultRetryConfig() retryConfig {
	return retryConfig{
		maxAttempts:  defaultMaxAttempts,
		baseDelay:    defaultBaseDelay,
		jitterFactor: defaultJitterFactor,
	}
}

// retryWithBackoff повторяет fn только при repository.ErrTransient.
// Задержки: 0, base, 2*base, 4*base... плюс jitter.
func retryWithBackoff(ctx context.Context, cfg retryConfig, fn func(ctx context.Context) error) error {
	attempts := cfg.maxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := cfg.baseDelay * time.Duration(1<<(attempt-1))
			jitter := rand.Float64() * float64(delay) * cfg.jitterFactor //nolint:gosec // jitter only

			select {
			case <-time.After(delay + time.Duration(jitter)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, repository.ErrTransient) {
			return lastErr
		}
	}
	return lastErr
}
