package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tripcore/shared/resilience"
)

var errTransient = errors.New("upstream timeout")
var errPermanent = errors.New("invalid request")

func fastRetryConfig() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:   3,
		BaseDelay:     time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2,
	}
}

func alwaysRetryable(error) bool { return true }

func TestRetry_SucceedsWithinAttempts(t *testing.T) {
	calls := 0

	err := resilience.Retry(context.Background(), fastRetryConfig(), alwaysRetryable, func(context.Context) error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	calls := 0

	err := resilience.Retry(context.Background(), fastRetryConfig(), alwaysRetryable, func(context.Context) error {
		calls++
		return errTransient
	})

	assert.ErrorIs(t, err, errTransient)
	assert.Contains(t, err.Error(), "retries exhausted after 3 attempts")
	assert.Equal(t, 3, calls)
}

func TestRetry_NonRetryableReturnsImmediately(t *testing.T) {
	calls := 0

	notRetryable := func(err error) bool { return !errors.Is(err, errPermanent) }

	err := resilience.Retry(context.Background(), fastRetryConfig(), notRetryable, func(context.Context) error {
		calls++
		return errPermanent
	})

	assert.ErrorIs(t, err, errPermanent)
	assert.Equal(t, 1, calls)
}

func TestRetry_NeverRetriesCircuitOpen(t *testing.T) {
	calls := 0
	openErr := &resilience.CircuitOpenError{Dependency: "payment-gateway", RetryAfter: 10 * time.Second}

	err := resilience.Retry(context.Background(), fastRetryConfig(), alwaysRetryable, func(context.Context) error {
		calls++
		return openErr
	})

	var got *resilience.CircuitOpenError
	assert.ErrorAs(t, err, &got)
	assert.Equal(t, 1, calls)
}

func TestRetry_RespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := fastRetryConfig()
	cfg.BaseDelay = 50 * time.Millisecond

	err := resilience.Retry(ctx, cfg, alwaysRetryable, func(context.Context) error {
		return errTransient
	})

	assert.ErrorIs(t, err, context.Canceled)
}
