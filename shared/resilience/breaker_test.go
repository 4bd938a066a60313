package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tripcore/shared/resilience"
)

var errGateway = errors.New("gateway exploded")

func testBreaker(now func() time.Time) *resilience.Breaker {
	return resilience.NewBreaker("payment-gateway", resilience.BreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      30 * time.Second,
	}, resilience.WithClock(now))
}

func fail(_ context.Context) error    { return errGateway }
func succeed(_ context.Context) error { return nil }

func TestBreaker_OpensAfterFailureThreshold(t *testing.T) {
	current := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	breaker := testBreaker(func() time.Time { return current })

	ctx := context.Background()

	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, breaker.Execute(ctx, fail), errGateway)
	}

	assert.Equal(t, resilience.StateOpen, breaker.State())

	// Call #6 before the open timeout: rejected without invoking the function.
	invoked := false
	err := breaker.Execute(ctx, func(context.Context) error {
		invoked = true
		return nil
	})

	var openErr *resilience.CircuitOpenError
	assert.ErrorAs(t, err, &openErr)
	assert.False(t, invoked)
	assert.Equal(t, "payment-gateway", openErr.Dependency)
	assert.Equal(t, 30*time.Second, openErr.RetryAfter)
}

func TestBreaker_HalfOpenClosesAfterSuccessThreshold(t *testing.T) {
	current := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	breaker := testBreaker(func() time.Time { return current })

	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = breaker.Execute(ctx, fail)
	}

	assert.Equal(t, resilience.StateOpen, breaker.State())

	// After the timeout the next call is allowed through as a probe.
	current = current.Add(31 * time.Second)

	assert.NoError(t, breaker.Execute(ctx, succeed))
	assert.Equal(t, resilience.StateHalfOpen, breaker.State())

	assert.NoError(t, breaker.Execute(ctx, succeed))
	assert.Equal(t, resilience.StateClosed, breaker.State())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	current := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	breaker := testBreaker(func() time.Time { return current })

	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = breaker.Execute(ctx, fail)
	}

	current = current.Add(31 * time.Second)

	assert.ErrorIs(t, breaker.Execute(ctx, fail), errGateway)
	assert.Equal(t, resilience.StateOpen, breaker.State())
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	current := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	breaker := testBreaker(func() time.Time { return current })

	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_ = breaker.Execute(ctx, fail)
	}

	assert.NoError(t, breaker.Execute(ctx, succeed))

	// The counter was reset, so four more failures still leave it closed.
	for i := 0; i < 4; i++ {
		_ = breaker.Execute(ctx, fail)
	}

	assert.Equal(t, resilience.StateClosed, breaker.State())

	_ = breaker.Execute(ctx, fail)
	assert.Equal(t, resilience.StateOpen, breaker.State())
}

func TestRegistry_SharesBreakerPerDependency(t *testing.T) {
	registry := resilience.NewRegistry(resilience.DefaultBreakerConfig())

	first := registry.Get("payment-gateway")
	second := registry.Get("payment-gateway")
	other := registry.Get("notification-service")

	assert.Same(t, first, second)
	assert.NotSame(t, first, other)
}
