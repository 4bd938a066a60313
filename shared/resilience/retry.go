package resilience

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
)

type RetryConfig struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		BaseDelay:     time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2,
	}
}

// Retry runs fn up to cfg.MaxAttempts times, sleeping an exponentially growing,
// jittered delay between attempts. Errors the classifier rejects are returned
// immediately, as is CircuitOpenError: an open circuit is a deliberate fast-fail
// and hammering it from inside the retry loop would defeat it.
func Retry(ctx context.Context, cfg RetryConfig, retryable func(error) bool, fn func(ctx context.Context) error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultRetryConfig().MaxAttempts
	}

	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultRetryConfig().BaseDelay
	}

	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultRetryConfig().MaxDelay
	}

	if cfg.BackoffFactor <= 1 {
		cfg.BackoffFactor = DefaultRetryConfig().BackoffFactor
	}

	var err error

	delay := cfg.BaseDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}

		var openErr *CircuitOpenError
		if errors.As(err, &openErr) {
			return err
		}

		if retryable != nil && !retryable(err) {
			return err
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		log.Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("delay", delay).
			Msg("transient failure, retrying")

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry aborted: %w", ctx.Err())
		case <-time.After(jitter(delay)):
		}

		delay = time.Duration(float64(delay) * cfg.BackoffFactor)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return fmt.Errorf("retries exhausted after %d attempts: %w", cfg.MaxAttempts, err)
}

// jitter spreads a delay over [delay/2, delay) so simultaneous retriers
// do not stampede the dependency in lockstep.
func jitter(delay time.Duration) time.Duration {
	half := delay / 2

	return half + time.Duration(rand.Int63n(int64(half)+1))
}
