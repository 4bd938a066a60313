package resilience

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// CircuitOpenError is returned without invoking the protected call while the
// circuit is open. It is never retried; callers decide when to come back.
type CircuitOpenError struct {
	Dependency string
	RetryAfter time.Duration
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit open for %s, retry after %s", e.Dependency, e.RetryAfter)
}

type BreakerConfig struct {
	FailureThreshold int
	SuccessThreshold int
	OpenTimeout      time.Duration
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      30 * time.Second,
	}
}

// Breaker guards one named external dependency. All state transitions happen
// under the mutex; instances are safe for concurrent use.
type Breaker struct {
	name string
	cfg  BreakerConfig

	mu          sync.Mutex
	state       State
	failures    int
	successes   int
	nextAttempt time.Time

	now func() time.Time
}

type BreakerOption func(*Breaker)

// WithClock overrides the breaker's time source.
func WithClock(now func() time.Time) BreakerOption {
	return func(b *Breaker) {
		b.now = now
	}
}

func NewBreaker(name string, cfg BreakerConfig, opts ...BreakerOption) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultBreakerConfig().FailureThreshold
	}

	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = DefaultBreakerConfig().SuccessThreshold
	}

	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = DefaultBreakerConfig().OpenTimeout
	}

	breaker := &Breaker{
		name:  name,
		cfg:   cfg,
		state: StateClosed,
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(breaker)
	}

	return breaker
}

func (b *Breaker) Name() string {
	return b.name
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.state
}

// Execute runs fn under the breaker. While the circuit is open it fails fast
// with CircuitOpenError; the first call at or past the open deadline is let
// through as a half-open probe.
func (b *Breaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.allow(); err != nil {
		return err
	}

	err := fn(ctx)

	b.record(err)

	return err
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateOpen {
		return nil
	}

	now := b.now()
	if now.Before(b.nextAttempt) {
		return &CircuitOpenError{
			Dependency: b.name,
			RetryAfter: b.nextAttempt.Sub(now),
		}
	}

	b.state = StateHalfOpen
	b.successes = 0

	log.Info().Str("dependency", b.name).Msg("circuit breaker half-open, probing")

	return nil
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.recordSuccess()
		return
	}

	b.recordFailure()
}

func (b *Breaker) recordSuccess() {
	switch b.state {
	case StateClosed:
		b.failures = 0
	case StateHalfOpen:
		b.successes++
		if b.successes >= b.cfg.SuccessThreshold {
			b.state = StateClosed
			b.failures = 0
			b.successes = 0

			log.Info().Str("dependency", b.name).Msg("circuit breaker closed")
		}
	case StateOpen:
		// Success cannot be recorded while open; allow() gates every call.
	}
}

func (b *Breaker) recordFailure() {
	switch b.state {
	case StateClosed:
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.open()
		}
	case StateHalfOpen:
		// A single failed probe reopens the circuit.
		b.open()
	case StateOpen:
	}
}

func (b *Breaker) open() {
	b.state = StateOpen
	b.failures = 0
	b.successes = 0
	b.nextAttempt = b.now().Add(b.cfg.OpenTimeout)

	log.Warn().
		Str("dependency", b.name).
		Time("nextAttempt", b.nextAttempt).
		Msg("circuit breaker opened")
}
