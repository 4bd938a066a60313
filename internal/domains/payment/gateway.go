// Package payment talks to the external payment gateway. All outbound calls
// go through a circuit breaker and a bounded retry so a degraded gateway
// cannot stall the booking flow.
package payment

//go:generate go run go.uber.org/mock/mockgen -source=./gateway.go -destination=./mocks/gateway_mock.go -package=mocks

import (
	"context"
	"errors"
	"net"
	"syscall"
)

// Payment states as the lifecycle understands them, regardless of what the
// gateway calls them on the wire.
const (
	StatePending    = "pending"
	StateAuthorized = "authorized"
	StateCaptured   = "captured"
	StateFailed     = "failed"
)

type SessionRequest struct {
	AmountMinorUnits int64
	Currency         string
	Description      string
	CustomerEmail    string
	ReturnURL        string
	Metadata         map[string]string
}

type Session struct {
	PaymentID   string
	RedirectURL string
}

type Status struct {
	State            string
	AmountMinorUnits int64
	Currency         string
}

type RefundRequest struct {
	PaymentID        string
	AmountMinorUnits int64
	Reason           string
}

type Refund struct {
	RefundID string
}

// Gateway is the raw provider adapter; it makes exactly one call per
// invocation and does no retrying of its own.
type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (Session, error)
	GetStatus(ctx context.Context, paymentID string) (Status, error)
	CreateRefund(ctx context.Context, req RefundRequest) (Refund, error)
}

// GatewayError carries the provider's HTTP status so the retry policy can
// tell transient failures from permanent ones.
type GatewayError struct {
	Status  int
	Message string
}

func (e *GatewayError) Error() string {
	return e.Message
}

// IsRetryable classifies gateway failures. Server-side errors, rate limits,
// and network errors of any shape, timeouts and refused or reset connections
// alike, are worth retrying; client errors and anything unrecognized are not.
func IsRetryable(err error) bool {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Status >= 500 || gwErr.Status == 429
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET)
}
