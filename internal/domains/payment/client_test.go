package payment_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"tripcore/config"
	"tripcore/infras/otel/mocks"
	"tripcore/internal/domains/payment"
	paymentMocks "tripcore/internal/domains/payment/mocks"
	"tripcore/shared/resilience"
)

// timeoutError satisfies net.Error the way a dial timeout does.
type timeoutError struct{}

func (*timeoutError) Error() string   { return "i/o timeout" }
func (*timeoutError) Timeout() bool   { return true }
func (*timeoutError) Temporary() bool { return true }

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Resilience.Retry.MaxAttempts = 3
	cfg.Resilience.Retry.BaseDelayMS = 1
	cfg.Resilience.Retry.MaxDelayMS = 5
	cfg.Resilience.Retry.BackoffFactor = 2

	return cfg
}

func newRegistry() *resilience.Registry {
	return resilience.NewRegistry(resilience.BreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      30 * time.Second,
	})
}

func TestResilientClient_RetriesTransientFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockGateway := paymentMocks.NewMockGateway(ctrl)
	mockOtel := mocks.NewOtel()

	client := payment.NewClient(mockGateway, newRegistry(), testConfig(), mockOtel)

	transient := &payment.GatewayError{Status: 503, Message: "service unavailable"}

	gomock.InOrder(
		mockGateway.EXPECT().
			CreateSession(gomock.Any(), gomock.Any()).
			Return(payment.Session{}, transient),
		mockGateway.EXPECT().
			CreateSession(gomock.Any(), gomock.Any()).
			Return(payment.Session{}, transient),
		mockGateway.EXPECT().
			CreateSession(gomock.Any(), gomock.Any()).
			Return(payment.Session{PaymentID: "cs_123", RedirectURL: "https://pay.example/cs_123"}, nil),
	)

	res, err := client.CreateSession(context.Background(), payment.SessionRequest{
		AmountMinorUnits: 5200,
		Currency:         "eur",
	})

	assert.NoError(t, err)
	assert.Equal(t, "cs_123", res.PaymentID)
}

func TestResilientClient_DoesNotRetryClientErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockGateway := paymentMocks.NewMockGateway(ctrl)
	mockOtel := mocks.NewOtel()

	client := payment.NewClient(mockGateway, newRegistry(), testConfig(), mockOtel)

	mockGateway.EXPECT().
		GetStatus(gomock.Any(), "cs_bad").
		Return(payment.Status{}, &payment.GatewayError{Status: 404, Message: "no such session"}).
		Times(1)

	_, err := client.VerifyStatus(context.Background(), "cs_bad")

	assert.Error(t, err)
}

func TestResilientClient_CircuitOpenIsNotRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockGateway := paymentMocks.NewMockGateway(ctrl)
	mockOtel := mocks.NewOtel()

	registry := newRegistry()
	client := payment.NewClient(mockGateway, registry, testConfig(), mockOtel)

	// five consecutive non-retryable failures trip the breaker
	mockGateway.EXPECT().
		GetStatus(gomock.Any(), "cs_down").
		Return(payment.Status{}, &payment.GatewayError{Status: 400, Message: "bad request"}).
		Times(5)

	for i := 0; i < 5; i++ {
		_, err := client.VerifyStatus(context.Background(), "cs_down")
		assert.Error(t, err)
	}

	// the breaker now rejects without touching the gateway, and the
	// rejection is returned immediately rather than retried
	_, err := client.VerifyStatus(context.Background(), "cs_down")

	var openErr *resilience.CircuitOpenError
	assert.ErrorAs(t, err, &openErr)
	assert.Equal(t, "payment-gateway", openErr.Dependency)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "server error is retryable",
			err:  &payment.GatewayError{Status: 500},
			want: true,
		},
		{
			name: "rate limit is retryable",
			err:  &payment.GatewayError{Status: 429},
			want: true,
		},
		{
			name: "client error is not retryable",
			err:  &payment.GatewayError{Status: 402},
			want: false,
		},
		{
			name: "connection refused is retryable",
			err:  &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED},
			want: true,
		},
		{
			name: "connection reset is retryable",
			err:  fmt.Errorf("post checkout session: %w", syscall.ECONNRESET),
			want: true,
		},
		{
			name: "dial timeout is retryable",
			err:  &net.OpError{Op: "dial", Net: "tcp", Err: &timeoutError{}},
			want: true,
		},
		{
			name: "unknown error is not retryable",
			err:  errors.New("something odd"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, payment.IsRetryable(tt.err))
		})
	}
}
