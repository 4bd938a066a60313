package payment

//go:generate go run go.uber.org/mock/mockgen -source=./client.go -destination=./mocks/client_mock.go -package=mocks

import (
	"context"
	"time"

	"tripcore/config"
	"tripcore/infras/otel"
	"tripcore/shared/constant"
	"tripcore/shared/resilience"
)

const breakerName = "payment-gateway"

// Client is what the booking lifecycle depends on: every call is wrapped in
// the gateway circuit breaker and the retry policy.
type Client interface {
	CreateSession(ctx context.Context, req SessionRequest) (Session, error)
	VerifyStatus(ctx context.Context, paymentID string) (Status, error)
	Refund(ctx context.Context, req RefundRequest) (Refund, error)
}

type resilientClient struct {
	gateway  Gateway
	registry *resilience.Registry
	retryCfg resilience.RetryConfig
	otel     otel.Otel
}

func NewClient(gateway Gateway, registry *resilience.Registry, cfg *config.Config, otel otel.Otel) Client {
	return &resilientClient{
		gateway:  gateway,
		registry: registry,
		retryCfg: resilience.RetryConfig{
			MaxAttempts:   cfg.Resilience.Retry.MaxAttempts,
			BaseDelay:     time.Duration(cfg.Resilience.Retry.BaseDelayMS) * time.Millisecond,
			MaxDelay:      time.Duration(cfg.Resilience.Retry.MaxDelayMS) * time.Millisecond,
			BackoffFactor: cfg.Resilience.Retry.BackoffFactor,
		},
		otel: otel,
	}
}

func (c *resilientClient) CreateSession(ctx context.Context, req SessionRequest) (res Session, err error) {
	ctx, scope := c.otel.NewScope(ctx, constant.OtelExternalScopeName, constant.OtelExternalScopeName+".payment.CreateSession")
	defer scope.End()
	defer scope.TraceIfError(err)

	err = c.execute(ctx, func(ctx context.Context) error {
		var callErr error
		res, callErr = c.gateway.CreateSession(ctx, req)

		return callErr
	})

	return res, err
}

func (c *resilientClient) VerifyStatus(ctx context.Context, paymentID string) (res Status, err error) {
	ctx, scope := c.otel.NewScope(ctx, constant.OtelExternalScopeName, constant.OtelExternalScopeName+".payment.VerifyStatus")
	defer scope.End()
	defer scope.TraceIfError(err)

	err = c.execute(ctx, func(ctx context.Context) error {
		var callErr error
		res, callErr = c.gateway.GetStatus(ctx, paymentID)

		return callErr
	})

	return res, err
}

func (c *resilientClient) Refund(ctx context.Context, req RefundRequest) (res Refund, err error) {
	ctx, scope := c.otel.NewScope(ctx, constant.OtelExternalScopeName, constant.OtelExternalScopeName+".payment.Refund")
	defer scope.End()
	defer scope.TraceIfError(err)

	err = c.execute(ctx, func(ctx context.Context) error {
		var callErr error
		res, callErr = c.gateway.CreateRefund(ctx, req)

		return callErr
	})

	return res, err
}

// execute layers the retry around the breaker, so a breaker rejection is
// returned to the caller immediately instead of being retried.
func (c *resilientClient) execute(ctx context.Context, fn func(ctx context.Context) error) error {
	breaker := c.registry.Get(breakerName)

	return resilience.Retry(ctx, c.retryCfg, IsRetryable, func(ctx context.Context) error {
		return breaker.Execute(ctx, fn)
	})
}
