package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/checkout/session"
	"github.com/stripe/stripe-go/v78/refund"

	"tripcore/config"
	"tripcore/infras/otel"
	"tripcore/shared/constant"
)

type stripeGateway struct {
	otel otel.Otel
}

// NewStripeGateway configures the Stripe client with the secret key and
// returns the checkout-session adapter.
func NewStripeGateway(cfg *config.Config, otel otel.Otel) Gateway {
	stripe.Key = cfg.Payment.Stripe.SecretKey

	return &stripeGateway{otel: otel}
}

func (g *stripeGateway) CreateSession(ctx context.Context, req SessionRequest) (res Session, err error) {
	ctx, scope := g.otel.NewScope(ctx, constant.OtelExternalScopeName, constant.OtelExternalScopeName+".stripe.CreateSession")
	defer scope.End()
	defer scope.TraceIfError(err)

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(req.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
					UnitAmount: stripe.Int64(req.AmountMinorUnits),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(req.ReturnURL + "?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(req.ReturnURL + "?cancelled=true"),
	}
	params.Context = ctx

	if req.CustomerEmail != constant.Empty {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}

	for key, value := range req.Metadata {
		params.AddMetadata(key, value)
	}

	sess, err := session.New(params)
	if err != nil {
		return res, translate(err, "failed to create checkout session")
	}

	return Session{
		PaymentID:   sess.ID,
		RedirectURL: sess.URL,
	}, nil
}

func (g *stripeGateway) GetStatus(ctx context.Context, paymentID string) (res Status, err error) {
	ctx, scope := g.otel.NewScope(ctx, constant.OtelExternalScopeName, constant.OtelExternalScopeName+".stripe.GetStatus")
	defer scope.End()
	defer scope.TraceIfError(err)

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("payment_intent")

	sess, err := session.Get(paymentID, params)
	if err != nil {
		return res, translate(err, "failed to get checkout session")
	}

	res = Status{
		State:            StatePending,
		AmountMinorUnits: sess.AmountTotal,
		Currency:         string(sess.Currency),
	}

	if sess.PaymentIntent != nil {
		res.State = mapIntentStatus(sess.PaymentIntent.Status)
	}

	return res, nil
}

func (g *stripeGateway) CreateRefund(ctx context.Context, req RefundRequest) (res Refund, err error) {
	ctx, scope := g.otel.NewScope(ctx, constant.OtelExternalScopeName, constant.OtelExternalScopeName+".stripe.CreateRefund")
	defer scope.End()
	defer scope.TraceIfError(err)

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("payment_intent")

	sess, err := session.Get(req.PaymentID, params)
	if err != nil {
		return res, translate(err, "failed to get checkout session for refund")
	}

	if sess.PaymentIntent == nil || sess.PaymentIntent.ID == constant.Empty {
		return res, &GatewayError{Status: 404, Message: fmt.Sprintf("no payment intent found for session %s", req.PaymentID)}
	}

	refundParams := &stripe.RefundParams{
		PaymentIntent: stripe.String(sess.PaymentIntent.ID),
	}
	refundParams.Context = ctx

	if req.AmountMinorUnits > 0 {
		refundParams.Amount = stripe.Int64(req.AmountMinorUnits)
	}

	created, err := refund.New(refundParams)
	if err != nil {
		return res, translate(err, "failed to create refund")
	}

	return Refund{RefundID: created.ID}, nil
}

func mapIntentStatus(status stripe.PaymentIntentStatus) string {
	switch status {
	case stripe.PaymentIntentStatusSucceeded:
		return StateCaptured
	case stripe.PaymentIntentStatusRequiresCapture:
		return StateAuthorized
	case stripe.PaymentIntentStatusCanceled:
		return StateFailed
	default:
		return StatePending
	}
}

// translate flattens a provider error into a GatewayError so the retry
// classifier never has to know about Stripe types.
func translate(err error, message string) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return &GatewayError{
			Status:  stripeErr.HTTPStatusCode,
			Message: fmt.Sprintf("%s: %s", message, stripeErr.Msg),
		}
	}

	return fmt.Errorf("%s: %w", message, err)
}
