// Package events publishes booking lifecycle changes to Kafka. Publishing is
// best-effort: a broker outage must never fail the state transition that
// triggered the event.
package events

//go:generate go run go.uber.org/mock/mockgen -source=./events.go -destination=./mocks/events_mock.go -package=mocks

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"tripcore/config"
	"tripcore/infras/kafka"
	"tripcore/infras/otel"
	"tripcore/internal/domains/booking/model"
	"tripcore/shared/constant"
	"tripcore/shared/timezone"
)

const (
	TypeCreated   = "booking.created"
	TypeConfirmed = "booking.confirmed"
	TypeCancelled = "booking.cancelled"
	TypeExpired   = "booking.expired"
	TypeCompleted = "booking.completed"
)

type Event struct {
	Type       string    `json:"type"`
	BookingID  string    `json:"booking_id"`
	Reference  string    `json:"reference"`
	ResourceID string    `json:"resource_id"`
	Status     string    `json:"status"`
	Quantity   int       `json:"quantity"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, eventType string, booking model.Booking)
}

type publisherImpl struct {
	client kafka.Client
	topic  string
	otel   otel.Otel
}

func NewPublisher(client kafka.Client, cfg *config.Config, otel otel.Otel) Publisher {
	return &publisherImpl{
		client: client,
		topic:  cfg.Kafka.Topics.BookingEvents,
		otel:   otel,
	}
}

func (p *publisherImpl) Publish(ctx context.Context, eventType string, booking model.Booking) {
	ctx, scope := p.otel.NewScope(ctx, constant.OtelEventScopeName, constant.OtelEventScopeName+".booking.Publish")
	defer scope.End()

	event := Event{
		Type:       eventType,
		BookingID:  booking.ID,
		Reference:  booking.Reference,
		ResourceID: booking.ResourceID,
		Status:     booking.Status,
		Quantity:   booking.Quantity,
		OccurredAt: timezone.Now(),
	}

	message := kafka.Message{
		Key:   booking.ID,
		Value: event,
	}

	if err := p.client.SendMessages(ctx, p.topic, message); err != nil {
		scope.TraceError(err)
		log.Error().
			Err(err).
			Str("type", eventType).
			Str("bookingID", booking.ID).
			Msg("failed to publish booking event")
	}
}
