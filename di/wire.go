//go:build wireinject
// +build wireinject

package di

import (
	"tripcore/config"
	"tripcore/infras/kafka"
	"tripcore/infras/otel"
	"tripcore/infras/postgres"
	"tripcore/infras/redis"
	"tripcore/internal/domains/payment"
	"tripcore/internal/worker"
	"tripcore/shared/cache"

	capacityHolds "tripcore/internal/domains/capacity/holds"
	capacityRepository "tripcore/internal/domains/capacity/repository"
	capacityService "tripcore/internal/domains/capacity/service"

	bookingEvents "tripcore/internal/domains/booking/events"
	bookingRepository "tripcore/internal/domains/booking/repository"
	bookingService "tripcore/internal/domains/booking/service"

	"github.com/google/wire"
)

var configurations = wire.NewSet(
	config.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	kafka.New,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
	provideBreakerRegistry,
)

var capacityDomain = wire.NewSet(
	capacityRepository.New,
	capacityHolds.New,
	capacityService.New,
)

var paymentDomain = wire.NewSet(
	payment.NewStripeGateway,
	payment.NewClient,
)

var bookingDomain = wire.NewSet(
	bookingRepository.New,
	bookingEvents.NewPublisher,
	bookingService.New,
)

var domains = wire.NewSet(
	capacityDomain,
	paymentDomain,
	bookingDomain,
)

func InitializeWorker() *worker.Worker {
	wire.Build(
		configurations,
		infrastructures,
		sharedHelpers,
		domains,
		worker.New,
	)

	return &worker.Worker{}
}
