// Package holds keeps short-lived reservation leases in Redis. The TTL on
// each entry is the lease: when Redis drops the key the hold is gone, and
// the periodic sweep reconciles the capacity counters afterwards.
package holds

//go:generate go run go.uber.org/mock/mockgen -source=./holds.go -destination=./mocks/holds_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"

	"tripcore/infras/otel"
	"tripcore/internal/domains/capacity/model"
	"tripcore/shared/cache"
	"tripcore/shared/constant"
)

const keyPrefix = "hold"

type Store interface {
	Put(ctx context.Context, hold model.Hold, ttlSeconds int) error
	Get(ctx context.Context, bookingID string) (model.Hold, error)
	Delete(ctx context.Context, bookingID string) error
}

type storeImpl struct {
	cache cache.RedisCache
	otel  otel.Otel
}

func New(cache cache.RedisCache, otel otel.Otel) Store {
	return &storeImpl{
		cache: cache,
		otel:  otel,
	}
}

func (s *storeImpl) Put(ctx context.Context, hold model.Hold, ttlSeconds int) error {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".holds.Put")
	defer scope.End()

	err := s.cache.Save(ctx, cacheKey(hold.BookingID), hold, ttlSeconds)
	if err != nil {
		scope.TraceError(err)
		return fmt.Errorf("failed to save hold: %w", err)
	}

	return nil
}

// Get returns cache.Nil when the hold has expired or never existed; any
// other error means the hold store itself is unreachable.
func (s *storeImpl) Get(ctx context.Context, bookingID string) (model.Hold, error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".holds.Get")
	defer scope.End()

	var hold model.Hold

	err := s.cache.Get(ctx, cacheKey(bookingID), &hold)
	if err != nil {
		if errors.Is(err, cache.Nil) {
			return model.Hold{}, err //nolint:wrapcheck
		}

		scope.TraceError(err)

		return model.Hold{}, fmt.Errorf("failed to get hold: %w", err)
	}

	return hold, nil
}

func (s *storeImpl) Delete(ctx context.Context, bookingID string) error {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".holds.Delete")
	defer scope.End()

	err := s.cache.Delete(ctx, cacheKey(bookingID))
	if err != nil {
		scope.TraceError(err)
		return fmt.Errorf("failed to delete hold: %w", err)
	}

	return nil
}

func cacheKey(bookingID string) string {
	return keyPrefix + ":" + bookingID
}
