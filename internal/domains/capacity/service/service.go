package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tripcore/config"
	"tripcore/infras/otel"
	"tripcore/internal/domains/capacity/holds"
	"tripcore/internal/domains/capacity/model"
	"tripcore/internal/domains/capacity/model/dto"
	"tripcore/internal/domains/capacity/repository"
	"tripcore/shared"
	"tripcore/shared/cache"
	"tripcore/shared/constant"
	"tripcore/shared/failure"
	"tripcore/shared/timezone"
	"tripcore/shared/validator"

	"github.com/rs/zerolog/log"
)

const (
	cacheCheckCapacity = "capacity:check"
	cacheRangeCapacity = "capacity:range"
)

type Availability interface {
	Check(ctx context.Context, req dto.CheckAvailabilityRequest) (dto.CheckAvailabilityResponse, error)
	Reserve(ctx context.Context, req dto.ReserveSlotRequest) (dto.ReserveSlotResponse, error)
	Confirm(ctx context.Context, bookingID string) error
	Release(ctx context.Context, bookingID string, key model.Key, quantity int) error
	Unbook(ctx context.Context, key model.Key, quantity int) error
	Range(ctx context.Context, resourceID string, start, end time.Time) ([]dto.DayAvailability, error)
	ForceRelease(ctx context.Context, key model.Key, quantity int) error
}

type serviceImpl struct {
	repo  repository.Capacity
	holds holds.Store
	cfg   *config.Config
	cache cache.RedisCache
	otel  otel.Otel
}

func New(repo repository.Capacity, holds holds.Store, cfg *config.Config, cache cache.RedisCache, otel otel.Otel) Availability {
	return &serviceImpl{
		repo:  repo,
		holds: holds,
		cfg:   cfg,
		cache: cache,
		otel:  otel,
	}
}

// Check reports whether a quantity can be booked for a resource on a date.
// A missing or closed record is a negative answer with a reason, not an
// error.
func (s *serviceImpl) Check(ctx context.Context, req dto.CheckAvailabilityRequest) (res dto.CheckAvailabilityResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Check")
	defer scope.End()
	defer scope.TraceIfError(err)

	if err = validator.ValidateStruct(&req); err != nil {
		return res, err
	}

	date, err := req.ParseDate()
	if err != nil {
		return res, failure.BadRequestFromString("date must be in format " + constant.DateFormat) //nolint:wrapcheck
	}

	key := model.Key{ResourceID: req.ResourceID, Date: date, TimeSlot: req.TimeSlot}
	cacheKey := shared.BuildCacheKey(cacheCheckCapacity, key.String(), fmt.Sprintf("%d", req.Quantity))

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for availability check")

		return res, nil
	}

	record, err := s.repo.Get(ctx, key)
	if err != nil {
		if failure.IsNotFound(err) {
			return dto.CheckAvailabilityResponse{Reason: dto.ReasonNoRecord}, nil
		}

		return res, err
	}

	res = s.evaluate(record, req.Quantity)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save availability check to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) evaluate(record model.Record, quantity int) dto.CheckAvailabilityResponse {
	var res dto.CheckAvailabilityResponse
	res.FromRecord(record, s.cfg.Booking.Currency)

	switch {
	case !record.IsActive:
		res.Reason = dto.ReasonInactiveSlot
	case !record.BookingOpen(timezone.Now()):
		res.Reason = dto.ReasonPastCutoff
	case record.SoldOut():
		res.Reason = dto.ReasonNotBookable
	case quantity > record.Available():
		res.Reason = dto.ReasonNotEnough
	default:
		res.Available = true
	}

	return res
}

// Reserve places a temporary claim on capacity: the reserved counter moves
// first, atomically, and the TTL hold in Redis is written afterwards on a
// best-effort basis. A reservation whose hold write fails still expires
// through the booking sweep.
func (s *serviceImpl) Reserve(ctx context.Context, req dto.ReserveSlotRequest) (res dto.ReserveSlotResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Reserve")
	defer scope.End()
	defer scope.TraceIfError(err)

	if err = validator.ValidateStruct(&req); err != nil {
		return res, err
	}

	date, err := req.ParseDate()
	if err != nil {
		return res, failure.BadRequestFromString("date must be in format " + constant.DateFormat) //nolint:wrapcheck
	}

	key := model.Key{ResourceID: req.ResourceID, Date: date, TimeSlot: req.TimeSlot}

	record, err := s.repo.Get(ctx, key)
	if err != nil {
		return res, err
	}

	if err = s.admit(record, req.Quantity); err != nil {
		return res, err
	}

	if _, err = s.repo.Adjust(ctx, key, model.AdjustDelta{Reserved: req.Quantity}); err != nil {
		return res, err
	}

	now := timezone.Now()
	expiresAt := now.Add(time.Duration(s.cfg.Booking.HoldTTLSeconds) * time.Second)

	hold := model.Hold{
		BookingID:  req.BookingID,
		ResourceID: req.ResourceID,
		Date:       date,
		TimeSlot:   req.TimeSlot,
		Quantity:   req.Quantity,
		ExpiresAt:  expiresAt,
	}

	if err := s.holds.Put(ctx, hold, s.cfg.Booking.HoldTTLSeconds); err != nil {
		log.Warn().Err(err).Str("bookingID", req.BookingID).Msg("failed to write hold, sweep will reconcile")
	}

	s.invalidate(ctx)

	return dto.ReserveSlotResponse{ExpiresAt: expiresAt}, nil
}

func (s *serviceImpl) admit(record model.Record, quantity int) error {
	now := timezone.Now()

	switch {
	case !record.IsActive:
		return failure.NotAvailable(dto.ReasonInactiveSlot) //nolint:wrapcheck
	case !record.BookingOpen(now):
		return failure.NotAvailable(dto.ReasonPastCutoff) //nolint:wrapcheck
	case quantity < record.MinBooking:
		return failure.BadRequestFromString(fmt.Sprintf("quantity must be at least %d", record.MinBooking)) //nolint:wrapcheck
	case record.MaxBooking > 0 && quantity > record.MaxBooking:
		return failure.BadRequestFromString(fmt.Sprintf("quantity must be at most %d", record.MaxBooking)) //nolint:wrapcheck
	case quantity > record.Available():
		return failure.InsufficientCapacity(dto.ReasonNotEnough) //nolint:wrapcheck
	}

	return nil
}

// Confirm converts a live hold into booked capacity. A hold that has
// already expired yields a reservation-expired failure; an unreachable
// hold store is an internal error, never a silent confirmation.
func (s *serviceImpl) Confirm(ctx context.Context, bookingID string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Confirm")
	defer scope.End()
	defer scope.TraceIfError(err)

	hold, err := s.holds.Get(ctx, bookingID)
	if err != nil {
		if errors.Is(err, cache.Nil) {
			return failure.ReservationExpired("the reservation hold has expired") //nolint:wrapcheck
		}

		return fmt.Errorf("failed to load hold for confirmation: %w", err)
	}

	if _, err = s.repo.Adjust(ctx, hold.Key(), model.AdjustDelta{Booked: hold.Quantity, Reserved: -hold.Quantity}); err != nil {
		return err
	}

	if err := s.holds.Delete(ctx, bookingID); err != nil {
		log.Warn().Err(err).Str("bookingID", bookingID).Msg("failed to delete hold after confirmation")
	}

	s.invalidate(ctx)

	return nil
}

// Release gives a pending reservation back. The hold is the authoritative
// source for the released quantity, but the reserved counter must come back
// even when the hold is gone: once the booking leaves pending the sweep will
// never reconcile it, so a missing or unreachable hold falls back to the
// caller-supplied key and quantity.
func (s *serviceImpl) Release(ctx context.Context, bookingID string, key model.Key, quantity int) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Release")
	defer scope.End()
	defer scope.TraceIfError(err)

	hold, err := s.holds.Get(ctx, bookingID)
	if err != nil {
		if errors.Is(err, cache.Nil) {
			log.Info().Str("bookingID", bookingID).Msg("hold already gone on release, releasing from booking record")
		} else {
			log.Warn().Err(err).Str("bookingID", bookingID).Msg("hold store unreachable on release, releasing from booking record")
		}

		if err = s.repo.ReleaseReserved(ctx, key, quantity); err != nil {
			return err
		}

		s.invalidate(ctx)

		return nil
	}

	if err = s.repo.ReleaseReserved(ctx, hold.Key(), hold.Quantity); err != nil {
		return err
	}

	if err := s.holds.Delete(ctx, bookingID); err != nil {
		log.Warn().Err(err).Str("bookingID", bookingID).Msg("failed to delete hold after release")
	}

	s.invalidate(ctx)

	return nil
}

// Unbook returns booked capacity after a post-confirmation cancellation.
func (s *serviceImpl) Unbook(ctx context.Context, key model.Key, quantity int) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Unbook")
	defer scope.End()
	defer scope.TraceIfError(err)

	if err = s.repo.Unbook(ctx, key, quantity); err != nil {
		return err
	}

	s.invalidate(ctx)

	return nil
}

// ForceRelease returns reserved capacity for a hold the sweep found
// expired, without consulting the hold store.
func (s *serviceImpl) ForceRelease(ctx context.Context, key model.Key, quantity int) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ForceRelease")
	defer scope.End()
	defer scope.TraceIfError(err)

	if err = s.repo.ReleaseReserved(ctx, key, quantity); err != nil {
		return err
	}

	s.invalidate(ctx)

	return nil
}

func (s *serviceImpl) Range(ctx context.Context, resourceID string, start, end time.Time) (res []dto.DayAvailability, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Range")
	defer scope.End()
	defer scope.TraceIfError(err)

	if resourceID == constant.Empty {
		return nil, failure.BadRequestFromString("resource id is required") //nolint:wrapcheck
	}

	if end.Before(start) {
		return nil, failure.BadRequestFromString("end date must not be before start date") //nolint:wrapcheck
	}

	cacheKey := shared.BuildCacheKey(cacheRangeCapacity, resourceID,
		start.Format(constant.DateFormat), end.Format(constant.DateFormat))

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for availability range")

		return res, nil
	}

	records, err := s.repo.FindRange(ctx, resourceID, start, end)
	if err != nil {
		return nil, err
	}

	res = make([]dto.DayAvailability, len(records))
	for i, record := range records {
		res[i].FromRecord(record)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save availability range to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) invalidate(ctx context.Context) {
	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheCheckCapacity)
		shared.InvalidateCaches(c, s.cache, cacheRangeCapacity)
	}()
}
