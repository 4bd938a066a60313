package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"tripcore/config"
	"tripcore/infras/otel"
	"tripcore/internal/domains/booking/events"
	"tripcore/internal/domains/booking/model"
	"tripcore/internal/domains/booking/model/dto"
	"tripcore/internal/domains/booking/repository"
	capacityModel "tripcore/internal/domains/capacity/model"
	capacityDto "tripcore/internal/domains/capacity/model/dto"
	capacityService "tripcore/internal/domains/capacity/service"
	"tripcore/internal/domains/payment"
	"tripcore/shared"
	"tripcore/shared/constant"
	"tripcore/shared/failure"
	gModel "tripcore/shared/model"
	"tripcore/shared/timezone"
	"tripcore/shared/validator"
)

type Lifecycle interface {
	Create(ctx context.Context, req dto.CreateBookingRequest) (dto.BookingResponse, error)
	Confirm(ctx context.Context, id string) (dto.BookingResponse, error)
	Cancel(ctx context.Context, id string, req dto.CancelBookingRequest) (dto.CancelBookingResponse, error)
	Complete(ctx context.Context, id string) (dto.BookingResponse, error)
	Get(ctx context.Context, id string) (dto.BookingResponse, error)
	GetByReference(ctx context.Context, reference string) (dto.BookingResponse, error)
	ExpireOverdue(ctx context.Context) (int, error)
}

type serviceImpl struct {
	repo     repository.Booking
	engine   capacityService.Availability
	payments payment.Client
	events   events.Publisher
	cfg      *config.Config
	otel     otel.Otel
}

func New(
	repo repository.Booking,
	engine capacityService.Availability,
	payments payment.Client,
	events events.Publisher,
	cfg *config.Config,
	otel otel.Otel,
) Lifecycle {
	return &serviceImpl{
		repo:     repo,
		engine:   engine,
		payments: payments,
		events:   events,
		cfg:      cfg,
		otel:     otel,
	}
}

// Create runs the booking saga: price the request, persist a pending
// booking, reserve capacity, then open a payment session. Each later step
// compensates the earlier ones on failure. A gateway outage at the last
// step degrades to a placeholder payment reference instead of failing the
// whole booking.
func (s *serviceImpl) Create(ctx context.Context, req dto.CreateBookingRequest) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	if err = validator.ValidateStruct(&req); err != nil {
		return res, err
	}

	date, err := req.ParseDate()
	if err != nil {
		return res, failure.BadRequestFromString("date must be in format " + constant.DateFormat) //nolint:wrapcheck
	}

	check, err := s.engine.Check(ctx, capacityDto.CheckAvailabilityRequest{
		ResourceID: req.ResourceID,
		Date:       req.Date,
		TimeSlot:   req.TimeSlot,
		Quantity:   req.Quantity,
	})
	if err != nil {
		return res, err
	}

	if !check.Available {
		return res, availabilityFailure(check.Reason)
	}

	now := timezone.Now()
	expiresAt := now.Add(time.Duration(s.cfg.Booking.HoldTTLSeconds) * time.Second)

	booking := model.Booking{
		ID:                   uuid.NewString(),
		Reference:            shared.NewBookingReference(),
		ResourceID:           req.ResourceID,
		Date:                 date,
		TimeSlot:             req.TimeSlot,
		Quantity:             req.Quantity,
		Status:               model.StatusPending,
		PaymentStatus:        model.PaymentUnpaid,
		Currency:             s.cfg.Booking.Currency,
		VoucherCode:          req.VoucherCode,
		GuestName:            req.GuestName,
		GuestEmail:           req.GuestEmail,
		GuestPhone:           req.GuestPhone,
		CancellationDeadline: date.Add(-time.Duration(s.cfg.Booking.CancellationCutoffHours) * time.Hour),
		ExpiresAt:            &expiresAt,
		Metadata:             gModel.NewMetadata(now, req.GuestEmail),
	}
	s.price(&booking, check.Pricing.FinalPrice, req.VoucherPercent)

	if err = s.repo.Insert(ctx, booking); err != nil {
		return res, err
	}

	reserved, err := s.engine.Reserve(ctx, capacityDto.ReserveSlotRequest{
		BookingID:  booking.ID,
		ResourceID: req.ResourceID,
		Date:       req.Date,
		TimeSlot:   req.TimeSlot,
		Quantity:   req.Quantity,
	})
	if err != nil {
		// compensate: a booking without capacity behind it must not survive
		if deleteErr := s.repo.Delete(ctx, booking.ID); deleteErr != nil {
			log.Error().Err(deleteErr).Str("bookingID", booking.ID).Msg("failed to delete booking after reservation failure")
		}

		return res, err
	}

	booking.ExpiresAt = &reserved.ExpiresAt

	redirectURL := s.openPaymentSession(ctx, &booking)

	s.events.Publish(ctx, events.TypeCreated, booking)

	res.FromModel(booking)
	res.PaymentRedirectURL = redirectURL

	return res, nil
}

// openPaymentSession tries the gateway and falls back to a local placeholder
// reference when it is unavailable, leaving the booking payable later.
func (s *serviceImpl) openPaymentSession(ctx context.Context, booking *model.Booking) string {
	session, err := s.payments.CreateSession(ctx, payment.SessionRequest{
		AmountMinorUnits: shared.MinorUnits(booking.TotalAmount),
		Currency:         booking.Currency,
		Description:      fmt.Sprintf("Booking %s", booking.Reference),
		CustomerEmail:    booking.GuestEmail,
		ReturnURL:        s.cfg.Payment.ReturnURL,
		Metadata: map[string]string{
			"booking_id": booking.ID,
			"reference":  booking.Reference,
		},
	})
	if err != nil {
		log.Warn().Err(err).Str("bookingID", booking.ID).Msg("payment gateway unavailable, recording placeholder payment")

		placeholder := model.PlaceholderPaymentPrefix + booking.ID
		booking.PaymentStatus = model.PaymentSessionPending
		booking.PaymentID = &placeholder

		if setErr := s.repo.SetPayment(ctx, booking.ID, booking.PaymentStatus, booking.PaymentID); setErr != nil {
			log.Error().Err(setErr).Str("bookingID", booking.ID).Msg("failed to record placeholder payment")
		}

		return constant.Empty
	}

	booking.PaymentStatus = model.PaymentSessionCreated
	booking.PaymentID = &session.PaymentID

	if setErr := s.repo.SetPayment(ctx, booking.ID, booking.PaymentStatus, booking.PaymentID); setErr != nil {
		log.Error().Err(setErr).Str("bookingID", booking.ID).Msg("failed to record payment session")
	}

	return session.RedirectURL
}

// price fills the monetary fields: tax applies to the undiscounted base, the
// service fee is flat, and the voucher discount comes off at the end.
func (s *serviceImpl) price(booking *model.Booking, unitPrice float64, voucherPercent float64) {
	base := shared.Round2(unitPrice * float64(booking.Quantity))
	tax := shared.Round2(base * s.cfg.Booking.TaxRatePercent / 100)
	fee := s.cfg.Booking.ServiceFee

	discount := 0.0
	if booking.VoucherCode != nil {
		discount = shared.Round2(base * shared.ClampPercent(voucherPercent) / 100)
	}

	booking.BaseAmount = base
	booking.TaxAmount = tax
	booking.ServiceFee = fee
	booking.DiscountAmount = discount
	booking.TotalAmount = shared.Round2(base + tax + fee - discount)
}

// Confirm settles a pending booking once its payment went through. The
// conditional status update decides races against cancellation and expiry:
// whoever moves the row first wins, the loser gets a conflict.
func (s *serviceImpl) Confirm(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Confirm")
	defer scope.End()
	defer scope.TraceIfError(err)

	booking, err := s.repo.Get(ctx, id)
	if err != nil {
		return res, err
	}

	switch booking.Status {
	case model.StatusConfirmed:
		res.FromModel(booking)

		return res, nil
	case model.StatusExpired:
		return res, failure.ReservationExpired("the booking has expired") //nolint:wrapcheck
	case model.StatusCancelled, model.StatusCompleted:
		return res, failure.Conflict(fmt.Sprintf("cannot confirm a %s booking", booking.Status)) //nolint:wrapcheck
	}

	if !booking.PaymentVerifiable() {
		return res, failure.PaymentNotCompleted("no completed payment is attached to this booking") //nolint:wrapcheck
	}

	status, err := s.payments.VerifyStatus(ctx, *booking.PaymentID)
	if err != nil {
		return res, err
	}

	if status.State != payment.StateAuthorized && status.State != payment.StateCaptured {
		return res, failure.PaymentNotCompleted(fmt.Sprintf("payment is %s, not completed", status.State)) //nolint:wrapcheck
	}

	if err = s.repo.UpdateStatus(ctx, id, model.StatusPending, model.StatusConfirmed); err != nil {
		return res, err
	}

	if err = s.engine.Confirm(ctx, id); err != nil {
		if failure.IsReservationExpired(err) {
			// The expired booking leaves the sweep's sight, so its
			// reserved capacity has to come back here.
			if revertErr := s.repo.UpdateStatus(ctx, id, model.StatusConfirmed, model.StatusExpired); revertErr != nil {
				log.Error().Err(revertErr).Str("bookingID", id).Msg("failed to expire booking after hold loss")
			}

			if releaseErr := s.engine.ForceRelease(ctx, capacityKey(booking), booking.Quantity); releaseErr != nil {
				log.Error().Err(releaseErr).Str("bookingID", id).Msg("failed to release reservation after hold loss")
			}

			return res, err
		}

		// A transient engine failure must not leave the booking
		// confirmed, or the retry would short-circuit on the idempotent
		// path without ever moving the capacity.
		if revertErr := s.repo.UpdateStatus(ctx, id, model.StatusConfirmed, model.StatusPending); revertErr != nil {
			log.Error().Err(revertErr).Str("bookingID", id).Msg("failed to revert booking after confirmation failure")
		}

		return res, err
	}

	if err := s.repo.SetPayment(ctx, id, model.PaymentPaid, nil); err != nil {
		log.Error().Err(err).Str("bookingID", id).Msg("failed to mark booking paid")
	}

	booking.Status = model.StatusConfirmed
	booking.PaymentStatus = model.PaymentPaid

	s.events.Publish(ctx, events.TypeConfirmed, booking)

	res.FromModel(booking)

	return res, nil
}

// Cancel handles both phases of the lifecycle: a pending booking gives back
// its reservation, a confirmed one gives back booked capacity and refunds
// the payment. A failed refund is reported, not rolled back; the
// cancellation itself stands.
func (s *serviceImpl) Cancel(ctx context.Context, id string, req dto.CancelBookingRequest) (res dto.CancelBookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Cancel")
	defer scope.End()
	defer scope.TraceIfError(err)

	if err = validator.ValidateStruct(&req); err != nil {
		return res, err
	}

	booking, err := s.repo.Get(ctx, id)
	if err != nil {
		return res, err
	}

	if model.IsTerminal(booking.Status) {
		return res, failure.Conflict(fmt.Sprintf("cannot cancel a %s booking", booking.Status)) //nolint:wrapcheck
	}

	if !booking.CancellableAt(timezone.Now()) {
		return res, failure.CancellationPolicy("the cancellation deadline has passed") //nolint:wrapcheck
	}

	if err = s.repo.UpdateStatus(ctx, id, booking.Status, model.StatusCancelled); err != nil {
		return res, err
	}

	switch booking.Status {
	case model.StatusPending:
		if releaseErr := s.engine.Release(ctx, id, capacityKey(booking), booking.Quantity); releaseErr != nil {
			log.Error().Err(releaseErr).Str("bookingID", id).Msg("failed to release reservation on cancel")
		}
	case model.StatusConfirmed:
		key := capacityKey(booking)
		if unbookErr := s.engine.Unbook(ctx, key, booking.Quantity); unbookErr != nil {
			log.Error().Err(unbookErr).Str("bookingID", id).Msg("failed to return booked capacity on cancel")
		}

		res.RefundID, res.RefundFailed = s.refund(ctx, booking, req.Reason)
	}

	booking.Status = model.StatusCancelled

	s.events.Publish(ctx, events.TypeCancelled, booking)

	res.Status = model.StatusCancelled

	return res, nil
}

func (s *serviceImpl) refund(ctx context.Context, booking model.Booking, reason string) (refundID string, failed bool) {
	if booking.PaymentStatus != model.PaymentPaid || booking.PaymentID == nil {
		return constant.Empty, false
	}

	refund, err := s.payments.Refund(ctx, payment.RefundRequest{
		PaymentID:        *booking.PaymentID,
		AmountMinorUnits: shared.MinorUnits(booking.TotalAmount),
		Reason:           reason,
	})
	if err != nil {
		log.Error().Err(err).Str("bookingID", booking.ID).Msg("refund failed, manual follow-up required")

		return constant.Empty, true
	}

	if setErr := s.repo.SetPayment(ctx, booking.ID, model.PaymentRefunded, nil); setErr != nil {
		log.Error().Err(setErr).Str("bookingID", booking.ID).Msg("failed to mark booking refunded")
	}

	return refund.RefundID, false
}

// Complete closes out a confirmed booking once its service date has passed.
func (s *serviceImpl) Complete(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Complete")
	defer scope.End()
	defer scope.TraceIfError(err)

	booking, err := s.repo.Get(ctx, id)
	if err != nil {
		return res, err
	}

	if booking.Status != model.StatusConfirmed {
		return res, failure.Conflict(fmt.Sprintf("cannot complete a %s booking", booking.Status)) //nolint:wrapcheck
	}

	if timezone.Now().Before(booking.Date) {
		return res, failure.Conflict("cannot complete a booking before its service date") //nolint:wrapcheck
	}

	if err = s.repo.UpdateStatus(ctx, id, model.StatusConfirmed, model.StatusCompleted); err != nil {
		return res, err
	}

	booking.Status = model.StatusCompleted

	s.events.Publish(ctx, events.TypeCompleted, booking)

	res.FromModel(booking)

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	booking, err := s.repo.Get(ctx, id)
	if err != nil {
		return res, err
	}

	res.FromModel(booking)

	return res, nil
}

func (s *serviceImpl) GetByReference(ctx context.Context, reference string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.GetByReference")
	defer scope.End()
	defer scope.TraceIfError(err)

	booking, err := s.repo.GetByReference(ctx, reference)
	if err != nil {
		return res, err
	}

	res.FromModel(booking)

	return res, nil
}

// ExpireOverdue is the sweep: pending bookings whose lease ran out past the
// grace period are expired and their reserved capacity returned. A booking
// whose status moved under us is simply skipped.
func (s *serviceImpl) ExpireOverdue(ctx context.Context) (expired int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.ExpireOverdue")
	defer scope.End()
	defer scope.TraceIfError(err)

	cutoff := timezone.Now().Add(-time.Duration(s.cfg.Booking.SweepGraceSeconds) * time.Second)

	overdue, err := s.repo.FindExpiredPending(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	for _, booking := range overdue {
		if err := s.repo.UpdateStatus(ctx, booking.ID, model.StatusPending, model.StatusExpired); err != nil {
			log.Info().Err(err).Str("bookingID", booking.ID).Msg("skipping booking already moved by another writer")

			continue
		}

		if err := s.engine.ForceRelease(ctx, capacityKey(booking), booking.Quantity); err != nil {
			log.Error().Err(err).Str("bookingID", booking.ID).Msg("failed to return reserved capacity on expiry")
		}

		booking.Status = model.StatusExpired

		s.events.Publish(ctx, events.TypeExpired, booking)

		expired++
	}

	if expired > 0 {
		log.Info().Int("expired", expired).Msg("expired overdue pending bookings")
	}

	return expired, nil
}

func availabilityFailure(reason string) error {
	switch reason {
	case capacityDto.ReasonNoRecord:
		return failure.NotFound("capacity record") //nolint:wrapcheck
	case capacityDto.ReasonNotEnough:
		return failure.InsufficientCapacity(reason) //nolint:wrapcheck
	default:
		return failure.NotAvailable(reason) //nolint:wrapcheck
	}
}

func capacityKey(booking model.Booking) capacityModel.Key {
	return capacityModel.Key{
		ResourceID: booking.ResourceID,
		Date:       booking.Date,
		TimeSlot:   booking.TimeSlot,
	}
}
