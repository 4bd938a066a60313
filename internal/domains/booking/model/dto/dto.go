package dto

import (
	"time"

	"tripcore/internal/domains/booking/model"
	"tripcore/shared/constant"
	"tripcore/shared/timezone"
)

type CreateBookingRequest struct {
	ResourceID     string  `json:"resource_id"     validate:"required"`
	Date           string  `json:"date"            validate:"required,datetime=2006-01-02"`
	TimeSlot       *string `json:"time_slot,omitempty"`
	Quantity       int     `json:"quantity"        validate:"required,gt=0"`
	GuestName      string  `json:"guest_name"      validate:"required"`
	GuestEmail     string  `json:"guest_email"     validate:"required,email"`
	GuestPhone     *string `json:"guest_phone,omitempty"`
	VoucherCode    *string `json:"voucher_code,omitempty"`
	VoucherPercent float64 `json:"voucher_percent" validate:"omitempty,gte=0,lte=100"`
}

func (c *CreateBookingRequest) ParseDate() (time.Time, error) {
	return timezone.Parse(constant.DateFormat, c.Date)
}

type PriceBreakdown struct {
	BaseAmount     float64 `json:"base_amount"`
	TaxAmount      float64 `json:"tax_amount"`
	ServiceFee     float64 `json:"service_fee"`
	DiscountAmount float64 `json:"discount_amount"`
	TotalAmount    float64 `json:"total_amount"`
	Currency       string  `json:"currency"`
}

type BookingResponse struct {
	ID                   string         `json:"id"`
	Reference            string         `json:"reference"`
	ResourceID           string         `json:"resource_id"`
	Date                 string         `json:"date"`
	TimeSlot             *string        `json:"time_slot,omitempty"`
	Quantity             int            `json:"quantity"`
	Status               string         `json:"status"`
	PaymentStatus        string         `json:"payment_status"`
	Price                PriceBreakdown `json:"price"`
	GuestName            string         `json:"guest_name"`
	GuestEmail           string         `json:"guest_email"`
	CancellationDeadline time.Time      `json:"cancellation_deadline"`
	ExpiresAt            *time.Time     `json:"expires_at,omitempty"`
	PaymentRedirectURL   string         `json:"payment_redirect_url,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
}

func (r *BookingResponse) FromModel(booking model.Booking) {
	r.ID = booking.ID
	r.Reference = booking.Reference
	r.ResourceID = booking.ResourceID
	r.Date = booking.Date.Format(constant.DateFormat)
	r.TimeSlot = booking.TimeSlot
	r.Quantity = booking.Quantity
	r.Status = booking.Status
	r.PaymentStatus = booking.PaymentStatus
	r.Price = PriceBreakdown{
		BaseAmount:     booking.BaseAmount,
		TaxAmount:      booking.TaxAmount,
		ServiceFee:     booking.ServiceFee,
		DiscountAmount: booking.DiscountAmount,
		TotalAmount:    booking.TotalAmount,
		Currency:       booking.Currency,
	}
	r.GuestName = booking.GuestName
	r.GuestEmail = booking.GuestEmail
	r.CancellationDeadline = booking.CancellationDeadline
	r.ExpiresAt = booking.ExpiresAt
	r.CreatedAt = booking.CreatedAt
}

type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

type CancelBookingResponse struct {
	Status       string `json:"status"`
	RefundID     string `json:"refund_id,omitempty"`
	RefundFailed bool   `json:"refund_failed,omitempty"`
}
