package model

import (
	"time"

	gModel "tripcore/shared/model"
)

const (
	TableName  = "bookings"
	EntityName = "booking"
)

// Booking statuses. Cancelled, completed, and expired are terminal.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusExpired   = "expired"
)

// Payment statuses. SessionPending marks the degraded path where the
// gateway was unreachable at creation time and a placeholder reference was
// recorded instead of a real checkout session.
const (
	PaymentUnpaid         = "unpaid"
	PaymentSessionPending = "session_pending"
	PaymentSessionCreated = "session_created"
	PaymentPaid           = "paid"
	PaymentRefunded       = "refunded"
)

// PlaceholderPaymentPrefix marks payment references minted locally while the
// gateway was down. A placeholder can never be verified, so a booking
// carrying one cannot be confirmed until a real session replaces it.
const PlaceholderPaymentPrefix = "pending:"

var transitions = map[string][]string{
	StatusPending:   {StatusConfirmed, StatusCancelled, StatusExpired},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to string) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}

	return false
}

func IsTerminal(status string) bool {
	return len(transitions[status]) == 0
}

type Booking struct {
	ID                   string     `db:"id"`
	Reference            string     `db:"reference"`
	ResourceID           string     `db:"resource_id"`
	Date                 time.Time  `db:"date"`
	TimeSlot             *string    `db:"time_slot"`
	Quantity             int        `db:"quantity"`
	Status               string     `db:"status"`
	PaymentStatus        string     `db:"payment_status"`
	PaymentID            *string    `db:"payment_id"`
	BaseAmount           float64    `db:"base_amount"`
	TaxAmount            float64    `db:"tax_amount"`
	ServiceFee           float64    `db:"service_fee"`
	DiscountAmount       float64    `db:"discount_amount"`
	TotalAmount          float64    `db:"total_amount"`
	Currency             string     `db:"currency"`
	VoucherCode          *string    `db:"voucher_code"`
	GuestName            string     `db:"guest_name"`
	GuestEmail           string     `db:"guest_email"`
	GuestPhone           *string    `db:"guest_phone"`
	CancellationDeadline time.Time  `db:"cancellation_deadline"`
	ExpiresAt            *time.Time `db:"expires_at"`
	gModel.Metadata
}

// PaymentVerifiable reports whether the booking carries a payment reference
// that the gateway can actually be asked about.
func (b *Booking) PaymentVerifiable() bool {
	return b.PaymentID != nil &&
		(b.PaymentStatus == PaymentSessionCreated || b.PaymentStatus == PaymentPaid)
}

// CancellableAt reports whether the cancellation window is still open.
func (b *Booking) CancellableAt(now time.Time) bool {
	return now.Before(b.CancellationDeadline)
}
