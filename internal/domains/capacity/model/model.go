package model

import (
	"time"

	"tripcore/shared"
	"tripcore/shared/constant"
	gModel "tripcore/shared/model"
)

const (
	TableName  = "capacity_records"
	EntityName = "capacity"

	FieldID               = "id"
	FieldResourceID       = "resource_id"
	FieldDate             = "date"
	FieldTimeSlot         = "time_slot"
	FieldTotalCapacity    = "total_capacity"
	FieldBookedCapacity   = "booked_capacity"
	FieldReservedCapacity = "reserved_capacity"
	FieldIsActive         = "is_active"
)

// Key identifies one capacity row: a resource on a date, optionally narrowed
// to a timeslot label. A nil TimeSlot means the whole day.
type Key struct {
	ResourceID string
	Date       time.Time
	TimeSlot   *string
}

func (k Key) String() string {
	key := shared.BuildCacheKey(k.ResourceID, k.Date.Format(constant.DateFormat))
	if k.TimeSlot != nil {
		key = shared.BuildCacheKey(key, *k.TimeSlot)
	}

	return key
}

type Record struct {
	ID               string    `db:"id"`
	ResourceID       string    `db:"resource_id"`
	Date             time.Time `db:"date"`
	TimeSlot         *string   `db:"time_slot"`
	TotalCapacity    int       `db:"total_capacity"`
	BookedCapacity   int       `db:"booked_capacity"`
	ReservedCapacity int       `db:"reserved_capacity"`
	BasePrice        float64   `db:"base_price"`
	PriceMultiplier  float64   `db:"price_multiplier"`
	MinBooking       int       `db:"min_booking"`
	MaxBooking       int       `db:"max_booking"`
	CutoffHours      int       `db:"cutoff_hours"`
	IsActive         bool      `db:"is_active"`
	gModel.Metadata
}

func (r *Record) Key() Key {
	return Key{
		ResourceID: r.ResourceID,
		Date:       r.Date,
		TimeSlot:   r.TimeSlot,
	}
}

// Available is always derived, never stored: total minus booked minus
// reserved, floored at zero.
func (r *Record) Available() int {
	available := r.TotalCapacity - r.BookedCapacity - r.ReservedCapacity
	if available < 0 {
		return 0
	}

	return available
}

func (r *Record) SoldOut() bool {
	return r.Available() == 0
}

// FinalPrice applies the bounded multiplier to the base price.
func (r *Record) FinalPrice() float64 {
	return shared.Round2(r.BasePrice * shared.ClampMultiplier(r.PriceMultiplier))
}

// BookingOpen reports whether now is still before the booking cutoff,
// measured against the record's date.
func (r *Record) BookingOpen(now time.Time) bool {
	cutoff := r.Date.Add(-time.Duration(r.CutoffHours) * time.Hour)

	return now.Before(cutoff)
}

func (r *Record) Bookable(now time.Time) bool {
	return r.IsActive && !r.SoldOut() && r.BookingOpen(now)
}

// AdjustDelta is the signed adjustment applied atomically to one capacity row.
type AdjustDelta struct {
	Booked   int
	Reserved int
}

// Hold is a temporary claim on capacity pending payment, bounded by a TTL.
type Hold struct {
	BookingID  string    `json:"booking_id"`
	ResourceID string    `json:"resource_id"`
	Date       time.Time `json:"date"`
	TimeSlot   *string   `json:"time_slot,omitempty"`
	Quantity   int       `json:"quantity"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func (h Hold) Key() Key {
	return Key{
		ResourceID: h.ResourceID,
		Date:       h.Date,
		TimeSlot:   h.TimeSlot,
	}
}
