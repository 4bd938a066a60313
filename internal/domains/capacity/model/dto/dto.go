package dto

import (
	"time"

	"tripcore/internal/domains/capacity/model"
	"tripcore/shared/constant"
	"tripcore/shared/timezone"
)

const (
	ReasonNoRecord     = "no capacity is published for the requested date"
	ReasonNotBookable  = "the requested date is sold out or closed for booking"
	ReasonNotEnough    = "the requested quantity exceeds the remaining capacity"
	ReasonPastCutoff   = "the booking cutoff for the requested date has passed"
	ReasonInactiveSlot = "the requested date is not open for sale"
)

type CheckAvailabilityRequest struct {
	ResourceID string  `json:"resource_id" validate:"required"`
	Date       string  `json:"date"        validate:"required,datetime=2006-01-02"`
	TimeSlot   *string `json:"time_slot,omitempty"`
	Quantity   int     `json:"quantity"    validate:"omitempty,gt=0"`
}

func (c *CheckAvailabilityRequest) ParseDate() (time.Time, error) {
	return timezone.Parse(constant.DateFormat, c.Date)
}

type CapacitySnapshot struct {
	Total     int `json:"total"`
	Booked    int `json:"booked"`
	Reserved  int `json:"reserved"`
	Available int `json:"available"`
}

type Pricing struct {
	BasePrice       float64 `json:"base_price"`
	PriceMultiplier float64 `json:"price_multiplier"`
	FinalPrice      float64 `json:"final_price"`
	Currency        string  `json:"currency"`
}

type Restrictions struct {
	MinBooking  int `json:"min_booking"`
	MaxBooking  int `json:"max_booking"`
	CutoffHours int `json:"cutoff_hours"`
}

type CheckAvailabilityResponse struct {
	Available    bool              `json:"available"`
	Reason       string            `json:"reason,omitempty"`
	Capacity     *CapacitySnapshot `json:"capacity,omitempty"`
	Pricing      *Pricing          `json:"pricing,omitempty"`
	Restrictions *Restrictions     `json:"restrictions,omitempty"`
}

func (r *CheckAvailabilityResponse) FromRecord(rec model.Record, currency string) {
	r.Capacity = &CapacitySnapshot{
		Total:     rec.TotalCapacity,
		Booked:    rec.BookedCapacity,
		Reserved:  rec.ReservedCapacity,
		Available: rec.Available(),
	}
	r.Pricing = &Pricing{
		BasePrice:       rec.BasePrice,
		PriceMultiplier: rec.PriceMultiplier,
		FinalPrice:      rec.FinalPrice(),
		Currency:        currency,
	}
	r.Restrictions = &Restrictions{
		MinBooking:  rec.MinBooking,
		MaxBooking:  rec.MaxBooking,
		CutoffHours: rec.CutoffHours,
	}
}

type ReserveSlotRequest struct {
	BookingID  string  `json:"booking_id"  validate:"required"`
	ResourceID string  `json:"resource_id" validate:"required"`
	Date       string  `json:"date"        validate:"required,datetime=2006-01-02"`
	TimeSlot   *string `json:"time_slot,omitempty"`
	Quantity   int     `json:"quantity"    validate:"required,gt=0"`
}

func (r *ReserveSlotRequest) ParseDate() (time.Time, error) {
	return timezone.Parse(constant.DateFormat, r.Date)
}

type ReserveSlotResponse struct {
	ExpiresAt time.Time `json:"expires_at"`
}

type DayAvailability struct {
	Date      string  `json:"date"`
	TimeSlot  *string `json:"time_slot,omitempty"`
	Available int     `json:"available"`
	SoldOut   bool    `json:"sold_out"`
	IsActive  bool    `json:"is_active"`
	Price     float64 `json:"price"`
}

func (d *DayAvailability) FromRecord(rec model.Record) {
	d.Date = rec.Date.Format(constant.DateFormat)
	d.TimeSlot = rec.TimeSlot
	d.Available = rec.Available()
	d.SoldOut = rec.SoldOut()
	d.IsActive = rec.IsActive
	d.Price = rec.FinalPrice()
}
