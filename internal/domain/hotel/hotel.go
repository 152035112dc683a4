package hotel

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Booking lifecycle states, owned by the booking service.
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
)

// Hotel is the read model of a property, owned by the catalog service. The
// billing service only flips IsBlocked when commission collection escalates.
type Hotel struct {
	ID         uuid.UUID
	OwnerID    uuid.UUID
	Name       string
	City       string
	IsApproved bool
	IsBlocked  bool
}

// Listable reports whether the hotel appears in customer-facing search.
func (h *Hotel) Listable() bool {
	return h.IsApproved && !h.IsBlocked
}

// RoomType is the read model of a bookable room category.
type RoomType struct {
	ID            uuid.UUID
	HotelID       uuid.UUID
	Name          string
	Category      string
	MaxGuests     int
	PricePerNight decimal.Decimal
}

// Booking is the read model of a reservation, owned by the booking service.
type Booking struct {
	ID           uuid.UUID
	HotelID      uuid.UUID
	RoomTypeID   uuid.UUID
	UserID       uuid.UUID
	CheckinDate  time.Time
	CheckoutDate time.Time
	Status       string
	CreatedAt    time.Time
}

// PeriodRevenue is the per-hotel aggregate over one billing period.
type PeriodRevenue struct {
	HotelID       uuid.UUID
	TotalBookings int
	TotalRevenue  decimal.Decimal
}
