package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Kafka topics shared with the other marketplace services.
const (
	TopicBookingEvents = "booking.events"
	TopicBillingEvents = "billing.events"
)

// Event types carried on those topics.
const (
	BookingConfirmed = "booking.confirmed"
	BookingCancelled = "booking.cancelled"
	HotelBlocked     = "billing.hotel_blocked"
)

// Envelope is the CloudEvents-style wrapper every message is published in.
type Envelope struct {
	ID     string          `json:"id"`
	Source string          `json:"source"`
	Type   string          `json:"type"`
	Time   time.Time       `json:"time"`
	Data   json.RawMessage `json:"data"`
}

// NewEnvelope wraps a payload in an Envelope.
func NewEnvelope(source, eventType string, data interface{}) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		ID:     uuid.NewString(),
		Source: source,
		Type:   eventType,
		Time:   time.Now().UTC(),
		Data:   raw,
	}, nil
}

// ParseEnvelope decodes a raw Kafka message value.
func ParseEnvelope(raw []byte) (Envelope, error) {
	var e Envelope
	err := json.Unmarshal(raw, &e)
	return e, err
}

// ParseData decodes the envelope payload into v.
func (e Envelope) ParseData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// BookingConfirmedEvent is published by the booking service once payment for
// a reservation settles. AppliedOfferIDs lists the offers the pricing quote
// used, so their redemption counters can be advanced.
type BookingConfirmedEvent struct {
	BookingID       uuid.UUID   `json:"booking_id"`
	HotelID         uuid.UUID   `json:"hotel_id"`
	RoomTypeID      uuid.UUID   `json:"room_type_id"`
	UserID          uuid.UUID   `json:"user_id"`
	AppliedOfferIDs []uuid.UUID `json:"applied_offer_ids"`
	GrandTotal      float64     `json:"grand_total"`
	OccurredAt      time.Time   `json:"occurred_at"`
}

// HotelBlockedEvent is published when commission collection escalates and a
// hotel is pulled from customer-facing listings.
type HotelBlockedEvent struct {
	HotelID      uuid.UUID `json:"hotel_id"`
	CommissionID uuid.UUID `json:"commission_id"`
	Reason       string    `json:"reason"`
	OccurredAt   time.Time `json:"occurred_at"`
}
