package offer

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/StayNest-Travel/service-billing/internal/domain"
)

// Type describes the marketing flavor of an offer. It is descriptive only;
// eligibility never branches on it.
type Type string

const (
	TypePercentage Type = "PERCENTAGE"
	TypeFlat       Type = "FLAT"
	TypeSeasonal   Type = "SEASONAL"
	TypeEarlyBird  Type = "EARLY_BIRD"
	TypeLastMinute Type = "LAST_MINUTE"
	TypeWeekend    Type = "WEEKEND"
	TypeCoupon     Type = "COUPON"
	TypeMinStay    Type = "MIN_STAY"
	TypeBulk       Type = "BULK"
)

// DiscountType selects how discount_value is interpreted.
type DiscountType string

const (
	DiscountPercent DiscountType = "PERCENT"
	DiscountFixed   DiscountType = "FIXED"
)

// Applicability scopes an offer to rooms.
type Applicability string

const (
	ApplyAll      Applicability = "ALL"
	ApplyCategory Applicability = "CATEGORY"
	ApplyRoom     Applicability = "ROOM"
)

// Status is the offer lifecycle state.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusScheduled Status = "SCHEDULED"
	StatusLive      Status = "LIVE"
	StatusExpired   Status = "EXPIRED"
)

// Offer is the aggregate root for a hotel's promotional rule.
type Offer struct {
	id                 uuid.UUID
	hotelID            uuid.UUID
	name               string
	offerType          Type
	discountType       DiscountType
	discountValue      decimal.Decimal
	maxDiscountLimit   decimal.Decimal // zero means no cap
	couponCode         string          // non-empty means coupon-gated
	applicability      Applicability
	roomCategories     []string
	specificRooms      []string
	minAmount          decimal.Decimal
	minNights          int
	maxNights          int // zero means no upper bound
	advanceBookingDays int
	lastMinuteWindow   int
	blackoutDates      []string // stored for owners, not enforced by eligibility yet
	applicableDays     []int    // Monday=0 .. Sunday=6, empty means any day
	maxUsage           int      // zero means unlimited
	perUserLimit       int      // stored, not enforced yet
	redemptionCount    int
	isStackable        bool
	status             Status
	validFrom          time.Time
	validTo            time.Time
	createdAt          time.Time
	updatedAt          time.Time
}

// NewOffer creates an owner-submitted offer in DRAFT state.
func NewOffer(
	hotelID uuid.UUID,
	name string,
	offerType Type,
	discountType DiscountType,
	discountValue decimal.Decimal,
	validFrom, validTo time.Time,
) (*Offer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("offer name is required")
	}
	if hotelID == uuid.Nil {
		return nil, domain.NewValidationError("hotel id is required")
	}
	if discountType != DiscountPercent && discountType != DiscountFixed {
		return nil, domain.NewValidationError("invalid discount type: " + string(discountType))
	}
	if discountValue.IsNegative() {
		return nil, domain.NewValidationError("discount value must not be negative")
	}
	if discountType == DiscountPercent && discountValue.GreaterThan(decimal.NewFromInt(100)) {
		return nil, domain.NewValidationError("percentage discount cannot exceed 100")
	}
	if validTo.Before(validFrom) {
		return nil, domain.NewValidationError("valid_to must be after valid_from")
	}

	now := time.Now().UTC()
	return &Offer{
		id:            uuid.New(),
		hotelID:       hotelID,
		name:          name,
		offerType:     offerType,
		discountType:  discountType,
		discountValue: discountValue,
		applicability: ApplyAll,
		status:        StatusDraft,
		validFrom:     validFrom,
		validTo:       validTo,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// Reconstitute rebuilds an Offer from persistence.
func Reconstitute(
	id, hotelID uuid.UUID,
	name string,
	offerType Type,
	discountType DiscountType,
	discountValue, maxDiscountLimit decimal.Decimal,
	couponCode string,
	applicability Applicability,
	roomCategories, specificRooms []string,
	minAmount decimal.Decimal,
	minNights, maxNights, advanceBookingDays, lastMinuteWindow int,
	blackoutDates []string,
	applicableDays []int,
	maxUsage, perUserLimit, redemptionCount int,
	isStackable bool,
	status Status,
	validFrom, validTo, createdAt, updatedAt time.Time,
) *Offer {
	return &Offer{
		id: id, hotelID: hotelID, name: name,
		offerType: offerType, discountType: discountType,
		discountValue: discountValue, maxDiscountLimit: maxDiscountLimit,
		couponCode: couponCode, applicability: applicability,
		roomCategories: roomCategories, specificRooms: specificRooms,
		minAmount: minAmount, minNights: minNights, maxNights: maxNights,
		advanceBookingDays: advanceBookingDays, lastMinuteWindow: lastMinuteWindow,
		blackoutDates: blackoutDates, applicableDays: applicableDays,
		maxUsage: maxUsage, perUserLimit: perUserLimit, redemptionCount: redemptionCount,
		isStackable: isStackable, status: status,
		validFrom: validFrom, validTo: validTo,
		createdAt: createdAt, updatedAt: updatedAt,
	}
}

// --- Getters ---

func (o *Offer) ID() uuid.UUID                      { return o.id }
func (o *Offer) HotelID() uuid.UUID                 { return o.hotelID }
func (o *Offer) Name() string                       { return o.name }
func (o *Offer) OfferType() Type                    { return o.offerType }
func (o *Offer) DiscountType() DiscountType         { return o.discountType }
func (o *Offer) DiscountValue() decimal.Decimal     { return o.discountValue }
func (o *Offer) MaxDiscountLimit() decimal.Decimal  { return o.maxDiscountLimit }
func (o *Offer) CouponCode() string                 { return o.couponCode }
func (o *Offer) Applicability() Applicability       { return o.applicability }
func (o *Offer) RoomCategories() []string           { return o.roomCategories }
func (o *Offer) SpecificRooms() []string            { return o.specificRooms }
func (o *Offer) MinAmount() decimal.Decimal         { return o.minAmount }
func (o *Offer) MinNights() int                     { return o.minNights }
func (o *Offer) MaxNights() int                     { return o.maxNights }
func (o *Offer) AdvanceBookingDays() int            { return o.advanceBookingDays }
func (o *Offer) LastMinuteWindow() int              { return o.lastMinuteWindow }
func (o *Offer) BlackoutDates() []string            { return o.blackoutDates }
func (o *Offer) ApplicableDays() []int              { return o.applicableDays }
func (o *Offer) MaxUsage() int                      { return o.maxUsage }
func (o *Offer) PerUserLimit() int                  { return o.perUserLimit }
func (o *Offer) RedemptionCount() int               { return o.redemptionCount }
func (o *Offer) IsStackable() bool                  { return o.isStackable }
func (o *Offer) Status() Status                     { return o.status }
func (o *Offer) ValidFrom() time.Time               { return o.validFrom }
func (o *Offer) ValidTo() time.Time                 { return o.validTo }
func (o *Offer) CreatedAt() time.Time               { return o.createdAt }
func (o *Offer) UpdatedAt() time.Time               { return o.updatedAt }

// IsCouponGated reports whether the offer only applies via a coupon code.
func (o *Offer) IsCouponGated() bool { return o.couponCode != "" }

// MatchesCoupon compares the supplied code case-sensitively.
func (o *Offer) MatchesCoupon(code string) bool {
	return o.couponCode != "" && o.couponCode == code
}

// --- Lifecycle ---

// DeriveStatus computes the effective lifecycle state from the stored status
// and the validity window. DRAFT, PENDING and REJECTED only move through
// explicit owner/admin actions; the approved family flips between SCHEDULED,
// LIVE and EXPIRED purely from the clock, so an offer can go live and expire
// without any background job.
func DeriveStatus(stored Status, validFrom, validTo, now time.Time) Status {
	switch stored {
	case StatusApproved, StatusScheduled, StatusLive, StatusExpired:
		if validTo.Before(now) {
			return StatusExpired
		}
		if validFrom.After(now) {
			return StatusScheduled
		}
		return StatusLive
	default:
		return stored
	}
}

// EffectiveStatus evaluates the state machine against now.
func (o *Offer) EffectiveStatus(now time.Time) Status {
	return DeriveStatus(o.status, o.validFrom, o.validTo, now)
}

// SyncStatus replaces the stored status with the derived one. Returns true
// when the value changed and needs a write-back.
func (o *Offer) SyncStatus(now time.Time) bool {
	derived := o.EffectiveStatus(now)
	if derived == o.status {
		return false
	}
	o.status = derived
	o.updatedAt = now
	return true
}

// Submit moves an owner's draft into the moderation queue.
func (o *Offer) Submit() error {
	if o.status != StatusDraft {
		return domain.NewInvalidStateError(string(o.status), string(StatusPending))
	}
	o.status = StatusPending
	o.updatedAt = time.Now().UTC()
	return nil
}

// Approve accepts a pending offer. The approved family then derives
// SCHEDULED/LIVE/EXPIRED from the validity window on every read.
func (o *Offer) Approve() error {
	if o.status != StatusPending {
		return domain.NewInvalidStateError(string(o.status), string(StatusApproved))
	}
	o.status = StatusApproved
	o.updatedAt = time.Now().UTC()
	return nil
}

// Reject declines a pending offer. REJECTED is a sink state.
func (o *Offer) Reject() error {
	if o.status != StatusPending {
		return domain.NewInvalidStateError(string(o.status), string(StatusRejected))
	}
	o.status = StatusRejected
	o.updatedAt = time.Now().UTC()
	return nil
}

// --- Pricing rules ---

// WeekdayIndex maps a date to the Monday=0..Sunday=6 convention used by
// applicable_days.
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// IsEligible checks whether the offer applies to a concrete booking context.
// All conditions must hold. Blackout dates and per-user limits are stored but
// not yet part of this predicate.
func (o *Offer) IsEligible(roomTypeID uuid.UUID, roomCategory string, nights int, basePrice decimal.Decimal, checkIn, today time.Time) bool {
	if nights < o.minNights {
		return false
	}
	if o.maxNights > 0 && nights > o.maxNights {
		return false
	}
	if basePrice.LessThan(o.minAmount) {
		return false
	}

	if o.applicability == ApplyCategory {
		if !containsString(o.roomCategories, roomTypeID.String()) &&
			!containsString(o.roomCategories, roomCategory) {
			return false
		}
	}

	if len(o.applicableDays) > 0 && !containsInt(o.applicableDays, WeekdayIndex(checkIn)) {
		return false
	}

	if o.maxUsage > 0 && o.redemptionCount >= o.maxUsage {
		return false
	}

	daysAhead := DaysBetween(today, checkIn)
	if o.advanceBookingDays > 0 && daysAhead < o.advanceBookingDays {
		return false
	}
	if o.lastMinuteWindow > 0 && daysAhead > o.lastMinuteWindow {
		return false
	}

	return true
}

// DiscountAmount computes the absolute discount for a base price. The result
// is clamped to max_discount_limit when set and to the base price itself, so
// a discount can never push the final price negative. A malformed
// configuration (negative value) is an error so the caller can drop the
// offer instead of pricing with it.
func (o *Offer) DiscountAmount(basePrice decimal.Decimal) (decimal.Decimal, error) {
	if o.discountValue.IsNegative() {
		return decimal.Zero, domain.NewValidationError("offer " + o.id.String() + " has a negative discount value")
	}

	var discount decimal.Decimal
	switch o.discountType {
	case DiscountPercent:
		discount = basePrice.Mul(o.discountValue).Div(decimal.NewFromInt(100))
	case DiscountFixed:
		discount = o.discountValue
	default:
		return decimal.Zero, domain.NewValidationError("offer " + o.id.String() + " has an unknown discount type")
	}

	if o.maxDiscountLimit.IsPositive() && discount.GreaterThan(o.maxDiscountLimit) {
		discount = o.maxDiscountLimit
	}
	if discount.GreaterThan(basePrice) {
		discount = basePrice
	}
	return discount, nil
}

// RecordRedemption bumps the in-memory counter; the repository performs the
// equivalent atomic increment in storage.
func (o *Offer) RecordRedemption() {
	o.redemptionCount++
	o.updatedAt = time.Now().UTC()
}

// DaysBetween is the whole-day difference between two instants, ignoring
// the time of day. Negative when to precedes from.
func DaysBetween(from, to time.Time) int {
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(toDay.Sub(fromDay).Hours() / 24)
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func containsInt(list []int, v int) bool {
	for _, n := range list {
		if n == v {
			return true
		}
	}
	return false
}
