package application

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/StayNest-Travel/service-billing/internal/domain"
	hotelDomain "github.com/StayNest-Travel/service-billing/internal/domain/hotel"
	offerDomain "github.com/StayNest-Travel/service-billing/internal/domain/offer"
)

// CalculatePriceRequest holds the booking context priced by the engine.
// UserID is optional; it is reserved for per-user redemption caps which are
// stored on offers but not enforced yet.
type CalculatePriceRequest struct {
	HotelID    uuid.UUID
	RoomTypeID uuid.UUID
	CheckIn    time.Time
	CheckOut   time.Time
	CouponCode string
	UserID     uuid.UUID
}

// AppliedOffer describes one discount inside a price breakdown.
type AppliedOffer struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Amount float64   `json:"amount"`
	Type   string    `json:"type"`
}

// PriceBreakdown is the result of a price calculation. Monetary values are
// exact decimals internally and only become floats here, at the response
// boundary.
type PriceBreakdown struct {
	BasePrice      float64        `json:"base_price"`
	Discount       float64        `json:"discount"`
	CouponDiscount float64        `json:"coupon_discount"`
	FinalPrice     float64        `json:"final_price"`
	Tax            float64        `json:"tax"`
	GrandTotal     float64        `json:"grand_total"`
	AppliedOffers  []AppliedOffer `json:"applied_offers"`
	Nights         int            `json:"nights"`
	Savings        float64        `json:"savings"`
	CheckIn        time.Time      `json:"check_in"`
	CheckOut       time.Time      `json:"check_out"`

	appliedOfferIDs []uuid.UUID
	final           decimal.Decimal
	grand           decimal.Decimal
}

// AppliedOfferIDs lists the offers the breakdown used, for the booking flow
// to carry into its confirmation event.
func (b *PriceBreakdown) AppliedOfferIDs() []uuid.UUID { return b.appliedOfferIDs }

// FinalPriceExact returns the pre-tax final price as a decimal for callers
// that persist money.
func (b *PriceBreakdown) FinalPriceExact() decimal.Decimal { return b.final }

// GrandTotalExact returns the grand total as a decimal.
func (b *PriceBreakdown) GrandTotalExact() decimal.Decimal { return b.grand }

// PricingService computes booking price breakdowns by applying eligible
// offers. It is stateless; every call is a fresh read-compute-write against
// the store.
type PricingService struct {
	offers     offerDomain.Repository
	hotels     hotelDomain.Repository
	clock      clockwork.Clock
	taxPercent int
	logger     *zap.Logger
}

// NewPricingService creates a PricingService.
func NewPricingService(
	offers offerDomain.Repository,
	hotels hotelDomain.Repository,
	clock clockwork.Clock,
	taxPercent int,
	logger *zap.Logger,
) *PricingService {
	return &PricingService{
		offers:     offers,
		hotels:     hotels,
		clock:      clock,
		taxPercent: taxPercent,
		logger:     logger,
	}
}

// CalculatePrice computes the price breakdown for a stay.
//
// Automatic offers are scanned highest discount value first; the scan stops
// after the first non-stackable application, so at most one automatic offer
// ever applies in that case. A matching coupon offer stacks on top only when
// it is itself stackable or nothing has applied yet. A check-out on or before
// check-in is clamped to a one-night stay rather than rejected.
func (s *PricingService) CalculatePrice(ctx context.Context, req CalculatePriceRequest) (*PriceBreakdown, error) {
	h, err := s.hotels.FindByID(ctx, req.HotelID)
	if err != nil {
		return nil, err
	}
	roomType, err := s.hotels.FindRoomTypeByID(ctx, req.RoomTypeID)
	if err != nil {
		return nil, err
	}
	if roomType.HotelID != h.ID {
		return nil, domain.NewValidationError("room type does not belong to this hotel")
	}

	nights := offerDomain.DaysBetween(req.CheckIn, req.CheckOut)
	if nights <= 0 {
		nights = 1
	}
	basePrice := roomType.PricePerNight.Mul(decimal.NewFromInt(int64(nights)))

	now := s.clock.Now().UTC()
	today := truncateToDay(now)

	candidates, err := s.offers.FindByHotel(ctx, h.ID, []offerDomain.Status{
		offerDomain.StatusApproved,
		offerDomain.StatusScheduled,
		offerDomain.StatusLive,
	})
	if err != nil {
		return nil, err
	}

	var autoOffers, couponOffers []*offerDomain.Offer
	for _, o := range candidates {
		if o.SyncStatus(now) {
			// A SCHEDULED offer may have gone live, or a LIVE one expired,
			// purely from the clock. Persist so listings agree with pricing.
			if err := s.offers.UpdateStatus(ctx, o.ID(), o.Status()); err != nil {
				s.logger.Warn("failed to write back derived offer status",
					zap.String("offer_id", o.ID().String()),
					zap.Error(err),
				)
			}
		}
		if o.Status() != offerDomain.StatusLive {
			continue
		}
		if !o.IsCouponGated() {
			autoOffers = append(autoOffers, o)
		} else if req.CouponCode != "" && o.MatchesCoupon(req.CouponCode) {
			couponOffers = append(couponOffers, o)
		}
	}

	sort.SliceStable(autoOffers, func(i, j int) bool {
		return autoOffers[i].DiscountValue().GreaterThan(autoOffers[j].DiscountValue())
	})

	totalDiscount := decimal.Zero
	var applied []AppliedOffer
	var appliedIDs []uuid.UUID

	for _, o := range autoOffers {
		if !o.IsEligible(roomType.ID, roomType.Category, nights, basePrice, req.CheckIn, today) {
			continue
		}
		discount, err := o.DiscountAmount(basePrice)
		if err != nil {
			s.logger.Error("skipping offer with malformed discount configuration",
				zap.String("offer_id", o.ID().String()),
				zap.Error(err),
			)
			continue
		}
		totalDiscount = totalDiscount.Add(discount)
		applied = append(applied, AppliedOffer{
			ID:     o.ID(),
			Name:   o.Name(),
			Amount: discount.InexactFloat64(),
			Type:   string(o.OfferType()),
		})
		appliedIDs = append(appliedIDs, o.ID())
		if !o.IsStackable() {
			break
		}
	}

	couponDiscount := decimal.Zero
	if len(couponOffers) > 0 {
		o := couponOffers[0]
		if o.IsEligible(roomType.ID, roomType.Category, nights, basePrice, req.CheckIn, today) &&
			(o.IsStackable() || totalDiscount.IsZero()) {
			discount, err := o.DiscountAmount(basePrice)
			if err != nil {
				s.logger.Error("skipping coupon offer with malformed discount configuration",
					zap.String("offer_id", o.ID().String()),
					zap.Error(err),
				)
			} else {
				couponDiscount = discount
				totalDiscount = totalDiscount.Add(discount)
				applied = append(applied, AppliedOffer{
					ID:     o.ID(),
					Name:   o.Name(),
					Amount: discount.InexactFloat64(),
					Type:   string(offerDomain.TypeCoupon),
				})
				appliedIDs = append(appliedIDs, o.ID())
			}
		}
	}

	// Stacked discounts may nominally exceed the base price; the customer
	// never saves more than the stay costs.
	if totalDiscount.GreaterThan(basePrice) {
		totalDiscount = basePrice
	}

	finalPrice := basePrice.Sub(totalDiscount)
	if finalPrice.IsNegative() {
		finalPrice = decimal.Zero
	}
	tax := finalPrice.Mul(decimal.NewFromInt(int64(s.taxPercent))).Div(decimal.NewFromInt(100))
	grandTotal := finalPrice.Add(tax)

	return &PriceBreakdown{
		BasePrice:       basePrice.InexactFloat64(),
		Discount:        totalDiscount.InexactFloat64(),
		CouponDiscount:  couponDiscount.InexactFloat64(),
		FinalPrice:      finalPrice.InexactFloat64(),
		Tax:             tax.InexactFloat64(),
		GrandTotal:      grandTotal.InexactFloat64(),
		AppliedOffers:   applied,
		Nights:          nights,
		Savings:         totalDiscount.InexactFloat64(),
		CheckIn:         req.CheckIn,
		CheckOut:        req.CheckOut,
		appliedOfferIDs: appliedIDs,
		final:           finalPrice,
		grand:           grandTotal,
	}, nil
}

// RecordOfferRedemptions advances redemption counters for offers a confirmed
// booking actually used. Each increment is atomic in storage.
func (s *PricingService) RecordOfferRedemptions(ctx context.Context, offerIDs []uuid.UUID) error {
	for _, id := range offerIDs {
		if err := s.offers.IncrementRedemption(ctx, id); err != nil {
			s.logger.Error("failed to record offer redemption",
				zap.String("offer_id", id.String()),
				zap.Error(err),
			)
			return err
		}
	}
	return nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
