package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	offerDomain "github.com/StayNest-Travel/service-billing/internal/domain/offer"
)

// OfferDTO is the API representation of an offer.
type OfferDTO struct {
	ID                 uuid.UUID `json:"id"`
	HotelID            uuid.UUID `json:"hotel_id"`
	Name               string    `json:"name"`
	OfferType          string    `json:"offer_type"`
	DiscountType       string    `json:"discount_type"`
	DiscountValue      float64   `json:"discount_value"`
	MaxDiscountLimit   float64   `json:"max_discount_limit,omitempty"`
	CouponCode         string    `json:"coupon_code,omitempty"`
	Applicability      string    `json:"applicability"`
	MinAmount          float64   `json:"min_amount"`
	MinNights          int       `json:"min_nights"`
	MaxNights          int       `json:"max_nights,omitempty"`
	AdvanceBookingDays int       `json:"advance_booking_days,omitempty"`
	LastMinuteWindow   int       `json:"last_minute_window,omitempty"`
	ApplicableDays     []int     `json:"applicable_days,omitempty"`
	MaxUsage           int       `json:"max_usage"`
	RedemptionCount    int       `json:"redemption_count"`
	IsStackable        bool      `json:"is_stackable"`
	Status             string    `json:"status"`
	ValidFrom          time.Time `json:"valid_from"`
	ValidTo            time.Time `json:"valid_to"`
}

// OfferService handles offer moderation and listing use cases.
type OfferService struct {
	repo   offerDomain.Repository
	clock  clockwork.Clock
	logger *zap.Logger
}

// NewOfferService creates an OfferService.
func NewOfferService(repo offerDomain.Repository, clock clockwork.Clock, logger *zap.Logger) *OfferService {
	return &OfferService{repo: repo, clock: clock, logger: logger}
}

// ApproveOffer accepts a pending offer (admin action).
func (s *OfferService) ApproveOffer(ctx context.Context, id uuid.UUID) (*OfferDTO, error) {
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := o.Approve(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, o); err != nil {
		return nil, err
	}

	s.logger.Info("offer approved",
		zap.String("offer_id", o.ID().String()),
		zap.String("hotel_id", o.HotelID().String()),
	)
	dto := toOfferDTO(o)
	return &dto, nil
}

// RejectOffer declines a pending offer (admin action).
func (s *OfferService) RejectOffer(ctx context.Context, id uuid.UUID) (*OfferDTO, error) {
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := o.Reject(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, o); err != nil {
		return nil, err
	}

	s.logger.Info("offer rejected",
		zap.String("offer_id", o.ID().String()),
		zap.String("hotel_id", o.HotelID().String()),
	)
	dto := toOfferDTO(o)
	return &dto, nil
}

// ListPendingOffers returns offers awaiting moderation.
func (s *OfferService) ListPendingOffers(ctx context.Context) ([]OfferDTO, error) {
	offers, err := s.repo.FindPending(ctx)
	if err != nil {
		return nil, err
	}
	return toOfferDTOSlice(offers), nil
}

// ListLiveOffers returns a hotel's currently live offers. Derived statuses
// are written back so storage agrees with what customers see.
func (s *OfferService) ListLiveOffers(ctx context.Context, hotelID uuid.UUID) ([]OfferDTO, error) {
	candidates, err := s.repo.FindByHotel(ctx, hotelID, []offerDomain.Status{
		offerDomain.StatusApproved,
		offerDomain.StatusScheduled,
		offerDomain.StatusLive,
	})
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	var live []*offerDomain.Offer
	for _, o := range candidates {
		if o.SyncStatus(now) {
			if err := s.repo.UpdateStatus(ctx, o.ID(), o.Status()); err != nil {
				s.logger.Warn("failed to write back derived offer status",
					zap.String("offer_id", o.ID().String()),
					zap.Error(err),
				)
			}
		}
		if o.Status() == offerDomain.StatusLive {
			live = append(live, o)
		}
	}
	return toOfferDTOSlice(live), nil
}

func toOfferDTO(o *offerDomain.Offer) OfferDTO {
	return OfferDTO{
		ID:                 o.ID(),
		HotelID:            o.HotelID(),
		Name:               o.Name(),
		OfferType:          string(o.OfferType()),
		DiscountType:       string(o.DiscountType()),
		DiscountValue:      o.DiscountValue().InexactFloat64(),
		MaxDiscountLimit:   o.MaxDiscountLimit().InexactFloat64(),
		CouponCode:         o.CouponCode(),
		Applicability:      string(o.Applicability()),
		MinAmount:          o.MinAmount().InexactFloat64(),
		MinNights:          o.MinNights(),
		MaxNights:          o.MaxNights(),
		AdvanceBookingDays: o.AdvanceBookingDays(),
		LastMinuteWindow:   o.LastMinuteWindow(),
		ApplicableDays:     o.ApplicableDays(),
		MaxUsage:           o.MaxUsage(),
		RedemptionCount:    o.RedemptionCount(),
		IsStackable:        o.IsStackable(),
		Status:             string(o.Status()),
		ValidFrom:          o.ValidFrom(),
		ValidTo:            o.ValidTo(),
	}
}

func toOfferDTOSlice(offers []*offerDomain.Offer) []OfferDTO {
	out := make([]OfferDTO, len(offers))
	for i, o := range offers {
		out[i] = toOfferDTO(o)
	}
	return out
}
