package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/StayNest-Travel/service-billing/internal/domain"
	offerDomain "github.com/StayNest-Travel/service-billing/internal/domain/offer"
)

// OfferModel is the GORM persistence model for the offers table.
type OfferModel struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey"`
	HotelID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name               string          `gorm:"type:varchar(150);not null"`
	OfferType          string          `gorm:"type:varchar(20);not null"`
	DiscountType       string          `gorm:"type:varchar(10);not null"`
	DiscountValue      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	MaxDiscountLimit   decimal.Decimal `gorm:"type:decimal(10,2);default:0"`
	CouponCode         string          `gorm:"type:varchar(50);index"`
	Applicability      string          `gorm:"type:varchar(10);not null;default:'ALL'"`
	RoomCategories     []string        `gorm:"serializer:json;type:text"`
	SpecificRooms      []string        `gorm:"serializer:json;type:text"`
	MinAmount          decimal.Decimal `gorm:"type:decimal(10,2);default:0"`
	MinNights          int             `gorm:"default:0"`
	MaxNights          int             `gorm:"default:0"`
	AdvanceBookingDays int             `gorm:"default:0"`
	LastMinuteWindow   int             `gorm:"default:0"`
	BlackoutDates      []string        `gorm:"serializer:json;type:text"`
	ApplicableDays     []int           `gorm:"serializer:json;type:text"`
	MaxUsage           int             `gorm:"default:0"`
	PerUserLimit       int             `gorm:"default:0"`
	RedemptionCount    int             `gorm:"default:0"`
	IsStackable        bool            `gorm:"default:false"`
	Status             string          `gorm:"type:varchar(12);not null;index"`
	ValidFrom          time.Time       `gorm:"not null"`
	ValidTo            time.Time       `gorm:"not null"`
	CreatedAt          time.Time       `gorm:"not null"`
	UpdatedAt          time.Time       `gorm:"not null"`
}

// TableName sets the table name.
func (OfferModel) TableName() string { return "offers" }

// GormOfferRepository implements offer.Repository using GORM.
type GormOfferRepository struct {
	db *gorm.DB
}

// NewGormOfferRepository creates a new GormOfferRepository.
func NewGormOfferRepository(db *gorm.DB) *GormOfferRepository {
	return &GormOfferRepository{db: db}
}

// Save persists a new offer.
func (r *GormOfferRepository) Save(ctx context.Context, o *offerDomain.Offer) error {
	model := toOfferModel(o)
	return r.db.WithContext(ctx).Create(&model).Error
}

// Update persists changes to an existing offer.
func (r *GormOfferRepository) Update(ctx context.Context, o *offerDomain.Offer) error {
	model := toOfferModel(o)
	return r.db.WithContext(ctx).Save(&model).Error
}

// FindByID returns an offer by ID.
func (r *GormOfferRepository) FindByID(ctx context.Context, id uuid.UUID) (*offerDomain.Offer, error) {
	var model OfferModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Offer", id.String())
		}
		return nil, err
	}
	return toOfferDomain(&model), nil
}

// FindByHotel returns a hotel's offers, optionally filtered by stored status.
func (r *GormOfferRepository) FindByHotel(ctx context.Context, hotelID uuid.UUID, statuses []offerDomain.Status) ([]*offerDomain.Offer, error) {
	q := r.db.WithContext(ctx).Where("hotel_id = ?", hotelID)
	if len(statuses) > 0 {
		raw := make([]string, len(statuses))
		for i, s := range statuses {
			raw[i] = string(s)
		}
		q = q.Where("status IN ?", raw)
	}

	var models []OfferModel
	if err := q.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	return toOfferDomainSlice(models), nil
}

// FindPending returns all offers awaiting moderation.
func (r *GormOfferRepository) FindPending(ctx context.Context) ([]*offerDomain.Offer, error) {
	var models []OfferModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(offerDomain.StatusPending)).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	return toOfferDomainSlice(models), nil
}

// UpdateStatus writes back a derived lifecycle status.
func (r *GormOfferRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status offerDomain.Status) error {
	return r.db.WithContext(ctx).
		Model(&OfferModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     string(status),
			"updated_at": time.Now().UTC(),
		}).Error
}

// IncrementRedemption bumps the redemption counter atomically in storage.
func (r *GormOfferRepository) IncrementRedemption(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&OfferModel{}).
		Where("id = ?", id).
		UpdateColumn("redemption_count", gorm.Expr("redemption_count + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Offer", id.String())
	}
	return nil
}

func toOfferModel(o *offerDomain.Offer) OfferModel {
	return OfferModel{
		ID:                 o.ID(),
		HotelID:            o.HotelID(),
		Name:               o.Name(),
		OfferType:          string(o.OfferType()),
		DiscountType:       string(o.DiscountType()),
		DiscountValue:      o.DiscountValue(),
		MaxDiscountLimit:   o.MaxDiscountLimit(),
		CouponCode:         o.CouponCode(),
		Applicability:      string(o.Applicability()),
		RoomCategories:     o.RoomCategories(),
		SpecificRooms:      o.SpecificRooms(),
		MinAmount:          o.MinAmount(),
		MinNights:          o.MinNights(),
		MaxNights:          o.MaxNights(),
		AdvanceBookingDays: o.AdvanceBookingDays(),
		LastMinuteWindow:   o.LastMinuteWindow(),
		BlackoutDates:      o.BlackoutDates(),
		ApplicableDays:     o.ApplicableDays(),
		MaxUsage:           o.MaxUsage(),
		PerUserLimit:       o.PerUserLimit(),
		RedemptionCount:    o.RedemptionCount(),
		IsStackable:        o.IsStackable(),
		Status:             string(o.Status()),
		ValidFrom:          o.ValidFrom(),
		ValidTo:            o.ValidTo(),
		CreatedAt:          o.CreatedAt(),
		UpdatedAt:          o.UpdatedAt(),
	}
}

func toOfferDomain(m *OfferModel) *offerDomain.Offer {
	return offerDomain.Reconstitute(
		m.ID, m.HotelID, m.Name,
		offerDomain.Type(m.OfferType),
		offerDomain.DiscountType(m.DiscountType),
		m.DiscountValue, m.MaxDiscountLimit,
		m.CouponCode,
		offerDomain.Applicability(m.Applicability),
		m.RoomCategories, m.SpecificRooms,
		m.MinAmount,
		m.MinNights, m.MaxNights, m.AdvanceBookingDays, m.LastMinuteWindow,
		m.BlackoutDates, m.ApplicableDays,
		m.MaxUsage, m.PerUserLimit, m.RedemptionCount,
		m.IsStackable,
		offerDomain.Status(m.Status),
		m.ValidFrom, m.ValidTo, m.CreatedAt, m.UpdatedAt,
	)
}

func toOfferDomainSlice(models []OfferModel) []*offerDomain.Offer {
	offers := make([]*offerDomain.Offer, len(models))
	for i := range models {
		offers[i] = toOfferDomain(&models[i])
	}
	return offers
}
