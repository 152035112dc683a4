package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/StayNest-Travel/service-billing/internal/domain"
	commissionDomain "github.com/StayNest-Travel/service-billing/internal/domain/commission"
)

// CommissionModel is the GORM persistence model for the hotel_commissions
// table. The composite unique index is what makes concurrent generation runs
// safe: two upserts for the same (hotel, month, year) collapse into one row.
type CommissionModel struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	HotelID           uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_hotel_period"`
	Month             int             `gorm:"not null;uniqueIndex:idx_hotel_period"`
	Year              int             `gorm:"not null;uniqueIndex:idx_hotel_period"`
	TotalBookings     int             `gorm:"default:0"`
	TotalRevenue      decimal.Decimal `gorm:"type:decimal(12,2);default:0"`
	CommissionPercent int             `gorm:"default:10"`
	CommissionAmount  decimal.Decimal `gorm:"type:decimal(12,2);default:0"`
	PenaltyAmount     decimal.Decimal `gorm:"type:decimal(12,2);default:0"`
	Status            string          `gorm:"type:varchar(10);not null;default:'unpaid';index"`
	DueDate           time.Time       `gorm:"not null"`
	CreatedAt         time.Time       `gorm:"not null"`
	UpdatedAt         time.Time       `gorm:"not null"`
}

// TableName sets the table name.
func (CommissionModel) TableName() string { return "hotel_commissions" }

// GormCommissionRepository implements commission.Repository using GORM.
type GormCommissionRepository struct {
	db *gorm.DB
}

// NewGormCommissionRepository creates a new GormCommissionRepository.
func NewGormCommissionRepository(db *gorm.DB) *GormCommissionRepository {
	return &GormCommissionRepository{db: db}
}

// Upsert writes an invoice, overwriting the computed columns when a row for
// the (hotel, month, year) period already exists. Regeneration is idempotent.
func (r *GormCommissionRepository) Upsert(ctx context.Context, c *commissionDomain.Commission) error {
	model := toCommissionModel(c)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "hotel_id"}, {Name: "month"}, {Name: "year"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_bookings", "total_revenue", "commission_percent",
			"commission_amount", "penalty_amount", "due_date", "status", "updated_at",
		}),
	}).Create(&model).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.NewConflictError("commission row for this period was written concurrently")
	}
	return err
}

// Update persists changes to an existing invoice.
func (r *GormCommissionRepository) Update(ctx context.Context, c *commissionDomain.Commission) error {
	model := toCommissionModel(c)
	return r.db.WithContext(ctx).Save(&model).Error
}

// FindByID returns an invoice by ID.
func (r *GormCommissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*commissionDomain.Commission, error) {
	var model CommissionModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Commission", id.String())
		}
		return nil, err
	}
	return toCommissionDomain(&model), nil
}

// FindByPeriod returns all invoices for a billing period.
func (r *GormCommissionRepository) FindByPeriod(ctx context.Context, month, year int) ([]*commissionDomain.Commission, error) {
	var models []CommissionModel
	if err := r.db.WithContext(ctx).
		Where("month = ? AND year = ?", month, year).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	return toCommissionDomainSlice(models), nil
}

// FindUnpaidDueBefore returns unpaid invoices whose due date is strictly
// before today.
func (r *GormCommissionRepository) FindUnpaidDueBefore(ctx context.Context, today time.Time) ([]*commissionDomain.Commission, error) {
	var models []CommissionModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND due_date < ?", string(commissionDomain.StatusUnpaid), today).
		Find(&models).Error; err != nil {
		return nil, err
	}
	return toCommissionDomainSlice(models), nil
}

// FindOverdue returns all invoices currently in overdue state.
func (r *GormCommissionRepository) FindOverdue(ctx context.Context) ([]*commissionDomain.Commission, error) {
	var models []CommissionModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(commissionDomain.StatusOverdue)).
		Find(&models).Error; err != nil {
		return nil, err
	}
	return toCommissionDomainSlice(models), nil
}

// ListAll returns invoices with pagination (admin billing view).
func (r *GormCommissionRepository) ListAll(ctx context.Context, page, limit int) ([]*commissionDomain.Commission, int64, error) {
	var total int64
	r.db.WithContext(ctx).Model(&CommissionModel{}).Count(&total)

	var models []CommissionModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("year DESC, month DESC").
		Offset(offset).Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, err
	}
	return toCommissionDomainSlice(models), total, nil
}

func toCommissionModel(c *commissionDomain.Commission) CommissionModel {
	return CommissionModel{
		ID:                c.ID(),
		HotelID:           c.HotelID(),
		Month:             c.Month(),
		Year:              c.Year(),
		TotalBookings:     c.TotalBookings(),
		TotalRevenue:      c.TotalRevenue(),
		CommissionPercent: c.CommissionPercent(),
		CommissionAmount:  c.CommissionAmount(),
		PenaltyAmount:     c.PenaltyAmount(),
		Status:            string(c.Status()),
		DueDate:           c.DueDate(),
		CreatedAt:         c.CreatedAt(),
		UpdatedAt:         c.UpdatedAt(),
	}
}

func toCommissionDomain(m *CommissionModel) *commissionDomain.Commission {
	return commissionDomain.Reconstitute(
		m.ID, m.HotelID, m.Month, m.Year, m.TotalBookings,
		m.TotalRevenue, m.CommissionPercent,
		m.CommissionAmount, m.PenaltyAmount,
		commissionDomain.Status(m.Status),
		m.DueDate, m.CreatedAt, m.UpdatedAt,
	)
}

func toCommissionDomainSlice(models []CommissionModel) []*commissionDomain.Commission {
	out := make([]*commissionDomain.Commission, len(models))
	for i := range models {
		out[i] = toCommissionDomain(&models[i])
	}
	return out
}
