package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/StayNest-Travel/service-billing/internal/domain"
	hotelDomain "github.com/StayNest-Travel/service-billing/internal/domain/hotel"
)

// HotelModel is the GORM persistence model for the hotels table.
type HotelModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Name       string    `gorm:"type:varchar(100);not null"`
	City       string    `gorm:"type:varchar(50)"`
	IsApproved bool      `gorm:"default:false"`
	IsBlocked  bool      `gorm:"default:false"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (HotelModel) TableName() string { return "hotels" }

// RoomTypeModel is the GORM persistence model for the room_types table.
type RoomTypeModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	HotelID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name          string          `gorm:"type:varchar(50);not null"`
	Category      string          `gorm:"type:varchar(50)"`
	MaxGuests     int             `gorm:"default:2"`
	PricePerNight decimal.Decimal `gorm:"type:decimal(10,2);not null"`
}

// TableName sets the table name.
func (RoomTypeModel) TableName() string { return "room_types" }

// BookingModel is the GORM persistence model for the bookings table. Rows
// are written by the booking service; billing only reads them.
type BookingModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	HotelID      uuid.UUID `gorm:"type:uuid;not null;index"`
	RoomTypeID   uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID       uuid.UUID `gorm:"type:uuid;not null"`
	CheckinDate  time.Time `gorm:"not null;index"`
	CheckoutDate time.Time `gorm:"not null"`
	Status       string    `gorm:"type:varchar(20);not null;default:'pending'"`
	CreatedAt    time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (BookingModel) TableName() string { return "bookings" }

// GormHotelRepository implements hotel.Repository using GORM.
type GormHotelRepository struct {
	db *gorm.DB
}

// NewGormHotelRepository creates a new GormHotelRepository.
func NewGormHotelRepository(db *gorm.DB) *GormHotelRepository {
	return &GormHotelRepository{db: db}
}

// FindByID returns a hotel by ID.
func (r *GormHotelRepository) FindByID(ctx context.Context, id uuid.UUID) (*hotelDomain.Hotel, error) {
	var model HotelModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Hotel", id.String())
		}
		return nil, err
	}
	return toHotelDomain(&model), nil
}

// FindListable returns approved, non-blocked hotels.
func (r *GormHotelRepository) FindListable(ctx context.Context) ([]*hotelDomain.Hotel, error) {
	var models []HotelModel
	if err := r.db.WithContext(ctx).
		Where("is_approved = ? AND is_blocked = ?", true, false).
		Find(&models).Error; err != nil {
		return nil, err
	}

	hotels := make([]*hotelDomain.Hotel, len(models))
	for i := range models {
		hotels[i] = toHotelDomain(&models[i])
	}
	return hotels, nil
}

// Block removes a hotel from customer-facing listings.
func (r *GormHotelRepository) Block(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&HotelModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_blocked": true,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Hotel", id.String())
	}
	return nil
}

// FindRoomTypeByID returns a room type by ID.
func (r *GormHotelRepository) FindRoomTypeByID(ctx context.Context, id uuid.UUID) (*hotelDomain.RoomType, error) {
	var model RoomTypeModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("RoomType", id.String())
		}
		return nil, err
	}
	return &hotelDomain.RoomType{
		ID:            model.ID,
		HotelID:       model.HotelID,
		Name:          model.Name,
		Category:      model.Category,
		MaxGuests:     model.MaxGuests,
		PricePerNight: model.PricePerNight,
	}, nil
}

func toHotelDomain(m *HotelModel) *hotelDomain.Hotel {
	return &hotelDomain.Hotel{
		ID:         m.ID,
		OwnerID:    m.OwnerID,
		Name:       m.Name,
		City:       m.City,
		IsApproved: m.IsApproved,
		IsBlocked:  m.IsBlocked,
	}
}

// GormBookingRepository implements hotel.BookingRepository using GORM.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// RevenueForPeriod aggregates a hotel's confirmed bookings whose check-in
// falls inside [from, to). Revenue counts each booked room's nightly price
// once per booking.
func (r *GormBookingRepository) RevenueForPeriod(ctx context.Context, hotelID uuid.UUID, from, to time.Time) (*hotelDomain.PeriodRevenue, error) {
	var row struct {
		Bookings int64
		Revenue  decimal.Decimal
	}

	err := r.db.WithContext(ctx).
		Table("bookings").
		Select("COUNT(bookings.id) AS bookings, COALESCE(SUM(room_types.price_per_night), 0) AS revenue").
		Joins("JOIN room_types ON room_types.id = bookings.room_type_id").
		Where("bookings.hotel_id = ?", hotelID).
		Where("bookings.status = ?", hotelDomain.BookingConfirmed).
		Where("bookings.checkin_date >= ? AND bookings.checkin_date < ?", from, to).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	return &hotelDomain.PeriodRevenue{
		HotelID:       hotelID,
		TotalBookings: int(row.Bookings),
		TotalRevenue:  row.Revenue,
	}, nil
}
