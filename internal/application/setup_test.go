package application

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/StayNest-Travel/service-billing/internal/repository"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// A named shared in-memory database keeps the schema visible across the
	// pooled connections GORM opens; the random name isolates tests.
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&repository.HotelModel{},
		&repository.RoomTypeModel{},
		&repository.BookingModel{},
		&repository.OfferModel{},
		&repository.CommissionModel{},
	))
	return db
}

func seedHotel(t *testing.T, db *gorm.DB, approved, blocked bool) uuid.UUID {
	t.Helper()
	id := uuid.New()
	now := time.Now().UTC()
	require.NoError(t, db.Create(&repository.HotelModel{
		ID:         id,
		OwnerID:    uuid.New(),
		Name:       "Test Hotel",
		City:       "Lisbon",
		IsApproved: approved,
		IsBlocked:  blocked,
		CreatedAt:  now,
		UpdatedAt:  now,
	}).Error)
	return id
}

func seedRoomType(t *testing.T, db *gorm.DB, hotelID uuid.UUID, category string, pricePerNight int64) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, db.Create(&repository.RoomTypeModel{
		ID:            id,
		HotelID:       hotelID,
		Name:          "Room " + category,
		Category:      category,
		MaxGuests:     2,
		PricePerNight: decimal.NewFromInt(pricePerNight),
	}).Error)
	return id
}

func seedBooking(t *testing.T, db *gorm.DB, hotelID, roomTypeID uuid.UUID, status string, checkin time.Time) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, db.Create(&repository.BookingModel{
		ID:           id,
		HotelID:      hotelID,
		RoomTypeID:   roomTypeID,
		UserID:       uuid.New(),
		CheckinDate:  checkin,
		CheckoutDate: checkin.AddDate(0, 0, 2),
		Status:       status,
		CreatedAt:    time.Now().UTC(),
	}).Error)
	return id
}

// seedOffer writes an offer row directly; tests tweak the model before insert
// through the mutate callback.
func seedOffer(t *testing.T, db *gorm.DB, hotelID uuid.UUID, mutate func(*repository.OfferModel)) uuid.UUID {
	t.Helper()
	// Windows are relative to the pinned test clock, not the wall clock, so
	// the default offer is LIVE regardless of when the suite runs.
	now := pricingNow
	m := repository.OfferModel{
		ID:            uuid.New(),
		HotelID:       hotelID,
		Name:          "Seeded Offer",
		OfferType:     "SEASONAL",
		DiscountType:  "PERCENT",
		DiscountValue: decimal.NewFromInt(10),
		Applicability: "ALL",
		Status:        "APPROVED",
		ValidFrom:     now.AddDate(0, 0, -30),
		ValidTo:       now.AddDate(0, 0, 30),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if mutate != nil {
		mutate(&m)
	}
	require.NoError(t, db.Create(&m).Error)
	return m.ID
}

func testLogger() *zap.Logger { return zap.NewNop() }
