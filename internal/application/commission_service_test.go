package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/StayNest-Travel/service-billing/internal/config"
	"github.com/StayNest-Travel/service-billing/internal/events"
	"github.com/StayNest-Travel/service-billing/internal/repository"
)

// capturePublisher records published envelopes in place of a Kafka writer.
type capturePublisher struct {
	mu        sync.Mutex
	published []events.Envelope
}

func (p *capturePublisher) Publish(_ context.Context, _ string, e events.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, e)
	return nil
}

func (p *capturePublisher) events() []events.Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Envelope(nil), p.published...)
}

var billingNow = time.Date(2026, time.August, 1, 9, 0, 0, 0, time.UTC)

func testBillingConfig() config.BillingConfig {
	return config.BillingConfig{
		CommissionPercent: 10,
		PenaltyPercent:    5,
		TaxPercent:        12,
		DueDays:           5,
		BlockGraceDays:    5,
	}
}

func setupCommission(t *testing.T) (*CommissionService, *gorm.DB, *clockwork.FakeClock, *capturePublisher) {
	t.Helper()
	db := setupTestDB(t)
	clock := clockwork.NewFakeClockAt(billingNow)
	publisher := &capturePublisher{}

	svc := NewCommissionService(
		repository.NewGormCommissionRepository(db),
		repository.NewGormHotelRepository(db),
		repository.NewGormBookingRepository(db),
		publisher,
		clock,
		testBillingConfig(),
		testLogger(),
	)
	return svc, db, clock, publisher
}

func TestGenerate_ComputesRevenueAndCommission(t *testing.T) {
	svc, db, _, _ := setupCommission(t)
	hotelID := seedHotel(t, db, true, false)
	roomTypeID := seedRoomType(t, db, hotelID, "deluxe", 5000)

	july := time.Date(2026, time.July, 10, 0, 0, 0, 0, time.UTC)
	seedBooking(t, db, hotelID, roomTypeID, "confirmed", july)
	seedBooking(t, db, hotelID, roomTypeID, "confirmed", july.AddDate(0, 0, 5))
	seedBooking(t, db, hotelID, roomTypeID, "confirmed", july.AddDate(0, 0, 15))
	seedBooking(t, db, hotelID, roomTypeID, "cancelled", july)                   // not revenue
	seedBooking(t, db, hotelID, roomTypeID, "confirmed", july.AddDate(0, 1, 0)) // August, outside period

	result, err := svc.Generate(context.Background(), 7, 2026)
	require.NoError(t, err)
	assert.Equal(t, 1, result.HotelsInvoiced)
	assert.Empty(t, result.Failed)

	dtos, err := svc.ListByPeriod(context.Background(), 7, 2026)
	require.NoError(t, err)
	require.Len(t, dtos, 1)

	dto := dtos[0]
	assert.Equal(t, hotelID, dto.HotelID)
	assert.Equal(t, 3, dto.TotalBookings)
	assert.InDelta(t, 15000.0, dto.TotalRevenue, 0.001)
	assert.InDelta(t, 1500.0, dto.CommissionAmount, 0.001) // 10%
	assert.Equal(t, "unpaid", dto.Status)
	wantDue := time.Date(2026, time.August, 6, 0, 0, 0, 0, time.UTC)
	assert.True(t, dto.DueDate.Equal(wantDue), "due date %s", dto.DueDate)
}

func TestGenerate_IsIdempotent(t *testing.T) {
	svc, db, _, _ := setupCommission(t)
	hotelID := seedHotel(t, db, true, false)
	roomTypeID := seedRoomType(t, db, hotelID, "deluxe", 5000)
	july := time.Date(2026, time.July, 10, 0, 0, 0, 0, time.UTC)
	seedBooking(t, db, hotelID, roomTypeID, "confirmed", july)

	_, err := svc.Generate(context.Background(), 7, 2026)
	require.NoError(t, err)

	// A booking confirmed late lands in the period on regeneration.
	seedBooking(t, db, hotelID, roomTypeID, "confirmed", july.AddDate(0, 0, 3))
	_, err = svc.Generate(context.Background(), 7, 2026)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&repository.CommissionModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count, "regeneration must overwrite, not duplicate")

	dtos, err := svc.ListByPeriod(context.Background(), 7, 2026)
	require.NoError(t, err)
	require.Len(t, dtos, 1)
	assert.Equal(t, 2, dtos[0].TotalBookings)
	assert.InDelta(t, 1000.0, dtos[0].CommissionAmount, 0.001)
}

func TestGenerate_RegenerationResetsOverdueState(t *testing.T) {
	svc, db, clock, _ := setupCommission(t)
	hotelID := seedHotel(t, db, true, false)
	roomTypeID := seedRoomType(t, db, hotelID, "deluxe", 5000)
	seedBooking(t, db, hotelID, roomTypeID, "confirmed", time.Date(2026, time.July, 10, 0, 0, 0, 0, time.UTC))

	_, err := svc.Generate(context.Background(), 7, 2026)
	require.NoError(t, err)

	clock.Advance(6 * 24 * time.Hour)
	_, err = svc.RefreshOverdueStatus(context.Background())
	require.NoError(t, err)

	// Regenerating the period rebuilds the invoice from scratch: a fresh
	// unpaid row must not keep the previously accrued penalty.
	_, err = svc.Generate(context.Background(), 7, 2026)
	require.NoError(t, err)

	dtos, err := svc.ListByPeriod(context.Background(), 7, 2026)
	require.NoError(t, err)
	require.Len(t, dtos, 1)
	assert.Equal(t, "unpaid", dtos[0].Status)
	assert.InDelta(t, 0.0, dtos[0].PenaltyAmount, 0.001)
	assert.InDelta(t, 500.0, dtos[0].TotalPayable, 0.001)

	var count int64
	require.NoError(t, db.Model(&repository.CommissionModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGenerate_OnlyListableHotels(t *testing.T) {
	svc, db, _, _ := setupCommission(t)
	listable := seedHotel(t, db, true, false)
	seedHotel(t, db, false, false) // not approved
	seedHotel(t, db, true, true)   // blocked

	result, err := svc.Generate(context.Background(), 7, 2026)
	require.NoError(t, err)
	assert.Equal(t, 1, result.HotelsInvoiced)

	dtos, err := svc.ListByPeriod(context.Background(), 7, 2026)
	require.NoError(t, err)
	require.Len(t, dtos, 1)
	assert.Equal(t, listable, dtos[0].HotelID)
}

func TestGenerate_ZeroRevenueStillInvoices(t *testing.T) {
	svc, db, _, _ := setupCommission(t)
	seedHotel(t, db, true, false)

	result, err := svc.Generate(context.Background(), 7, 2026)
	require.NoError(t, err)
	assert.Equal(t, 1, result.HotelsInvoiced)

	dtos, err := svc.ListByPeriod(context.Background(), 7, 2026)
	require.NoError(t, err)
	require.Len(t, dtos, 1)
	assert.Equal(t, 0, dtos[0].TotalBookings)
	assert.InDelta(t, 0.0, dtos[0].CommissionAmount, 0.001)
}

func TestGenerate_RejectsInvalidMonth(t *testing.T) {
	svc, _, _, _ := setupCommission(t)
	_, err := svc.Generate(context.Background(), 13, 2026)
	assert.Error(t, err)
}

func TestRefreshOverdueStatus_AppliesOneTimePenalty(t *testing.T) {
	svc, db, clock, _ := setupCommission(t)
	hotelID := seedHotel(t, db, true, false)
	roomTypeID := seedRoomType(t, db, hotelID, "deluxe", 5000)
	seedBooking(t, db, hotelID, roomTypeID, "confirmed", time.Date(2026, time.July, 10, 0, 0, 0, 0, time.UTC))

	_, err := svc.Generate(context.Background(), 7, 2026)
	require.NoError(t, err)

	// Due Aug 6; Aug 7 is past due.
	clock.Advance(6 * 24 * time.Hour)
	result, err := svc.RefreshOverdueStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.MarkedOverdue)
	assert.Equal(t, 0, result.HotelsBlocked)

	dtos, err := svc.ListByPeriod(context.Background(), 7, 2026)
	require.NoError(t, err)
	require.Len(t, dtos, 1)
	assert.Equal(t, "overdue", dtos[0].Status)
	assert.InDelta(t, 25.0, dtos[0].PenaltyAmount, 0.001) // 5% of 500
	assert.InDelta(t, 525.0, dtos[0].TotalPayable, 0.001)

	// A second scan must not compound the penalty.
	result, err = svc.RefreshOverdueStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.MarkedOverdue)

	dtos, err = svc.ListByPeriod(context.Background(), 7, 2026)
	require.NoError(t, err)
	assert.InDelta(t, 25.0, dtos[0].PenaltyAmount, 0.001)
}

func TestRefreshOverdueStatus_BlocksHotelAfterGrace(t *testing.T) {
	svc, db, clock, publisher := setupCommission(t)
	hotelID := seedHotel(t, db, true, false)
	roomTypeID := seedRoomType(t, db, hotelID, "deluxe", 5000)
	seedBooking(t, db, hotelID, roomTypeID, "confirmed", time.Date(2026, time.July, 10, 0, 0, 0, 0, time.UTC))

	_, err := svc.Generate(context.Background(), 7, 2026)
	require.NoError(t, err)

	// Due Aug 6, grace 5 days: Aug 12 is past the block deadline. The same
	// scan marks the invoice overdue and blocks the hotel.
	clock.Advance(11 * 24 * time.Hour)
	result, err := svc.RefreshOverdueStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.MarkedOverdue)
	assert.Equal(t, 1, result.HotelsBlocked)

	var h repository.HotelModel
	require.NoError(t, db.Where("id = ?", hotelID).First(&h).Error)
	assert.True(t, h.IsBlocked)

	published := publisher.events()
	require.Len(t, published, 1)
	assert.Equal(t, events.HotelBlocked, published[0].Type)
	var evt events.HotelBlockedEvent
	require.NoError(t, published[0].ParseData(&evt))
	assert.Equal(t, hotelID, evt.HotelID)

	// Already blocked: a repeat scan neither re-blocks nor re-publishes.
	result, err = svc.RefreshOverdueStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.HotelsBlocked)
	assert.Len(t, publisher.events(), 1)
}

func TestMarkPaid(t *testing.T) {
	svc, db, clock, _ := setupCommission(t)
	hotelID := seedHotel(t, db, true, false)
	roomTypeID := seedRoomType(t, db, hotelID, "deluxe", 5000)
	seedBooking(t, db, hotelID, roomTypeID, "confirmed", time.Date(2026, time.July, 10, 0, 0, 0, 0, time.UTC))

	_, err := svc.Generate(context.Background(), 7, 2026)
	require.NoError(t, err)

	clock.Advance(6 * 24 * time.Hour)
	_, err = svc.RefreshOverdueStatus(context.Background())
	require.NoError(t, err)

	dtos, err := svc.ListByPeriod(context.Background(), 7, 2026)
	require.NoError(t, err)
	require.Len(t, dtos, 1)

	paid, err := svc.MarkPaid(context.Background(), dtos[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "paid", paid.Status)
	assert.InDelta(t, 0.0, paid.PenaltyAmount, 0.001, "settling forgives the accrued penalty")
	assert.InDelta(t, 500.0, paid.TotalPayable, 0.001)

	_, err = svc.MarkPaid(context.Background(), dtos[0].ID)
	assert.Error(t, err, "paying twice is an invalid transition")

	_, err = svc.MarkPaid(context.Background(), uuid.New())
	assert.Error(t, err)
}

func TestListCommissions_Pagination(t *testing.T) {
	svc, db, _, _ := setupCommission(t)
	for i := 0; i < 3; i++ {
		seedHotel(t, db, true, false)
	}

	_, err := svc.Generate(context.Background(), 7, 2026)
	require.NoError(t, err)

	page1, total, err := svc.ListCommissions(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, page1, 2)

	page2, _, err := svc.ListCommissions(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.Len(t, page2, 1)
}
