package commission

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/StayNest-Travel/service-billing/internal/domain"
)

// Status is the invoice lifecycle state.
type Status string

const (
	StatusUnpaid  Status = "unpaid"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
)

// Commission is one month's revenue-share invoice for a hotel. There is at
// most one record per (hotel, month, year); regeneration overwrites it.
type Commission struct {
	id                uuid.UUID
	hotelID           uuid.UUID
	month             int
	year              int
	totalBookings     int
	totalRevenue      decimal.Decimal
	commissionPercent int
	commissionAmount  decimal.Decimal
	penaltyAmount     decimal.Decimal
	status            Status
	dueDate           time.Time
	createdAt         time.Time
	updatedAt         time.Time
}

// NewCommission builds an unpaid invoice for a billing period.
// commissionAmount is derived from revenue and percent; dueDate is the
// generation date plus the configured grace window.
func NewCommission(hotelID uuid.UUID, month, year, totalBookings int, totalRevenue decimal.Decimal, commissionPercent int, dueDate time.Time) (*Commission, error) {
	if hotelID == uuid.Nil {
		return nil, domain.NewValidationError("hotel id is required")
	}
	if month < 1 || month > 12 {
		return nil, domain.NewValidationError("month must be 1-12")
	}
	if totalRevenue.IsNegative() {
		return nil, domain.NewValidationError("total revenue must not be negative")
	}

	now := time.Now().UTC()
	return &Commission{
		id:                uuid.New(),
		hotelID:           hotelID,
		month:             month,
		year:              year,
		totalBookings:     totalBookings,
		totalRevenue:      totalRevenue,
		commissionPercent: commissionPercent,
		commissionAmount:  totalRevenue.Mul(decimal.NewFromInt(int64(commissionPercent))).Div(decimal.NewFromInt(100)),
		penaltyAmount:     decimal.Zero,
		status:            StatusUnpaid,
		dueDate:           dueDate,
		createdAt:         now,
		updatedAt:         now,
	}, nil
}

// Reconstitute rebuilds a Commission from persistence.
func Reconstitute(
	id, hotelID uuid.UUID,
	month, year, totalBookings int,
	totalRevenue decimal.Decimal,
	commissionPercent int,
	commissionAmount, penaltyAmount decimal.Decimal,
	status Status,
	dueDate, createdAt, updatedAt time.Time,
) *Commission {
	return &Commission{
		id: id, hotelID: hotelID, month: month, year: year,
		totalBookings: totalBookings, totalRevenue: totalRevenue,
		commissionPercent: commissionPercent, commissionAmount: commissionAmount,
		penaltyAmount: penaltyAmount, status: status, dueDate: dueDate,
		createdAt: createdAt, updatedAt: updatedAt,
	}
}

// --- Getters ---

func (c *Commission) ID() uuid.UUID                     { return c.id }
func (c *Commission) HotelID() uuid.UUID                { return c.hotelID }
func (c *Commission) Month() int                        { return c.month }
func (c *Commission) Year() int                         { return c.year }
func (c *Commission) TotalBookings() int                { return c.totalBookings }
func (c *Commission) TotalRevenue() decimal.Decimal     { return c.totalRevenue }
func (c *Commission) CommissionPercent() int            { return c.commissionPercent }
func (c *Commission) CommissionAmount() decimal.Decimal { return c.commissionAmount }
func (c *Commission) PenaltyAmount() decimal.Decimal    { return c.penaltyAmount }
func (c *Commission) Status() Status                    { return c.status }
func (c *Commission) DueDate() time.Time                { return c.dueDate }
func (c *Commission) CreatedAt() time.Time              { return c.createdAt }
func (c *Commission) UpdatedAt() time.Time              { return c.updatedAt }

// TotalPayable is the commission plus any accrued penalty.
func (c *Commission) TotalPayable() decimal.Decimal {
	return c.commissionAmount.Add(c.penaltyAmount)
}

// IsPastDue reports whether the invoice is unpaid beyond its due date.
func (c *Commission) IsPastDue(today time.Time) bool {
	return c.status == StatusUnpaid && today.After(c.dueDate)
}

// MarkOverdue transitions unpaid -> overdue and applies the one-time penalty.
// The penalty does not compound on repeated scans.
func (c *Commission) MarkOverdue(penaltyPercent int) error {
	if c.status != StatusUnpaid {
		return domain.NewInvalidStateError(string(c.status), string(StatusOverdue))
	}
	c.status = StatusOverdue
	c.penaltyAmount = c.commissionAmount.Mul(decimal.NewFromInt(int64(penaltyPercent))).Div(decimal.NewFromInt(100))
	c.updatedAt = time.Now().UTC()
	return nil
}

// MarkPaid settles the invoice. The penalty is zeroed unconditionally, which
// forgives it even when payment arrives after accrual.
func (c *Commission) MarkPaid() error {
	if c.status == StatusPaid {
		return domain.NewInvalidStateError(string(StatusPaid), string(StatusPaid))
	}
	c.status = StatusPaid
	c.penaltyAmount = decimal.Zero
	c.updatedAt = time.Now().UTC()
	return nil
}

// BlockDeadlinePassed reports whether the invoice has been overdue long
// enough for the owning hotel to be pulled from listings.
func (c *Commission) BlockDeadlinePassed(today time.Time, graceDays int) bool {
	return c.status == StatusOverdue && today.After(c.dueDate.AddDate(0, 0, graceDays))
}
