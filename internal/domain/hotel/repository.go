package hotel

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository reads hotel and room data, plus the one cross-entity write the
// billing service owns: blocking a hotel for unpaid commission.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Hotel, error)
	FindListable(ctx context.Context) ([]*Hotel, error)
	Block(ctx context.Context, id uuid.UUID) error
	FindRoomTypeByID(ctx context.Context, id uuid.UUID) (*RoomType, error)
}

// BookingRepository reads confirmed-booking aggregates for invoicing.
// Revenue sums the room's nightly price once per booking, matching how the
// commission report has always been computed.
type BookingRepository interface {
	RevenueForPeriod(ctx context.Context, hotelID uuid.UUID, from, to time.Time) (*PeriodRevenue, error)
}
