package commission

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines persistence operations for commission invoices.
//
// Upsert must be an on-conflict write keyed by (hotel_id, month, year);
// concurrent generation runs for the same period must never produce
// duplicate rows. Invoices are never deleted.
type Repository interface {
	Upsert(ctx context.Context, c *Commission) error
	Update(ctx context.Context, c *Commission) error
	FindByID(ctx context.Context, id uuid.UUID) (*Commission, error)
	FindByPeriod(ctx context.Context, month, year int) ([]*Commission, error)
	FindUnpaidDueBefore(ctx context.Context, today time.Time) ([]*Commission, error)
	FindOverdue(ctx context.Context) ([]*Commission, error)
	ListAll(ctx context.Context, page, limit int) ([]*Commission, int64, error)
}
