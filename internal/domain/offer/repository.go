package offer

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence operations for offers.
//
// IncrementRedemption must be an atomic storage-level increment; counters are
// bumped from concurrent booking confirmations and a read-modify-write here
// would lose updates.
type Repository interface {
	Save(ctx context.Context, o *Offer) error
	Update(ctx context.Context, o *Offer) error
	FindByID(ctx context.Context, id uuid.UUID) (*Offer, error)
	FindByHotel(ctx context.Context, hotelID uuid.UUID, statuses []Status) ([]*Offer, error)
	FindPending(ctx context.Context) ([]*Offer, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	IncrementRedemption(ctx context.Context, id uuid.UUID) error
}
