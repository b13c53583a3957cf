package ports

import (
	"context"

	"github.com/srgjo27/hotel_reservation/internal/core/domain"
)

type RoomRepository interface {
	All(ctx context.Context) ([]domain.Room, error)
	SaveAll(ctx context.Context, rooms []domain.Room) error
}

// ReservationRepository owns the reservation set. Implementations serialize
// every operation so that id allocation and rewrites never interleave.
type ReservationRepository interface {
	LoadAll(ctx context.Context) ([]domain.Reservation, error)
	// Create trusts its input: availability and dates are the caller's concern.
	Create(ctx context.Context, in domain.NewReservation) (*domain.Reservation, error)
	// CreateIfAvailable re-checks the room for overlapping active
	// reservations inside the same serialized section as the insert.
	CreateIfAvailable(ctx context.Context, in domain.NewReservation) (*domain.Reservation, error)
	Cancel(ctx context.Context, id int64, refundTxnID *string) (*domain.Reservation, error)
	FindByID(ctx context.Context, id int64) (*domain.Reservation, error)
}
