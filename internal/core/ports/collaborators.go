package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/srgjo27/hotel_reservation/internal/core/domain"
)

type PaymentGateway interface {
	Charge(cardNumber string, amount decimal.Decimal) domain.PaymentResult
	Refund(originalTxnID string, amount decimal.Decimal) domain.PaymentResult
}

type Clock interface {
	Now() time.Time
}

// AvailabilityCache memoizes availability answers by query key within a
// generation. Invalidate starts a new generation, so an answer stored under
// an older one is never served again.
type AvailabilityCache interface {
	Generation(ctx context.Context) (int64, error)
	Get(ctx context.Context, gen int64, key string) ([]int, bool, error)
	Set(ctx context.Context, gen int64, key string, roomIDs []int) error
	Invalidate(ctx context.Context) error
}

type ReservationEvent struct {
	Type          string    `json:"type"`
	ReservationID int64     `json:"reservation_id"`
	RoomID        int       `json:"room_id"`
	GuestName     string    `json:"guest_name"`
	CheckIn       string    `json:"check_in"`
	CheckOut      string    `json:"check_out"`
	TotalAmount   string    `json:"total_amount"`
	PaymentStatus string    `json:"payment_status"`
	Status        string    `json:"status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

const (
	EventReservationConfirmed = "reservation.confirmed"
	EventReservationCancelled = "reservation.cancelled"
)

type EventPublisher interface {
	Publish(ctx context.Context, event ReservationEvent) error
}
