package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type ReservationStatus string

const (
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationCancelled ReservationStatus = "CANCELLED"
)

func ParseReservationStatus(s string) (ReservationStatus, error) {
	switch st := ReservationStatus(s); st {
	case ReservationConfirmed, ReservationCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("unknown reservation status %q", s)
	}
}

type PaymentStatus string

const (
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
	PaymentFailed   PaymentStatus = "FAILED"
)

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch st := PaymentStatus(s); st {
	case PaymentPaid, PaymentRefunded, PaymentFailed:
		return st, nil
	default:
		return "", fmt.Errorf("unknown payment status %q", s)
	}
}

// FirstReservationID is handed out when the store holds no reservations.
const FirstReservationID int64 = 1001

type Reservation struct {
	ID            int64
	RoomID        int
	GuestName     string
	CheckIn       time.Time
	CheckOut      time.Time
	TotalAmount   decimal.Decimal
	CreatedAt     time.Time
	PaymentTxnID  *string
	PaymentStatus PaymentStatus
	Status        ReservationStatus
	RefundTxnID   *string
}

// NewReservation carries the caller-validated input of a create call.
type NewReservation struct {
	RoomID       int
	GuestName    string
	CheckIn      time.Time
	CheckOut     time.Time
	Amount       decimal.Decimal
	PaymentTxnID *string
}

func (r *Reservation) Active() bool {
	return r.Status != ReservationCancelled
}

func (r *Reservation) Stay() DateRange {
	return DateRange{Start: r.CheckIn, End: r.CheckOut}
}

func (r *Reservation) Nights() int {
	return r.Stay().Nights()
}

// Cancelled returns a copy with the cancellation applied. Only Status,
// PaymentStatus and RefundTxnID differ from the receiver.
func (r Reservation) Cancelled(refundTxnID *string) Reservation {
	r.Status = ReservationCancelled
	if refundTxnID != nil {
		r.PaymentStatus = PaymentRefunded
		id := *refundTxnID
		r.RefundTxnID = &id
	}
	return r
}

// ConflictsWith reports whether an active reservation of the same room
// overlaps the given stay.
func (r *Reservation) ConflictsWith(roomID int, stay DateRange) bool {
	return r.Active() && r.RoomID == roomID && r.Stay().Overlaps(stay)
}

// NextReservationID returns max(existing ids, FirstReservationID-1) + 1.
func NextReservationID(existing []Reservation) int64 {
	maxID := FirstReservationID - 1
	for _, r := range existing {
		if r.ID > maxID {
			maxID = r.ID
		}
	}
	return maxID + 1
}

// StringPtr returns nil for an empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
