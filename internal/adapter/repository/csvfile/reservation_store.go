package csvfile

import (
	"context"
	"fmt"
	"sync"

	"github.com/srgjo27/hotel_reservation/internal/core/domain"
	"github.com/srgjo27/hotel_reservation/internal/core/ports"
)

var _ ports.ReservationRepository = (*ReservationStore)(nil)

// ReservationStore keeps reservations in a single file. Every operation holds
// mu for its whole duration, including the file I/O.
type ReservationStore struct {
	mu    sync.Mutex
	path  string
	clock ports.Clock
}

func NewReservationStore(path string, clock ports.Clock) *ReservationStore {
	return &ReservationStore{path: path, clock: clock}
}

func (s *ReservationStore) LoadAll(ctx context.Context) ([]domain.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loadLocked()
}

func (s *ReservationStore) Create(ctx context.Context, in domain.NewReservation) (*domain.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadLocked()
	if err != nil {
		return nil, err
	}
	return s.appendLocked(all, in)
}

func (s *ReservationStore) CreateIfAvailable(ctx context.Context, in domain.NewReservation) (*domain.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadLocked()
	if err != nil {
		return nil, err
	}

	stay := domain.DateRange{Start: in.CheckIn, End: in.CheckOut}
	for i := range all {
		if all[i].ConflictsWith(in.RoomID, stay) {
			return nil, fmt.Errorf("%w: room %d overlaps reservation %d", domain.ErrRoomUnavailable, in.RoomID, all[i].ID)
		}
	}
	return s.appendLocked(all, in)
}

// Cancel rewrites the whole file with the matching reservation cancelled.
// Cancelling twice is rejected rather than re-applied.
func (s *ReservationStore) Cancel(ctx context.Context, id int64, refundTxnID *string) (*domain.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadLocked()
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range all {
		if all[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %d", domain.ErrReservationNotFound, id)
	}
	if !all[idx].Active() {
		return nil, fmt.Errorf("%w: %d", domain.ErrAlreadyCancelled, id)
	}

	all[idx] = all[idx].Cancelled(refundTxnID)

	lines := make([]string, 0, len(all))
	for _, r := range all {
		lines = append(lines, EncodeReservation(r))
	}
	if err := writeAtomic(s.path, lines); err != nil {
		return nil, err
	}

	updated := all[idx]
	return &updated, nil
}

func (s *ReservationStore) FindByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	all, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %d", domain.ErrReservationNotFound, id)
}

func (s *ReservationStore) loadLocked() ([]domain.Reservation, error) {
	records, err := readRecords(s.path)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Reservation, 0, len(records))
	for _, rec := range records {
		r, err := reservationFromFields(rec.fields)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", s.path, rec.line, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *ReservationStore) appendLocked(existing []domain.Reservation, in domain.NewReservation) (*domain.Reservation, error) {
	var payTxn *string
	if in.PaymentTxnID != nil {
		payTxn = domain.StringPtr(*in.PaymentTxnID)
	}

	res := domain.Reservation{
		ID:            domain.NextReservationID(existing),
		RoomID:        in.RoomID,
		GuestName:     in.GuestName,
		CheckIn:       domain.Date(in.CheckIn),
		CheckOut:      domain.Date(in.CheckOut),
		TotalAmount:   in.Amount,
		CreatedAt:     s.clock.Now().UTC(),
		PaymentTxnID:  payTxn,
		PaymentStatus: domain.PaymentPaid,
		Status:        domain.ReservationConfirmed,
	}

	if err := appendLine(s.path, EncodeReservation(res)); err != nil {
		return nil, err
	}
	return &res, nil
}
