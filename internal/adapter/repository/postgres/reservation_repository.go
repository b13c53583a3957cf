package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/srgjo27/hotel_reservation/internal/core/domain"
	"github.com/srgjo27/hotel_reservation/internal/core/ports"
)

const reservationColumns = `id, room_id, guest_name, check_in, check_out, total_amount, created_at, payment_txn_id, payment_status, status, refund_txn_id`

var _ ports.ReservationRepository = (*ReservationRepository)(nil)

// ReservationRepository serializes writers with a table lock taken inside
// each write transaction, mirroring the single-writer file store.
type ReservationRepository struct {
	db    *sql.DB
	clock ports.Clock
}

func NewReservationRepository(db *sql.DB, clock ports.Clock) *ReservationRepository {
	return &ReservationRepository{db: db, clock: clock}
}

func (r *ReservationRepository) LoadAll(ctx context.Context) ([]domain.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+reservationColumns+` FROM reservations ORDER BY id`)
	if err != nil {
		return nil, unavailable("load reservations", err)
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("load reservations", err)
	}
	return out, nil
}

func (r *ReservationRepository) Create(ctx context.Context, in domain.NewReservation) (*domain.Reservation, error) {
	return r.insert(ctx, in, false)
}

func (r *ReservationRepository) CreateIfAvailable(ctx context.Context, in domain.NewReservation) (*domain.Reservation, error) {
	return r.insert(ctx, in, true)
}

func (r *ReservationRepository) insert(ctx context.Context, in domain.NewReservation, checkAvailability bool) (*domain.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, unavailable("begin transaction", err)
	}

	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `LOCK TABLE reservations IN EXCLUSIVE MODE`); err != nil {
		return nil, unavailable("lock reservations", err)
	}

	stay := domain.DateRange{Start: domain.Date(in.CheckIn), End: domain.Date(in.CheckOut)}
	if checkAvailability {
		if err := r.ensureFree(ctx, tx, in.RoomID, stay); err != nil {
			return nil, err
		}
	}

	var nextID int64
	err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), $1) + 1 FROM reservations`, domain.FirstReservationID-1).Scan(&nextID)
	if err != nil {
		return nil, unavailable("allocate reservation id", err)
	}

	var payTxn *string
	if in.PaymentTxnID != nil {
		payTxn = domain.StringPtr(*in.PaymentTxnID)
	}
	res := domain.Reservation{
		ID:            nextID,
		RoomID:        in.RoomID,
		GuestName:     in.GuestName,
		CheckIn:       stay.Start,
		CheckOut:      stay.End,
		TotalAmount:   in.Amount,
		CreatedAt:     r.clock.Now().UTC(),
		PaymentTxnID:  payTxn,
		PaymentStatus: domain.PaymentPaid,
		Status:        domain.ReservationConfirmed,
	}

	query := `
	INSERT INTO reservations (` + reservationColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = tx.ExecContext(ctx, query,
		res.ID, res.RoomID, res.GuestName, res.CheckIn, res.CheckOut, res.TotalAmount, res.CreatedAt,
		nullable(res.PaymentTxnID), res.PaymentStatus, res.Status, nullable(res.RefundTxnID))
	if err != nil {
		return nil, unavailable("insert reservation", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, unavailable("commit reservation", err)
	}
	return &res, nil
}

func (r *ReservationRepository) ensureFree(ctx context.Context, tx *sql.Tx, roomID int, stay domain.DateRange) error {
	rows, err := tx.QueryContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE room_id = $1 AND status <> $2`,
		roomID, domain.ReservationCancelled)
	if err != nil {
		return unavailable("check availability", err)
	}
	defer rows.Close()

	for rows.Next() {
		existing, err := scanReservation(rows)
		if err != nil {
			return err
		}
		if existing.ConflictsWith(roomID, stay) {
			return fmt.Errorf("%w: room %d overlaps reservation %d", domain.ErrRoomUnavailable, roomID, existing.ID)
		}
	}
	if err := rows.Err(); err != nil {
		return unavailable("check availability", err)
	}
	return nil
}

func (r *ReservationRepository) Cancel(ctx context.Context, id int64, refundTxnID *string) (*domain.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, unavailable("begin transaction", err)
	}

	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1 FOR UPDATE`, id)
	res, err := scanReservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", domain.ErrReservationNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if !res.Active() {
		return nil, fmt.Errorf("%w: %d", domain.ErrAlreadyCancelled, id)
	}

	updated := res.Cancelled(refundTxnID)
	_, err = tx.ExecContext(ctx, `
	UPDATE reservations
	SET status = $1, payment_status = $2, refund_txn_id = $3
	WHERE id = $4
	`, updated.Status, updated.PaymentStatus, nullable(updated.RefundTxnID), id)
	if err != nil {
		return nil, unavailable("cancel reservation", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, unavailable("commit cancellation", err)
	}
	return &updated, nil
}

func (r *ReservationRepository) FindByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id)
	res, err := scanReservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", domain.ErrReservationNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReservation(s scanner) (domain.Reservation, error) {
	var res domain.Reservation
	var payTxn, refundTxn sql.NullString
	var payStatus, status string

	err := s.Scan(
		&res.ID,
		&res.RoomID,
		&res.GuestName,
		&res.CheckIn,
		&res.CheckOut,
		&res.TotalAmount,
		&res.CreatedAt,
		&payTxn,
		&payStatus,
		&status,
		&refundTxn,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return res, err
	}
	if err != nil {
		return res, unavailable("scan reservation", err)
	}

	res.CheckIn = domain.Date(res.CheckIn)
	res.CheckOut = domain.Date(res.CheckOut)
	res.CreatedAt = res.CreatedAt.UTC()
	if payTxn.Valid {
		res.PaymentTxnID = domain.StringPtr(payTxn.String)
	}
	if refundTxn.Valid {
		res.RefundTxnID = domain.StringPtr(refundTxn.String)
	}
	if res.PaymentStatus, err = domain.ParsePaymentStatus(payStatus); err != nil {
		return res, fmt.Errorf("%w: reservation %d: %w", domain.ErrMalformedRecord, res.ID, err)
	}
	if res.Status, err = domain.ParseReservationStatus(status); err != nil {
		return res, fmt.Errorf("%w: reservation %d: %w", domain.ErrMalformedRecord, res.ID, err)
	}
	return res, nil
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrStorageUnavailable, op, err)
}
