package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/srgjo27/hotel_reservation/internal/core/domain"
	"github.com/srgjo27/hotel_reservation/internal/core/ports"
)

var _ ports.RoomRepository = (*RoomRepository)(nil)

type RoomRepository struct {
	db *sql.DB
}

func NewRoomRepository(db *sql.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

func (r *RoomRepository) All(ctx context.Context) ([]domain.Room, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, number, type, price_per_night FROM rooms ORDER BY id`)
	if err != nil {
		return nil, unavailable("load rooms", err)
	}
	defer rows.Close()

	var rooms []domain.Room
	for rows.Next() {
		var room domain.Room
		var roomType string
		if err := rows.Scan(&room.ID, &room.Number, &roomType, &room.PricePerNight); err != nil {
			return nil, unavailable("scan room", err)
		}
		if room.Type, err = domain.ParseCanonicalRoomType(roomType); err != nil {
			return nil, fmt.Errorf("%w: room %d: %w", domain.ErrMalformedRecord, room.ID, err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("load rooms", err)
	}
	return rooms, nil
}

// SaveAll replaces the whole inventory in one transaction.
func (r *RoomRepository) SaveAll(ctx context.Context, rooms []domain.Room) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("begin transaction", err)
	}

	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM rooms`); err != nil {
		return unavailable("clear rooms", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO rooms (id, number, type, price_per_night) VALUES ($1, $2, $3, $4)`)
	if err != nil {
		return unavailable("prepare room insert", err)
	}

	defer stmt.Close()

	for _, room := range rooms {
		if _, err := stmt.ExecContext(ctx, room.ID, room.Number, room.Type, room.PricePerNight); err != nil {
			return unavailable(fmt.Sprintf("insert room %d", room.ID), err)
		}
	}

	if err = tx.Commit(); err != nil {
		return unavailable("commit rooms", err)
	}
	return nil
}

// Seed writes the default inventory when the rooms table is empty.
func (r *RoomRepository) Seed(ctx context.Context) error {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rooms`).Scan(&count); err != nil {
		return unavailable("count rooms", err)
	}
	if count > 0 {
		return nil
	}
	return r.SaveAll(ctx, domain.DefaultRooms())
}
