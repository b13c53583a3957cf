package csvfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/srgjo27/hotel_reservation/internal/core/domain"
	"github.com/srgjo27/hotel_reservation/internal/core/ports"
)

const (
	RoomsFile        = "rooms.csv"
	ReservationsFile = "reservations.csv"
)

var _ ports.RoomRepository = (*RoomRepository)(nil)

type RoomRepository struct {
	path string
}

func NewRoomRepository(path string) *RoomRepository {
	return &RoomRepository{path: path}
}

func (r *RoomRepository) All(ctx context.Context) ([]domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records, err := readRecords(r.path)
	if err != nil {
		return nil, err
	}

	rooms := make([]domain.Room, 0, len(records))
	for _, rec := range records {
		room, err := roomFromFields(rec.fields)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", r.path, rec.line, err)
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

func (r *RoomRepository) SaveAll(ctx context.Context, rooms []domain.Room) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	lines := make([]string, 0, len(rooms))
	for _, room := range rooms {
		lines = append(lines, EncodeRoom(room))
	}
	return writeAtomic(r.path, lines)
}

// Bootstrap prepares dataDir: the room file is seeded with the default
// inventory and the reservation file created empty, each only when missing.
func Bootstrap(ctx context.Context, dataDir string) (*RoomRepository, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %w", domain.ErrStorageUnavailable, dataDir, err)
	}

	rooms := NewRoomRepository(filepath.Join(dataDir, RoomsFile))
	exists, err := fileExists(rooms.path)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := rooms.SaveAll(ctx, domain.DefaultRooms()); err != nil {
			return nil, err
		}
	}

	resPath := filepath.Join(dataDir, ReservationsFile)
	f, err := os.OpenFile(resPath, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: create %s: %w", domain.ErrStorageUnavailable, resPath, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("%w: close %s: %w", domain.ErrStorageUnavailable, resPath, err)
	}

	return rooms, nil
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("%w: stat %s: %w", domain.ErrStorageUnavailable, path, err)
}
