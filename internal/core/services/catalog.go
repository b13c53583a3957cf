package services

import (
	"time"

	"github.com/srgjo27/hotel_reservation/internal/core/domain"
)

// Catalog is the room inventory loaded at startup. It never changes after
// construction, so it is safe for concurrent use without locking.
type Catalog struct {
	rooms []domain.Room
	byID  map[int]domain.Room
}

func NewCatalog(rooms []domain.Room) *Catalog {
	c := &Catalog{
		rooms: make([]domain.Room, len(rooms)),
		byID:  make(map[int]domain.Room, len(rooms)),
	}
	copy(c.rooms, rooms)
	for _, r := range rooms {
		c.byID[r.ID] = r
	}
	return c
}

func (c *Catalog) All() []domain.Room {
	out := make([]domain.Room, len(c.rooms))
	copy(out, c.rooms)
	return out
}

func (c *Catalog) ByID(id int) (domain.Room, bool) {
	r, ok := c.byID[id]
	return r, ok
}

// FindAvailable returns, in catalog order, the rooms matching typeFilter (nil
// for any) that no active reservation overlaps during [checkIn, checkOut).
func (c *Catalog) FindAvailable(checkIn, checkOut time.Time, typeFilter *domain.RoomType, reservations []domain.Reservation) []domain.Room {
	stay := domain.DateRange{Start: checkIn, End: checkOut}

	available := []domain.Room{}
	for _, room := range c.rooms {
		if typeFilter != nil && room.Type != *typeFilter {
			continue
		}
		if !isFree(room.ID, stay, reservations) {
			continue
		}
		available = append(available, room)
	}
	return available
}

func isFree(roomID int, stay domain.DateRange, reservations []domain.Reservation) bool {
	for i := range reservations {
		if reservations[i].ConflictsWith(roomID, stay) {
			return false
		}
	}
	return true
}
