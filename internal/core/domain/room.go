package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type RoomType string

const (
	RoomStandard RoomType = "STANDARD"
	RoomDeluxe   RoomType = "DELUXE"
	RoomSuite    RoomType = "SUITE"
)

// ParseRoomType accepts any letter case and returns the canonical value.
func ParseRoomType(s string) (RoomType, error) {
	switch t := RoomType(strings.ToUpper(strings.TrimSpace(s))); t {
	case RoomStandard, RoomDeluxe, RoomSuite:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRoomType, s)
	}
}

// ParseCanonicalRoomType accepts only the exact upper-case names that
// storage writes.
func ParseCanonicalRoomType(s string) (RoomType, error) {
	switch t := RoomType(s); t {
	case RoomStandard, RoomDeluxe, RoomSuite:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRoomType, s)
	}
}

type Room struct {
	ID            int
	Number        string
	Type          RoomType
	PricePerNight decimal.Decimal
}

// DefaultRooms is the inventory written when no room file exists yet.
func DefaultRooms() []Room {
	return []Room{
		{ID: 1, Number: "101", Type: RoomStandard, PricePerNight: decimal.NewFromInt(2499)},
		{ID: 2, Number: "102", Type: RoomStandard, PricePerNight: decimal.NewFromInt(2499)},
		{ID: 3, Number: "201", Type: RoomDeluxe, PricePerNight: decimal.NewFromInt(3999)},
		{ID: 4, Number: "202", Type: RoomDeluxe, PricePerNight: decimal.NewFromInt(3999)},
		{ID: 5, Number: "301", Type: RoomSuite, PricePerNight: decimal.NewFromInt(6999)},
	}
}
