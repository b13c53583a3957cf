package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the stores, the services and the HTTP layer.
// Callers match them with errors.Is; the wrapped message carries detail.
var (
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrMalformedRecord    = errors.New("malformed record")
	ErrNotFound           = errors.New("not found")
	ErrPaymentDeclined    = errors.New("payment declined")
	ErrRoomUnavailable    = errors.New("room not available")
	ErrAlreadyCancelled   = errors.New("reservation already cancelled")
	ErrInvalidDateRange   = errors.New("check-out must be after check-in")
	ErrInvalidRoomType    = errors.New("invalid room type")
)

var (
	ErrReservationNotFound = fmt.Errorf("reservation %w", ErrNotFound)
	ErrRoomNotFound        = fmt.Errorf("room %w", ErrNotFound)
)
