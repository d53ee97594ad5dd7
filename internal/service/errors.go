// Package service contains the reservation coordinator, the status
// derivation and the optional expiry reaper. It is the only writer of
// reservation-driven snapshots; the request layer stays thin on top of it.
package service

import "errors"

// Validation failures. These are raised before any store access and are
// never retried.
var (
	ErrInvalidFloor = errors.New("invalid floor, valid values are B1, B2 or B3")
	ErrInvalidPhone = errors.New("invalid phone number")
	ErrInvalidSlot  = errors.New("invalid slot number")
)

// Conflict failures: the caller's view of the floor is stale, a refresh is
// required.
var (
	// ErrAlreadyReserved: the phone already holds a reservation on some floor.
	ErrAlreadyReserved = errors.New("phone already holds a reservation")
	// ErrSlotUnavailable: the slot is not in the floor's free list.
	ErrSlotUnavailable = errors.New("slot is not available")
	// ErrSlotAlreadyReserved: the slot already carries a reservation.
	ErrSlotAlreadyReserved = errors.New("slot is already reserved")
)

// ErrReservationNotFound: cancel found no reservation for the phone on the
// requested floor.
var ErrReservationNotFound = errors.New("no reservation found")
