package bookings

import "errors"

var (
	// ErrBookingNotFound means no booking exists for the ID
	ErrBookingNotFound = errors.New("booking not found")

	// ErrNotBookingOwner rejects acting on another user's booking
	ErrNotBookingOwner = errors.New("booking belongs to another user")

	// ErrHoldOwnerMismatch rejects confirming a hold taken by someone else
	ErrHoldOwnerMismatch = errors.New("hold belongs to another user")

	// ErrAlreadyCancelled rejects cancelling twice
	ErrAlreadyCancelled = errors.New("booking is already cancelled")

	// ErrSeatsOrQuantity rejects hold requests naming both explicit seats
	// and a quantity, or neither
	ErrSeatsOrQuantity = errors.New("request either explicit seats or a tier quantity")
)
