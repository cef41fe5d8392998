package layout

import "errors"

var (
	// ErrInvalidDimension marks unusable generation input or an invalid
	// caller-supplied seating map
	ErrInvalidDimension = errors.New("invalid layout dimensions")

	// ErrNoTicketTypes is returned when generation runs without any
	// ticket type to assign sections to
	ErrNoTicketTypes = errors.New("no ticket types available for tier assignment")
)
