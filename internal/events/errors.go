package events

import "errors"

var (
	// ErrEventNotFound means no event exists for the ID
	ErrEventNotFound = errors.New("event not found")

	// ErrEventNotOnSale rejects holds against draft, cancelled, or
	// completed events
	ErrEventNotOnSale = errors.New("event is not on sale")

	// ErrUnknownTicketTier means a section references a ticket tier the
	// event does not define
	ErrUnknownTicketTier = errors.New("section references unknown ticket tier")
)
