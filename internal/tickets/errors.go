package tickets

import "errors"

var (
	// ErrTicketNotFound means the ticket or QR token resolves to nothing
	ErrTicketNotFound = errors.New("ticket not found")

	// ErrTicketNotActive rejects scanning or returning an unpaid ticket
	ErrTicketNotActive = errors.New("ticket is not active")

	// ErrAlreadyUsed rejects scanning a ticket a second time
	ErrAlreadyUsed = errors.New("ticket already used for entry")

	// ErrTicketVoided rejects scanning a returned or cancelled ticket
	ErrTicketVoided = errors.New("ticket has been voided")

	// ErrReturnWindowClosed rejects returns inside the cutoff before event start
	ErrReturnWindowClosed = errors.New("return window has closed")

	// ErrNotTicketOwner rejects acting on another user's ticket
	ErrNotTicketOwner = errors.New("ticket belongs to another user")

	// ErrInvalidTransition rejects a disallowed status change
	ErrInvalidTransition = errors.New("invalid ticket status transition")
)
