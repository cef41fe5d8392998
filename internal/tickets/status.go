package tickets

// TicketStatus represents the lifecycle state of a ticket
type TicketStatus string

const (
	StatusPending   TicketStatus = "PENDING"
	StatusActive    TicketStatus = "ACTIVE"
	StatusReturned  TicketStatus = "RETURNED"
	StatusCancelled TicketStatus = "CANCELLED"
)

// IsValid checks if the status is part of the canonical set
func (s TicketStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusActive, StatusReturned, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether the status permits no further transitions
func (s TicketStatus) IsTerminal() bool {
	return s == StatusReturned || s == StatusCancelled
}

// CanTransitionTo enforces the ticket state machine: PENDING activates or
// cancels, ACTIVE returns or cancels, terminal states never move again.
func (s TicketStatus) CanTransitionTo(target TicketStatus) bool {
	switch s {
	case StatusPending:
		return target == StatusActive || target == StatusCancelled
	case StatusActive:
		return target == StatusReturned || target == StatusCancelled
	default:
		return false
	}
}
