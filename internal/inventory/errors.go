package inventory

import (
	"errors"
	"fmt"
	"strings"

	"seatwave/internal/layout"
)

var (
	// ErrEventNotRegistered means no ledger exists for the event
	ErrEventNotRegistered = errors.New("event not registered in inventory ledger")

	// ErrHoldExpiredOrMissing means the hold was swept, released, or never existed
	ErrHoldExpiredOrMissing = errors.New("hold expired or does not exist")

	// ErrHoldAlreadyCommitted rejects releasing a hold that already turned into a sale
	ErrHoldAlreadyCommitted = errors.New("hold already committed")

	// ErrCapacityExceeded means a best-available request asked for more
	// seats than the tier has left
	ErrCapacityExceeded = errors.New("not enough seats available")

	// ErrSeatNotFound means a seat reference does not exist in the event's map
	ErrSeatNotFound = errors.New("seat not found in seating map")
)

// SeatUnavailableError is returned when an all-or-nothing hold fails. It
// carries every conflicting seat so the caller can show the full list
// instead of failing one seat at a time.
type SeatUnavailableError struct {
	EventID   string
	Conflicts []layout.SeatRef
}

func (e *SeatUnavailableError) Error() string {
	refs := make([]string, len(e.Conflicts))
	for i, ref := range e.Conflicts {
		refs[i] = ref.String()
	}
	return fmt.Sprintf("seats unavailable for event %s: %s", e.EventID, strings.Join(refs, ", "))
}

// IsSeatUnavailable unwraps err into a SeatUnavailableError if it is one
func IsSeatUnavailable(err error) (*SeatUnavailableError, bool) {
	var sErr *SeatUnavailableError
	if errors.As(err, &sErr) {
		return sErr, true
	}
	return nil, false
}
