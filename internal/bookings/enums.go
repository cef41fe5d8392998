package bookings

// Status is the booking lifecycle state
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

func (s Status) CanBeCancelled() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s Status) IsActive() bool {
	return s == StatusConfirmed
}

// Payment statuses
const (
	PaymentPending   = "PENDING"
	PaymentCompleted = "COMPLETED"
	PaymentFailed    = "FAILED"
	PaymentRefunded  = "REFUNDED"
)
