package events

// EventStatus is the event publication state
type EventStatus string

const (
	StatusDraft     EventStatus = "draft"
	StatusPublished EventStatus = "published"
	StatusCancelled EventStatus = "cancelled"
	StatusCompleted EventStatus = "completed"
)

func (s EventStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// CanSell reports whether tickets can currently be sold for this state
func (s EventStatus) CanSell() bool {
	return s == StatusPublished
}
