package events

import (
	"time"

	"github.com/google/uuid"

	"seatwave/internal/inventory"
	"seatwave/internal/layout"
	"seatwave/internal/tickets"
)

// Event owns its seating map. The JSONB column is the persisted seat
// document; between snapshots the inventory ledger is authoritative for
// seat statuses.
type Event struct {
	ID          uuid.UUID   `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Name        string      `json:"name" gorm:"not null;size:255"`
	Description string      `json:"description" gorm:"type:text"`
	Venue       string      `json:"venue" gorm:"not null;size:255"`
	StartTime   time.Time   `json:"start_time" gorm:"not null;index"`
	Status      EventStatus `json:"status" gorm:"type:varchar(20);default:'draft'"`

	SeatingMap    layout.SeatingMap `json:"seating_map" gorm:"type:jsonb;not null"`
	TotalSeats    int               `json:"total_seats" gorm:"not null;check:total_seats > 0"`
	TotalSections int               `json:"total_sections" gorm:"not null"`

	CreatedBy uuid.UUID `json:"created_by" gorm:"type:uuid;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for Event
func (Event) TableName() string {
	return "events"
}

// TicketTypeInput defines one pricing tier at event creation
type TicketTypeInput struct {
	Name  string  `json:"name" validate:"required,min=1,max=100"`
	Role  string  `json:"role" validate:"omitempty,oneof=PREMIUM STANDARD ECONOMY"`
	Price float64 `json:"price" validate:"required,min=0"`
	Color string  `json:"color" validate:"omitempty,max=20"`
}

// CreateEventRequest creates an event. A caller-supplied seating map is
// persisted untouched when it validates; otherwise the server generates
// one from the archetype and seat counts.
type CreateEventRequest struct {
	Name        string    `json:"name" validate:"required,min=3,max=255"`
	Description string    `json:"description" validate:"max=2000"`
	Venue       string    `json:"venue" validate:"required,min=3,max=255"`
	StartTime   time.Time `json:"start_time" validate:"required"`

	Archetype     string             `json:"archetype" validate:"omitempty,max=50"`
	TotalSeats    int                `json:"total_seats" validate:"required_without=SeatingMap,omitempty,min=1,max=100000"`
	TotalSections int                `json:"total_sections" validate:"required_without=SeatingMap,omitempty,min=1,max=200"`
	SeatingMap    *layout.SeatingMap `json:"seating_map"`

	TicketTypes []TicketTypeInput `json:"ticket_types" validate:"required,min=1,max=10,dive"`
	Publish     bool              `json:"publish"`
}

// PreviewLayoutRequest generates a seating map without persisting anything
type PreviewLayoutRequest struct {
	Archetype     string            `json:"archetype" validate:"omitempty,max=50"`
	TotalSeats    int               `json:"total_seats" validate:"required,min=1,max=100000"`
	TotalSections int               `json:"total_sections" validate:"required,min=1,max=200"`
	TicketTypes   []TicketTypeInput `json:"ticket_types" validate:"required,min=1,max=10,dive"`
}

// EventListQuery filters and paginates the event listing
type EventListQuery struct {
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Search string `form:"search"`
	Venue  string `form:"venue"`
	Status string `form:"status" binding:"omitempty,oneof=draft published cancelled completed"`
}

// EventResponse is the API shape of an event
type EventResponse struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	Description   string               `json:"description"`
	Venue         string               `json:"venue"`
	StartTime     time.Time            `json:"start_time"`
	Status        EventStatus          `json:"status"`
	LayoutType    layout.LayoutType    `json:"layout_type"`
	TotalSeats    int                  `json:"total_seats"`
	TotalSections int                  `json:"total_sections"`
	TicketTypes   []tickets.TicketType `json:"ticket_types,omitempty"`

	// Availability is the live per-tier seat count, present only while
	// the event's ledger is loaded
	Availability map[string]inventory.TierCounts `json:"availability,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PaginatedEvents pages the event listing
type PaginatedEvents struct {
	Events     []EventResponse `json:"events"`
	TotalCount int64           `json:"total_count"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
}

// ToResponse converts an Event to its API shape
func (e *Event) ToResponse() EventResponse {
	return EventResponse{
		ID:            e.ID.String(),
		Name:          e.Name,
		Description:   e.Description,
		Venue:         e.Venue,
		StartTime:     e.StartTime,
		Status:        e.Status,
		LayoutType:    e.SeatingMap.LayoutType,
		TotalSeats:    e.TotalSeats,
		TotalSections: e.TotalSections,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}
