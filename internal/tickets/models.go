package tickets

import (
	"time"

	"seatwave/internal/layout"

	"github.com/google/uuid"
)

// TicketType is one pricing tier of an event. Sections reference it by
// name through their ticketTier field.
type TicketType struct {
	ID      uuid.UUID       `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	EventID uuid.UUID       `json:"event_id" gorm:"type:uuid;not null;index"`
	Name    string          `json:"name" gorm:"not null;size:100"`
	Role    layout.TierRole `json:"role" gorm:"type:varchar(20);default:'STANDARD'"`
	Price   float64         `json:"price" gorm:"not null;check:price >= 0"`
	Color   string          `json:"color" gorm:"size:20"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (TicketType) TableName() string {
	return "ticket_types"
}

// Ref converts the tier to its layout representation for generation
func (tt *TicketType) Ref() layout.TicketTypeRef {
	return layout.TicketTypeRef{Name: tt.Name, Role: tt.Role}
}

// Ticket is one seat of one booking. A ticket is PENDING while the
// booking awaits payment, ACTIVE once paid, and terminal after a return
// or cancellation.
type Ticket struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	BookingID    uuid.UUID `json:"booking_id" gorm:"type:uuid;not null"`
	EventID      uuid.UUID `json:"event_id" gorm:"type:uuid;not null;index"`
	UserID       uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	TicketTypeID uuid.UUID `json:"ticket_type_id" gorm:"type:uuid;not null"`

	Section    string `json:"section" gorm:"not null;size:100"`
	RowName    string `json:"row" gorm:"not null;size:10"`
	SeatNumber string `json:"seat_number" gorm:"not null;size:10"`

	Price  float64      `json:"price" gorm:"not null;check:price >= 0"`
	Status TicketStatus `json:"status" gorm:"type:varchar(20);default:'PENDING'"`

	QRToken string     `json:"qr_token" gorm:"uniqueIndex;not null;size:128"`
	IsUsed  bool       `json:"is_used" gorm:"default:false"`
	UsedAt  *time.Time `json:"used_at"`

	IssuedAt   *time.Time `json:"issued_at"`
	ReturnedAt *time.Time `json:"returned_at"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Ticket) TableName() string {
	return "tickets"
}

// SeatRef returns the seat this ticket covers
func (t *Ticket) SeatRef() layout.SeatRef {
	return layout.SeatRef{Section: t.Section, Row: t.RowName, SeatNumber: t.SeatNumber}
}

// TicketResponse is the API shape of a ticket
type TicketResponse struct {
	ID         string       `json:"id"`
	BookingID  string       `json:"booking_id"`
	EventID    string       `json:"event_id"`
	TicketType string       `json:"ticket_type"`
	Section    string       `json:"section"`
	Row        string       `json:"row"`
	SeatNumber string       `json:"seat_number"`
	Price      float64      `json:"price"`
	Status     TicketStatus `json:"status"`
	QRToken    string       `json:"qr_token,omitempty"`
	IsUsed     bool         `json:"is_used"`
	UsedAt     *time.Time   `json:"used_at,omitempty"`
	ReturnedAt *time.Time   `json:"returned_at,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}

// ToResponse converts a Ticket to its API shape. The QR token is only
// included when includeQR is set, so listings never leak scannable tokens.
func (t *Ticket) ToResponse(includeQR bool) TicketResponse {
	resp := TicketResponse{
		ID:         t.ID.String(),
		BookingID:  t.BookingID.String(),
		EventID:    t.EventID.String(),
		Section:    t.Section,
		Row:        t.RowName,
		SeatNumber: t.SeatNumber,
		Price:      t.Price,
		Status:     t.Status,
		IsUsed:     t.IsUsed,
		UsedAt:     t.UsedAt,
		ReturnedAt: t.ReturnedAt,
		CreatedAt:  t.CreatedAt,
	}
	if includeQR {
		resp.QRToken = t.QRToken
	}
	return resp
}

// ReturnResult reports the outcome of a ticket return
type ReturnResult struct {
	TicketID     string    `json:"ticket_id"`
	RefundAmount float64   `json:"refund_amount"`
	RefundRate   float64   `json:"refund_rate"`
	ReturnedAt   time.Time `json:"returned_at"`
}
