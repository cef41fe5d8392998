package bookings

import (
	"time"

	"seatwave/internal/tickets"
)

// HeldSeatInfo describes one seat inside a hold response
type HeldSeatInfo struct {
	Section    string  `json:"section"`
	Row        string  `json:"row"`
	SeatNumber string  `json:"seat_number"`
	TicketType string  `json:"ticket_type"`
	Price      float64 `json:"price"`
}

// HoldResponse is returned when seats are held. The booking already
// exists in PENDING state with its tickets minted, so the caller pays
// against the booking ID before the hold expires.
type HoldResponse struct {
	BookingID  string         `json:"booking_id"`
	BookingRef string         `json:"booking_ref"`
	HoldID     string         `json:"hold_id"`
	EventID    string         `json:"event_id"`
	Seats      []HeldSeatInfo `json:"seats"`
	TotalPrice float64        `json:"total_price"`
	ExpiresAt  time.Time      `json:"expires_at"`
}

// BookingResponse is the API shape of a booking
type BookingResponse struct {
	ID          string                   `json:"id"`
	BookingRef  string                   `json:"booking_ref"`
	EventID     string                   `json:"event_id"`
	Status      Status                   `json:"status"`
	TotalSeats  int                      `json:"total_seats"`
	TotalPrice  float64                  `json:"total_price"`
	Tickets     []tickets.TicketResponse `json:"tickets,omitempty"`
	Payments    []PaymentInfo            `json:"payments,omitempty"`
	CreatedAt   time.Time                `json:"created_at"`
	ConfirmedAt *time.Time               `json:"confirmed_at,omitempty"`
	CancelledAt *time.Time               `json:"cancelled_at,omitempty"`
}

// PaginatedBookings pages a user's booking history
type PaginatedBookings struct {
	Bookings   []BookingResponse `json:"bookings"`
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
}

// ToResponse converts a Booking to its API shape
func (b *Booking) ToResponse() BookingResponse {
	resp := BookingResponse{
		ID:          b.ID.String(),
		BookingRef:  b.BookingRef,
		EventID:     b.EventID.String(),
		Status:      b.Status,
		TotalSeats:  b.TotalSeats,
		TotalPrice:  b.TotalPrice,
		CreatedAt:   b.CreatedAt,
		ConfirmedAt: b.ConfirmedAt,
		CancelledAt: b.CancelledAt,
	}
	for i := range b.Payments {
		resp.Payments = append(resp.Payments, b.Payments[i].ToPaymentInfo())
	}
	return resp
}
