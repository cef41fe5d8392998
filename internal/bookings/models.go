package bookings

import (
	"time"

	"github.com/google/uuid"
)

// Booking groups the tickets of one checkout under a single payment
type Booking struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	EventID    uuid.UUID `gorm:"type:uuid;index;not null" json:"event_id"`
	HoldID     string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"hold_id"`
	TotalSeats int       `gorm:"not null" json:"total_seats"`
	TotalPrice float64   `gorm:"not null" json:"total_price"`
	Status     Status    `gorm:"type:varchar(20);check:status IN ('PENDING', 'CONFIRMED', 'CANCELLED');default:'PENDING'" json:"status"`
	BookingRef string    `gorm:"unique;not null" json:"booking_ref"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	Payments []Payment `json:"payments,omitempty" gorm:"foreignKey:BookingID;constraint:OnDelete:RESTRICT;"`
}

// Payment tracks one charge or refund against a booking
type Payment struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BookingID     uuid.UUID  `gorm:"type:uuid;index;not null" json:"booking_id"`
	Amount        float64    `gorm:"not null" json:"amount"`
	Currency      string     `gorm:"type:varchar(3);default:'USD'" json:"currency"`
	Status        string     `gorm:"type:varchar(20);check:status IN ('PENDING', 'COMPLETED', 'FAILED', 'REFUNDED');default:'PENDING'" json:"status"`
	PaymentMethod string     `gorm:"type:varchar(50)" json:"payment_method"`
	TransactionID string     `gorm:"unique" json:"transaction_id"`
	TicketID      *uuid.UUID `gorm:"type:uuid" json:"ticket_id,omitempty"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	FailureReason string     `json:"failure_reason,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	Booking *Booking `json:"booking,omitempty" gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE;"`
}

// TableName sets the table name for Booking
func (Booking) TableName() string {
	return "bookings"
}

// TableName sets the table name for Payment
func (Payment) TableName() string {
	return "payments"
}

// Helper methods for booking management

func (b *Booking) IsConfirmed() bool {
	return b.Status == StatusConfirmed
}

func (b *Booking) IsCancelled() bool {
	return b.Status == StatusCancelled
}

func (b *Booking) Confirm() {
	now := time.Now()
	b.Status = StatusConfirmed
	b.ConfirmedAt = &now
	b.UpdatedAt = now
}

func (b *Booking) Cancel() {
	now := time.Now()
	b.Status = StatusCancelled
	b.CancelledAt = &now
	b.UpdatedAt = now
}

// Helper methods for payment management

func (p *Payment) IsPending() bool {
	return p.Status == PaymentPending
}

func (p *Payment) IsCompleted() bool {
	return p.Status == PaymentCompleted
}

func (p *Payment) MarkCompleted() {
	now := time.Now()
	p.Status = PaymentCompleted
	p.ProcessedAt = &now
	p.UpdatedAt = now
}

func (p *Payment) MarkRefunded() {
	now := time.Now()
	p.Status = PaymentRefunded
	p.ProcessedAt = &now
	p.UpdatedAt = now
}

func (p *Payment) MarkFailed(reason string) {
	now := time.Now()
	p.Status = PaymentFailed
	p.FailureReason = reason
	p.ProcessedAt = &now
	p.UpdatedAt = now
}

// PaymentInfo is the API shape of a payment
type PaymentInfo struct {
	ID            string     `json:"id"`
	Amount        float64    `json:"amount"`
	Currency      string     `json:"currency"`
	Status        string     `json:"status"`
	PaymentMethod string     `json:"payment_method"`
	TransactionID string     `json:"transaction_id"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
}

// ToPaymentInfo converts a Payment to its API shape
func (p *Payment) ToPaymentInfo() PaymentInfo {
	return PaymentInfo{
		ID:            p.ID.String(),
		Amount:        p.Amount,
		Currency:      p.Currency,
		Status:        p.Status,
		PaymentMethod: p.PaymentMethod,
		TransactionID: p.TransactionID,
		ProcessedAt:   p.ProcessedAt,
	}
}
