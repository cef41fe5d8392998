package database

import (
	"seatwave/internal/bookings"
	"seatwave/internal/events"
	"seatwave/internal/tickets"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&events.Event{},
		&tickets.TicketType{},
		&tickets.Ticket{},
		&bookings.Booking{},
		&bookings.Payment{},
	)
}
