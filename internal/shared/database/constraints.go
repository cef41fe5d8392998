package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds database constraints the auto-migration cannot
// express. The partial unique index is the persistence-level backstop for
// seat exclusivity: at most one live ticket per physical seat per event.
func MigrateConstraints(db *gorm.DB) error {
	err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS unique_live_ticket_per_seat
		ON tickets (event_id, section, row_name, seat_number)
		WHERE status IN ('PENDING', 'ACTIVE');
	`).Error
	if err != nil {
		return err
	}

	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_tickets_booking_id
		ON tickets (booking_id);
	`).Error
	if err != nil {
		return err
	}

	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bookings_event_id
		ON bookings (event_id);
	`).Error
	if err != nil {
		return err
	}

	return nil
}
