package tickets

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	CreateTicketTypes(types []TicketType) error
	GetTicketTypesByEvent(eventID uuid.UUID) ([]TicketType, error)
	GetTicketTypeByName(eventID uuid.UUID, name string) (*TicketType, error)

	CreateBatch(tx *gorm.DB, tickets []Ticket) error
	GetByID(id uuid.UUID) (*Ticket, error)
	GetByQRToken(token string) (*Ticket, error)
	GetByBooking(bookingID uuid.UUID) ([]Ticket, error)
	GetByUser(userID uuid.UUID) ([]Ticket, error)
	Save(ticket *Ticket) error
	UpdateStatusForBooking(bookingID uuid.UUID, from, to TicketStatus) error
	MarkUsed(id uuid.UUID, at time.Time) (bool, error)
	MarkReturned(id uuid.UUID, at time.Time) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateTicketTypes(types []TicketType) error {
	return r.db.Create(&types).Error
}

func (r *repository) GetTicketTypesByEvent(eventID uuid.UUID) ([]TicketType, error) {
	var types []TicketType
	err := r.db.Where("event_id = ?", eventID).Order("price DESC").Find(&types).Error
	return types, err
}

func (r *repository) GetTicketTypeByName(eventID uuid.UUID, name string) (*TicketType, error) {
	var tt TicketType
	err := r.db.Where("event_id = ? AND name = ?", eventID, name).First(&tt).Error
	if err != nil {
		return nil, err
	}
	return &tt, nil
}

// CreateBatch inserts tickets inside the caller's transaction so the
// booking row and its tickets commit or roll back together.
func (r *repository) CreateBatch(tx *gorm.DB, tickets []Ticket) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Create(&tickets).Error
}

func (r *repository) GetByID(id uuid.UUID) (*Ticket, error) {
	var ticket Ticket
	err := r.db.Where("id = ?", id).First(&ticket).Error
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *repository) GetByQRToken(token string) (*Ticket, error) {
	var ticket Ticket
	err := r.db.Where("qr_token = ?", token).First(&ticket).Error
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *repository) GetByBooking(bookingID uuid.UUID) ([]Ticket, error) {
	var list []Ticket
	err := r.db.Where("booking_id = ?", bookingID).
		Order("section, row_name, seat_number").
		Find(&list).Error
	return list, err
}

func (r *repository) GetByUser(userID uuid.UUID) ([]Ticket, error) {
	var list []Ticket
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *repository) Save(ticket *Ticket) error {
	return r.db.Save(ticket).Error
}

func (r *repository) UpdateStatusForBooking(bookingID uuid.UUID, from, to TicketStatus) error {
	return r.db.Model(&Ticket{}).
		Where("booking_id = ? AND status = ?", bookingID, from).
		Update("status", to).Error
}

// MarkUsed admits an ACTIVE unused ticket. The conditional WHERE makes
// the scan atomic, concurrent scans of the same token lose the race.
func (r *repository) MarkUsed(id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.Model(&Ticket{}).
		Where("id = ? AND status = ? AND is_used = false", id, StatusActive).
		Updates(map[string]interface{}{"is_used": true, "used_at": at})
	return res.RowsAffected == 1, res.Error
}

// MarkReturned transitions an ACTIVE unused ticket to RETURNED, guarded
// the same way so a return cannot race a gate scan or another return.
func (r *repository) MarkReturned(id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.Model(&Ticket{}).
		Where("id = ? AND status = ? AND is_used = false", id, StatusActive).
		Updates(map[string]interface{}{"status": StatusReturned, "returned_at": at})
	return res.RowsAffected == 1, res.Error
}
