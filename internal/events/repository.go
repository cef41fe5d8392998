package events

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"seatwave/internal/layout"
)

type Repository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*Event, error)
	GetAll(ctx context.Context, query EventListQuery) ([]Event, int64, error)
	GetUpcoming(ctx context.Context, limit int) ([]Event, error)
	GetOnSale(ctx context.Context) ([]Event, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status EventStatus) error
	UpdateSeatingMap(ctx context.Context, id uuid.UUID, m *layout.SeatingMap) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, event *Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	var event Event
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *repository) GetAll(ctx context.Context, query EventListQuery) ([]Event, int64, error) {
	var events []Event
	var totalCount int64

	db := r.db.WithContext(ctx).Model(&Event{})

	if query.Search != "" {
		searchTerm := "%" + strings.ToLower(query.Search) + "%"
		db = db.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", searchTerm, searchTerm)
	}
	if query.Venue != "" {
		db = db.Where("LOWER(venue) LIKE ?", "%"+strings.ToLower(query.Venue)+"%")
	}
	if query.Status != "" {
		db = db.Where("status = ?", query.Status)
	}

	if err := db.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	offset := (query.Page - 1) * query.Limit
	err := db.Order("start_time ASC").Offset(offset).Limit(query.Limit).Find(&events).Error
	if err != nil {
		return nil, 0, err
	}
	return events, totalCount, nil
}

func (r *repository) GetUpcoming(ctx context.Context, limit int) ([]Event, error) {
	var events []Event
	err := r.db.WithContext(ctx).
		Where("status = ? AND start_time > ?", StatusPublished, time.Now()).
		Order("start_time ASC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

// GetOnSale returns every published event that has not started yet,
// used to rebuild the in-memory seat ledgers on startup.
func (r *repository) GetOnSale(ctx context.Context) ([]Event, error) {
	var events []Event
	err := r.db.WithContext(ctx).
		Where("status = ? AND start_time > ?", StatusPublished, time.Now()).
		Find(&events).Error
	return events, err
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status EventStatus) error {
	result := r.db.WithContext(ctx).Model(&Event{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEventNotFound
	}
	return nil
}

// UpdateSeatingMap persists a seat-state snapshot back into the JSONB column
func (r *repository) UpdateSeatingMap(ctx context.Context, id uuid.UUID, m *layout.SeatingMap) error {
	result := r.db.WithContext(ctx).Model(&Event{}).
		Where("id = ?", id).
		Update("seating_map", m)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEventNotFound
	}
	return nil
}
