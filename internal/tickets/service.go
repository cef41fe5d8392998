package tickets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"seatwave/internal/layout"
	"seatwave/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventSchedule exposes the event start time the return window is
// measured against. Implemented by the events service.
type EventSchedule interface {
	StartTime(ctx context.Context, eventID uuid.UUID) (time.Time, error)
}

// SeatReleaser puts returned seats back on sale. Implemented by the
// inventory registry.
type SeatReleaser interface {
	ReleaseSoldSeats(ctx context.Context, eventID string, seats []layout.SeatRef) error
}

// RefundRecorder records the refund transaction produced by a return.
// Implemented by the bookings service.
type RefundRecorder interface {
	RecordRefund(ctx context.Context, bookingID, ticketID uuid.UUID, amount float64) error
}

// Config carries the return policy and QR signing secret
type Config struct {
	ReturnWindow     time.Duration
	ReturnRefundRate float64
	QRSecret         string
}

// IssuedSeat describes one seat of a booking being ticketed
type IssuedSeat struct {
	Ref          layout.SeatRef
	TicketTypeID uuid.UUID
	Price        float64
}

// IssueRequest materializes tickets for one booking
type IssueRequest struct {
	BookingID uuid.UUID
	EventID   uuid.UUID
	UserID    uuid.UUID
	Seats     []IssuedSeat
}

type Service interface {
	CreateTicketTypes(ctx context.Context, types []TicketType) ([]TicketType, error)
	TicketTypesForEvent(ctx context.Context, eventID uuid.UUID) ([]TicketType, error)
	TierRefsForEvent(ctx context.Context, eventID uuid.UUID) ([]layout.TicketTypeRef, error)

	IssueForBooking(tx *gorm.DB, req IssueRequest) ([]Ticket, error)
	ActivateForBooking(ctx context.Context, bookingID uuid.UUID) error
	CancelForBooking(ctx context.Context, bookingID uuid.UUID) error

	GetTicket(ctx context.Context, ticketID, userID uuid.UUID, isAdmin bool) (*TicketResponse, error)
	ListUserTickets(ctx context.Context, userID uuid.UUID) ([]TicketResponse, error)
	ListBookingTickets(ctx context.Context, bookingID uuid.UUID) ([]TicketResponse, error)
	ReturnTicket(ctx context.Context, ticketID, userID uuid.UUID) (*ReturnResult, error)
	VerifyEntry(ctx context.Context, qrToken string, eventID uuid.UUID) (*TicketResponse, error)
}

type service struct {
	repo     Repository
	schedule EventSchedule
	releaser SeatReleaser
	refunds  RefundRecorder
	config   Config
	log      *logger.Logger
}

func NewService(repo Repository, schedule EventSchedule, releaser SeatReleaser, refunds RefundRecorder, config Config, log *logger.Logger) Service {
	if log == nil {
		log = logger.GetDefault()
	}
	return &service{
		repo:     repo,
		schedule: schedule,
		releaser: releaser,
		refunds:  refunds,
		config:   config,
		log:      log,
	}
}

func (s *service) CreateTicketTypes(ctx context.Context, types []TicketType) ([]TicketType, error) {
	for i := range types {
		if types[i].Name == "" {
			return nil, fmt.Errorf("ticket type %d has no name", i)
		}
		if !types[i].Role.IsValid() {
			types[i].Role = layout.RoleStandard
		}
	}
	if err := s.repo.CreateTicketTypes(types); err != nil {
		return nil, fmt.Errorf("failed to create ticket types: %w", err)
	}
	return types, nil
}

func (s *service) TicketTypesForEvent(ctx context.Context, eventID uuid.UUID) ([]TicketType, error) {
	return s.repo.GetTicketTypesByEvent(eventID)
}

// TierRefsForEvent returns the tiers in generation form, highest price
// first so premium placement picks the most expensive type.
func (s *service) TierRefsForEvent(ctx context.Context, eventID uuid.UUID) ([]layout.TicketTypeRef, error) {
	types, err := s.repo.GetTicketTypesByEvent(eventID)
	if err != nil {
		return nil, err
	}
	refs := make([]layout.TicketTypeRef, 0, len(types))
	for i := range types {
		refs = append(refs, types[i].Ref())
	}
	return refs, nil
}

// IssueForBooking creates the PENDING tickets for a booking's seats
// inside the booking transaction. The partial unique index on live
// tickets makes this the persistence-level seat exclusivity check.
func (s *service) IssueForBooking(tx *gorm.DB, req IssueRequest) ([]Ticket, error) {
	if len(req.Seats) == 0 {
		return nil, fmt.Errorf("booking %s has no seats to ticket", req.BookingID)
	}

	list := make([]Ticket, 0, len(req.Seats))
	for _, seat := range req.Seats {
		id := uuid.New()
		list = append(list, Ticket{
			ID:           id,
			BookingID:    req.BookingID,
			EventID:      req.EventID,
			UserID:       req.UserID,
			TicketTypeID: seat.TicketTypeID,
			Section:      seat.Ref.Section,
			RowName:      seat.Ref.Row,
			SeatNumber:   seat.Ref.SeatNumber,
			Price:        seat.Price,
			Status:       StatusPending,
			QRToken:      GenerateQRToken(id, s.config.QRSecret),
		})
	}

	if err := s.repo.CreateBatch(tx, list); err != nil {
		return nil, fmt.Errorf("failed to issue tickets: %w", err)
	}
	return list, nil
}

func (s *service) ActivateForBooking(ctx context.Context, bookingID uuid.UUID) error {
	if err := s.repo.UpdateStatusForBooking(bookingID, StatusPending, StatusActive); err != nil {
		return fmt.Errorf("failed to activate tickets for booking %s: %w", bookingID, err)
	}
	s.log.LogTicketTransition(ctx, bookingID.String(), string(StatusPending), string(StatusActive))
	return nil
}

func (s *service) CancelForBooking(ctx context.Context, bookingID uuid.UUID) error {
	if err := s.repo.UpdateStatusForBooking(bookingID, StatusPending, StatusCancelled); err != nil {
		return fmt.Errorf("failed to cancel tickets for booking %s: %w", bookingID, err)
	}
	s.log.LogTicketTransition(ctx, bookingID.String(), string(StatusPending), string(StatusCancelled))
	return nil
}

func (s *service) GetTicket(ctx context.Context, ticketID, userID uuid.UUID, isAdmin bool) (*TicketResponse, error) {
	ticket, err := s.repo.GetByID(ticketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	if !isAdmin && ticket.UserID != userID {
		return nil, ErrNotTicketOwner
	}

	resp := ticket.ToResponse(ticket.UserID == userID)
	return &resp, nil
}

func (s *service) ListUserTickets(ctx context.Context, userID uuid.UUID) ([]TicketResponse, error) {
	list, err := s.repo.GetByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}

	responses := make([]TicketResponse, 0, len(list))
	for i := range list {
		responses = append(responses, list[i].ToResponse(false))
	}
	return responses, nil
}

func (s *service) ListBookingTickets(ctx context.Context, bookingID uuid.UUID) ([]TicketResponse, error) {
	list, err := s.repo.GetByBooking(bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list booking tickets: %w", err)
	}

	responses := make([]TicketResponse, 0, len(list))
	for i := range list {
		responses = append(responses, list[i].ToResponse(true))
	}
	return responses, nil
}

// ReturnTicket processes a voluntary return: the return window must still
// be open, the partial refund is recorded, and the seat goes back on sale.
func (s *service) ReturnTicket(ctx context.Context, ticketID, userID uuid.UUID) (*ReturnResult, error) {
	ticket, err := s.repo.GetByID(ticketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}

	if ticket.UserID != userID {
		return nil, ErrNotTicketOwner
	}
	if ticket.IsUsed {
		return nil, ErrAlreadyUsed
	}
	if !ticket.Status.CanTransitionTo(StatusReturned) {
		if ticket.Status.IsTerminal() {
			return nil, ErrTicketVoided
		}
		return nil, ErrTicketNotActive
	}

	startTime, err := s.schedule.StartTime(ctx, ticket.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve event schedule: %w", err)
	}
	if time.Until(startTime) < s.config.ReturnWindow {
		return nil, ErrReturnWindowClosed
	}

	now := time.Now().UTC()
	returned, err := s.repo.MarkReturned(ticket.ID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to save returned ticket: %w", err)
	}
	if !returned {
		// A concurrent scan or return got there first, re-read for the
		// precise rejection.
		fresh, readErr := s.repo.GetByID(ticket.ID)
		if readErr != nil {
			return nil, fmt.Errorf("failed to get ticket: %w", readErr)
		}
		if fresh.IsUsed {
			return nil, ErrAlreadyUsed
		}
		if fresh.Status.IsTerminal() {
			return nil, ErrTicketVoided
		}
		return nil, ErrTicketNotActive
	}
	ticket.Status = StatusReturned
	ticket.ReturnedAt = &now

	refund := ticket.Price * s.config.ReturnRefundRate
	if s.refunds != nil {
		if err := s.refunds.RecordRefund(ctx, ticket.BookingID, ticket.ID, refund); err != nil {
			s.log.WithError(err).Error("failed to record refund", "ticket_id", ticket.ID.String())
		}
	}

	if err := s.releaser.ReleaseSoldSeats(ctx, ticket.EventID.String(), []layout.SeatRef{ticket.SeatRef()}); err != nil {
		s.log.WithError(err).Error("failed to release returned seat",
			"ticket_id", ticket.ID.String(), "seat", ticket.SeatRef().String())
	}

	s.log.LogTicketTransition(ctx, ticket.ID.String(), string(StatusActive), string(StatusReturned))

	return &ReturnResult{
		TicketID:     ticket.ID.String(),
		RefundAmount: refund,
		RefundRate:   s.config.ReturnRefundRate,
		ReturnedAt:   now,
	}, nil
}

// VerifyEntry validates a QR token at the gate and consumes it. A ticket
// admits exactly once, and only at the event it was sold for.
func (s *service) VerifyEntry(ctx context.Context, qrToken string, eventID uuid.UUID) (*TicketResponse, error) {
	ticket, err := s.repo.GetByQRToken(qrToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to look up ticket: %w", err)
	}
	if ticket.EventID != eventID {
		return nil, ErrTicketNotFound
	}

	switch {
	case ticket.Status.IsTerminal():
		return nil, ErrTicketVoided
	case ticket.Status != StatusActive:
		return nil, ErrTicketNotActive
	case ticket.IsUsed:
		return nil, ErrAlreadyUsed
	}

	now := time.Now().UTC()
	admitted, err := s.repo.MarkUsed(ticket.ID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to mark ticket used: %w", err)
	}
	if !admitted {
		// lost the race to a concurrent scan of the same token
		return nil, ErrAlreadyUsed
	}
	ticket.IsUsed = true
	ticket.UsedAt = &now

	s.log.InfoWithContext(ctx, "Ticket admitted", map[string]interface{}{
		"ticket_id": ticket.ID.String(),
		"event_id":  ticket.EventID.String(),
		"seat":      ticket.SeatRef().String(),
	})

	resp := ticket.ToResponse(false)
	return &resp, nil
}
