package bookings

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"seatwave/internal/inventory"
	"seatwave/internal/layout"
	"seatwave/internal/tickets"
	"seatwave/pkg/logger"
)

// PricedSeat is one held seat resolved to its ticket type and price
type PricedSeat struct {
	Ref            layout.SeatRef
	TicketTypeID   uuid.UUID
	TicketTypeName string
	Price          float64
}

// SeatPricer resolves held seats to prices, implemented by the events
// service from the persisted seating map and ticket types.
type SeatPricer interface {
	PriceSeats(ctx context.Context, eventID uuid.UUID, seats []layout.SeatRef) ([]PricedSeat, error)
}

// Inventory is the slice of the seat registry bookings needs.
// *inventory.Registry satisfies it.
type Inventory interface {
	HoldSeats(ctx context.Context, eventID, holderID string, seats []layout.SeatRef) (*inventory.Hold, error)
	HoldBestAvailable(ctx context.Context, eventID, holderID, tier string, quantity int) (*inventory.Hold, error)
	CommitHold(ctx context.Context, eventID, holdID string) ([]layout.SeatRef, error)
	ReleaseHold(ctx context.Context, eventID, holdID string) error
	ReleaseSoldSeats(ctx context.Context, eventID string, seats []layout.SeatRef) error
	GetHold(eventID, holdID string) (inventory.Hold, error)
}

// PaymentProcessor charges a pending payment. The default processor is
// a mock gateway that always succeeds after a short delay.
type PaymentProcessor func(ctx context.Context, payment *Payment) error

type Service interface {
	HoldSeats(ctx context.Context, userID uuid.UUID, req HoldSeatsRequest) (*HoldResponse, error)
	ConfirmBooking(ctx context.Context, userID uuid.UUID, req ConfirmBookingRequest) (*BookingResponse, error)
	ReleaseHold(ctx context.Context, userID uuid.UUID, req ReleaseHoldRequest) error
	PaymentCallback(ctx context.Context, req PaymentCallbackRequest) (*BookingResponse, error)
	GetBooking(ctx context.Context, bookingID, userID uuid.UUID) (*BookingResponse, error)
	GetUserBookings(ctx context.Context, userID uuid.UUID, query BookingListQuery) (*PaginatedBookings, error)
	CancelBooking(ctx context.Context, bookingID, userID uuid.UUID) (*BookingResponse, error)

	// ExpireHold cancels the pending checkout whose hold the sweeper
	// reclaimed
	ExpireHold(ctx context.Context, eventID, holdID string) error

	// RecordRefund satisfies tickets.RefundRecorder
	RecordRefund(ctx context.Context, bookingID, ticketID uuid.UUID, amount float64) error
}

type service struct {
	repo      Repository
	seats     Inventory
	pricer    SeatPricer
	tickets   tickets.Service
	publisher Publisher
	processor PaymentProcessor
	log       *logger.Logger
}

func NewService(repo Repository, seats Inventory, pricer SeatPricer, ticketSvc tickets.Service, publisher Publisher, log *logger.Logger) Service {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	if log == nil {
		log = logger.GetDefault()
	}
	return &service{
		repo:      repo,
		seats:     seats,
		pricer:    pricer,
		tickets:   ticketSvc,
		publisher: publisher,
		processor: mockPaymentGateway,
		log:       log,
	}
}

// HoldSeats takes an all-or-nothing hold on explicit seats, or on the
// best available seats of a tier when the request carries a quantity,
// and mints the pending booking with its tickets in one transaction.
func (s *service) HoldSeats(ctx context.Context, userID uuid.UUID, req HoldSeatsRequest) (*HoldResponse, error) {
	explicit := len(req.Seats) > 0
	byTier := req.Quantity > 0
	if explicit == byTier {
		return nil, ErrSeatsOrQuantity
	}

	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		return nil, fmt.Errorf("invalid event id: %w", err)
	}

	var hold *inventory.Hold
	if explicit {
		refs := make([]layout.SeatRef, 0, len(req.Seats))
		for _, sel := range req.Seats {
			refs = append(refs, layout.SeatRef{
				Section:    sel.Section,
				Row:        sel.Row,
				SeatNumber: sel.SeatNumber,
			})
		}
		hold, err = s.seats.HoldSeats(ctx, req.EventID, userID.String(), refs)
	} else {
		hold, err = s.seats.HoldBestAvailable(ctx, req.EventID, userID.String(), req.Tier, req.Quantity)
	}
	if err != nil {
		return nil, err
	}

	priced, err := s.pricer.PriceSeats(ctx, eventID, hold.Seats)
	if err != nil {
		// Pricing failure leaves the seats held until the sweeper
		// collects them, so release eagerly.
		if relErr := s.seats.ReleaseHold(ctx, req.EventID, hold.ID); relErr != nil {
			s.log.WithError(relErr).Warn("failed to release hold after pricing error", "hold_id", hold.ID)
		}
		return nil, fmt.Errorf("failed to price held seats: %w", err)
	}

	var total float64
	issued := make([]tickets.IssuedSeat, 0, len(priced))
	for _, seat := range priced {
		total += seat.Price
		issued = append(issued, tickets.IssuedSeat{
			Ref:          seat.Ref,
			TicketTypeID: seat.TicketTypeID,
			Price:        seat.Price,
		})
	}

	booking := &Booking{
		ID:         uuid.New(),
		UserID:     userID,
		EventID:    eventID,
		HoldID:     hold.ID,
		TotalSeats: len(hold.Seats),
		TotalPrice: total,
		Status:     StatusPending,
		BookingRef: generateBookingReference(),
	}
	err = s.repo.CreateBooking(ctx, booking, func(tx *gorm.DB) error {
		_, issueErr := s.tickets.IssueForBooking(tx, tickets.IssueRequest{
			BookingID: booking.ID,
			EventID:   eventID,
			UserID:    userID,
			Seats:     issued,
		})
		return issueErr
	})
	if err != nil {
		// The hold is live but the checkout is dead, free the seats
		// instead of waiting for expiry.
		if relErr := s.seats.ReleaseHold(ctx, req.EventID, hold.ID); relErr != nil {
			s.log.WithError(relErr).Warn("failed to release hold after booking failure", "hold_id", hold.ID)
		}
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}
	s.log.LogBookingCreated(ctx, booking.ID.String(), req.EventID, userID.String())

	resp := &HoldResponse{
		BookingID:  booking.ID.String(),
		BookingRef: booking.BookingRef,
		HoldID:     hold.ID,
		EventID:    hold.EventID,
		ExpiresAt:  hold.ExpiresAt,
	}
	for _, seat := range priced {
		resp.Seats = append(resp.Seats, HeldSeatInfo{
			Section:    seat.Ref.Section,
			Row:        seat.Ref.Row,
			SeatNumber: seat.Ref.SeatNumber,
			TicketType: seat.TicketTypeName,
			Price:      seat.Price,
		})
		resp.TotalPrice += seat.Price
	}
	return resp, nil
}

// ConfirmBooking pays for a pending booking and activates its tickets.
// Retrying a confirmed booking returns it as-is instead of charging
// twice.
func (s *service) ConfirmBooking(ctx context.Context, userID uuid.UUID, req ConfirmBookingRequest) (*BookingResponse, error) {
	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		return nil, fmt.Errorf("invalid booking id: %w", err)
	}
	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, ErrNotBookingOwner
	}

	switch booking.Status {
	case StatusConfirmed:
		return s.attachTickets(ctx, booking)
	case StatusCancelled:
		return nil, ErrAlreadyCancelled
	}

	// Charging a dead hold would take money for seats already back on
	// sale. Cancel the checkout instead.
	if _, holdErr := s.seats.GetHold(booking.EventID.String(), booking.HoldID); holdErr != nil {
		if cancelErr := s.cancelPending(ctx, booking); cancelErr != nil {
			s.log.WithError(cancelErr).Error("failed to cancel expired checkout", "booking_id", booking.ID.String())
		}
		return nil, holdErr
	}

	// Claim the checkout so a concurrent confirm of the same booking
	// cannot create a second charge.
	booking.Confirm()
	claimed, err := s.repo.TransitionStatus(ctx, booking.ID, StatusPending, StatusConfirmed, booking.ConfirmedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to claim booking: %w", err)
	}
	if !claimed {
		fresh, err := s.repo.GetBookingByID(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		if fresh.Status == StatusCancelled {
			return nil, ErrAlreadyCancelled
		}
		return s.attachTickets(ctx, fresh)
	}

	payment := &Payment{
		ID:            uuid.New(),
		BookingID:     booking.ID,
		Amount:        booking.TotalPrice,
		Currency:      "USD",
		Status:        PaymentPending,
		PaymentMethod: req.PaymentMethod,
		TransactionID: generateTransactionID(),
	}
	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	if payErr := s.processor(ctx, payment); payErr != nil {
		return nil, s.failBooking(ctx, booking, payment, payErr)
	}
	return s.finalizeBooking(ctx, booking, payment)
}

// PaymentCallback is the gateway webhook. Duplicate callbacks are safe:
// a booking already confirmed returns as-is, and CommitHold absorbs the
// retry without double-selling.
func (s *service) PaymentCallback(ctx context.Context, req PaymentCallbackRequest) (*BookingResponse, error) {
	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		return nil, fmt.Errorf("invalid booking id: %w", err)
	}
	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.Status != StatusPending {
		return s.attachTickets(ctx, booking)
	}

	var payment *Payment
	for i := range booking.Payments {
		if booking.Payments[i].TransactionID == req.TransactionID {
			payment = &booking.Payments[i]
			break
		}
	}
	if payment == nil {
		return nil, fmt.Errorf("no payment with transaction %s on booking %s", req.TransactionID, bookingID)
	}

	if req.Status != "success" {
		reason := req.FailureReason
		if reason == "" {
			reason = "payment failed"
		}
		return nil, s.failBooking(ctx, booking, payment, errors.New(reason))
	}

	booking.Confirm()
	claimed, err := s.repo.TransitionStatus(ctx, booking.ID, StatusPending, StatusConfirmed, booking.ConfirmedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to claim booking: %w", err)
	}
	if !claimed {
		fresh, err := s.repo.GetBookingByID(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		return s.attachTickets(ctx, fresh)
	}
	return s.finalizeBooking(ctx, booking, payment)
}

// finalizeBooking flips the seats to SOLD and activates the tickets
// after a successful charge. The caller has already claimed the booking
// CONFIRMED; a materialization failure past the commit releases the
// seats again instead of stranding them sold.
func (s *service) finalizeBooking(ctx context.Context, booking *Booking, payment *Payment) (*BookingResponse, error) {
	eventID := booking.EventID.String()
	seats, err := s.seats.CommitHold(ctx, eventID, booking.HoldID)
	if err != nil {
		return nil, s.failBooking(ctx, booking, payment, err)
	}

	payment.MarkCompleted()
	if err := s.repo.UpdatePayment(ctx, payment); err != nil {
		s.log.WithError(err).Error("failed to mark payment completed", "payment_id", payment.ID.String())
	}
	if err := s.tickets.ActivateForBooking(ctx, booking.ID); err != nil {
		return nil, s.unwindSold(ctx, booking, payment, seats, err)
	}

	s.publish(ctx, booking, EventBookingConfirmed)

	booking.Payments = []Payment{*payment}
	return s.attachTickets(ctx, booking)
}

// unwindSold backs out a checkout whose seats were already committed
// when ticket materialization failed: the seats go back on sale, the
// captured payment is refunded, and the booking is cancelled.
func (s *service) unwindSold(ctx context.Context, booking *Booking, payment *Payment, seats []layout.SeatRef, cause error) error {
	if err := s.seats.ReleaseSoldSeats(ctx, booking.EventID.String(), seats); err != nil {
		s.log.WithError(err).Error("failed to release sold seats", "booking_id", booking.ID.String())
	}
	payment.MarkRefunded()
	if err := s.repo.UpdatePayment(ctx, payment); err != nil {
		s.log.WithError(err).Error("failed to mark payment refunded", "payment_id", payment.ID.String())
	}
	if err := s.tickets.CancelForBooking(ctx, booking.ID); err != nil {
		s.log.WithError(err).Error("failed to cancel tickets", "booking_id", booking.ID.String())
	}
	booking.Cancel()
	if err := s.repo.UpdateBookingStatus(ctx, booking.ID, StatusCancelled, booking.CancelledAt); err != nil {
		s.log.WithError(err).Error("failed to cancel booking", "booking_id", booking.ID.String())
	}
	return fmt.Errorf("checkout failed: %w", cause)
}

// failBooking unwinds a checkout whose payment or commit failed
func (s *service) failBooking(ctx context.Context, booking *Booking, payment *Payment, cause error) error {
	payment.MarkFailed(cause.Error())
	if err := s.repo.UpdatePayment(ctx, payment); err != nil {
		s.log.WithError(err).Error("failed to mark payment failed", "payment_id", payment.ID.String())
	}
	if err := s.cancelPending(ctx, booking); err != nil {
		s.log.WithError(err).Error("failed to unwind booking after payment failure", "booking_id", booking.ID.String())
	}
	return fmt.Errorf("checkout failed: %w", cause)
}

// cancelPending releases the hold, voids the pending tickets, and
// cancels the booking. A hold already swept releases as a no-op.
func (s *service) cancelPending(ctx context.Context, booking *Booking) error {
	if err := s.seats.ReleaseHold(ctx, booking.EventID.String(), booking.HoldID); err != nil && !errors.Is(err, inventory.ErrHoldExpiredOrMissing) {
		s.log.WithError(err).Warn("failed to release hold", "hold_id", booking.HoldID)
	}
	if err := s.tickets.CancelForBooking(ctx, booking.ID); err != nil {
		return err
	}
	booking.Cancel()
	return s.repo.UpdateBookingStatus(ctx, booking.ID, StatusCancelled, booking.CancelledAt)
}

// ReleaseHold abandons a pending checkout before payment
func (s *service) ReleaseHold(ctx context.Context, userID uuid.UUID, req ReleaseHoldRequest) error {
	booking, err := s.repo.GetBookingByHoldID(ctx, req.HoldID)
	if err != nil {
		return err
	}
	if booking.EventID.String() != req.EventID {
		return ErrBookingNotFound
	}
	if booking.UserID != userID {
		return ErrHoldOwnerMismatch
	}
	switch booking.Status {
	case StatusConfirmed:
		return inventory.ErrHoldAlreadyCommitted
	case StatusCancelled:
		return ErrAlreadyCancelled
	}
	return s.cancelPending(ctx, booking)
}

// ExpireHold is the sweeper callback: the ledger seats are already
// released, so only the checkout record and its tickets remain to
// cancel.
func (s *service) ExpireHold(ctx context.Context, eventID, holdID string) error {
	booking, err := s.repo.GetBookingByHoldID(ctx, holdID)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return nil
		}
		return err
	}
	if booking.Status != StatusPending {
		return nil
	}
	if err := s.cancelPending(ctx, booking); err != nil {
		return err
	}
	s.log.LogBookingExpired(ctx, booking.ID.String(), eventID, holdID)
	return nil
}

func (s *service) GetBooking(ctx context.Context, bookingID, userID uuid.UUID) (*BookingResponse, error) {
	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, ErrNotBookingOwner
	}
	return s.attachTickets(ctx, booking)
}

func (s *service) GetUserBookings(ctx context.Context, userID uuid.UUID, query BookingListQuery) (*PaginatedBookings, error) {
	if query.Page == 0 {
		query.Page = 1
	}
	if query.Limit == 0 {
		query.Limit = 20
	}
	list, total, err := s.repo.GetUserBookings(ctx, userID, query)
	if err != nil {
		return nil, err
	}
	resp := &PaginatedBookings{
		Bookings:   make([]BookingResponse, 0, len(list)),
		TotalCount: total,
		Page:       query.Page,
		Limit:      query.Limit,
	}
	for i := range list {
		resp.Bookings = append(resp.Bookings, list[i].ToResponse())
	}
	return resp, nil
}

// CancelBooking cancels a pending checkout outright, or returns every
// ticket of a confirmed booking through the ticket return flow so each
// seat goes back on sale and the partial refund is recorded.
func (s *service) CancelBooking(ctx context.Context, bookingID, userID uuid.UUID) (*BookingResponse, error) {
	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, ErrNotBookingOwner
	}
	if !booking.Status.CanBeCancelled() {
		return nil, ErrAlreadyCancelled
	}

	switch booking.Status {
	case StatusPending:
		if err := s.cancelPending(ctx, booking); err != nil {
			return nil, err
		}
		s.publish(ctx, booking, EventBookingCancelled)
		return s.attachTickets(ctx, booking)
	case StatusConfirmed:
		list, err := s.tickets.ListBookingTickets(ctx, booking.ID)
		if err != nil {
			return nil, err
		}
		for i := range list {
			ticketID, parseErr := uuid.Parse(list[i].ID)
			if parseErr != nil {
				continue
			}
			if _, retErr := s.tickets.ReturnTicket(ctx, ticketID, userID); retErr != nil {
				if retErr == tickets.ErrTicketVoided || retErr == tickets.ErrTicketNotActive {
					continue
				}
				return nil, retErr
			}
		}
	}

	booking.Cancel()
	if err := s.repo.UpdateBookingStatus(ctx, booking.ID, StatusCancelled, booking.CancelledAt); err != nil {
		return nil, err
	}
	s.publish(ctx, booking, EventBookingCancelled)
	return s.attachTickets(ctx, booking)
}

// RecordRefund writes the refund payment row for a returned ticket
func (s *service) RecordRefund(ctx context.Context, bookingID, ticketID uuid.UUID, amount float64) error {
	now := time.Now()
	refund := &Payment{
		ID:            uuid.New(),
		BookingID:     bookingID,
		Amount:        amount,
		Currency:      "USD",
		Status:        PaymentRefunded,
		PaymentMethod: "refund",
		TransactionID: generateRefundTransactionID(),
		TicketID:      &ticketID,
		ProcessedAt:   &now,
	}
	if err := s.repo.CreatePayment(ctx, refund); err != nil {
		return fmt.Errorf("failed to record refund: %w", err)
	}
	return nil
}

func (s *service) attachTickets(ctx context.Context, booking *Booking) (*BookingResponse, error) {
	resp := booking.ToResponse()
	list, err := s.tickets.ListBookingTickets(ctx, booking.ID)
	if err != nil {
		s.log.WithError(err).Warn("failed to load tickets for booking", "booking_id", booking.ID.String())
	} else {
		resp.Tickets = list
	}
	return &resp, nil
}

func (s *service) publish(ctx context.Context, booking *Booking, eventType string) {
	err := s.publisher.PublishBookingEvent(ctx, BookingEvent{
		Type:       eventType,
		BookingID:  booking.ID.String(),
		BookingRef: booking.BookingRef,
		EventID:    booking.EventID.String(),
		UserID:     booking.UserID.String(),
		Amount:     booking.TotalPrice,
	})
	if err != nil {
		s.log.WithError(err).Warn("failed to publish booking event", "booking_id", booking.ID.String())
	}
}

// mockPaymentGateway simulates a payment provider callback
func mockPaymentGateway(ctx context.Context, payment *Payment) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(50 * time.Millisecond):
		return nil
	}
}

// generateBookingReference creates a human readable booking reference
func generateBookingReference() string {
	const chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = chars[rand.Intn(len(chars))]
	}
	return fmt.Sprintf("EVT-%s-%s", time.Now().Format("20060102"), string(suffix))
}

func generateTransactionID() string {
	return fmt.Sprintf("TXN_%d_%s", time.Now().Unix(), uuid.New().String()[:8])
}

func generateRefundTransactionID() string {
	return fmt.Sprintf("REF_%d_%s", time.Now().Unix(), uuid.New().String()[:8])
}
