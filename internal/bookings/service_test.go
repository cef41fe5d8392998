package bookings

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"seatwave/internal/inventory"
	"seatwave/internal/layout"
	"seatwave/internal/tickets"
)

type fakeRepo struct {
	mu        sync.Mutex
	bookings  map[uuid.UUID]*Booking
	payments  map[uuid.UUID]*Payment
	createErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		bookings: make(map[uuid.UUID]*Booking),
		payments: make(map[uuid.UUID]*Payment),
	}
}

func (r *fakeRepo) CreateBooking(ctx context.Context, booking *Booking, inTx func(tx *gorm.DB) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if err := inTx(nil); err != nil {
		return err
	}
	booking.CreatedAt = time.Now()
	copied := *booking
	r.bookings[booking.ID] = &copied
	return nil
}

func (r *fakeRepo) GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking, ok := r.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	copied := *booking
	copied.Payments = r.paymentsForLocked(id)
	return &copied, nil
}

func (r *fakeRepo) paymentsForLocked(bookingID uuid.UUID) []Payment {
	var list []Payment
	for _, payment := range r.payments {
		if payment.BookingID == bookingID {
			list = append(list, *payment)
		}
	}
	return list
}

func (r *fakeRepo) GetBookingByHoldID(ctx context.Context, holdID string) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, booking := range r.bookings {
		if booking.HoldID == holdID {
			copied := *booking
			return &copied, nil
		}
	}
	return nil, ErrBookingNotFound
}

func (r *fakeRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to Status, at *time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking, ok := r.bookings[id]
	if !ok || booking.Status != from {
		return false, nil
	}
	booking.Status = to
	switch to {
	case StatusConfirmed:
		booking.ConfirmedAt = at
	case StatusCancelled:
		booking.CancelledAt = at
	}
	return true, nil
}

func (r *fakeRepo) UpdateBookingStatus(ctx context.Context, id uuid.UUID, status Status, at *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking, ok := r.bookings[id]
	if !ok {
		return ErrBookingNotFound
	}
	booking.Status = status
	switch status {
	case StatusConfirmed:
		booking.ConfirmedAt = at
	case StatusCancelled:
		booking.CancelledAt = at
	}
	return nil
}

func (r *fakeRepo) GetUserBookings(ctx context.Context, userID uuid.UUID, query BookingListQuery) ([]Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var list []Booking
	for _, booking := range r.bookings {
		if booking.UserID == userID {
			list = append(list, *booking)
		}
	}
	return list, int64(len(list)), nil
}

func (r *fakeRepo) CreatePayment(ctx context.Context, payment *Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *payment
	r.payments[payment.ID] = &copied
	return nil
}

func (r *fakeRepo) UpdatePayment(ctx context.Context, payment *Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *payment
	r.payments[payment.ID] = &copied
	return nil
}

func (r *fakeRepo) paymentsFor(bookingID uuid.UUID) []Payment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.paymentsForLocked(bookingID)
}

// fakePricer charges a flat price per seat
type fakePricer struct {
	price float64
	err   error
}

func (p *fakePricer) PriceSeats(ctx context.Context, eventID uuid.UUID, seats []layout.SeatRef) ([]PricedSeat, error) {
	if p.err != nil {
		return nil, p.err
	}
	priced := make([]PricedSeat, 0, len(seats))
	for _, ref := range seats {
		priced = append(priced, PricedSeat{
			Ref:            ref,
			TicketTypeID:   uuid.New(),
			TicketTypeName: "General",
			Price:          p.price,
		})
	}
	return priced, nil
}

// fakeTicketSvc records lifecycle calls instead of touching a database
type fakeTicketSvc struct {
	mu        sync.Mutex
	issued    map[uuid.UUID][]tickets.IssuedSeat
	activated   []uuid.UUID
	cancelled   []uuid.UUID
	returned    []uuid.UUID
	issueErr    error
	activateErr error

	bookingTickets map[uuid.UUID][]tickets.TicketResponse
	returnErrs     map[uuid.UUID]error
}

func newFakeTicketSvc() *fakeTicketSvc {
	return &fakeTicketSvc{
		issued:         make(map[uuid.UUID][]tickets.IssuedSeat),
		bookingTickets: make(map[uuid.UUID][]tickets.TicketResponse),
		returnErrs:     make(map[uuid.UUID]error),
	}
}

func (f *fakeTicketSvc) CreateTicketTypes(ctx context.Context, types []tickets.TicketType) ([]tickets.TicketType, error) {
	return types, nil
}

func (f *fakeTicketSvc) TicketTypesForEvent(ctx context.Context, eventID uuid.UUID) ([]tickets.TicketType, error) {
	return nil, nil
}

func (f *fakeTicketSvc) TierRefsForEvent(ctx context.Context, eventID uuid.UUID) ([]layout.TicketTypeRef, error) {
	return nil, nil
}

func (f *fakeTicketSvc) IssueForBooking(tx *gorm.DB, req tickets.IssueRequest) ([]tickets.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.issueErr != nil {
		return nil, f.issueErr
	}
	f.issued[req.BookingID] = req.Seats
	return nil, nil
}

func (f *fakeTicketSvc) ActivateForBooking(ctx context.Context, bookingID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.activateErr != nil {
		return f.activateErr
	}
	f.activated = append(f.activated, bookingID)
	return nil
}

func (f *fakeTicketSvc) CancelForBooking(ctx context.Context, bookingID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, bookingID)
	return nil
}

func (f *fakeTicketSvc) GetTicket(ctx context.Context, ticketID, userID uuid.UUID, isAdmin bool) (*tickets.TicketResponse, error) {
	return nil, tickets.ErrTicketNotFound
}

func (f *fakeTicketSvc) ListUserTickets(ctx context.Context, userID uuid.UUID) ([]tickets.TicketResponse, error) {
	return nil, nil
}

func (f *fakeTicketSvc) ListBookingTickets(ctx context.Context, bookingID uuid.UUID) ([]tickets.TicketResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bookingTickets[bookingID], nil
}

func (f *fakeTicketSvc) ReturnTicket(ctx context.Context, ticketID, userID uuid.UUID) (*tickets.ReturnResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.returnErrs[ticketID]; ok {
		return nil, err
	}
	f.returned = append(f.returned, ticketID)
	return &tickets.ReturnResult{TicketID: ticketID.String()}, nil
}

func (f *fakeTicketSvc) VerifyEntry(ctx context.Context, qrToken string, eventID uuid.UUID) (*tickets.TicketResponse, error) {
	return nil, tickets.ErrTicketNotFound
}

type fakePublisher struct {
	mu     sync.Mutex
	events []BookingEvent
}

func (p *fakePublisher) PublishBookingEvent(ctx context.Context, event BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type bookingFixture struct {
	svc       *service
	repo      *fakeRepo
	registry  *inventory.Registry
	ledger    *inventory.Ledger
	ticketSvc *fakeTicketSvc
	publisher *fakePublisher
	eventID   string
	userID    uuid.UUID
}

func newFixture(t *testing.T) *bookingFixture {
	t.Helper()
	m, err := layout.Generate(layout.GenerateRequest{
		Archetype:     "theater",
		TotalSeats:    100,
		TotalSections: 4,
		TicketTypes: []layout.TicketTypeRef{
			{Name: "VIP", Role: layout.RolePremium},
			{Name: "General", Role: layout.RoleStandard},
		},
	})
	require.NoError(t, err)

	eventID := uuid.New()
	registry := inventory.NewRegistry(10*time.Minute, nil, nil, nil)
	ledger := registry.Register(eventID.String(), &m)

	repo := newFakeRepo()
	ticketSvc := newFakeTicketSvc()
	publisher := &fakePublisher{}
	svc := NewService(repo, registry, &fakePricer{price: 100}, ticketSvc, publisher, nil).(*service)

	return &bookingFixture{
		svc:       svc,
		repo:      repo,
		registry:  registry,
		ledger:    ledger,
		ticketSvc: ticketSvc,
		publisher: publisher,
		eventID:   eventID.String(),
		userID:    uuid.New(),
	}
}

func (fx *bookingFixture) holdSeats(t *testing.T, n int) *HoldResponse {
	t.Helper()
	seats := make([]SeatSelection, 0, n)
	for i := 1; i <= n; i++ {
		seats = append(seats, SeatSelection{Section: "Section A", Row: "A", SeatNumber: itoa(i)})
	}
	hold, err := fx.svc.HoldSeats(context.Background(), fx.userID, HoldSeatsRequest{
		EventID: fx.eventID,
		Seats:   seats,
	})
	require.NoError(t, err)
	return hold
}

func itoa(n int) string {
	if n < 10 {
		return string(rune('0' + n))
	}
	return string(rune('0'+n/10)) + string(rune('0'+n%10))
}

func TestHoldSeatsRequiresSeatsXorQuantity(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.svc.HoldSeats(ctx, fx.userID, HoldSeatsRequest{EventID: fx.eventID})
	assert.ErrorIs(t, err, ErrSeatsOrQuantity)

	_, err = fx.svc.HoldSeats(ctx, fx.userID, HoldSeatsRequest{
		EventID:  fx.eventID,
		Seats:    []SeatSelection{{Section: "Section A", Row: "A", SeatNumber: "1"}},
		Tier:     "General",
		Quantity: 2,
	})
	assert.ErrorIs(t, err, ErrSeatsOrQuantity)
}

func TestHoldSeatsMintsPendingBooking(t *testing.T) {
	fx := newFixture(t)

	hold := fx.holdSeats(t, 3)
	assert.Len(t, hold.Seats, 3)
	assert.Equal(t, 300.0, hold.TotalPrice)
	assert.Equal(t, fx.eventID, hold.EventID)
	assert.True(t, hold.ExpiresAt.After(time.Now()))
	assert.True(t, strings.HasPrefix(hold.BookingRef, "EVT-"))

	bookingID, err := uuid.Parse(hold.BookingID)
	require.NoError(t, err)
	booking, err := fx.repo.GetBookingByID(context.Background(), bookingID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, booking.Status)
	assert.Equal(t, 3, booking.TotalSeats)
	assert.Equal(t, 300.0, booking.TotalPrice)
	assert.Len(t, fx.ticketSvc.issued[bookingID], 3)
}

func TestHoldSeatsByTierQuantity(t *testing.T) {
	fx := newFixture(t)

	hold, err := fx.svc.HoldSeats(context.Background(), fx.userID, HoldSeatsRequest{
		EventID:  fx.eventID,
		Tier:     "General",
		Quantity: 4,
	})
	require.NoError(t, err)
	assert.Len(t, hold.Seats, 4)
	assert.Equal(t, 400.0, hold.TotalPrice)
	assert.NotEmpty(t, hold.BookingID)
}

func TestHoldSeatsReleasesOnPricingFailure(t *testing.T) {
	fx := newFixture(t)
	fx.svc.pricer = &fakePricer{err: errors.New("pricing unavailable")}

	_, err := fx.svc.HoldSeats(context.Background(), fx.userID, HoldSeatsRequest{
		EventID: fx.eventID,
		Seats:   []SeatSelection{{Section: "Section A", Row: "A", SeatNumber: "1"}},
	})
	require.Error(t, err)

	status, err := fx.ledger.SeatStatus(layout.SeatRef{Section: "Section A", Row: "A", SeatNumber: "1"})
	require.NoError(t, err)
	assert.Equal(t, layout.SeatAvailable, status)
}

func TestHoldSeatsReleasesOnPersistenceFailure(t *testing.T) {
	fx := newFixture(t)
	fx.repo.createErr = errors.New("database down")

	_, err := fx.svc.HoldSeats(context.Background(), fx.userID, HoldSeatsRequest{
		EventID: fx.eventID,
		Seats:   []SeatSelection{{Section: "Section A", Row: "A", SeatNumber: "1"}},
	})
	require.Error(t, err)

	// Seats go back on sale instead of waiting for the sweeper
	status, err := fx.ledger.SeatStatus(layout.SeatRef{Section: "Section A", Row: "A", SeatNumber: "1"})
	require.NoError(t, err)
	assert.Equal(t, layout.SeatAvailable, status)
}

func TestConfirmBookingHappyPath(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	hold := fx.holdSeats(t, 2)
	booking, err := fx.svc.ConfirmBooking(ctx, fx.userID, ConfirmBookingRequest{
		BookingID:     hold.BookingID,
		PaymentMethod: "card",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusConfirmed, booking.Status)
	assert.Equal(t, 2, booking.TotalSeats)
	assert.Equal(t, 200.0, booking.TotalPrice)
	assert.True(t, strings.HasPrefix(booking.BookingRef, "EVT-"))

	// Seats flipped to SOLD
	status, err := fx.ledger.SeatStatus(layout.SeatRef{Section: "Section A", Row: "A", SeatNumber: "1"})
	require.NoError(t, err)
	assert.Equal(t, layout.SeatSold, status)

	// Tickets activated
	bookingID, err := uuid.Parse(booking.ID)
	require.NoError(t, err)
	assert.Contains(t, fx.ticketSvc.activated, bookingID)

	// Payment completed
	payments := fx.repo.paymentsFor(bookingID)
	require.Len(t, payments, 1)
	assert.Equal(t, PaymentCompleted, payments[0].Status)
	assert.True(t, strings.HasPrefix(payments[0].TransactionID, "TXN_"))

	// Lifecycle event published
	require.Len(t, fx.publisher.events, 1)
	assert.Equal(t, EventBookingConfirmed, fx.publisher.events[0].Type)
}

func TestConfirmBookingRetryReturnsExisting(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	hold := fx.holdSeats(t, 1)
	req := ConfirmBookingRequest{BookingID: hold.BookingID, PaymentMethod: "card"}

	first, err := fx.svc.ConfirmBooking(ctx, fx.userID, req)
	require.NoError(t, err)

	second, err := fx.svc.ConfirmBooking(ctx, fx.userID, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, fx.repo.bookings, 1)

	// No second charge
	bookingID, err := uuid.Parse(first.ID)
	require.NoError(t, err)
	assert.Len(t, fx.repo.paymentsFor(bookingID), 1)
}

func TestConfirmBookingRejectsOtherUsersBooking(t *testing.T) {
	fx := newFixture(t)

	hold := fx.holdSeats(t, 1)
	_, err := fx.svc.ConfirmBooking(context.Background(), uuid.New(), ConfirmBookingRequest{
		BookingID:     hold.BookingID,
		PaymentMethod: "card",
	})
	assert.ErrorIs(t, err, ErrNotBookingOwner)
}

func TestConfirmBookingExpiredHoldCancelsCheckout(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	hold := fx.holdSeats(t, 1)

	// The sweeper reclaimed the hold before the buyer paid
	require.Len(t, fx.registry.SweepExpired(ctx, hold.ExpiresAt.Add(time.Second)), 1)

	_, err := fx.svc.ConfirmBooking(ctx, fx.userID, ConfirmBookingRequest{
		BookingID:     hold.BookingID,
		PaymentMethod: "card",
	})
	assert.ErrorIs(t, err, inventory.ErrHoldExpiredOrMissing)

	bookingID, err := uuid.Parse(hold.BookingID)
	require.NoError(t, err)
	booking, err := fx.repo.GetBookingByID(ctx, bookingID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, booking.Status)
	assert.Contains(t, fx.ticketSvc.cancelled, bookingID)
}

func TestConfirmBookingPaymentFailureUnwindsEverything(t *testing.T) {
	fx := newFixture(t)
	fx.svc.processor = func(ctx context.Context, payment *Payment) error {
		return errors.New("card declined")
	}

	hold := fx.holdSeats(t, 2)
	_, err := fx.svc.ConfirmBooking(context.Background(), fx.userID, ConfirmBookingRequest{
		BookingID:     hold.BookingID,
		PaymentMethod: "card",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "card declined")

	// Seats released
	status, err := fx.ledger.SeatStatus(layout.SeatRef{Section: "Section A", Row: "A", SeatNumber: "1"})
	require.NoError(t, err)
	assert.Equal(t, layout.SeatAvailable, status)

	// Booking cancelled, tickets cancelled, payment failed
	booking, err := fx.repo.GetBookingByHoldID(context.Background(), hold.HoldID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, booking.Status)
	assert.Contains(t, fx.ticketSvc.cancelled, booking.ID)

	payments := fx.repo.paymentsFor(booking.ID)
	require.Len(t, payments, 1)
	assert.Equal(t, PaymentFailed, payments[0].Status)
	assert.Equal(t, "card declined", payments[0].FailureReason)
}

func TestConfirmBookingActivationFailureReleasesSoldSeats(t *testing.T) {
	fx := newFixture(t)
	fx.ticketSvc.activateErr = errors.New("ticket store down")

	hold := fx.holdSeats(t, 2)
	_, err := fx.svc.ConfirmBooking(context.Background(), fx.userID, ConfirmBookingRequest{
		BookingID:     hold.BookingID,
		PaymentMethod: "card",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ticket store down")

	// Seats committed to SOLD must not stay stranded when the tickets
	// cannot be materialized
	for _, n := range []string{"1", "2"} {
		status, statusErr := fx.ledger.SeatStatus(layout.SeatRef{Section: "Section A", Row: "A", SeatNumber: n})
		require.NoError(t, statusErr)
		assert.Equal(t, layout.SeatAvailable, status)
	}

	bookingID, err := uuid.Parse(hold.BookingID)
	require.NoError(t, err)
	booking, err := fx.repo.GetBookingByID(context.Background(), bookingID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, booking.Status)
	assert.Contains(t, fx.ticketSvc.cancelled, bookingID)

	// The captured charge is refunded, not left completed
	payments := fx.repo.paymentsFor(bookingID)
	require.Len(t, payments, 1)
	assert.Equal(t, PaymentRefunded, payments[0].Status)
}

func TestConcurrentConfirmsOfOneBookingChargeOnce(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	hold := fx.holdSeats(t, 1)
	bookingID, err := uuid.Parse(hold.BookingID)
	require.NoError(t, err)

	const confirms = 8
	var wg sync.WaitGroup
	var failures int32
	for i := 0; i < confirms; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := fx.svc.ConfirmBooking(ctx, fx.userID, ConfirmBookingRequest{
				BookingID:     hold.BookingID,
				PaymentMethod: "card",
			})
			if err != nil {
				atomic.AddInt32(&failures, 1)
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, failures, "every caller should see the confirmed booking")
	assert.Len(t, fx.repo.paymentsFor(bookingID), 1, "only the claiming caller may charge")
	assert.Len(t, fx.publisher.events, 1)
}

func TestReleaseHoldScopedToEvent(t *testing.T) {
	fx := newFixture(t)

	hold := fx.holdSeats(t, 1)
	err := fx.svc.ReleaseHold(context.Background(), fx.userID, ReleaseHoldRequest{
		HoldID:  hold.HoldID,
		EventID: uuid.New().String(),
	})
	assert.ErrorIs(t, err, ErrBookingNotFound)

	// The hold survives the misaddressed release
	status, err := fx.ledger.SeatStatus(layout.SeatRef{Section: "Section A", Row: "A", SeatNumber: "1"})
	require.NoError(t, err)
	assert.Equal(t, layout.SeatHeld, status)
}

func TestConcurrentCheckoutSameSeatSingleWinner(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	seat := []SeatSelection{{Section: "Section A", Row: "A", SeatNumber: "1"}}

	const racers = 20
	var wg sync.WaitGroup
	wins := make(chan string, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			userID := uuid.New()
			hold, err := fx.svc.HoldSeats(ctx, userID, HoldSeatsRequest{EventID: fx.eventID, Seats: seat})
			if err != nil {
				return
			}
			booking, err := fx.svc.ConfirmBooking(ctx, userID, ConfirmBookingRequest{
				BookingID:     hold.BookingID,
				PaymentMethod: "card",
			})
			if err == nil {
				wins <- booking.ID
			}
		}()
	}
	wg.Wait()
	close(wins)

	var winners []string
	for id := range wins {
		winners = append(winners, id)
	}
	assert.Len(t, winners, 1, "exactly one racer should get the seat")

	status, err := fx.ledger.SeatStatus(layout.SeatRef{Section: "Section A", Row: "A", SeatNumber: "1"})
	require.NoError(t, err)
	assert.Equal(t, layout.SeatSold, status)
}

func (fx *bookingFixture) pendingBooking(t *testing.T, n int) (*Booking, *Payment) {
	t.Helper()
	hold := fx.holdSeats(t, n)
	booking, err := fx.repo.GetBookingByHoldID(context.Background(), hold.HoldID)
	require.NoError(t, err)
	payment := &Payment{
		ID:            uuid.New(),
		BookingID:     booking.ID,
		Amount:        hold.TotalPrice,
		Status:        PaymentPending,
		PaymentMethod: "card",
		TransactionID: generateTransactionID(),
	}
	require.NoError(t, fx.repo.CreatePayment(context.Background(), payment))
	return booking, payment
}

func TestPaymentCallbackSuccessIsIdempotent(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	booking, payment := fx.pendingBooking(t, 1)
	req := PaymentCallbackRequest{
		BookingID:     booking.ID.String(),
		TransactionID: payment.TransactionID,
		Status:        "success",
	}

	first, err := fx.svc.PaymentCallback(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, first.Status)

	status, err := fx.ledger.SeatStatus(layout.SeatRef{Section: "Section A", Row: "A", SeatNumber: "1"})
	require.NoError(t, err)
	assert.Equal(t, layout.SeatSold, status)
	assert.Contains(t, fx.ticketSvc.activated, booking.ID)

	// Duplicate webhook delivery changes nothing
	second, err := fx.svc.PaymentCallback(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, StatusConfirmed, second.Status)
	assert.Len(t, fx.publisher.events, 1)

	payments := fx.repo.paymentsFor(booking.ID)
	require.Len(t, payments, 1)
	assert.Equal(t, PaymentCompleted, payments[0].Status)
}

func TestPaymentCallbackFailureUnwinds(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	booking, payment := fx.pendingBooking(t, 1)
	_, err := fx.svc.PaymentCallback(ctx, PaymentCallbackRequest{
		BookingID:     booking.ID.String(),
		TransactionID: payment.TransactionID,
		Status:        "failed",
		FailureReason: "insufficient funds",
	})
	require.Error(t, err)

	stored, err := fx.repo.GetBookingByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, stored.Status)

	status, err := fx.ledger.SeatStatus(layout.SeatRef{Section: "Section A", Row: "A", SeatNumber: "1"})
	require.NoError(t, err)
	assert.Equal(t, layout.SeatAvailable, status)

	payments := fx.repo.paymentsFor(booking.ID)
	require.Len(t, payments, 1)
	assert.Equal(t, PaymentFailed, payments[0].Status)
	assert.Equal(t, "insufficient funds", payments[0].FailureReason)
}

func TestPaymentCallbackUnknownTransaction(t *testing.T) {
	fx := newFixture(t)

	booking, _ := fx.pendingBooking(t, 1)
	_, err := fx.svc.PaymentCallback(context.Background(), PaymentCallbackRequest{
		BookingID:     booking.ID.String(),
		TransactionID: "TXN_unknown",
		Status:        "success",
	})
	assert.Error(t, err)
}

func TestReleaseHoldCancelsPendingCheckout(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	hold := fx.holdSeats(t, 1)

	err := fx.svc.ReleaseHold(ctx, uuid.New(), ReleaseHoldRequest{HoldID: hold.HoldID, EventID: fx.eventID})
	assert.ErrorIs(t, err, ErrHoldOwnerMismatch)

	err = fx.svc.ReleaseHold(ctx, fx.userID, ReleaseHoldRequest{HoldID: hold.HoldID, EventID: fx.eventID})
	require.NoError(t, err)

	status, err := fx.ledger.SeatStatus(layout.SeatRef{Section: "Section A", Row: "A", SeatNumber: "1"})
	require.NoError(t, err)
	assert.Equal(t, layout.SeatAvailable, status)

	bookingID, err := uuid.Parse(hold.BookingID)
	require.NoError(t, err)
	booking, err := fx.repo.GetBookingByID(ctx, bookingID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, booking.Status)
	assert.Contains(t, fx.ticketSvc.cancelled, bookingID)

	err = fx.svc.ReleaseHold(ctx, fx.userID, ReleaseHoldRequest{HoldID: hold.HoldID, EventID: fx.eventID})
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
}

func TestExpireHoldCancelsPendingCheckout(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	hold := fx.holdSeats(t, 1)
	expired := fx.registry.SweepExpired(ctx, hold.ExpiresAt.Add(time.Second))
	require.Len(t, expired, 1)

	require.NoError(t, fx.svc.ExpireHold(ctx, expired[0].EventID, expired[0].HoldID))

	bookingID, err := uuid.Parse(hold.BookingID)
	require.NoError(t, err)
	booking, err := fx.repo.GetBookingByID(ctx, bookingID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, booking.Status)
	assert.Contains(t, fx.ticketSvc.cancelled, bookingID)

	// Unknown holds and already-settled bookings are no-ops
	require.NoError(t, fx.svc.ExpireHold(ctx, fx.eventID, uuid.New().String()))
	require.NoError(t, fx.svc.ExpireHold(ctx, expired[0].EventID, expired[0].HoldID))
}

func TestExpireHoldLeavesConfirmedBookingAlone(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	hold := fx.holdSeats(t, 1)
	_, err := fx.svc.ConfirmBooking(ctx, fx.userID, ConfirmBookingRequest{
		BookingID:     hold.BookingID,
		PaymentMethod: "card",
	})
	require.NoError(t, err)

	require.NoError(t, fx.svc.ExpireHold(ctx, fx.eventID, hold.HoldID))

	bookingID, err := uuid.Parse(hold.BookingID)
	require.NoError(t, err)
	booking, err := fx.repo.GetBookingByID(ctx, bookingID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, booking.Status)
}

func TestCancelConfirmedBookingReturnsEachTicket(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	hold := fx.holdSeats(t, 2)
	booking, err := fx.svc.ConfirmBooking(ctx, fx.userID, ConfirmBookingRequest{
		BookingID:     hold.BookingID,
		PaymentMethod: "card",
	})
	require.NoError(t, err)

	bookingID, err := uuid.Parse(booking.ID)
	require.NoError(t, err)
	ticketIDs := []uuid.UUID{uuid.New(), uuid.New()}
	fx.ticketSvc.bookingTickets[bookingID] = []tickets.TicketResponse{
		{ID: ticketIDs[0].String()},
		{ID: ticketIDs[1].String()},
	}

	cancelled, err := fx.svc.CancelBooking(ctx, bookingID, fx.userID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.ElementsMatch(t, ticketIDs, fx.ticketSvc.returned)

	// cancelled event published after the confirmed one
	require.Len(t, fx.publisher.events, 2)
	assert.Equal(t, EventBookingCancelled, fx.publisher.events[1].Type)
}

func TestCancelBookingOwnershipAndDoubleCancel(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	hold := fx.holdSeats(t, 1)
	booking, err := fx.svc.ConfirmBooking(ctx, fx.userID, ConfirmBookingRequest{
		BookingID:     hold.BookingID,
		PaymentMethod: "card",
	})
	require.NoError(t, err)
	bookingID, err := uuid.Parse(booking.ID)
	require.NoError(t, err)

	_, err = fx.svc.CancelBooking(ctx, bookingID, uuid.New())
	assert.ErrorIs(t, err, ErrNotBookingOwner)

	_, err = fx.svc.CancelBooking(ctx, bookingID, fx.userID)
	require.NoError(t, err)

	_, err = fx.svc.CancelBooking(ctx, bookingID, fx.userID)
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
}

func TestRecordRefundWritesRefundPayment(t *testing.T) {
	fx := newFixture(t)

	bookingID := uuid.New()
	ticketID := uuid.New()
	err := fx.svc.RecordRefund(context.Background(), bookingID, ticketID, 750.0)
	require.NoError(t, err)

	payments := fx.repo.paymentsFor(bookingID)
	require.Len(t, payments, 1)
	assert.Equal(t, PaymentRefunded, payments[0].Status)
	assert.Equal(t, 750.0, payments[0].Amount)
	require.NotNil(t, payments[0].TicketID)
	assert.Equal(t, ticketID, *payments[0].TicketID)
	assert.True(t, strings.HasPrefix(payments[0].TransactionID, "REF_"))
}

func TestBookingReferenceFormat(t *testing.T) {
	ref := generateBookingReference()
	parts := strings.Split(ref, "-")
	require.Len(t, parts, 3)
	assert.Equal(t, "EVT", parts[0])
	assert.Len(t, parts[1], 8)
	assert.Len(t, parts[2], 6)
}
