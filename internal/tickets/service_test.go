package tickets

import (
	"context"
	"sync"
	"testing"
	"time"

	"seatwave/internal/layout"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeRepo is an in-memory Repository for service tests. The mutex
// mirrors the database's row-level atomicity for the conditional
// updates.
type fakeRepo struct {
	mu      sync.Mutex
	types   map[uuid.UUID][]TicketType
	tickets map[uuid.UUID]*Ticket
	byToken map[string]uuid.UUID
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		types:   make(map[uuid.UUID][]TicketType),
		tickets: make(map[uuid.UUID]*Ticket),
		byToken: make(map[string]uuid.UUID),
	}
}

func (f *fakeRepo) CreateTicketTypes(types []TicketType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range types {
		if types[i].ID == uuid.Nil {
			types[i].ID = uuid.New()
		}
		f.types[types[i].EventID] = append(f.types[types[i].EventID], types[i])
	}
	return nil
}

func (f *fakeRepo) GetTicketTypesByEvent(eventID uuid.UUID) ([]TicketType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.types[eventID], nil
}

func (f *fakeRepo) GetTicketTypeByName(eventID uuid.UUID, name string) (*TicketType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.types[eventID] {
		if f.types[eventID][i].Name == name {
			return &f.types[eventID][i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) CreateBatch(_ *gorm.DB, tickets []Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range tickets {
		t := tickets[i]
		f.tickets[t.ID] = &t
		f.byToken[t.QRToken] = t.ID
	}
	return nil
}

func (f *fakeRepo) GetByID(id uuid.UUID) (*Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getLocked(id)
}

func (f *fakeRepo) getLocked(id uuid.UUID) (*Ticket, error) {
	t, ok := f.tickets[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *t
	return &copied, nil
}

func (f *fakeRepo) GetByQRToken(token string) (*Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byToken[token]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return f.getLocked(id)
}

func (f *fakeRepo) GetByBooking(bookingID uuid.UUID) ([]Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Ticket
	for _, t := range f.tickets {
		if t.BookingID == bookingID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetByUser(userID uuid.UUID) ([]Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Ticket
	for _, t := range f.tickets {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeRepo) Save(ticket *Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *ticket
	f.tickets[ticket.ID] = &copied
	return nil
}

func (f *fakeRepo) UpdateStatusForBooking(bookingID uuid.UUID, from, to TicketStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tickets {
		if t.BookingID == bookingID && t.Status == from {
			t.Status = to
		}
	}
	return nil
}

func (f *fakeRepo) MarkUsed(id uuid.UUID, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tickets[id]
	if !ok || t.Status != StatusActive || t.IsUsed {
		return false, nil
	}
	t.IsUsed = true
	t.UsedAt = &at
	return true, nil
}

func (f *fakeRepo) MarkReturned(id uuid.UUID, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tickets[id]
	if !ok || t.Status != StatusActive || t.IsUsed {
		return false, nil
	}
	t.Status = StatusReturned
	t.ReturnedAt = &at
	return true, nil
}

type fakeSchedule struct {
	start time.Time
}

func (f *fakeSchedule) StartTime(context.Context, uuid.UUID) (time.Time, error) {
	return f.start, nil
}

type fakeReleaser struct {
	mu       sync.Mutex
	released []layout.SeatRef
}

func (f *fakeReleaser) ReleaseSoldSeats(_ context.Context, _ string, seats []layout.SeatRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, seats...)
	return nil
}

type fakeRefunds struct {
	mu      sync.Mutex
	amounts []float64
}

func (f *fakeRefunds) RecordRefund(_ context.Context, _, _ uuid.UUID, amount float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.amounts = append(f.amounts, amount)
	return nil
}

func testService(start time.Time) (Service, *fakeRepo, *fakeReleaser, *fakeRefunds) {
	repo := newFakeRepo()
	releaser := &fakeReleaser{}
	refunds := &fakeRefunds{}
	svc := NewService(repo, &fakeSchedule{start: start}, releaser, refunds, Config{
		ReturnWindow:     24 * time.Hour,
		ReturnRefundRate: 0.75,
		QRSecret:         "test-secret",
	}, nil)
	return svc, repo, releaser, refunds
}

func issueActiveTicket(t *testing.T, svc Service, userID uuid.UUID, price float64) Ticket {
	t.Helper()
	bookingID := uuid.New()
	issued, err := svc.IssueForBooking(nil, IssueRequest{
		BookingID: bookingID,
		EventID:   uuid.New(),
		UserID:    userID,
		Seats: []IssuedSeat{
			{Ref: layout.SeatRef{Section: "VIP 1", Row: "A", SeatNumber: "1"}, TicketTypeID: uuid.New(), Price: price},
		},
	})
	require.NoError(t, err)
	require.Len(t, issued, 1)
	require.NoError(t, svc.ActivateForBooking(context.Background(), bookingID))
	return issued[0]
}

func TestIssueForBookingCreatesPendingTicketsWithTokens(t *testing.T) {
	svc, repo, _, _ := testService(time.Now().Add(48 * time.Hour))

	bookingID := uuid.New()
	issued, err := svc.IssueForBooking(nil, IssueRequest{
		BookingID: bookingID,
		EventID:   uuid.New(),
		UserID:    uuid.New(),
		Seats: []IssuedSeat{
			{Ref: layout.SeatRef{Section: "VIP 1", Row: "A", SeatNumber: "1"}, TicketTypeID: uuid.New(), Price: 100},
			{Ref: layout.SeatRef{Section: "VIP 1", Row: "A", SeatNumber: "2"}, TicketTypeID: uuid.New(), Price: 100},
		},
	})
	require.NoError(t, err)
	require.Len(t, issued, 2)

	assert.Equal(t, StatusPending, issued[0].Status)
	assert.Len(t, issued[0].QRToken, 64)
	assert.NotEqual(t, issued[0].QRToken, issued[1].QRToken)

	stored, err := repo.GetByBooking(bookingID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestReturnTicketRefundsPartialPrice(t *testing.T) {
	svc, _, releaser, refunds := testService(time.Now().Add(48 * time.Hour))
	userID := uuid.New()
	ticket := issueActiveTicket(t, svc, userID, 1000000)

	result, err := svc.ReturnTicket(context.Background(), ticket.ID, userID)
	require.NoError(t, err)

	assert.InDelta(t, 750000, result.RefundAmount, 0.001)
	assert.InDelta(t, 0.75, result.RefundRate, 0.001)
	require.Len(t, refunds.amounts, 1)
	assert.InDelta(t, 750000, refunds.amounts[0], 0.001)

	// Returned seat goes back on sale
	require.Len(t, releaser.released, 1)
	assert.Equal(t, ticket.SeatRef(), releaser.released[0])

	// Second return of the same ticket fails: the ticket is voided
	_, err = svc.ReturnTicket(context.Background(), ticket.ID, userID)
	assert.ErrorIs(t, err, ErrTicketVoided)
}

func TestReturnTicketInsideWindowRejected(t *testing.T) {
	svc, _, releaser, _ := testService(time.Now().Add(2 * time.Hour))
	userID := uuid.New()
	ticket := issueActiveTicket(t, svc, userID, 500)

	_, err := svc.ReturnTicket(context.Background(), ticket.ID, userID)
	assert.ErrorIs(t, err, ErrReturnWindowClosed)
	assert.Empty(t, releaser.released)
}

func TestReturnTicketOwnershipAndState(t *testing.T) {
	svc, repo, _, _ := testService(time.Now().Add(48 * time.Hour))
	userID := uuid.New()
	ticket := issueActiveTicket(t, svc, userID, 500)

	_, err := svc.ReturnTicket(context.Background(), ticket.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotTicketOwner)

	// A scanned ticket cannot be returned
	stored, err := repo.GetByID(ticket.ID)
	require.NoError(t, err)
	stored.IsUsed = true
	require.NoError(t, repo.Save(stored))

	_, err = svc.ReturnTicket(context.Background(), ticket.ID, userID)
	assert.ErrorIs(t, err, ErrAlreadyUsed)

	_, err = svc.ReturnTicket(context.Background(), uuid.New(), userID)
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestVerifyEntryAdmitsExactlyOnce(t *testing.T) {
	svc, _, _, _ := testService(time.Now().Add(48 * time.Hour))
	ticket := issueActiveTicket(t, svc, uuid.New(), 500)

	resp, err := svc.VerifyEntry(context.Background(), ticket.QRToken, ticket.EventID)
	require.NoError(t, err)
	assert.True(t, resp.IsUsed)
	assert.Empty(t, resp.QRToken)

	_, err = svc.VerifyEntry(context.Background(), ticket.QRToken, ticket.EventID)
	assert.ErrorIs(t, err, ErrAlreadyUsed)
}

func TestVerifyEntryConcurrentScansAdmitOne(t *testing.T) {
	svc, _, _, _ := testService(time.Now().Add(48 * time.Hour))
	ticket := issueActiveTicket(t, svc, uuid.New(), 500)

	const scans = 10
	var wg sync.WaitGroup
	admitted := make(chan struct{}, scans)
	for i := 0; i < scans; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.VerifyEntry(context.Background(), ticket.QRToken, ticket.EventID); err == nil {
				admitted <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(admitted)

	assert.Len(t, admitted, 1, "same token scanned concurrently must admit once")
}

func TestReturnTicketConcurrentReturnsRefundOnce(t *testing.T) {
	svc, _, releaser, refunds := testService(time.Now().Add(48 * time.Hour))
	userID := uuid.New()
	ticket := issueActiveTicket(t, svc, userID, 1000)

	const attempts = 10
	var wg sync.WaitGroup
	returned := make(chan struct{}, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.ReturnTicket(context.Background(), ticket.ID, userID); err == nil {
				returned <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(returned)

	assert.Len(t, returned, 1, "concurrent returns must settle exactly once")
	assert.Len(t, refunds.amounts, 1)
	assert.Len(t, releaser.released, 1)
}

func TestVerifyEntryRejectsWrongEvent(t *testing.T) {
	svc, _, _, _ := testService(time.Now().Add(48 * time.Hour))
	ticket := issueActiveTicket(t, svc, uuid.New(), 500)

	// A valid token scanned at a different event's gate is not admitted
	_, err := svc.VerifyEntry(context.Background(), ticket.QRToken, uuid.New())
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestVerifyEntryRejectsPendingAndVoided(t *testing.T) {
	svc, repo, _, _ := testService(time.Now().Add(48 * time.Hour))

	bookingID := uuid.New()
	issued, err := svc.IssueForBooking(nil, IssueRequest{
		BookingID: bookingID,
		EventID:   uuid.New(),
		UserID:    uuid.New(),
		Seats: []IssuedSeat{
			{Ref: layout.SeatRef{Section: "GA 1", Row: "A", SeatNumber: "1"}, TicketTypeID: uuid.New(), Price: 50},
		},
	})
	require.NoError(t, err)
	pending := issued[0]

	_, err = svc.VerifyEntry(context.Background(), pending.QRToken, pending.EventID)
	assert.ErrorIs(t, err, ErrTicketNotActive)

	stored, err := repo.GetByID(pending.ID)
	require.NoError(t, err)
	stored.Status = StatusCancelled
	require.NoError(t, repo.Save(stored))

	_, err = svc.VerifyEntry(context.Background(), pending.QRToken, pending.EventID)
	assert.ErrorIs(t, err, ErrTicketVoided)

	_, err = svc.VerifyEntry(context.Background(), "deadbeef", pending.EventID)
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestStatusStateMachine(t *testing.T) {
	assert.True(t, StatusPending.CanTransitionTo(StatusActive))
	assert.True(t, StatusPending.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusPending.CanTransitionTo(StatusReturned))

	assert.True(t, StatusActive.CanTransitionTo(StatusReturned))
	assert.True(t, StatusActive.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusActive.CanTransitionTo(StatusPending))

	// Terminal states stay terminal
	for _, terminal := range []TicketStatus{StatusReturned, StatusCancelled} {
		assert.True(t, terminal.IsTerminal())
		for _, target := range []TicketStatus{StatusPending, StatusActive, StatusReturned, StatusCancelled} {
			assert.False(t, terminal.CanTransitionTo(target))
		}
	}
}
