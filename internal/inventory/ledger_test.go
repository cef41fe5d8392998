package inventory

import (
	"context"
	"sync"
	"testing"
	"time"

	"seatwave/internal/layout"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMap(t *testing.T, seats, sections int) *layout.SeatingMap {
	t.Helper()
	m, err := layout.Generate(layout.GenerateRequest{
		Archetype:     "theater",
		TotalSeats:    seats,
		TotalSections: sections,
		TicketTypes: []layout.TicketTypeRef{
			{Name: "VIP", Role: layout.RolePremium},
			{Name: "General", Role: layout.RoleStandard},
		},
	})
	require.NoError(t, err)
	return &m
}

func testRegistry(t *testing.T, eventID string, seats, sections int) (*Registry, *Ledger) {
	t.Helper()
	registry := NewRegistry(10*time.Minute, nil, nil, nil)
	ledger := registry.Register(eventID, testMap(t, seats, sections))
	return registry, ledger
}

func requireConservation(t *testing.T, ledger *Ledger) {
	t.Helper()
	for tier, counts := range ledger.Availability() {
		assert.Equal(t, counts.Total, counts.Available+counts.Held+counts.Sold,
			"tier %q leaks seats: %+v", tier, counts)
	}
}

func TestHoldSeatsAllOrNothing(t *testing.T) {
	registry, ledger := testRegistry(t, "evt-1", 100, 4)
	ctx := context.Background()

	seats := []layout.SeatRef{
		{Section: "Section A", Row: "A", SeatNumber: "1"},
		{Section: "Section A", Row: "A", SeatNumber: "2"},
	}

	hold, err := registry.HoldSeats(ctx, "evt-1", "user-1", seats)
	require.NoError(t, err)
	assert.Len(t, hold.Seats, 2)

	for _, ref := range seats {
		status, err := ledger.SeatStatus(ref)
		require.NoError(t, err)
		assert.Equal(t, layout.SeatHeld, status)
	}

	// Second hold overlaps on one seat: nothing is claimed and the
	// conflict is reported
	overlap := []layout.SeatRef{
		{Section: "Section A", Row: "A", SeatNumber: "2"},
		{Section: "Section A", Row: "A", SeatNumber: "3"},
	}
	_, err = registry.HoldSeats(ctx, "evt-1", "user-2", overlap)
	sErr, ok := IsSeatUnavailable(err)
	require.True(t, ok)
	assert.Equal(t, []layout.SeatRef{{Section: "Section A", Row: "A", SeatNumber: "2"}}, sErr.Conflicts)

	status, err := ledger.SeatStatus(layout.SeatRef{Section: "Section A", Row: "A", SeatNumber: "3"})
	require.NoError(t, err)
	assert.Equal(t, layout.SeatAvailable, status)

	requireConservation(t, ledger)
}

func TestHoldSeatsRejectsUnknownSeat(t *testing.T) {
	registry, _ := testRegistry(t, "evt-1", 100, 4)

	_, err := registry.HoldSeats(context.Background(), "evt-1", "user-1", []layout.SeatRef{
		{Section: "Section A", Row: "ZZ", SeatNumber: "99"},
	})
	assert.ErrorIs(t, err, ErrSeatNotFound)
}

func TestConcurrentHoldsSingleWinner(t *testing.T) {
	registry, ledger := testRegistry(t, "evt-1", 100, 4)
	ctx := context.Background()

	seat := []layout.SeatRef{{Section: "Section A", Row: "A", SeatNumber: "1"}}

	const attempts = 50
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := registry.HoldSeats(ctx, "evt-1", "user", seat)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	winners := 0
	for err := range results {
		if err == nil {
			winners++
		} else {
			_, ok := IsSeatUnavailable(err)
			assert.True(t, ok)
		}
	}
	assert.Equal(t, 1, winners)
	requireConservation(t, ledger)
}

func TestCommitIsIdempotent(t *testing.T) {
	registry, ledger := testRegistry(t, "evt-1", 100, 4)
	ctx := context.Background()

	seats := []layout.SeatRef{{Section: "Section A", Row: "B", SeatNumber: "1"}}
	hold, err := registry.HoldSeats(ctx, "evt-1", "user-1", seats)
	require.NoError(t, err)

	first, err := registry.CommitHold(ctx, "evt-1", hold.ID)
	require.NoError(t, err)
	assert.Equal(t, seats, first)

	// Payment callback retry: same result, no double transition
	second, err := registry.CommitHold(ctx, "evt-1", hold.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	status, err := ledger.SeatStatus(seats[0])
	require.NoError(t, err)
	assert.Equal(t, layout.SeatSold, status)
	requireConservation(t, ledger)
}

func TestCommitExpiredHoldReleasesSeats(t *testing.T) {
	registry, ledger := testRegistry(t, "evt-1", 100, 4)
	ctx := context.Background()

	seats := []layout.SeatRef{{Section: "Section A", Row: "B", SeatNumber: "2"}}
	hold, err := registry.HoldSeats(ctx, "evt-1", "user-1", seats)
	require.NoError(t, err)

	ledger.now = func() time.Time { return hold.ExpiresAt.Add(time.Second) }

	_, err = registry.CommitHold(ctx, "evt-1", hold.ID)
	assert.ErrorIs(t, err, ErrHoldExpiredOrMissing)

	status, err := ledger.SeatStatus(seats[0])
	require.NoError(t, err)
	assert.Equal(t, layout.SeatAvailable, status)
	requireConservation(t, ledger)
}

func TestReleaseHold(t *testing.T) {
	registry, ledger := testRegistry(t, "evt-1", 100, 4)
	ctx := context.Background()

	seats := []layout.SeatRef{{Section: "Section A", Row: "C", SeatNumber: "1"}}
	hold, err := registry.HoldSeats(ctx, "evt-1", "user-1", seats)
	require.NoError(t, err)

	require.NoError(t, registry.ReleaseHold(ctx, "evt-1", hold.ID))

	status, err := ledger.SeatStatus(seats[0])
	require.NoError(t, err)
	assert.Equal(t, layout.SeatAvailable, status)

	assert.ErrorIs(t, registry.ReleaseHold(ctx, "evt-1", hold.ID), ErrHoldExpiredOrMissing)
	requireConservation(t, ledger)
}

func TestReleaseCommittedHoldFails(t *testing.T) {
	registry, _ := testRegistry(t, "evt-1", 100, 4)
	ctx := context.Background()

	hold, err := registry.HoldSeats(ctx, "evt-1", "user-1", []layout.SeatRef{
		{Section: "Section A", Row: "C", SeatNumber: "2"},
	})
	require.NoError(t, err)

	_, err = registry.CommitHold(ctx, "evt-1", hold.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, registry.ReleaseHold(ctx, "evt-1", hold.ID), ErrHoldAlreadyCommitted)
}

func TestReleaseSoldSeats(t *testing.T) {
	registry, ledger := testRegistry(t, "evt-1", 100, 4)
	ctx := context.Background()

	seats := []layout.SeatRef{{Section: "Section A", Row: "D", SeatNumber: "1"}}
	hold, err := registry.HoldSeats(ctx, "evt-1", "user-1", seats)
	require.NoError(t, err)
	_, err = registry.CommitHold(ctx, "evt-1", hold.ID)
	require.NoError(t, err)

	require.NoError(t, registry.ReleaseSoldSeats(ctx, "evt-1", seats))

	status, err := ledger.SeatStatus(seats[0])
	require.NoError(t, err)
	assert.Equal(t, layout.SeatAvailable, status)

	// Only sold seats can be returned
	assert.Error(t, registry.ReleaseSoldSeats(ctx, "evt-1", seats))
	requireConservation(t, ledger)
}

func TestHoldBestAvailable(t *testing.T) {
	registry, ledger := testRegistry(t, "evt-1", 100, 4)
	ctx := context.Background()

	hold, err := registry.HoldBestAvailable(ctx, "evt-1", "user-1", "General", 4)
	require.NoError(t, err)
	assert.Len(t, hold.Seats, 4)

	counts := ledger.Availability()["General"]
	assert.Equal(t, 4, counts.Held)

	_, err = registry.HoldBestAvailable(ctx, "evt-1", "user-2", "General", counts.Available+1)
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	_, err = registry.HoldBestAvailable(ctx, "evt-1", "user-2", "Balcony", 1)
	assert.ErrorIs(t, err, ErrSeatNotFound)
	requireConservation(t, ledger)
}

func TestSweepExpiredSkipsCommittedHolds(t *testing.T) {
	registry, ledger := testRegistry(t, "evt-1", 100, 4)
	ctx := context.Background()

	committed, err := registry.HoldSeats(ctx, "evt-1", "user-1", []layout.SeatRef{
		{Section: "Section A", Row: "A", SeatNumber: "1"},
	})
	require.NoError(t, err)
	_, err = registry.CommitHold(ctx, "evt-1", committed.ID)
	require.NoError(t, err)

	abandoned, err := registry.HoldSeats(ctx, "evt-1", "user-2", []layout.SeatRef{
		{Section: "Section A", Row: "A", SeatNumber: "2"},
	})
	require.NoError(t, err)

	// Past both holds' deadlines: only the uncommitted one is reclaimed
	swept := registry.SweepExpired(ctx, abandoned.ExpiresAt.Add(time.Second))
	require.Len(t, swept, 1)
	assert.Equal(t, ExpiredHold{EventID: "evt-1", HoldID: abandoned.ID}, swept[0])

	status, err := ledger.SeatStatus(layout.SeatRef{Section: "Section A", Row: "A", SeatNumber: "1"})
	require.NoError(t, err)
	assert.Equal(t, layout.SeatSold, status)

	status, err = ledger.SeatStatus(layout.SeatRef{Section: "Section A", Row: "A", SeatNumber: "2"})
	require.NoError(t, err)
	assert.Equal(t, layout.SeatAvailable, status)

	// Sweeping again finds nothing
	assert.Empty(t, registry.SweepExpired(ctx, abandoned.ExpiresAt.Add(time.Minute)))
	requireConservation(t, ledger)

	// The committed hold is evicted once its TTL lapses so the hold map
	// does not grow for the lifetime of the event, but its seats stay sold.
	_, found := ledger.GetHold(committed.ID)
	assert.False(t, found)
	status, err = ledger.SeatStatus(layout.SeatRef{Section: "Section A", Row: "A", SeatNumber: "1"})
	require.NoError(t, err)
	assert.Equal(t, layout.SeatSold, status)
}

func TestConservationUnderConcurrentTraffic(t *testing.T) {
	registry, ledger := testRegistry(t, "evt-1", 300, 6)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				hold, err := registry.HoldBestAvailable(ctx, "evt-1", "user", "General", 2)
				if err != nil {
					continue
				}
				switch j % 3 {
				case 0:
					_, _ = registry.CommitHold(ctx, "evt-1", hold.ID)
				case 1:
					_ = registry.ReleaseHold(ctx, "evt-1", hold.ID)
				}
			}
		}()
	}
	wg.Wait()

	registry.SweepExpired(ctx, time.Now().Add(time.Hour))
	requireConservation(t, ledger)

	counts := ledger.Availability()["General"]
	assert.Equal(t, 0, counts.Held, "sweep past all deadlines must clear every hold")
}

func TestApplyToWritesStatusesIntoMap(t *testing.T) {
	m := testMap(t, 100, 4)
	registry := NewRegistry(10*time.Minute, nil, nil, nil)
	ledger := registry.Register("evt-1", m)
	ctx := context.Background()

	hold, err := registry.HoldSeats(ctx, "evt-1", "user-1", []layout.SeatRef{
		{Section: "Section A", Row: "A", SeatNumber: "1"},
	})
	require.NoError(t, err)
	_, err = registry.CommitHold(ctx, "evt-1", hold.ID)
	require.NoError(t, err)

	ledger.ApplyTo(m)
	seat, ok := m.FindSeat(layout.SeatRef{Section: "Section A", Row: "A", SeatNumber: "1"})
	require.True(t, ok)
	assert.Equal(t, layout.SeatSold, seat.Status)
}

func TestRegistryUnknownEvent(t *testing.T) {
	registry := NewRegistry(10*time.Minute, nil, nil, nil)

	_, err := registry.HoldSeats(context.Background(), "missing", "user", []layout.SeatRef{
		{Section: "A", Row: "A", SeatNumber: "1"},
	})
	assert.ErrorIs(t, err, ErrEventNotRegistered)
}
