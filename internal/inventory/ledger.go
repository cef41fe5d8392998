package inventory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"seatwave/internal/layout"
	"seatwave/pkg/logger"

	"github.com/google/uuid"
)

// Hold is a temporary exclusive claim on a set of seats. It either
// commits into a sale before ExpiresAt or gets reclaimed by the sweeper.
type Hold struct {
	ID        string
	EventID   string
	HolderID  string
	Seats     []layout.SeatRef
	ExpiresAt time.Time
	Committed bool
}

// seatState is the ledger's view of one seat
type seatState struct {
	ref    layout.SeatRef
	tier   string
	status layout.SeatStatus
	holdID string
}

// TierCounts is the availability snapshot for one ticket tier.
// Available + Held + Sold always equals Total.
type TierCounts struct {
	Total     int `json:"total"`
	Available int `json:"available"`
	Held      int `json:"held"`
	Sold      int `json:"sold"`
}

// Ledger is the single authority for seat status of one event. All
// transitions happen under its mutex; nothing inside the critical section
// performs I/O, so hold latency stays bounded by map operations.
type Ledger struct {
	mu      sync.Mutex
	eventID string

	seats  map[string]*seatState
	order  []string
	holds  map[string]*Hold
	byTier map[string]*TierCounts

	holdTTL time.Duration
	now     func() time.Time
}

// transition is an audit record emitted after the mutex is released
type transition struct {
	seat   layout.SeatRef
	from   layout.SeatStatus
	to     layout.SeatStatus
	holdID string
}

// NewLedger builds a ledger from a seating map, seeding seat states from
// the statuses already recorded in the document.
func NewLedger(eventID string, m *layout.SeatingMap, holdTTL time.Duration) *Ledger {
	l := &Ledger{
		eventID: eventID,
		seats:   make(map[string]*seatState, m.TotalSeats()),
		order:   make([]string, 0, m.TotalSeats()),
		holds:   make(map[string]*Hold),
		byTier:  make(map[string]*TierCounts),
		holdTTL: holdTTL,
		now:     time.Now,
	}

	for i := range m.Sections {
		sec := &m.Sections[i]
		for j := range sec.Rows {
			row := &sec.Rows[j]
			for k := range row.Seats {
				seat := &row.Seats[k]
				ref := layout.SeatRef{Section: sec.Name, Row: row.Name, SeatNumber: seat.Number}
				status := seat.Status
				if status == "" || status == layout.SeatReturned {
					status = layout.SeatAvailable
				}

				key := ref.String()
				l.seats[key] = &seatState{ref: ref, tier: sec.TicketTier, status: status}
				l.order = append(l.order, key)

				counts := l.byTier[sec.TicketTier]
				if counts == nil {
					counts = &TierCounts{}
					l.byTier[sec.TicketTier] = counts
				}
				counts.Total++
				switch status {
				case layout.SeatSold:
					counts.Sold++
				case layout.SeatHeld:
					// Holds do not survive a restart; the seats go back on sale
					l.seats[key].status = layout.SeatAvailable
					counts.Available++
				default:
					counts.Available++
				}
			}
		}
	}

	return l
}

// EventID returns the event this ledger guards
func (l *Ledger) EventID() string {
	return l.eventID
}

// TryHold claims every requested seat or none of them. On conflict it
// returns a SeatUnavailableError listing all conflicting seats.
func (l *Ledger) tryHold(holderID string, seats []layout.SeatRef) (*Hold, []transition, error) {
	if len(seats) == 0 {
		return nil, nil, fmt.Errorf("%w: empty seat list", ErrSeatNotFound)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	states := make([]*seatState, 0, len(seats))
	var conflicts []layout.SeatRef
	seen := make(map[string]bool, len(seats))
	for _, ref := range seats {
		key := ref.String()
		if seen[key] {
			return nil, nil, fmt.Errorf("%w: duplicate seat %s in request", ErrSeatNotFound, key)
		}
		seen[key] = true

		state, ok := l.seats[key]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrSeatNotFound, key)
		}
		if state.status != layout.SeatAvailable {
			conflicts = append(conflicts, ref)
			continue
		}
		states = append(states, state)
	}
	if len(conflicts) > 0 {
		return nil, nil, &SeatUnavailableError{EventID: l.eventID, Conflicts: conflicts}
	}

	hold := &Hold{
		ID:        uuid.New().String(),
		EventID:   l.eventID,
		HolderID:  holderID,
		Seats:     append([]layout.SeatRef(nil), seats...),
		ExpiresAt: l.now().Add(l.holdTTL),
	}

	transitions := make([]transition, 0, len(states))
	for _, state := range states {
		state.status = layout.SeatHeld
		state.holdID = hold.ID
		l.byTier[state.tier].Available--
		l.byTier[state.tier].Held++
		transitions = append(transitions, transition{
			seat: state.ref, from: layout.SeatAvailable, to: layout.SeatHeld, holdID: hold.ID,
		})
	}
	l.holds[hold.ID] = hold

	return hold, transitions, nil
}

// HoldBestAvailable claims the first quantity available seats of the tier
// in map order, front sections first.
func (l *Ledger) holdBestAvailable(holderID, tier string, quantity int) (*Hold, []transition, error) {
	if quantity <= 0 {
		return nil, nil, fmt.Errorf("%w: quantity must be positive", ErrCapacityExceeded)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	counts, ok := l.byTier[tier]
	if !ok {
		return nil, nil, fmt.Errorf("%w: unknown tier %q", ErrSeatNotFound, tier)
	}
	if counts.Available < quantity {
		return nil, nil, fmt.Errorf("%w: tier %q has %d seats left, requested %d",
			ErrCapacityExceeded, tier, counts.Available, quantity)
	}

	hold := &Hold{
		ID:        uuid.New().String(),
		EventID:   l.eventID,
		HolderID:  holderID,
		ExpiresAt: l.now().Add(l.holdTTL),
	}

	transitions := make([]transition, 0, quantity)
	for _, key := range l.order {
		state := l.seats[key]
		if state.tier != tier || state.status != layout.SeatAvailable {
			continue
		}
		state.status = layout.SeatHeld
		state.holdID = hold.ID
		counts.Available--
		counts.Held++
		hold.Seats = append(hold.Seats, state.ref)
		transitions = append(transitions, transition{
			seat: state.ref, from: layout.SeatAvailable, to: layout.SeatHeld, holdID: hold.ID,
		})
		if len(hold.Seats) == quantity {
			break
		}
	}

	l.holds[hold.ID] = hold
	return hold, transitions, nil
}

// Commit turns a live hold into a sale. Calling it again for the same
// hold is a no-op returning the same seats, so payment callback retries
// never double-sell.
func (l *Ledger) commit(holdID string) ([]layout.SeatRef, []transition, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	hold, ok := l.holds[holdID]
	if !ok {
		return nil, nil, ErrHoldExpiredOrMissing
	}
	if hold.Committed {
		return hold.Seats, nil, nil
	}
	if l.now().After(hold.ExpiresAt) {
		transitions := l.releaseHoldLocked(hold)
		delete(l.holds, holdID)
		return nil, transitions, ErrHoldExpiredOrMissing
	}

	transitions := make([]transition, 0, len(hold.Seats))
	for _, ref := range hold.Seats {
		state := l.seats[ref.String()]
		state.status = layout.SeatSold
		state.holdID = ""
		l.byTier[state.tier].Held--
		l.byTier[state.tier].Sold++
		transitions = append(transitions, transition{
			seat: ref, from: layout.SeatHeld, to: layout.SeatSold, holdID: holdID,
		})
	}
	hold.Committed = true

	return hold.Seats, transitions, nil
}

// Release abandons a live hold, putting its seats back on sale
func (l *Ledger) release(holdID string) ([]transition, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	hold, ok := l.holds[holdID]
	if !ok {
		return nil, ErrHoldExpiredOrMissing
	}
	if hold.Committed {
		return nil, ErrHoldAlreadyCommitted
	}

	transitions := l.releaseHoldLocked(hold)
	delete(l.holds, holdID)
	return transitions, nil
}

// ReleaseSold puts sold seats back on sale after a ticket return or
// booking cancellation.
func (l *Ledger) releaseSold(seats []layout.SeatRef) ([]transition, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	states := make([]*seatState, 0, len(seats))
	for _, ref := range seats {
		state, ok := l.seats[ref.String()]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrSeatNotFound, ref.String())
		}
		if state.status != layout.SeatSold {
			return nil, fmt.Errorf("cannot return seat %s in status %s", ref.String(), state.status)
		}
		states = append(states, state)
	}

	transitions := make([]transition, 0, len(states))
	for _, state := range states {
		state.status = layout.SeatAvailable
		l.byTier[state.tier].Sold--
		l.byTier[state.tier].Available++
		transitions = append(transitions, transition{
			seat: state.ref, from: layout.SeatSold, to: layout.SeatAvailable,
		})
	}

	return transitions, nil
}

// releaseHoldLocked flips a hold's seats back to available. Caller holds the mutex.
func (l *Ledger) releaseHoldLocked(hold *Hold) []transition {
	transitions := make([]transition, 0, len(hold.Seats))
	for _, ref := range hold.Seats {
		state := l.seats[ref.String()]
		if state.status != layout.SeatHeld || state.holdID != hold.ID {
			continue
		}
		state.status = layout.SeatAvailable
		state.holdID = ""
		l.byTier[state.tier].Held--
		l.byTier[state.tier].Available++
		transitions = append(transitions, transition{
			seat: ref, from: layout.SeatHeld, to: layout.SeatAvailable, holdID: hold.ID,
		})
	}
	return transitions
}

// sweepExpired reclaims every uncommitted hold past its deadline and
// evicts committed holds whose TTL has lapsed, since those only stay
// around so commit retries stay idempotent.
func (l *Ledger) sweepExpired(now time.Time) (int, []transition) {
	l.mu.Lock()
	defer l.mu.Unlock()

	swept := 0
	var transitions []transition
	for id, hold := range l.holds {
		if !now.After(hold.ExpiresAt) {
			continue
		}
		if hold.Committed {
			delete(l.holds, id)
			continue
		}
		transitions = append(transitions, l.releaseHoldLocked(hold)...)
		delete(l.holds, id)
		swept++
	}
	return swept, transitions
}

// GetHold returns a copy of the hold, live or committed
func (l *Ledger) GetHold(holdID string) (Hold, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	hold, ok := l.holds[holdID]
	if !ok {
		return Hold{}, false
	}
	return *hold, true
}

// SeatStatus reports the current status of one seat
func (l *Ledger) SeatStatus(ref layout.SeatRef) (layout.SeatStatus, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.seats[ref.String()]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrSeatNotFound, ref.String())
	}
	return state.status, nil
}

// Availability returns per-tier counts, copied so callers never see
// in-flight mutations.
func (l *Ledger) Availability() map[string]TierCounts {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[string]TierCounts, len(l.byTier))
	for tier, counts := range l.byTier {
		out[tier] = *counts
	}
	return out
}

// ApplyTo writes current seat statuses into the given seating map so the
// document can be persisted or rendered. Held seats are written as HELD;
// they revert to AVAILABLE if the process restarts.
func (l *Ledger) ApplyTo(m *layout.SeatingMap) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range m.Sections {
		sec := &m.Sections[i]
		for j := range sec.Rows {
			row := &sec.Rows[j]
			for k := range row.Seats {
				key := layout.SeatRef{Section: sec.Name, Row: row.Name, SeatNumber: row.Seats[k].Number}.String()
				if state, ok := l.seats[key]; ok {
					row.Seats[k].Status = state.status
				}
			}
		}
	}
}

// Registry tracks one ledger per event and fans seat transitions out to
// the Redis mirror and the audit pipeline after each ledger call returns.
type Registry struct {
	mu      sync.RWMutex
	ledgers map[string]*Ledger

	holdTTL time.Duration
	mirror  Mirror
	audit   Auditor
	log     *logger.Logger
}

// NewRegistry builds an empty registry. Mirror and auditor may be nil.
func NewRegistry(holdTTL time.Duration, mirror Mirror, audit Auditor, log *logger.Logger) *Registry {
	if mirror == nil {
		mirror = NoopMirror{}
	}
	if audit == nil {
		audit = NoopAuditor{}
	}
	if log == nil {
		log = logger.GetDefault()
	}
	return &Registry{
		ledgers: make(map[string]*Ledger),
		holdTTL: holdTTL,
		mirror:  mirror,
		audit:   audit,
		log:     log,
	}
}

// Register builds and installs the ledger for an event, replacing any
// previous one. Called at event creation and on startup rehydration.
func (r *Registry) Register(eventID string, m *layout.SeatingMap) *Ledger {
	ledger := NewLedger(eventID, m, r.holdTTL)

	r.mu.Lock()
	r.ledgers[eventID] = ledger
	r.mu.Unlock()

	return ledger
}

// Deregister drops the ledger for an event
func (r *Registry) Deregister(eventID string) {
	r.mu.Lock()
	delete(r.ledgers, eventID)
	r.mu.Unlock()
}

// Get returns the ledger for an event
func (r *Registry) Get(eventID string) (*Ledger, error) {
	r.mu.RLock()
	ledger, ok := r.ledgers[eventID]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEventNotRegistered, eventID)
	}
	return ledger, nil
}

// HoldSeats places an all-or-nothing hold on the named seats
func (r *Registry) HoldSeats(ctx context.Context, eventID, holderID string, seats []layout.SeatRef) (*Hold, error) {
	ledger, err := r.Get(eventID)
	if err != nil {
		return nil, err
	}

	hold, transitions, err := ledger.tryHold(holderID, seats)
	if err != nil {
		return nil, err
	}

	r.afterHold(ctx, hold, transitions)
	return hold, nil
}

// HoldBestAvailable places a hold on the first N available seats of a tier
func (r *Registry) HoldBestAvailable(ctx context.Context, eventID, holderID, tier string, quantity int) (*Hold, error) {
	ledger, err := r.Get(eventID)
	if err != nil {
		return nil, err
	}

	hold, transitions, err := ledger.holdBestAvailable(holderID, tier, quantity)
	if err != nil {
		return nil, err
	}

	r.afterHold(ctx, hold, transitions)
	return hold, nil
}

// CommitHold finalizes a hold into a sale, idempotently
func (r *Registry) CommitHold(ctx context.Context, eventID, holdID string) ([]layout.SeatRef, error) {
	ledger, err := r.Get(eventID)
	if err != nil {
		return nil, err
	}

	seats, transitions, err := ledger.commit(holdID)
	r.publishTransitions(ctx, eventID, transitions)
	if err != nil {
		r.mirror.DeleteHold(ctx, eventID, holdID, seatRefsIn(transitions))
		return nil, err
	}
	if len(transitions) > 0 {
		r.mirror.DeleteHold(ctx, eventID, holdID, seats)
	}
	return seats, nil
}

// ReleaseHold abandons a live hold
func (r *Registry) ReleaseHold(ctx context.Context, eventID, holdID string) error {
	ledger, err := r.Get(eventID)
	if err != nil {
		return err
	}

	transitions, err := ledger.release(holdID)
	if err != nil {
		return err
	}

	r.publishTransitions(ctx, eventID, transitions)
	r.mirror.DeleteHold(ctx, eventID, holdID, seatRefsIn(transitions))
	return nil
}

// ReleaseSoldSeats puts sold seats back on sale after a return
func (r *Registry) ReleaseSoldSeats(ctx context.Context, eventID string, seats []layout.SeatRef) error {
	ledger, err := r.Get(eventID)
	if err != nil {
		return err
	}

	transitions, err := ledger.releaseSold(seats)
	if err != nil {
		return err
	}

	r.publishTransitions(ctx, eventID, transitions)
	return nil
}

// GetHold returns a copy of a hold, live or committed
func (r *Registry) GetHold(eventID, holdID string) (Hold, error) {
	ledger, err := r.Get(eventID)
	if err != nil {
		return Hold{}, err
	}
	hold, ok := ledger.GetHold(holdID)
	if !ok {
		return Hold{}, ErrHoldExpiredOrMissing
	}
	return hold, nil
}

// ExpiredHold identifies one hold reclaimed by a sweep
type ExpiredHold struct {
	EventID string
	HoldID  string
}

// SweepExpired reclaims expired holds across every registered ledger and
// returns the holds reclaimed so callers can cancel their checkouts.
func (r *Registry) SweepExpired(ctx context.Context, now time.Time) []ExpiredHold {
	r.mu.RLock()
	ledgers := make([]*Ledger, 0, len(r.ledgers))
	for _, l := range r.ledgers {
		ledgers = append(ledgers, l)
	}
	r.mu.RUnlock()

	var expired []ExpiredHold
	for _, ledger := range ledgers {
		swept, transitions := ledger.sweepExpired(now)
		if swept == 0 {
			continue
		}
		r.publishTransitions(ctx, ledger.EventID(), transitions)

		seatsPerHold := make(map[string]int)
		for _, tr := range transitions {
			seatsPerHold[tr.holdID]++
		}
		for holdID, count := range seatsPerHold {
			r.log.LogHoldSwept(ctx, holdID, ledger.EventID(), count)
			expired = append(expired, ExpiredHold{EventID: ledger.EventID(), HoldID: holdID})
		}
	}
	return expired
}

// afterHold runs the I/O that must stay outside the ledger mutex: the
// Redis hold mirror and the audit trail.
func (r *Registry) afterHold(ctx context.Context, hold *Hold, transitions []transition) {
	ttl := time.Until(hold.ExpiresAt)
	if err := r.mirror.SetHold(ctx, hold.EventID, hold.ID, hold.Seats, ttl); err != nil {
		r.log.WithError(err).Warn("hold mirror write failed", "hold_id", hold.ID)
	}
	r.publishTransitions(ctx, hold.EventID, transitions)
	r.log.LogHoldTaken(ctx, hold.ID, hold.EventID, len(hold.Seats), hold.ExpiresAt)
}

func (r *Registry) publishTransitions(ctx context.Context, eventID string, transitions []transition) {
	for _, tr := range transitions {
		r.log.LogSeatTransition(ctx, eventID, tr.seat.String(), string(tr.from), string(tr.to), tr.holdID)
		if err := r.audit.SeatTransition(ctx, eventID, tr.seat, tr.from, tr.to, tr.holdID); err != nil {
			r.log.WithError(err).Warn("seat transition audit publish failed",
				"event_id", eventID, "seat", tr.seat.String())
		}
	}
}

func seatRefsIn(transitions []transition) []layout.SeatRef {
	refs := make([]layout.SeatRef, 0, len(transitions))
	for _, tr := range transitions {
		refs = append(refs, tr.seat)
	}
	return refs
}
