package events

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"seatwave/internal/bookings"
	"seatwave/internal/inventory"
	"seatwave/internal/layout"
	"seatwave/internal/shared/constants"
	"seatwave/internal/tickets"
	"seatwave/pkg/cache"
	"seatwave/pkg/logger"
)

// TicketCatalog is the slice of the ticket service events needs.
// tickets.Service satisfies it.
type TicketCatalog interface {
	CreateTicketTypes(ctx context.Context, types []tickets.TicketType) ([]tickets.TicketType, error)
	TicketTypesForEvent(ctx context.Context, eventID uuid.UUID) ([]tickets.TicketType, error)
}

type Service interface {
	CreateEvent(ctx context.Context, userID uuid.UUID, req CreateEventRequest) (*EventResponse, error)
	GetEvent(ctx context.Context, id uuid.UUID) (*EventResponse, error)
	GetAllEvents(ctx context.Context, query EventListQuery) (*PaginatedEvents, error)
	GetUpcomingEvents(ctx context.Context, limit int) ([]EventResponse, error)

	PreviewLayout(ctx context.Context, req PreviewLayoutRequest) (*layout.SeatingMap, error)
	GetSeatingMap(ctx context.Context, id uuid.UUID) (*layout.SeatingMap, error)
	GetAvailability(ctx context.Context, id uuid.UUID) (map[string]inventory.TierCounts, error)

	SnapshotSeatState(ctx context.Context, id uuid.UUID) error
	SnapshotAll(ctx context.Context) error
	RehydrateLedgers(ctx context.Context) (int, error)

	// StartTime satisfies tickets.EventSchedule
	StartTime(ctx context.Context, eventID uuid.UUID) (time.Time, error)
	// PriceSeats satisfies bookings.SeatPricer
	PriceSeats(ctx context.Context, eventID uuid.UUID, seats []layout.SeatRef) ([]bookings.PricedSeat, error)
}

type service struct {
	repo         Repository
	tickets      TicketCatalog
	registry     *inventory.Registry
	cacheService cache.Service
	log          *logger.Logger
}

func NewService(repo Repository, ticketSvc TicketCatalog, registry *inventory.Registry, cacheService cache.Service, log *logger.Logger) Service {
	if log == nil {
		log = logger.GetDefault()
	}
	return &service{
		repo:         repo,
		tickets:      ticketSvc,
		registry:     registry,
		cacheService: cacheService,
		log:          log,
	}
}

// Cache helpers, all best-effort: a cache outage never fails a request

func (s *service) setCache(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if s.cacheService == nil {
		return
	}
	if err := s.cacheService.Set(ctx, key, value, ttl); err != nil {
		s.log.WithError(err).Warn("cache set failed", "key", key)
	}
}

func (s *service) getCache(ctx context.Context, key string, dest interface{}) bool {
	if s.cacheService == nil {
		return false
	}
	return s.cacheService.Get(ctx, key, dest) == nil
}

func (s *service) invalidateEventCache(ctx context.Context, eventID uuid.UUID) {
	if s.cacheService == nil {
		return
	}
	patterns := []string{
		constants.CACHE_KEY_EVENTS_LIST + "*",
		constants.CACHE_KEY_EVENTS_UPCOMING + "*",
		constants.BuildEventDetailKey(eventID.String()) + "*",
		constants.BuildSeatingMapKey(eventID.String()),
	}
	for _, pattern := range patterns {
		if err := s.cacheService.DeletePattern(ctx, pattern); err != nil {
			s.log.WithError(err).Warn("cache invalidation failed", "pattern", pattern)
		}
	}
}

func tierRefs(inputs []TicketTypeInput) []layout.TicketTypeRef {
	refs := make([]layout.TicketTypeRef, 0, len(inputs))
	for _, in := range inputs {
		role := layout.TierRole(in.Role)
		if !role.IsValid() {
			role = layout.RoleStandard
		}
		refs = append(refs, layout.TicketTypeRef{Name: in.Name, Role: role})
	}
	return refs
}

// CreateEvent persists a new event with its seating map and ticket
// types, and registers its seat ledger. A valid caller-supplied map is
// stored exactly as given; the generator only runs when the map is
// absent or fails validation.
func (s *service) CreateEvent(ctx context.Context, userID uuid.UUID, req CreateEventRequest) (*EventResponse, error) {
	refs := tierRefs(req.TicketTypes)

	var seatingMap layout.SeatingMap
	if req.SeatingMap != nil && req.SeatingMap.Validate() == nil {
		seatingMap = *req.SeatingMap
		if err := s.checkTiersExist(&seatingMap, refs); err != nil {
			return nil, err
		}
	} else {
		if req.TotalSeats == 0 || req.TotalSections == 0 {
			return nil, fmt.Errorf("%w: need total_seats and total_sections to generate a layout",
				layout.ErrInvalidDimension)
		}
		generated, err := layout.Generate(layout.GenerateRequest{
			Archetype:     req.Archetype,
			TotalSeats:    req.TotalSeats,
			TotalSections: req.TotalSections,
			TicketTypes:   refs,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to generate seating map: %w", err)
		}
		seatingMap = generated
	}

	status := StatusDraft
	if req.Publish {
		status = StatusPublished
	}

	event := &Event{
		ID:            uuid.New(),
		Name:          req.Name,
		Description:   req.Description,
		Venue:         req.Venue,
		StartTime:     req.StartTime,
		Status:        status,
		SeatingMap:    seatingMap,
		TotalSeats:    seatingMap.TotalSeats(),
		TotalSections: len(seatingMap.Sections),
		CreatedBy:     userID,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	types := make([]tickets.TicketType, 0, len(req.TicketTypes))
	for i, in := range req.TicketTypes {
		types = append(types, tickets.TicketType{
			EventID: event.ID,
			Name:    in.Name,
			Role:    refs[i].Role,
			Price:   in.Price,
			Color:   in.Color,
		})
	}
	created, err := s.tickets.CreateTicketTypes(ctx, types)
	if err != nil {
		return nil, err
	}

	if status.CanSell() {
		s.registry.Register(event.ID.String(), &event.SeatingMap)
	}
	s.invalidateEventCache(ctx, event.ID)
	s.log.LogEventCreated(ctx, event.ID.String(), userID.String())

	resp := event.ToResponse()
	resp.TicketTypes = created
	s.attachAvailability(&resp, event.ID)
	return &resp, nil
}

// checkTiersExist verifies every section of a caller-supplied map
// references a defined ticket type
func (s *service) checkTiersExist(m *layout.SeatingMap, refs []layout.TicketTypeRef) error {
	known := make(map[string]bool, len(refs))
	for _, ref := range refs {
		known[ref.Name] = true
	}
	for i := range m.Sections {
		if !known[m.Sections[i].TicketTier] {
			return fmt.Errorf("%w: section %q uses tier %q",
				ErrUnknownTicketTier, m.Sections[i].Name, m.Sections[i].TicketTier)
		}
	}
	return nil
}

func (s *service) GetEvent(ctx context.Context, id uuid.UUID) (*EventResponse, error) {
	cacheKey := constants.BuildEventDetailKey(id.String())

	var resp EventResponse
	if !s.getCache(ctx, cacheKey, &resp) {
		event, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		resp = event.ToResponse()
		types, err := s.tickets.TicketTypesForEvent(ctx, id)
		if err == nil {
			resp.TicketTypes = types
		}
		s.setCache(ctx, cacheKey, resp, constants.TTL_EVENT_DETAIL)
	}

	// Availability is live, never served from the detail cache
	s.attachAvailability(&resp, id)
	return &resp, nil
}

func (s *service) attachAvailability(resp *EventResponse, eventID uuid.UUID) {
	ledger, err := s.registry.Get(eventID.String())
	if err != nil {
		return
	}
	resp.Availability = ledger.Availability()
}

func (s *service) GetAllEvents(ctx context.Context, query EventListQuery) (*PaginatedEvents, error) {
	if query.Page == 0 {
		query.Page = 1
	}
	if query.Limit == 0 {
		query.Limit = 20
	}

	cacheKey := constants.BuildEventListKey(query.Page, query.Limit, query.Status)
	cacheable := query.Search == "" && query.Venue == ""

	var resp PaginatedEvents
	if cacheable && s.getCache(ctx, cacheKey, &resp) {
		return &resp, nil
	}

	list, total, err := s.repo.GetAll(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	resp = PaginatedEvents{
		Events:     make([]EventResponse, 0, len(list)),
		TotalCount: total,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(query.Limit))),
	}
	for i := range list {
		resp.Events = append(resp.Events, list[i].ToResponse())
	}

	if cacheable {
		s.setCache(ctx, cacheKey, resp, constants.TTL_EVENT_LIST)
	}
	return &resp, nil
}

func (s *service) GetUpcomingEvents(ctx context.Context, limit int) ([]EventResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	cacheKey := fmt.Sprintf("%s:limit:%d", constants.CACHE_KEY_EVENTS_UPCOMING, limit)
	var resp []EventResponse
	if s.getCache(ctx, cacheKey, &resp) {
		return resp, nil
	}

	list, err := s.repo.GetUpcoming(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming events: %w", err)
	}
	resp = make([]EventResponse, 0, len(list))
	for i := range list {
		resp = append(resp, list[i].ToResponse())
	}
	s.setCache(ctx, cacheKey, resp, constants.TTL_EVENT_UPCOMING)
	return resp, nil
}

// PreviewLayout runs the generator without touching storage, used by
// organizers to iterate on a layout before creating the event
func (s *service) PreviewLayout(ctx context.Context, req PreviewLayoutRequest) (*layout.SeatingMap, error) {
	m, err := layout.Generate(layout.GenerateRequest{
		Archetype:     req.Archetype,
		TotalSeats:    req.TotalSeats,
		TotalSections: req.TotalSections,
		TicketTypes:   tierRefs(req.TicketTypes),
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetSeatingMap returns the event's map with live seat statuses. The
// persisted document is cached; the ledger overlay is applied per
// request so callers always see current holds and sales.
func (s *service) GetSeatingMap(ctx context.Context, id uuid.UUID) (*layout.SeatingMap, error) {
	cacheKey := constants.BuildSeatingMapKey(id.String())

	var m layout.SeatingMap
	if !s.getCache(ctx, cacheKey, &m) {
		event, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		m = event.SeatingMap
		s.setCache(ctx, cacheKey, m, constants.TTL_SEATING_MAP)
	}

	if ledger, err := s.registry.Get(id.String()); err == nil {
		ledger.ApplyTo(&m)
	}
	return &m, nil
}

func (s *service) GetAvailability(ctx context.Context, id uuid.UUID) (map[string]inventory.TierCounts, error) {
	ledger, err := s.registry.Get(id.String())
	if err != nil {
		return nil, err
	}
	counts := ledger.Availability()
	s.setCache(ctx, constants.BuildSeatAvailabilityKey(id.String()), counts, constants.TTL_SEAT_AVAILABILITY)
	return counts, nil
}

// SnapshotSeatState writes the ledger's current seat statuses back into
// the persisted seating map so a restart rebuilds from recent state
func (s *service) SnapshotSeatState(ctx context.Context, id uuid.UUID) error {
	ledger, err := s.registry.Get(id.String())
	if err != nil {
		return err
	}
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	ledger.ApplyTo(&event.SeatingMap)
	if err := s.repo.UpdateSeatingMap(ctx, id, &event.SeatingMap); err != nil {
		return fmt.Errorf("failed to snapshot seat state for event %s: %w", id, err)
	}
	if s.cacheService != nil {
		if err := s.cacheService.Delete(ctx, constants.BuildSeatingMapKey(id.String())); err != nil {
			s.log.WithError(err).Warn("failed to invalidate seating map cache", "event_id", id.String())
		}
	}
	return nil
}

// SnapshotAll persists every loaded ledger, called on graceful shutdown
func (s *service) SnapshotAll(ctx context.Context) error {
	list, err := s.repo.GetOnSale(ctx)
	if err != nil {
		return err
	}
	for i := range list {
		if err := s.SnapshotSeatState(ctx, list[i].ID); err != nil && err != inventory.ErrEventNotRegistered {
			s.log.WithError(err).Error("seat state snapshot failed", "event_id", list[i].ID.String())
		}
	}
	return nil
}

// RehydrateLedgers rebuilds the in-memory seat ledgers from the persisted
// seating maps on startup. Seats snapshotted as HELD come back available,
// their holds died with the process.
func (s *service) RehydrateLedgers(ctx context.Context) (int, error) {
	list, err := s.repo.GetOnSale(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load events for rehydration: %w", err)
	}
	for i := range list {
		s.registry.Register(list[i].ID.String(), &list[i].SeatingMap)
	}
	s.log.InfoWithContext(ctx, "seat ledgers rehydrated", map[string]interface{}{"events": len(list)})
	return len(list), nil
}

// StartTime satisfies tickets.EventSchedule for the return window check
func (s *service) StartTime(ctx context.Context, eventID uuid.UUID) (time.Time, error) {
	event, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return time.Time{}, err
	}
	return event.StartTime, nil
}

// PriceSeats satisfies bookings.SeatPricer. Each seat prices at its
// section tier's ticket type, unless the seat carries an override price.
func (s *service) PriceSeats(ctx context.Context, eventID uuid.UUID, seats []layout.SeatRef) ([]bookings.PricedSeat, error) {
	event, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.Status.CanSell() {
		return nil, ErrEventNotOnSale
	}

	types, err := s.tickets.TicketTypesForEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	typeByName := make(map[string]*tickets.TicketType, len(types))
	for i := range types {
		typeByName[types[i].Name] = &types[i]
	}
	tierBySection := make(map[string]string, len(event.SeatingMap.Sections))
	for i := range event.SeatingMap.Sections {
		tierBySection[event.SeatingMap.Sections[i].Name] = event.SeatingMap.Sections[i].TicketTier
	}

	priced := make([]bookings.PricedSeat, 0, len(seats))
	for _, ref := range seats {
		seat, ok := event.SeatingMap.FindSeat(ref)
		if !ok {
			return nil, fmt.Errorf("%w: %s", inventory.ErrSeatNotFound, ref)
		}
		tt, ok := typeByName[tierBySection[ref.Section]]
		if !ok {
			return nil, fmt.Errorf("%w: section %q tier %q",
				ErrUnknownTicketTier, ref.Section, tierBySection[ref.Section])
		}
		price := tt.Price
		if seat.OverridePrice != nil {
			price = *seat.OverridePrice
		}
		priced = append(priced, bookings.PricedSeat{
			Ref:            ref,
			TicketTypeID:   tt.ID,
			TicketTypeName: tt.Name,
			Price:          price,
		})
	}
	return priced, nil
}
