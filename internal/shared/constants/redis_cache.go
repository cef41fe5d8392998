package constants

import (
	"fmt"
	"time"
)

// Redis cache keys and TTLs, centralized.
// Pattern: seatwave:{module}:{operation}:{identifier}

const (
	CACHE_PREFIX = "seatwave"
)

// ================== CACHE TTL DURATIONS ==================

const (
	TTL_STATIC_MEDIUM = 12 * time.Hour // architectural data
	TTL_STATIC_SHORT  = 6 * time.Hour

	TTL_SEMI_STATIC_LONG   = 4 * time.Hour // seating maps before first sale
	TTL_SEMI_STATIC_MEDIUM = 2 * time.Hour // event details
	TTL_SEMI_STATIC_SHORT  = 1 * time.Hour // event listings
	TTL_SEMI_STATIC_QUICK  = 15 * time.Minute

	TTL_DYNAMIC_SHORT = 5 * time.Minute // seat availability
	TTL_REALTIME      = 30 * time.Second
)

// ================== EVENTS MODULE ==================

const (
	CACHE_KEY_EVENTS_LIST     = CACHE_PREFIX + ":events:list"          // + :page:X:limit:Y:status:Z
	CACHE_KEY_EVENTS_UPCOMING = CACHE_PREFIX + ":events:upcoming"      // + :page:X:limit:Y
	CACHE_KEY_EVENT_DETAIL    = CACHE_PREFIX + ":events:detail:uuid:"  // + event-id
)

const (
	TTL_EVENT_LIST     = TTL_SEMI_STATIC_SHORT
	TTL_EVENT_UPCOMING = TTL_SEMI_STATIC_QUICK
	TTL_EVENT_DETAIL   = TTL_SEMI_STATIC_MEDIUM
)

// ================== LAYOUT MODULE ==================

const (
	CACHE_KEY_SEATING_MAP = CACHE_PREFIX + ":layout:map:event:" // + event-id
)

const (
	TTL_SEATING_MAP = TTL_SEMI_STATIC_LONG
)

// ================== INVENTORY MODULE ==================

const (
	// Per-seat hold mirror keys (best-effort, ledger stays authoritative)
	CACHE_KEY_SEAT_HOLD = CACHE_PREFIX + ":inventory:seat_hold:" // + event-id:seat-ref
	CACHE_KEY_HOLD      = CACHE_PREFIX + ":inventory:hold:"      // + hold-id

	CACHE_KEY_SEAT_AVAILABILITY = CACHE_PREFIX + ":inventory:availability:event:" // + event-id
)

const (
	TTL_SEAT_AVAILABILITY = TTL_DYNAMIC_SHORT
)

// ================== KEY BUILDERS ==================

// BuildSeatingMapKey builds the cache key for an event's seating map
func BuildSeatingMapKey(eventID string) string {
	return CACHE_KEY_SEATING_MAP + eventID
}

// BuildEventDetailKey builds the cache key for event details
func BuildEventDetailKey(eventID string) string {
	return CACHE_KEY_EVENT_DETAIL + eventID
}

// BuildSeatHoldKey builds the mirror key for a single held seat
func BuildSeatHoldKey(eventID, seatRef string) string {
	return fmt.Sprintf("%s%s:%s", CACHE_KEY_SEAT_HOLD, eventID, seatRef)
}

// BuildHoldKey builds the mirror key for hold metadata
func BuildHoldKey(holdID string) string {
	return CACHE_KEY_HOLD + holdID
}

// BuildSeatAvailabilityKey builds the cache key for an event's availability snapshot
func BuildSeatAvailabilityKey(eventID string) string {
	return CACHE_KEY_SEAT_AVAILABILITY + eventID
}

// BuildEventListKey builds the cache key for a paginated event listing
func BuildEventListKey(page, limit int, status string) string {
	return fmt.Sprintf("%s:page:%d:limit:%d:status:%s", CACHE_KEY_EVENTS_LIST, page, limit, status)
}
