package inventory

import (
	"context"
	"encoding/json"
	"time"

	"seatwave/internal/layout"
	"seatwave/internal/shared/constants"

	"github.com/redis/go-redis/v9"
)

// Mirror reflects live holds into a shared store so other processes and
// dashboards can see hold state. The mirror is advisory: the in-process
// ledger stays the authority, and mirror failures are logged, never
// propagated into the hold path.
type Mirror interface {
	SetHold(ctx context.Context, eventID, holdID string, seats []layout.SeatRef, ttl time.Duration) error
	DeleteHold(ctx context.Context, eventID, holdID string, seats []layout.SeatRef) error
}

// NoopMirror is used when Redis is not configured
type NoopMirror struct{}

func (NoopMirror) SetHold(context.Context, string, string, []layout.SeatRef, time.Duration) error {
	return nil
}
func (NoopMirror) DeleteHold(context.Context, string, string, []layout.SeatRef) error {
	return nil
}

// mirroredHold is the JSON document stored under the hold key
type mirroredHold struct {
	HoldID  string   `json:"hold_id"`
	EventID string   `json:"event_id"`
	Seats   []string `json:"seats"`
}

// RedisMirror stores one key per held seat plus one key per hold, all
// with the hold's TTL so Redis self-cleans even if deletes are missed.
type RedisMirror struct {
	client *redis.Client
}

// NewRedisMirror creates a Redis-backed hold mirror
func NewRedisMirror(client *redis.Client) *RedisMirror {
	return &RedisMirror{client: client}
}

// SetHold writes the per-seat and per-hold keys
func (m *RedisMirror) SetHold(ctx context.Context, eventID, holdID string, seats []layout.SeatRef, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	doc := mirroredHold{HoldID: holdID, EventID: eventID}
	pipe := m.client.Pipeline()
	for _, ref := range seats {
		doc.Seats = append(doc.Seats, ref.String())
		pipe.Set(ctx, constants.BuildSeatHoldKey(eventID, ref.String()), holdID, ttl)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	pipe.Set(ctx, constants.BuildHoldKey(holdID), data, ttl)

	_, err = pipe.Exec(ctx)
	return err
}

// DeleteHold removes the per-seat and per-hold keys after commit or release
func (m *RedisMirror) DeleteHold(ctx context.Context, eventID, holdID string, seats []layout.SeatRef) error {
	keys := make([]string, 0, len(seats)+1)
	for _, ref := range seats {
		keys = append(keys, constants.BuildSeatHoldKey(eventID, ref.String()))
	}
	keys = append(keys, constants.BuildHoldKey(holdID))

	return m.client.Del(ctx, keys...).Err()
}
