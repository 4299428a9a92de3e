// Package store provides utilities shared across event recorder
// implementations, including the Recorder interface and sentinel errors.
//
// Recorders (memory, postgres) persist decoded events in arrival order,
// keyed by stream name and sequence number.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/rhuss/strom/pkg/sse"
)

// Sentinel errors for recorder operations.
var (
	// ErrNotFound is returned when a stream has no recorded events.
	ErrNotFound = errors.New("stream not found")

	// ErrConflict is returned when an event with the given stream and
	// sequence number has already been recorded.
	ErrConflict = errors.New("event already recorded")
)

// StoredEvent is one persisted event together with its position in the
// stream and the time it was received.
type StoredEvent struct {
	Stream     string
	Seq        int
	Event      sse.Event
	ReceivedAt time.Time
}

// Recorder persists decoded events. Sequence numbers are assigned by the
// caller and must be strictly increasing within a stream; duplicates are
// rejected with ErrConflict.
type Recorder interface {
	// SaveEvent persists one event under (stream, seq).
	SaveEvent(ctx context.Context, stream string, seq int, ev sse.Event) error

	// ListEvents returns up to limit recorded events of a stream in
	// sequence order. limit <= 0 returns all events. Returns
	// ErrNotFound for an unknown stream.
	ListEvents(ctx context.Context, stream string, limit int) ([]StoredEvent, error)

	// HealthCheck verifies the backend is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
