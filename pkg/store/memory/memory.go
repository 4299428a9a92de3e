// Package memory provides an in-memory implementation of store.Recorder
// for testing and lightweight use. Events are lost when the process
// restarts. An optional per-stream cap bounds memory usage.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/rhuss/strom/pkg/sse"
	"github.com/rhuss/strom/pkg/store"
)

// Recorder is an in-memory store.Recorder with an optional per-stream cap.
type Recorder struct {
	mu      sync.RWMutex
	streams map[string][]store.StoredEvent
	maxSize int // per stream, 0 = unlimited
}

// Ensure Recorder implements store.Recorder at compile time.
var _ store.Recorder = (*Recorder)(nil)

// New creates a new in-memory recorder. If maxSize is 0, streams grow
// without limit. If maxSize > 0, the oldest events of a stream are evicted
// when the limit is reached.
func New(maxSize int) *Recorder {
	return &Recorder{
		streams: make(map[string][]store.StoredEvent),
		maxSize: maxSize,
	}
}

// SaveEvent persists one event in memory. Sequence numbers must increase
// within a stream; a seq at or below the last recorded one returns
// ErrConflict.
func (r *Recorder) SaveEvent(_ context.Context, stream string, seq int, ev sse.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	events := r.streams[stream]
	if len(events) > 0 && seq <= events[len(events)-1].Seq {
		return store.ErrConflict
	}

	// Evict the oldest event if at capacity.
	if r.maxSize > 0 && len(events) >= r.maxSize {
		events = events[1:]
	}

	r.streams[stream] = append(events, store.StoredEvent{
		Stream:     stream,
		Seq:        seq,
		Event:      ev,
		ReceivedAt: time.Now(),
	})
	return nil
}

// ListEvents returns up to limit events of a stream in sequence order.
func (r *Recorder) ListEvents(_ context.Context, stream string, limit int) ([]store.StoredEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events, ok := r.streams[stream]
	if !ok {
		return nil, store.ErrNotFound
	}

	if limit > 0 && limit < len(events) {
		events = events[:limit]
	}

	// Copy so callers cannot mutate recorder state.
	out := make([]store.StoredEvent, len(events))
	copy(out, events)
	return out, nil
}

// HealthCheck always returns nil for the in-memory recorder.
func (r *Recorder) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory recorder.
func (r *Recorder) Close() error {
	return nil
}
