package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rhuss/strom/pkg/sse"
	"github.com/rhuss/strom/pkg/store"
)

func strptr(s string) *string { return &s }

func TestSaveAndListEvents(t *testing.T) {
	r := New(0)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		ev := sse.Event{Event: "tick", Data: strptr(fmt.Sprintf("payload-%d", i))}
		if err := r.SaveEvent(ctx, "s1", i, ev); err != nil {
			t.Fatalf("SaveEvent(%d) error: %v", i, err)
		}
	}

	events, err := r.ListEvents(ctx, "s1", 0)
	if err != nil {
		t.Fatalf("ListEvents error: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("len(events) = %d, want 3", len(events))
	}
	for i, se := range events {
		if se.Seq != i+1 {
			t.Errorf("events[%d].Seq = %d, want %d", i, se.Seq, i+1)
		}
		if se.Event.Event != "tick" {
			t.Errorf("events[%d].Event.Event = %q, want %q", i, se.Event.Event, "tick")
		}
	}
	if *events[2].Event.Data != "payload-3" {
		t.Errorf("Data = %q, want %q", *events[2].Event.Data, "payload-3")
	}
}

func TestListLimit(t *testing.T) {
	r := New(0)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		if err := r.SaveEvent(ctx, "s1", i, sse.Event{Event: "message"}); err != nil {
			t.Fatalf("SaveEvent error: %v", err)
		}
	}

	events, err := r.ListEvents(ctx, "s1", 2)
	if err != nil {
		t.Fatalf("ListEvents error: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("len(events) = %d, want 2", len(events))
	}
}

func TestUnknownStream(t *testing.T) {
	r := New(0)
	_, err := r.ListEvents(context.Background(), "missing", 0)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDuplicateSeqConflicts(t *testing.T) {
	r := New(0)
	ctx := context.Background()

	if err := r.SaveEvent(ctx, "s1", 1, sse.Event{Event: "message"}); err != nil {
		t.Fatalf("SaveEvent error: %v", err)
	}
	err := r.SaveEvent(ctx, "s1", 1, sse.Event{Event: "message"})
	if !errors.Is(err, store.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func TestEviction(t *testing.T) {
	r := New(3)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		if err := r.SaveEvent(ctx, "s1", i, sse.Event{Event: "message"}); err != nil {
			t.Fatalf("SaveEvent error: %v", err)
		}
	}

	events, err := r.ListEvents(ctx, "s1", 0)
	if err != nil {
		t.Fatalf("ListEvents error: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("len(events) = %d, want 3 (capped)", len(events))
	}
	if events[0].Seq != 3 || events[2].Seq != 5 {
		t.Errorf("kept seqs %d..%d, want 3..5", events[0].Seq, events[2].Seq)
	}
}

func TestStreamsAreIndependent(t *testing.T) {
	r := New(0)
	ctx := context.Background()

	if err := r.SaveEvent(ctx, "a", 1, sse.Event{Event: "message"}); err != nil {
		t.Fatalf("SaveEvent error: %v", err)
	}
	if err := r.SaveEvent(ctx, "b", 1, sse.Event{Event: "message"}); err != nil {
		t.Fatalf("SaveEvent to second stream error: %v", err)
	}

	events, err := r.ListEvents(ctx, "a", 0)
	if err != nil {
		t.Fatalf("ListEvents error: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("stream a has %d events, want 1", len(events))
	}
}
