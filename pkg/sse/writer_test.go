package sse

import (
	"net/http/httptest"
	"testing"
)

func TestWriterSSEFormat(t *testing.T) {
	rec := httptest.NewRecorder()
	w := NewWriter(rec)

	ev := Event{
		Event: "update",
		ID:    strptr("42"),
		Data:  strptr(`{"x":1}`),
	}
	if err := w.WriteEvent(ev); err != nil {
		t.Fatalf("WriteEvent error: %v", err)
	}

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want %q", ct, "text/event-stream")
	}

	want := "event: update\nid: 42\ndata: {\"x\":1}\n\n"
	if got := rec.Body.String(); got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
}

func TestWriterRoundTrip(t *testing.T) {
	rec := httptest.NewRecorder()
	w := NewWriter(rec)

	events := []Event{
		{Event: "update", ID: strptr("1"), Data: strptr("first")},
		{Event: "message", Data: strptr("second"), Retry: strptr("5000")},
	}
	if err := w.WriteComment("heartbeat"); err != nil {
		t.Fatalf("WriteComment error: %v", err)
	}
	for _, ev := range events {
		if err := w.WriteEvent(ev); err != nil {
			t.Fatalf("WriteEvent error: %v", err)
		}
	}

	// What the Writer emits must decode back to the same events; the
	// comment disappears.
	got := Parse(rec.Body.String())
	if !eventsEqual(got, events) {
		t.Errorf("decoded = %+v, want %+v", got, events)
	}
}

func TestWriterRejectsMultiLineData(t *testing.T) {
	w := NewWriter(httptest.NewRecorder())
	if err := w.WriteEvent(Event{Event: "message", Data: strptr("a\nb")}); err == nil {
		t.Error("expected error for data containing a line terminator")
	}
}

func TestWriterClosedRejectsWrites(t *testing.T) {
	w := NewWriter(httptest.NewRecorder())
	if err := w.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if err := w.WriteEvent(Event{Event: "message"}); err == nil {
		t.Error("expected error writing to a closed writer")
	}
	if err := w.WriteComment("x"); err == nil {
		t.Error("expected error writing comment to a closed writer")
	}
	// Close is idempotent.
	if err := w.Close(); err != nil {
		t.Errorf("second Close error: %v", err)
	}
}
