package sse

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
)

// writerState tracks the state of a Writer.
type writerState int

const (
	writerIdle      writerState = iota // no writes yet
	writerStreaming                    // at least one event or comment written
	writerClosed                       // Close called
)

// Writer emits server-sent events over an http.ResponseWriter. SSE headers
// are set on the first write and every event is flushed immediately, so
// consumers see it without waiting for the handler to return.
//
// A Writer is safe for concurrent use.
type Writer struct {
	w  http.ResponseWriter
	rc *http.ResponseController

	mu    sync.Mutex
	state writerState
}

// NewWriter creates a Writer wrapping an http.ResponseWriter.
func NewWriter(w http.ResponseWriter) *Writer {
	return &Writer{
		w:  w,
		rc: http.NewResponseController(w),
	}
}

// WriteEvent sends a single event:
//
//	event: {type}\n
//	id: {id}\n
//	retry: {retry}\n
//	data: {data}\n
//	\n
//
// Only fields present on the event are written. Data must not contain line
// terminators: the decoder on the other side keeps one data line per event,
// so multi-line payloads have no faithful wire form here.
func (s *Writer) WriteEvent(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == writerClosed {
		return errors.New("cannot write event: writer is closed")
	}
	if ev.Data != nil && strings.ContainsAny(*ev.Data, "\r\n") {
		return errors.New("cannot write event: data contains a line terminator")
	}

	if err := s.start(); err != nil {
		return err
	}

	if ev.Event != "" {
		if _, err := fmt.Fprintf(s.w, "event: %s\n", ev.Event); err != nil {
			return fmt.Errorf("failed to write event type: %w", err)
		}
	}
	if ev.ID != nil {
		if _, err := fmt.Fprintf(s.w, "id: %s\n", *ev.ID); err != nil {
			return fmt.Errorf("failed to write event id: %w", err)
		}
	}
	if ev.Retry != nil {
		if _, err := fmt.Fprintf(s.w, "retry: %s\n", *ev.Retry); err != nil {
			return fmt.Errorf("failed to write retry: %w", err)
		}
	}
	if ev.Data != nil {
		if _, err := fmt.Fprintf(s.w, "data: %s\n", *ev.Data); err != nil {
			return fmt.Errorf("failed to write data: %w", err)
		}
	}
	if _, err := fmt.Fprint(s.w, "\n"); err != nil {
		return fmt.Errorf("failed to write event boundary: %w", err)
	}

	if err := s.rc.Flush(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	return nil
}

// WriteComment sends a comment line (": {text}"). Decoders discard
// comments, which makes them usable as keep-alive heartbeats.
func (s *Writer) WriteComment(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == writerClosed {
		return errors.New("cannot write comment: writer is closed")
	}
	if err := s.start(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(s.w, ": %s\n", text); err != nil {
		return fmt.Errorf("failed to write comment: %w", err)
	}
	if err := s.rc.Flush(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	return nil
}

// Close flushes and marks the writer as done; further writes fail.
func (s *Writer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == writerClosed {
		return nil
	}
	s.state = writerClosed
	return s.rc.Flush()
}

// start sets the SSE response headers on the first write.
// Must be called with s.mu held.
func (s *Writer) start() error {
	if s.state == writerStreaming {
		return nil
	}
	s.w.Header().Set("Content-Type", "text/event-stream")
	s.w.Header().Set("Cache-Control", "no-cache")
	s.w.Header().Set("Connection", "keep-alive")
	s.state = writerStreaming
	return nil
}
