package sse

import "strings"

// Decoder incrementally decodes an SSE stream from a sequence of raw byte
// chunks. It owns all decoding state and is the sole consumer of raw bytes
// and sole producer of events for one decode session.
//
// Drive it with Push for each chunk, then End on normal completion or Drop
// on cancellation. All dispatch happens synchronously inside Push and End:
// by the time Push returns, every event fully decodable from the bytes seen
// so far has been delivered to the sink. The Decoder performs no I/O and
// starts no goroutines; it is not safe for concurrent use and requires
// external serialization if shared.
//
// The event sink must not call back into the Decoder (except Drop); doing
// so is a programming error and panics.
type Decoder struct {
	onEvent func(Event)
	onEnd   func()

	// carry holds the unterminated tail of the input. It is kept as raw
	// bytes so a multi-byte UTF-8 codepoint split across chunks is
	// reassembled intact; '\r' and '\n' never occur inside a multi-byte
	// sequence, so byte-level line splitting is safe. carry never
	// contains a line terminator.
	carry []byte

	// skipLF is set when a chunk ended exactly on '\r'. A '\n' opening
	// the next chunk is then the second half of the same terminator, not
	// a blank line.
	skipLF bool

	// pending holds complete, terminator-free lines not yet consumed
	// into an event.
	pending []string

	dropped bool
	busy    bool
}

// NewDecoder creates a Decoder that invokes onEvent once per decoded event,
// in emission order, and onEnd (may be nil) after End has flushed the final
// events.
func NewDecoder(onEvent func(Event), onEnd func()) *Decoder {
	return &Decoder{onEvent: onEvent, onEnd: onEnd}
}

// Push feeds one chunk of raw bytes to the decoder. Complete lines are
// queued and processed immediately; the trailing fragment after the last
// terminator is carried over, since a future chunk may complete it. The
// sink is invoked zero or more times before Push returns. Push is a no-op
// after Drop.
func (d *Decoder) Push(chunk []byte) {
	if d.dropped {
		return
	}
	d.splitLines(chunk)
	d.process(false)
}

// End signals normal end of stream. A non-empty carryover is promoted to
// one final line even though it never saw a terminator, and a trailing
// message without its blank line is dispatched as a final event. The
// end-of-stream callback runs after all flushed events. No-op after Drop.
func (d *Decoder) End() {
	if d.dropped {
		return
	}
	d.skipLF = false
	if len(d.carry) > 0 {
		d.pending = append(d.pending, string(d.carry))
		d.carry = nil
	}
	d.process(true)
	if d.dropped {
		return
	}
	if d.onEnd != nil {
		d.onEnd()
	}
}

// Drop cancels the decode session. Queued lines are discarded immediately
// and no further events are ever dispatched; an in-flight Push or End
// finishes its current pass harmlessly. Drop may be called at any time,
// including from the sink, and never fails.
func (d *Decoder) Drop() {
	d.dropped = true
	d.pending = nil
	d.carry = nil
}

// splitLines appends chunk to the carryover and moves every
// terminator-delimited line to pending. Any of \r\n, \n, \r ends a line.
func (d *Decoder) splitLines(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	if d.skipLF {
		d.skipLF = false
		if chunk[0] == '\n' {
			chunk = chunk[1:]
			if len(chunk) == 0 {
				return
			}
		}
	}

	buf := append(d.carry, chunk...)
	start := 0
	for i := 0; i < len(buf); i++ {
		switch buf[i] {
		case '\n':
			d.pending = append(d.pending, string(buf[start:i]))
			start = i + 1
		case '\r':
			d.pending = append(d.pending, string(buf[start:i]))
			if i+1 < len(buf) {
				if buf[i+1] == '\n' {
					i++
				}
			} else {
				// The \r ended the chunk. If the next chunk
				// opens with \n it belongs to this terminator.
				d.skipLF = true
			}
			start = i + 1
		}
	}
	d.carry = append([]byte(nil), buf[start:]...)
}

// process consumes pending lines, dispatching an event at each blank-line
// boundary. In final mode (the End flush) a trailing message that never
// received its blank line is dispatched too; otherwise the partial message
// is pushed back onto the front of pending so it survives to the next pass.
//
// Exactly one pass may be active at a time. A second entry means the sink
// called back into the decoder, which is unsupported.
func (d *Decoder) process(final bool) {
	if d.busy {
		panic("sse: line processing re-entered; the event sink must not call back into the Decoder")
	}
	d.busy = true
	defer func() { d.busy = false }()

	var message []string
	for len(d.pending) > 0 && !d.dropped {
		line := d.pending[0]
		d.pending = d.pending[1:]

		switch {
		case line == "":
			// Event boundary. An empty message dispatches nothing.
			if len(message) > 0 {
				ev := parseMessage(message)
				message = nil
				d.onEvent(ev)
			}
		case line[0] == ':':
			// Comment line.
		default:
			message = append(message, line)
		}
	}

	if d.dropped || len(message) == 0 {
		return
	}
	if final {
		d.onEvent(parseMessage(message))
		return
	}
	d.pending = append(message, d.pending...)
}

// parseMessage parses accumulated message lines into an Event. A later
// occurrence of a field overwrites an earlier one; there is no multi-line
// data: concatenation. Unknown field names are discarded, name and value.
func parseMessage(lines []string) Event {
	ev := Event{Event: DefaultEventType}
	for _, line := range lines {
		name := line
		value := ""
		if idx := strings.IndexByte(line, ':'); idx >= 0 {
			name = line[:idx]
			value = line[idx+1:]
			// Exactly one leading space belongs to the separator;
			// any further spaces are part of the value.
			if strings.HasPrefix(value, " ") {
				value = value[1:]
			}
		}

		switch name {
		case "id":
			v := value
			ev.ID = &v
		case "event":
			ev.Event = value
		case "data":
			v := value
			ev.Data = &v
		case "retry":
			v := value
			ev.Retry = &v
		}
	}
	return ev
}
