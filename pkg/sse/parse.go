package sse

// Parse decodes a complete in-memory SSE stream and returns its events in
// order. It feeds the text through the same Push/End path used for chunked
// response bodies, so one-shot and streaming decoding always agree.
func Parse(text string) []Event {
	var events []Event
	d := NewDecoder(func(ev Event) {
		events = append(events, ev)
	}, nil)
	d.Push([]byte(text))
	d.End()
	return events
}
