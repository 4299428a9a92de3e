package sse

// Event is a single decoded server-sent event.
//
// ID, Data, and Retry are nil when the corresponding field never appeared
// in the event's message lines; a field that appeared with an empty value
// is a non-nil pointer to "". Event defaults to "message" when no event:
// field was seen.
type Event struct {
	ID    *string `json:"id,omitempty"`
	Event string  `json:"event"`
	Data  *string `json:"data,omitempty"`
	Retry *string `json:"retry,omitempty"`
}

// DefaultEventType is the event type dispatched when a message carries no
// event: field.
const DefaultEventType = "message"
