// Package sse implements the Server-Sent Events wire format.
//
// The central type is Decoder, an incremental push decoder fed with raw
// byte chunks in whatever sizes the transport delivers them. Chunk
// boundaries carry no meaning: a chunk may end in the middle of a field
// name, a value, or a \r\n pair, and the decoder reassembles complete
// lines before any parsing happens. Events are dispatched synchronously,
// in the order their terminating blank line was observed.
//
// Parse is a one-shot convenience for callers that already hold a complete
// stream in memory. Writer is the producing counterpart, used by test
// servers to emit well-formed event streams over HTTP.
//
// Two deliberate deviations from the WHATWG event-stream algorithm are
// preserved for compatibility with existing producers: repeated data:
// lines within one event are not concatenated (the last one wins), and a
// trailing message without its terminating blank line is still dispatched
// when the stream ends.
package sse
