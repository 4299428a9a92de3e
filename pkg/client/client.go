// Package client implements the HTTP subscription layer that owns the SSE
// decoder. It opens a long-lived GET request, reads the response body in
// whatever chunk sizes the transport delivers, and drives a sse.Decoder:
// Push per read, End on EOF, Drop on cancellation or transport failure.
package client

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rhuss/strom/pkg/auth"
	"github.com/rhuss/strom/pkg/debug"
	"github.com/rhuss/strom/pkg/observability"
	"github.com/rhuss/strom/pkg/sse"
)

// Config holds the settings for a streaming Client.
type Config struct {
	// BaseURL is the event source base URL. Required.
	BaseURL string

	// Headers are added to every subscription request.
	Headers map[string]string

	// TokenSource supplies the bearer token for the Authorization
	// header. Optional.
	TokenSource auth.TokenSource

	// ResponseHeaderTimeout bounds the wait for response headers after
	// the request is sent (default: 30s). The stream itself has no
	// timeout; its lifetime is controlled by the subscription context.
	ResponseHeaderTimeout time.Duration

	// BufferSize is the read buffer size in bytes (default: 8192).
	// Chunk boundaries carry no meaning for decoding, so this only
	// affects syscall granularity.
	BufferSize int
}

// applyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) applyDefaults() {
	if c.ResponseHeaderTimeout == 0 {
		c.ResponseHeaderTimeout = 30 * time.Second
	}
	if c.BufferSize == 0 {
		c.BufferSize = 8192
	}
}

// Message is one item delivered on a subscription channel: either a
// decoded event or a terminal transport error. The channel closes after
// the stream ends, errors, or the context is cancelled.
type Message struct {
	Event *sse.Event
	Err   error
}

// Client subscribes to SSE endpoints and decodes their streams.
type Client struct {
	httpClient *http.Client
	baseURL    string
	headers    map[string]string
	tokens     auth.TokenSource
	bufSize    int
}

// New creates a Client for the given event source.
func New(cfg Config) (*Client, error) {
	cfg.applyDefaults()
	if cfg.BaseURL == "" {
		return nil, NewTransportError("base URL is required")
	}

	// No overall client timeout: a stream can legitimately last longer
	// than any fixed limit. Only the header wait is bounded; lifecycle
	// control relies on context cancellation.
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = cfg.ResponseHeaderTimeout

	return &Client{
		httpClient: &http.Client{Transport: transport},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		headers:    cfg.Headers,
		tokens:     cfg.TokenSource,
		bufSize:    cfg.BufferSize,
	}, nil
}

// Subscribe opens the event stream at path (relative to the base URL) and
// returns a channel of messages. Events arrive in wire order; the channel
// is closed when the stream completes, fails, or ctx is cancelled.
// Cancelling ctx drops the decoder, so no events are delivered after it.
func (c *Client) Subscribe(ctx context.Context, path string) (<-chan Message, error) {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, NewTransportError("creating request: " + err.Error())
	}

	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if c.tokens != nil {
		token, err := c.tokens.Token()
		if err != nil {
			return nil, NewAuthError("obtaining token: " + err.Error())
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	debug.Log("client", "subscribing", "url", url)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.StreamErrorsTotal.WithLabelValues(string(ErrorTypeTransport)).Inc()
		return nil, MapNetworkError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		observability.StreamErrorsTotal.WithLabelValues(string(ErrorTypeHTTP)).Inc()
		return nil, MapHTTPError(resp)
	}

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		// Permissive: decode anyway, some servers omit or mangle the
		// content type.
		debug.Log("client", "unexpected content type", "content_type", ct)
	}

	ch := make(chan Message, 64)
	observability.StreamsActive.Inc()
	go c.pump(ctx, resp.Body, ch)
	return ch, nil
}

// pump reads the response body chunkwise and drives the decoder. It owns
// the channel and closes it when the stream is over.
func (c *Client) pump(ctx context.Context, body io.ReadCloser, ch chan Message) {
	start := time.Now()
	outcome := observability.OutcomeCompleted

	defer func() {
		body.Close()
		observability.StreamsActive.Dec()
		observability.StreamDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
		close(ch)
	}()

	dec := sse.NewDecoder(func(ev sse.Event) {
		observability.EventsTotal.WithLabelValues(ev.Event).Inc()
		select {
		case ch <- Message{Event: &ev}:
		case <-ctx.Done():
		}
	}, nil)

	buf := make([]byte, c.bufSize)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			observability.BytesTotal.Add(float64(n))
			if debug.TraceIsEnabled("client") {
				debug.Raw("client", string(buf[:n]))
			}
			dec.Push(buf[:n])
		}

		switch {
		case err == nil:
			continue
		case err == io.EOF:
			dec.End()
			return
		case ctx.Err() != nil:
			// The transport surfaces cancellation as a read error;
			// this is the byte source calling Drop, not a failure.
			dec.Drop()
			outcome = observability.OutcomeCancelled
			return
		default:
			dec.Drop()
			outcome = observability.OutcomeError
			observability.StreamErrorsTotal.WithLabelValues("read").Inc()
			select {
			case ch <- Message{Err: NewTransportError("reading stream: " + err.Error())}:
			case <-ctx.Done():
			}
			return
		}
	}
}
