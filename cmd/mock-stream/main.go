// Command mock-stream runs a deterministic Server-Sent Events server for
// conformance testing. Streams are parameterized by query string so the
// same request always produces the same events, which makes it usable as
// a fixture for decoder and client testing.
//
// GET /events serves a stream. Query parameters:
//
//	scenario   - "clean" (default), "mixed", "chaos", or "unterminated"
//	count      - number of events to emit (default: 5)
//	chunk      - flush the body in pieces of this many bytes (0: per event)
//	interval   - delay between flushes, e.g. "50ms" (default: none)
//
// Configuration:
//
//	MOCK_STREAM_PORT - Listen port (default: 9090)
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rhuss/strom/pkg/sse"
)

func main() {
	port := os.Getenv("MOCK_STREAM_PORT")
	if port == "" {
		port = "9090"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /events", handleEvents)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})

	srv := &http.Server{Addr: ":" + port, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("mock stream starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("mock stream failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("mock stream shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}

// --- Handler ---

func handleEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	scenario := q.Get("scenario")
	if scenario == "" {
		scenario = "clean"
	}
	count := intParam(q.Get("count"), 5)
	chunkSize := intParam(q.Get("chunk"), 0)
	interval, _ := time.ParseDuration(q.Get("interval"))

	if scenario == "clean" && chunkSize == 0 {
		// The clean scenario with per-event flushing goes through the
		// regular writer, the same path a well-behaved producer uses.
		serveClean(w, count, interval)
		return
	}

	body := renderScenario(scenario, count)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	rc := http.NewResponseController(w)
	if chunkSize <= 0 {
		chunkSize = len(body)
	}
	for start := 0; start < len(body); start += chunkSize {
		end := min(start+chunkSize, len(body))
		fmt.Fprint(w, body[start:end])
		if err := rc.Flush(); err != nil {
			return
		}
		if interval > 0 {
			time.Sleep(interval)
		}
	}
}

func serveClean(w http.ResponseWriter, count int, interval time.Duration) {
	sw := sse.NewWriter(w)
	if err := sw.WriteComment("mock stream"); err != nil {
		return
	}
	for i := 1; i <= count; i++ {
		id := strconv.Itoa(i)
		data := fmt.Sprintf(`{"seq":%d}`, i)
		ev := sse.Event{Event: "tick", ID: &id, Data: &data}
		if err := sw.WriteEvent(ev); err != nil {
			return
		}
		if interval > 0 {
			time.Sleep(interval)
		}
	}
	sw.Close()
}

// renderScenario produces the raw stream body for the non-clean scenarios.
func renderScenario(scenario string, count int) string {
	var b strings.Builder
	switch scenario {
	case "mixed":
		// Alternating line terminators and a comment between events.
		for i := 1; i <= count; i++ {
			term := []string{"\n", "\r\n", "\r"}[i%3]
			fmt.Fprintf(&b, "event: tick%sid: %d%sdata: {\"seq\":%d}%s%s", term, i, term, i, term, term)
			if i%2 == 0 {
				b.WriteString(": keepalive\n")
			}
		}
	case "chaos":
		// Unknown fields, overwritten data lines, field without a colon,
		// and a retry hint. Still a valid permissive stream.
		b.WriteString(": chaos scenario\n")
		b.WriteString("retry: 3000\n\n")
		for i := 1; i <= count; i++ {
			fmt.Fprintf(&b, "event: tick\r\n")
			fmt.Fprintf(&b, "x-trace: %d\n", i)
			fmt.Fprintf(&b, "data: discarded\n")
			fmt.Fprintf(&b, "data: {\"seq\":%d}\n", i)
			b.WriteString("marker\n")
			b.WriteString("\n")
		}
	case "unterminated":
		// The final event never gets its blank line; a decoder must
		// flush it when the connection closes.
		for i := 1; i < count; i++ {
			fmt.Fprintf(&b, "event: tick\ndata: {\"seq\":%d}\n\n", i)
		}
		fmt.Fprintf(&b, "event: tick\ndata: {\"seq\":%d}", count)
	default:
		for i := 1; i <= count; i++ {
			fmt.Fprintf(&b, "event: tick\nid: %d\ndata: {\"seq\":%d}\n\n", i, i)
		}
	}
	return b.String()
}

func intParam(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}
