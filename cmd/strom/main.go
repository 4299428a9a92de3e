// Command strom subscribes to a Server-Sent Events endpoint, decodes the
// stream incrementally, and prints each event as a JSON line on stdout.
//
// Configuration is layered: a YAML config file (see pkg/config), STROM_*
// environment variables, and command-line flags. Events can optionally be
// recorded to an in-memory buffer or PostgreSQL, and Prometheus metrics
// can be exposed on a separate port.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rhuss/strom/pkg/auth"
	"github.com/rhuss/strom/pkg/client"
	"github.com/rhuss/strom/pkg/config"
	"github.com/rhuss/strom/pkg/debug"
	"github.com/rhuss/strom/pkg/observability"
	"github.com/rhuss/strom/pkg/store"
	"github.com/rhuss/strom/pkg/store/memory"
	"github.com/rhuss/strom/pkg/store/postgres"
)

func main() {
	if err := run(); err != nil {
		slog.Error("strom failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "path to YAML config file")
		streamURL  = flag.String("url", "", "event source URL (overrides config)")
		streamName = flag.String("stream", "default", "stream name used for recording")
	)
	flag.Parse()

	if *streamURL != "" {
		os.Setenv("STROM_URL", *streamURL)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	debug.Init("", "")

	// Graceful shutdown: first signal cancels the subscription, which
	// drops the decoder and closes the event channel.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tokens, err := tokenSource(cfg.Auth)
	if err != nil {
		return fmt.Errorf("configuring auth: %w", err)
	}

	recorder, err := newRecorder(ctx, cfg.Record)
	if err != nil {
		return fmt.Errorf("configuring recorder: %w", err)
	}
	if recorder != nil {
		defer recorder.Close()
	}

	if cfg.Observability.Metrics.Enabled {
		startMetricsServer(cfg.Observability.Metrics)
	}

	c, err := client.New(client.Config{
		BaseURL:               cfg.Stream.URL,
		Headers:               cfg.Stream.Headers,
		TokenSource:           tokens,
		ResponseHeaderTimeout: cfg.Stream.ResponseHeaderTimeout,
		BufferSize:            cfg.Stream.BufferSize,
	})
	if err != nil {
		return err
	}

	slog.Info("subscribing", "url", cfg.Stream.URL, "stream", *streamName)

	ch, err := c.Subscribe(ctx, "")
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	seq := 0
	for msg := range ch {
		if msg.Err != nil {
			return msg.Err
		}
		if err := enc.Encode(msg.Event); err != nil {
			return fmt.Errorf("writing event: %w", err)
		}
		if recorder != nil {
			seq++
			if err := recorder.SaveEvent(ctx, *streamName, seq, *msg.Event); err != nil {
				observability.RecordErrorsTotal.Inc()
				slog.Warn("recording event failed", "stream", *streamName, "seq", seq, "error", err)
			}
		}
	}

	if ctx.Err() != nil {
		slog.Info("subscription cancelled")
	} else {
		slog.Info("stream ended", "events", seq)
	}
	return nil
}

// tokenSource builds the bearer token source for the configured auth type.
// Returns nil for type "none".
func tokenSource(cfg config.AuthConfig) (auth.TokenSource, error) {
	switch cfg.Type {
	case "none", "":
		return nil, nil
	case "token":
		return auth.StaticToken(cfg.Token), nil
	case "jwt":
		return auth.NewSigner(auth.SignerConfig{
			Secret:  cfg.JWT.Secret,
			Subject: cfg.JWT.Subject,
			Issuer:  cfg.JWT.Issuer,
			TTL:     cfg.JWT.TTL,
		})
	default:
		return nil, errors.New("unknown auth type: " + cfg.Type)
	}
}

// newRecorder builds the event recorder for the configured record type.
// Returns nil for type "none".
func newRecorder(ctx context.Context, cfg config.RecordConfig) (store.Recorder, error) {
	switch cfg.Type {
	case "none", "":
		return nil, nil
	case "memory":
		slog.Info("recording enabled", "type", "memory", "max_size", cfg.MaxSize)
		return memory.New(cfg.MaxSize), nil
	case "postgres":
		rec, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.Postgres.DSN,
			MaxConns:       cfg.Postgres.MaxConns,
			MigrateOnStart: cfg.Postgres.MigrateOnStart,
		})
		if err != nil {
			return nil, err
		}
		slog.Info("recording enabled", "type", "postgres")
		return rec, nil
	default:
		return nil, errors.New("unknown record type: " + cfg.Type)
	}
}

// startMetricsServer serves the Prometheus registry on its own port.
// Failures are logged, not fatal: metrics are auxiliary to the stream.
func startMetricsServer(cfg config.MetricsConfig) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.Handler())

	srv := &http.Server{
		Addr:        ":" + strconv.Itoa(cfg.Port),
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("metrics server starting", "port", cfg.Port, "path", cfg.Path)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Warn("metrics server failed", "error", err)
		}
	}()
}
