// Package postgres provides a PostgreSQL implementation of store.Recorder.
// It uses pgx/v5 for connection pooling; events are stored one row per
// (stream, seq) with nullable columns for the optional SSE fields.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rhuss/strom/pkg/sse"
	"github.com/rhuss/strom/pkg/store"
)

// Recorder is a PostgreSQL-backed store.Recorder.
type Recorder struct {
	pool *pgxpool.Pool
}

// Ensure Recorder implements store.Recorder at compile time.
var _ store.Recorder = (*Recorder)(nil)

// New creates a new PostgreSQL recorder with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Recorder, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	r := &Recorder{pool: pool}

	if cfg.MigrateOnStart {
		if err := r.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return r, nil
}

// SaveEvent persists one decoded event.
func (r *Recorder) SaveEvent(ctx context.Context, stream string, seq int, ev sse.Event) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO events (stream, seq, event_type, event_id, data, retry)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		stream, seq, ev.Event, ev.ID, ev.Data, ev.Retry,
	)

	if err != nil {
		if isDuplicateKey(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("inserting event: %w", err)
	}

	return nil
}

// ListEvents returns up to limit events of a stream in sequence order.
func (r *Recorder) ListEvents(ctx context.Context, stream string, limit int) ([]store.StoredEvent, error) {
	query := `
		SELECT seq, event_type, event_id, data, retry, received_at
		FROM events
		WHERE stream = $1
		ORDER BY seq
	`
	args := []any{stream}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var events []store.StoredEvent
	for rows.Next() {
		se := store.StoredEvent{Stream: stream}
		if err := rows.Scan(&se.Seq, &se.Event.Event, &se.Event.ID, &se.Event.Data, &se.Event.Retry, &se.ReceivedAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, se)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading events: %w", err)
	}

	if len(events) == 0 {
		return nil, store.ErrNotFound
	}
	return events, nil
}

// HealthCheck verifies database connectivity.
func (r *Recorder) HealthCheck(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close releases the connection pool.
func (r *Recorder) Close() error {
	r.pool.Close()
	return nil
}

// isDuplicateKey checks if the error is a PostgreSQL unique violation (23505).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
