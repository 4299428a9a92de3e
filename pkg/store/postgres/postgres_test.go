package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	pgmodule "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/rhuss/strom/pkg/sse"
	"github.com/rhuss/strom/pkg/store"
)

func init() {
	// Configure testcontainers to use podman.
	// Detect the podman socket from `podman machine inspect`.
	if os.Getenv("DOCKER_HOST") == "" {
		out, err := exec.Command("podman", "machine", "inspect", "--format", "{{.ConnectionInfo.PodmanSocket.Path}}").Output()
		if err == nil {
			sock := strings.TrimSpace(string(out))
			if sock != "" {
				os.Setenv("DOCKER_HOST", "unix://"+sock)
			}
		}
	}
	// Ryuk needs privileged mode with podman.
	if os.Getenv("TESTCONTAINERS_RYUK_CONTAINER_PRIVILEGED") == "" {
		os.Setenv("TESTCONTAINERS_RYUK_CONTAINER_PRIVILEGED", "true")
	}
}

// setupTestDB starts a PostgreSQL container and returns a connected
// Recorder. Tests are skipped if no container runtime is available.
func setupTestDB(t *testing.T) *Recorder {
	t.Helper()

	if os.Getenv("SKIP_INTEGRATION") == "true" {
		t.Skip("SKIP_INTEGRATION=true, skipping PostgreSQL integration tests")
	}

	if _, err := exec.LookPath("podman"); err != nil {
		t.Skip("podman not found, skipping integration tests")
	}

	ctx := context.Background()

	container, err := pgmodule.Run(ctx,
		"postgres:16-alpine",
		pgmodule.WithDatabase("strom_test"),
		pgmodule.WithUsername("test"),
		pgmodule.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skipf("skipping: could not start PostgreSQL container (is podman running?): %v", err)
	}

	t.Cleanup(func() {
		container.Terminate(context.Background())
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("getting connection string: %v", err)
	}

	rec, err := New(ctx, Config{
		DSN:            connStr,
		MaxConns:       5,
		MinConns:       1,
		MigrateOnStart: true,
	})
	if err != nil {
		t.Fatalf("creating recorder: %v", err)
	}

	t.Cleanup(func() {
		rec.Close()
	})

	return rec
}

func strptr(s string) *string { return &s }

func TestSaveAndListEvents(t *testing.T) {
	rec := setupTestDB(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		ev := sse.Event{
			Event: "update",
			ID:    strptr(fmt.Sprintf("id-%d", i)),
			Data:  strptr(fmt.Sprintf(`{"n":%d}`, i)),
		}
		if err := rec.SaveEvent(ctx, "s1", i, ev); err != nil {
			t.Fatalf("SaveEvent(%d) error: %v", i, err)
		}
	}

	events, err := rec.ListEvents(ctx, "s1", 0)
	if err != nil {
		t.Fatalf("ListEvents error: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("len(events) = %d, want 3", len(events))
	}
	for i, se := range events {
		if se.Seq != i+1 {
			t.Errorf("events[%d].Seq = %d, want %d", i, se.Seq, i+1)
		}
		if se.Event.Event != "update" {
			t.Errorf("events[%d].Event.Event = %q, want %q", i, se.Event.Event, "update")
		}
	}
	if events[2].Event.Data == nil || *events[2].Event.Data != `{"n":3}` {
		t.Errorf("Data = %v, want %q", events[2].Event.Data, `{"n":3}`)
	}
}

func TestOptionalFieldsRoundTrip(t *testing.T) {
	rec := setupTestDB(t)
	ctx := context.Background()

	// An event with only the default type: ID/Data/Retry stay nil.
	if err := rec.SaveEvent(ctx, "s1", 1, sse.Event{Event: "message"}); err != nil {
		t.Fatalf("SaveEvent error: %v", err)
	}
	// An event with an empty (but set) data field.
	if err := rec.SaveEvent(ctx, "s1", 2, sse.Event{Event: "message", Data: strptr("")}); err != nil {
		t.Fatalf("SaveEvent error: %v", err)
	}

	events, err := rec.ListEvents(ctx, "s1", 0)
	if err != nil {
		t.Fatalf("ListEvents error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	if events[0].Event.Data != nil {
		t.Errorf("events[0].Data = %v, want nil", events[0].Event.Data)
	}
	if events[1].Event.Data == nil || *events[1].Event.Data != "" {
		t.Errorf("events[1].Data = %v, want empty string", events[1].Event.Data)
	}
}

func TestListLimit(t *testing.T) {
	rec := setupTestDB(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		if err := rec.SaveEvent(ctx, "s1", i, sse.Event{Event: "message"}); err != nil {
			t.Fatalf("SaveEvent error: %v", err)
		}
	}

	events, err := rec.ListEvents(ctx, "s1", 2)
	if err != nil {
		t.Fatalf("ListEvents error: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("len(events) = %d, want 2", len(events))
	}
}

func TestUnknownStream(t *testing.T) {
	rec := setupTestDB(t)

	_, err := rec.ListEvents(context.Background(), "missing", 0)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDuplicateSeqConflicts(t *testing.T) {
	rec := setupTestDB(t)
	ctx := context.Background()

	if err := rec.SaveEvent(ctx, "s1", 1, sse.Event{Event: "message"}); err != nil {
		t.Fatalf("SaveEvent error: %v", err)
	}
	err := rec.SaveEvent(ctx, "s1", 1, sse.Event{Event: "message"})
	if !errors.Is(err, store.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func TestHealthCheck(t *testing.T) {
	rec := setupTestDB(t)
	if err := rec.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck error: %v", err)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	rec := setupTestDB(t)
	// Migrations already ran in New; a second pass must be a no-op.
	if err := rec.migrate(context.Background()); err != nil {
		t.Errorf("second migrate error: %v", err)
	}
}
