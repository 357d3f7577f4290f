package postgres

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	pgmodule "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/rhuss/xsltfn/pkg/storage"
)

func init() {
	// Point testcontainers at the podman socket when DOCKER_HOST is unset.
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

// setupTestDB starts a PostgreSQL container and returns its connection
// string and a migrated pooled Store. Tests are skipped when no container
// runtime is available.
func setupTestDB(t *testing.T) (string, *Store) {
	t.Helper()

	if os.Getenv("SKIP_INTEGRATION") == "true" {
		t.Skip("SKIP_INTEGRATION=true, skipping PostgreSQL integration tests")
	}

	ctx := context.Background()

	container, err := pgmodule.Run(ctx,
		"postgres:16-alpine",
		pgmodule.WithDatabase("xsltfn_test"),
		pgmodule.WithUsername("test"),
		pgmodule.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skipf("skipping: could not start PostgreSQL container: %v", err)
	}

	t.Cleanup(func() {
		container.Terminate(context.Background())
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("getting connection string: %v", err)
	}

	store, err := New(ctx, Config{
		DSN:            connStr,
		MaxConns:       2,
		MigrateOnStart: true,
	})
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
	})

	return connStr, store
}

func TestPostgres_PutAndFetch(t *testing.T) {
	_, store := setupTestDB(t)
	ctx := context.Background()

	if err := store.Put(ctx, "xslt", "identity.xslt", []byte("v1")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Put(ctx, "xslt", "identity.xslt", []byte("v2")); err != nil {
		t.Fatalf("Put (replace) failed: %v", err)
	}

	got, err := store.Fetch(ctx, "xslt", "identity.xslt")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if string(got) != "v2" {
		t.Errorf("content = %q, want %q", got, "v2")
	}
}

func TestPostgres_NotFound(t *testing.T) {
	_, store := setupTestDB(t)
	ctx := context.Background()

	if err := store.CreateContainer(ctx, "xslt"); err != nil {
		t.Fatalf("CreateContainer failed: %v", err)
	}

	if _, err := store.Fetch(ctx, "xslt", "missing.xslt"); !errors.Is(err, storage.ErrObjectNotFound) {
		t.Errorf("missing object error = %v, want ErrObjectNotFound", err)
	}
	if _, err := store.Fetch(ctx, "other", "missing.xslt"); !errors.Is(err, storage.ErrContainerNotFound) {
		t.Errorf("missing container error = %v, want ErrContainerNotFound", err)
	}
}

func TestPostgres_Delete(t *testing.T) {
	_, store := setupTestDB(t)
	ctx := context.Background()

	if err := store.Put(ctx, "xslt", "a.xslt", []byte("a")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Delete(ctx, "xslt", "a.xslt"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, "xslt", "a.xslt"); !errors.Is(err, storage.ErrObjectNotFound) {
		t.Errorf("second Delete error = %v, want ErrObjectNotFound", err)
	}
}

func TestPostgres_MigrateIdempotent(t *testing.T) {
	_, store := setupTestDB(t)

	if err := store.Migrate(context.Background()); err != nil {
		t.Errorf("second Migrate failed: %v", err)
	}
}

func TestPostgres_HealthCheck(t *testing.T) {
	_, store := setupTestDB(t)

	if err := store.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}
}

func TestDriver_OpenPerRequest(t *testing.T) {
	connStr, store := setupTestDB(t)
	ctx := context.Background()

	if err := store.Put(ctx, "xslt", "b.xslt", []byte("b")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	d := Driver{}
	if !d.Accepts(connStr) {
		t.Fatalf("driver should accept %q", connStr)
	}
	client, err := d.Open(ctx, connStr)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer client.Close()

	got, err := client.Fetch(ctx, "xslt", "b.xslt")
	if err != nil || string(got) != "b" {
		t.Errorf("Fetch = %q, %v", got, err)
	}
}

func TestDriver_Accepts(t *testing.T) {
	tests := []struct {
		conn string
		want bool
	}{
		{"postgres://user@localhost/db", true},
		{"postgresql://user@localhost/db", true},
		{"memory://", false},
		{"AccountName=a;AccountKey=b", false},
	}
	for _, tt := range tests {
		if got := (Driver{}).Accepts(tt.conn); got != tt.want {
			t.Errorf("Accepts(%q) = %v, want %v", tt.conn, got, tt.want)
		}
	}
}

func TestDriver_OpenInvalid(t *testing.T) {
	_, err := (Driver{}).Open(context.Background(), "postgres://user@localhost:notaport/db")
	if !errors.Is(err, storage.ErrInvalidConnectionString) {
		t.Errorf("error = %v, want ErrInvalidConnectionString", err)
	}
}
