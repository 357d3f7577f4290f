package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/rhuss/xsltfn/pkg/observability"
)

type fakeDriver struct {
	name    string
	prefix  string
	openErr error
	objects map[string]string
}

func (d *fakeDriver) Name() string { return d.name }

func (d *fakeDriver) Accepts(conn string) bool { return strings.HasPrefix(conn, d.prefix) }

func (d *fakeDriver) Open(context.Context, string) (Client, error) {
	if d.openErr != nil {
		return nil, d.openErr
	}
	return &fakeClient{objects: d.objects}, nil
}

type fakeClient struct {
	objects map[string]string
	closed  bool
}

func (c *fakeClient) Fetch(_ context.Context, container, name string) ([]byte, error) {
	if container == "broken" {
		return nil, errors.New("connection reset")
	}
	v, ok := c.objects[container+"/"+name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrObjectNotFound)
	}
	return []byte(v), nil
}

func (c *fakeClient) Close() error {
	c.closed = true
	return nil
}

func TestRegistryDispatch(t *testing.T) {
	first := &fakeDriver{name: "first", prefix: "one://", objects: map[string]string{"c/a": "from-first"}}
	catchAll := &fakeDriver{name: "catchall", prefix: "", objects: map[string]string{"c/a": "from-catchall"}}
	r := NewRegistry(first, catchAll)

	if got := r.Drivers(); len(got) != 2 || got[0] != "first" || got[1] != "catchall" {
		t.Errorf("Drivers() = %v", got)
	}

	tests := []struct {
		conn string
		want string
	}{
		{"one://x", "from-first"},
		{"AccountName=x", "from-catchall"},
	}
	for _, tt := range tests {
		c, err := r.Open(context.Background(), tt.conn)
		if err != nil {
			t.Fatalf("Open(%q) failed: %v", tt.conn, err)
		}
		got, err := c.Fetch(context.Background(), "c", "a")
		if err != nil || string(got) != tt.want {
			t.Errorf("Open(%q).Fetch = %q, %v; want %q", tt.conn, got, err, tt.want)
		}
		c.Close()
	}
}

func TestRegistryUnsupported(t *testing.T) {
	r := NewRegistry(&fakeDriver{name: "only", prefix: "only://"})

	_, err := r.Open(context.Background(), "other://")
	if !errors.Is(err, ErrUnsupportedConnectionString) {
		t.Errorf("error = %v, want ErrUnsupportedConnectionString", err)
	}
	if !IsConnectionStringError(err) {
		t.Error("unsupported connection string should be a connection string error")
	}
}

func TestRegistryOpenErrorWrapped(t *testing.T) {
	r := NewRegistry(&fakeDriver{name: "bad", prefix: "", openErr: fmt.Errorf("%w: bad key", ErrInvalidConnectionString)})

	_, err := r.Open(context.Background(), "x")
	if !IsConnectionStringError(err) {
		t.Errorf("error = %v, want connection string error", err)
	}
	if !strings.HasPrefix(err.Error(), "bad: ") {
		t.Errorf("error %q should carry the driver name", err)
	}
}

func TestIsConnectionStringError(t *testing.T) {
	if IsConnectionStringError(ErrObjectNotFound) {
		t.Error("ErrObjectNotFound is not a connection string error")
	}
	if IsConnectionStringError(nil) {
		t.Error("nil is not a connection string error")
	}
}

func TestInstrumentedFetchMetrics(t *testing.T) {
	d := &fakeDriver{name: "metrics-test", prefix: "", objects: map[string]string{"c/a": "12345"}}
	c, err := NewRegistry(d).Open(context.Background(), "x")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	ctx := context.Background()

	c.Fetch(ctx, "c", "a")
	c.Fetch(ctx, "c", "missing")
	c.Fetch(ctx, "broken", "a")

	for _, status := range []string{"ok", "not_found", "error"} {
		if got := fetchCount(t, "metrics-test", status); got != 1 {
			t.Errorf("fetches{status=%q} = %f, want 1", status, got)
		}
	}
}

func TestInstrumentedClose(t *testing.T) {
	inner := &fakeClient{}
	c := &instrumentedClient{Client: inner, driver: "x"}
	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !inner.closed {
		t.Error("Close should reach the driver client")
	}
}

func fetchCount(t *testing.T, driver, status string) float64 {
	t.Helper()
	m := &dto.Metric{}
	c, err := observability.StorageFetchesTotal.GetMetricWithLabelValues(driver, status)
	if err != nil {
		t.Fatalf("getting counter: %v", err)
	}
	if err := c.(prometheus.Metric).Write(m); err != nil {
		t.Fatalf("writing counter: %v", err)
	}
	return m.GetCounter().GetValue()
}
