package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rhuss/xsltfn/pkg/debug"
	"github.com/rhuss/xsltfn/pkg/observability"
)

// Client reads objects from one opened store connection.
type Client interface {
	// Fetch downloads the full content of container/name into memory.
	// Returns ErrContainerNotFound or ErrObjectNotFound (wrapped) when
	// either is missing.
	Fetch(ctx context.Context, container, name string) ([]byte, error)

	// Close releases the connection.
	Close() error
}

// Opener opens a Client from a connection string.
type Opener interface {
	Open(ctx context.Context, connString string) (Client, error)
}

// Driver is a storage backend that recognises its own connection strings.
type Driver interface {
	// Name is a short label used in logs and metrics.
	Name() string

	// Accepts reports whether connString is addressed to this driver.
	Accepts(connString string) bool

	// Open parses connString and returns a ready client. Parse failures
	// must wrap ErrInvalidConnectionString.
	Open(ctx context.Context, connString string) (Client, error)
}

// Registry dispatches connection strings to the first accepting driver.
type Registry struct {
	drivers []Driver
}

// Ensure Registry implements Opener at compile time.
var _ Opener = (*Registry)(nil)

// NewRegistry creates a registry. Drivers are consulted in order, so a
// catch-all driver belongs last.
func NewRegistry(drivers ...Driver) *Registry {
	return &Registry{drivers: drivers}
}

// Drivers returns the registered driver names in lookup order.
func (r *Registry) Drivers() []string {
	names := make([]string, 0, len(r.drivers))
	for _, d := range r.drivers {
		names = append(names, d.Name())
	}
	return names
}

// Open finds the driver for connString and opens a client on it. The
// returned client records fetch metrics under the driver's name.
func (r *Registry) Open(ctx context.Context, connString string) (Client, error) {
	for _, d := range r.drivers {
		if !d.Accepts(connString) {
			continue
		}
		debug.Log("storage", "opening store", "driver", d.Name())
		c, err := d.Open(ctx, connString)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.Name(), err)
		}
		return &instrumentedClient{Client: c, driver: d.Name()}, nil
	}
	return nil, ErrUnsupportedConnectionString
}

// instrumentedClient wraps a driver client with fetch metrics.
type instrumentedClient struct {
	Client
	driver string
}

func (c *instrumentedClient) Fetch(ctx context.Context, container, name string) ([]byte, error) {
	start := time.Now()
	data, err := c.Client.Fetch(ctx, container, name)

	status := "ok"
	switch {
	case err == nil:
		observability.StylesheetSize.Observe(float64(len(data)))
	case isNotFound(err):
		status = "not_found"
	default:
		status = "error"
	}
	observability.StorageFetchesTotal.WithLabelValues(c.driver, status).Inc()
	observability.StorageFetchDuration.WithLabelValues(c.driver).Observe(time.Since(start).Seconds())

	debug.Log("storage", "fetch finished",
		"driver", c.driver, "container", container, "name", name,
		"bytes", len(data), "status", status)
	return data, err
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrObjectNotFound) || errors.Is(err, ErrContainerNotFound)
}
