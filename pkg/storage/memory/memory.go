// Package memory provides an in-memory stylesheet store for testing and
// local development. Objects are lost when the process restarts.
//
// The driver answers connection strings of the form "memory://"; every
// such connection string addresses the same Store.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rhuss/xsltfn/pkg/storage"
)

// Scheme is the connection string prefix served by this driver.
const Scheme = "memory://"

// Store holds objects keyed by container and name.
type Store struct {
	mu         sync.RWMutex
	containers map[string]map[string][]byte
}

// Ensure Store implements storage.Driver at compile time.
var _ storage.Driver = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{containers: make(map[string]map[string][]byte)}
}

// CreateContainer makes an empty container. It is a no-op if the container
// already exists.
func (s *Store) CreateContainer(container string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.containers[container]; !ok {
		s.containers[container] = make(map[string][]byte)
	}
}

// Put stores a copy of content under container/name, creating the container
// if needed.
func (s *Store) Put(container, name string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	objects, ok := s.containers[container]
	if !ok {
		objects = make(map[string][]byte)
		s.containers[container] = objects
	}
	objects[name] = append([]byte(nil), content...)
}

// Delete removes container/name if present.
func (s *Store) Delete(container, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.containers[container], name)
}

// Fetch returns a copy of the object's content.
func (s *Store) Fetch(_ context.Context, container, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objects, ok := s.containers[container]
	if !ok {
		return nil, fmt.Errorf("container %q: %w", container, storage.ErrContainerNotFound)
	}
	content, ok := objects[name]
	if !ok {
		return nil, fmt.Errorf("object %q in container %q: %w", name, container, storage.ErrObjectNotFound)
	}
	return append([]byte(nil), content...), nil
}

// Name returns the driver label.
func (s *Store) Name() string { return "memory" }

// Accepts reports whether connString uses the memory:// scheme.
func (s *Store) Accepts(connString string) bool {
	return strings.HasPrefix(connString, Scheme)
}

// Open returns a client over the shared store. Closing it does not discard
// any objects.
func (s *Store) Open(_ context.Context, connString string) (storage.Client, error) {
	if !s.Accepts(connString) {
		return nil, fmt.Errorf("%q: %w", connString, storage.ErrInvalidConnectionString)
	}
	return client{s}, nil
}

type client struct{ store *Store }

func (c client) Fetch(ctx context.Context, container, name string) ([]byte, error) {
	return c.store.Fetch(ctx, container, name)
}

func (c client) Close() error { return nil }
