// Package local serves stylesheets from a directory on the local
// filesystem. Connection strings take the form "file:///abs/path"; each
// container is a subdirectory of that path and each object a file in it.
package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/rhuss/xsltfn/pkg/storage"
)

// Driver opens local directory stores.
type Driver struct{}

// Ensure Driver implements storage.Driver at compile time.
var _ storage.Driver = Driver{}

// Name returns the driver label.
func (Driver) Name() string { return "local" }

// Accepts reports whether connString uses the file:// scheme.
func (Driver) Accepts(connString string) bool {
	return strings.HasPrefix(connString, "file://")
}

// Open parses connString into a root directory. The directory is not
// checked until the first fetch.
func (Driver) Open(_ context.Context, connString string) (storage.Client, error) {
	u, err := url.Parse(connString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrInvalidConnectionString, err)
	}
	if u.Scheme != "file" || u.Path == "" || (u.Host != "" && u.Host != "localhost") {
		return nil, fmt.Errorf("%w: expected file:///path, got %q", storage.ErrInvalidConnectionString, connString)
	}
	return &Store{root: os.DirFS(u.Path)}, nil
}

// Store reads objects from a directory tree.
type Store struct {
	root fs.FS
}

// NewStore creates a store over fsys. Used by tests with fstest.MapFS.
func NewStore(fsys fs.FS) *Store {
	return &Store{root: fsys}
}

// Fetch reads container/name fully into memory.
func (s *Store) Fetch(_ context.Context, container, name string) ([]byte, error) {
	if !fs.ValidPath(container) || strings.Contains(container, "/") {
		return nil, fmt.Errorf("container %q: %w", container, storage.ErrContainerNotFound)
	}
	info, err := fs.Stat(s.root, container)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("container %q: %w", container, storage.ErrContainerNotFound)
	}

	objectPath := path.Join(container, name)
	if !fs.ValidPath(name) || !strings.HasPrefix(objectPath, container+"/") {
		return nil, fmt.Errorf("object %q in container %q: %w", name, container, storage.ErrObjectNotFound)
	}

	data, err := fs.ReadFile(s.root, objectPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("object %q in container %q: %w", name, container, storage.ErrObjectNotFound)
		}
		return nil, fmt.Errorf("reading %s: %w", objectPath, err)
	}
	return data, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
