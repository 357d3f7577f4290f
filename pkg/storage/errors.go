package storage

import "errors"

// Sentinel errors for storage operations.
var (
	// ErrObjectNotFound is returned when the named object does not exist.
	ErrObjectNotFound = errors.New("object not found")

	// ErrContainerNotFound is returned when the container does not exist.
	ErrContainerNotFound = errors.New("container not found")

	// ErrInvalidConnectionString is returned when a driver cannot parse the
	// connection string it was handed.
	ErrInvalidConnectionString = errors.New("invalid connection string")

	// ErrUnsupportedConnectionString is returned when no registered driver
	// recognises the connection string.
	ErrUnsupportedConnectionString = errors.New("unsupported connection string")
)

// IsConnectionStringError reports whether err means the connection string
// itself is unusable, as opposed to the store failing at runtime.
func IsConnectionStringError(err error) bool {
	return errors.Is(err, ErrInvalidConnectionString) || errors.Is(err, ErrUnsupportedConnectionString)
}
