package transport

import "github.com/google/uuid"

// NewRequestID returns a random request ID for invocations that arrive
// without X-Request-ID.
func NewRequestID() string {
	return uuid.NewString()
}
