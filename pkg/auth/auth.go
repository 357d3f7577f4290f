package auth

import (
	"context"
	"errors"
	"net/http"
)

// AuthDecision is an authenticator's vote on a request.
type AuthDecision int

const (
	// Yes accepts the request with the returned identity.
	Yes AuthDecision = iota
	// No rejects the request; Err says why.
	No
	// Abstain passes the request to the next authenticator.
	Abstain
)

// AuthResult is returned by every Authenticator.
type AuthResult struct {
	Decision AuthDecision
	Identity *Identity
	Err      error
}

// Identity names the function key a caller presented.
type Identity struct {
	Subject string
	// Method is "header" or "query".
	Method string
}

// Authenticator inspects a function request for credentials it owns.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) AuthResult
}

var (
	// ErrUnauthenticated means no authenticator recognised any credential.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrInvalidKey means a key was presented but matches none configured.
	ErrInvalidKey = errors.New("invalid function key")
)

// AuthChain asks each authenticator in turn until one votes Yes or No.
// DefaultDecision applies when every authenticator abstains; the zero
// value admits anonymous callers, so key-protected chains set No.
type AuthChain struct {
	Authenticators  []Authenticator
	DefaultDecision AuthDecision
}

// Authenticate returns the first non-abstaining vote, or the default.
func (c *AuthChain) Authenticate(ctx context.Context, r *http.Request) AuthResult {
	for _, a := range c.Authenticators {
		if res := a.Authenticate(ctx, r); res.Decision != Abstain {
			return res
		}
	}
	if c.DefaultDecision != Yes {
		return AuthResult{Decision: No, Err: ErrUnauthenticated}
	}
	return AuthResult{Decision: Yes, Identity: &Identity{Subject: "anonymous"}}
}
