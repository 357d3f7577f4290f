// Package functionkey validates function keys sent in the x-functions-key
// header or the code query parameter, using SHA-256 hashing and
// constant-time comparison.
package functionkey

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"net/http"

	"github.com/rhuss/xsltfn/pkg/auth"
)

// Credential locations.
const (
	HeaderName = "x-functions-key"
	QueryParam = "code"
)

// KeyEntry maps a key hash to its name.
type KeyEntry struct {
	KeyHash [32]byte
	Name    string
}

// RawKey is the configuration format for function keys.
type RawKey struct {
	Name string
	Key  string
}

// Authenticator validates function keys against a static key set.
type Authenticator struct {
	keys []KeyEntry
}

// Ensure Authenticator implements auth.Authenticator at compile time.
var _ auth.Authenticator = (*Authenticator)(nil)

// New creates a function key authenticator. Keys are hashed immediately;
// plaintext keys are not stored. Entries without a name are called "default".
func New(keys []RawKey) *Authenticator {
	a := &Authenticator{}
	for _, k := range keys {
		name := k.Name
		if name == "" {
			name = "default"
		}
		a.keys = append(a.keys, KeyEntry{
			KeyHash: sha256.Sum256([]byte(k.Key)),
			Name:    name,
		})
	}
	return a
}

// Authenticate looks for a key in the header first, then the query string.
// Returns Abstain when neither carries one, Yes for a known key and No
// otherwise.
func (a *Authenticator) Authenticate(_ context.Context, r *http.Request) auth.AuthResult {
	key, method := r.Header.Get(HeaderName), "header"
	if key == "" {
		key, method = r.URL.Query().Get(QueryParam), "query"
	}
	if key == "" {
		return auth.AuthResult{Decision: auth.Abstain}
	}

	hash := sha256.Sum256([]byte(key))
	for _, entry := range a.keys {
		if subtle.ConstantTimeCompare(hash[:], entry.KeyHash[:]) == 1 {
			return auth.AuthResult{
				Decision: auth.Yes,
				Identity: &auth.Identity{Subject: entry.Name, Method: method},
			}
		}
	}

	return auth.AuthResult{Decision: auth.No, Err: auth.ErrInvalidKey}
}
