package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/rhuss/xsltfn/pkg/debug"
	"github.com/rhuss/xsltfn/pkg/observability"
)

// Middleware creates HTTP middleware from an AuthChain. Rejected requests
// get a bare 401, the way the functions host answers before any function
// code runs.
func Middleware(chain *AuthChain) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result := chain.Authenticate(r.Context(), r)

			if result.Decision != Yes || result.Identity == nil || result.Identity.Subject == "" {
				reason := "missing_key"
				if errors.Is(result.Err, ErrInvalidKey) {
					reason = "invalid_key"
				}
				slog.Warn("authentication failed",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"reason", reason,
				)
				observability.AuthRejectedTotal.WithLabelValues(reason).Inc()
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			debug.Log("auth", "authentication succeeded",
				"subject", result.Identity.Subject,
				"method", result.Identity.Method,
			)

			next.ServeHTTP(w, r.WithContext(SetIdentity(r.Context(), result.Identity)))
		})
	}
}
