// Package auth provides function-level authentication for the
// transformation endpoint.
//
// Authentication uses a chain-of-responsibility pattern with three-outcome
// voting: each authenticator returns Yes (identity found), No (credentials
// invalid), or Abstain (can't handle). A configurable default decides when
// all authenticators abstain.
//
// Auth is implemented as HTTP middleware and is mounted on the function
// route only; health and metrics endpoints are never wrapped.
package auth
