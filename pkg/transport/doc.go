// Package transport defines the handler contract and middleware chain that
// sit between the HTTP adapter and the transformation pipeline.
//
// # Handler Contract
//
// A Transformer turns one HTTP request into a TransformResult or an error.
// The pipeline is the production Transformer; tests substitute functions via
// TransformerFunc.
//
// # Middleware
//
// Middleware wraps a Transformer with cross-cutting concerns. Built-in
// middleware provides panic recovery and structured logging via log/slog.
// Request IDs (X-Request-ID) are carried in the context.
//
// # Response Composition
//
// WriteResult and WriteError are the only functions that write response
// bodies. Success is written with the caller's content type; every failure
// is written as the one-element JSON error envelope with HTTP 400.
package transport
