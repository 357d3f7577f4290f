// Package api defines the core types of the XSLT transformation function.
//
// This package provides the request header names, the transformation result,
// the error taxonomy used internally by the pipeline, and the JSON error
// envelope returned to callers on failure.
//
// The package has zero external dependencies (Go standard library only) and
// performs no I/O.
//
// Core types:
//   - [TransformResult]: transformed output plus the content type that labels it
//   - [Error]: a failure tagged with its [ErrorKind]
//   - [ErrorEnvelope]: the one-element JSON array written on failure
//
// The envelope deliberately carries the same type, status and code for every
// kind of failure. Callers only see the kind through the message text; the
// kind itself is kept on [Error] for logs and metrics.
package api
