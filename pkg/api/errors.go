package api

import (
	"errors"
	"fmt"
)

// ErrorKind represents the category of a pipeline failure.
type ErrorKind string

const (
	KindConfiguration ErrorKind = "ConfigurationError"
	KindValidation    ErrorKind = "ValidationError"
	KindStorage       ErrorKind = "StorageError"
	KindCompilation   ErrorKind = "CompilationError"
	KindTransform     ErrorKind = "TransformError"
)

// Error is a pipeline failure tagged with its kind. Message is the text
// surfaced to callers; Err optionally carries the underlying cause.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Error implements the error interface. Only the message is returned so the
// envelope's errorMessage does not leak the kind.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// Sentinel values usable with errors.Is to test for a kind.
var (
	ErrConfiguration = &Error{Kind: KindConfiguration}
	ErrValidation    = &Error{Kind: KindValidation}
	ErrStorage       = &Error{Kind: KindStorage}
	ErrCompilation   = &Error{Kind: KindCompilation}
	ErrTransform     = &Error{Kind: KindTransform}
)

// NewConfigurationError creates an Error for missing or invalid settings.
func NewConfigurationError(message string, cause error) *Error {
	return &Error{Kind: KindConfiguration, Message: message, Err: cause}
}

// NewValidationError creates an Error for a bad request header or body.
func NewValidationError(message string, cause error) *Error {
	return &Error{Kind: KindValidation, Message: message, Err: cause}
}

// NewStorageError creates an Error for a failed stylesheet download.
func NewStorageError(message string, cause error) *Error {
	return &Error{Kind: KindStorage, Message: message, Err: cause}
}

// NewCompilationError creates an Error for a stylesheet that does not compile.
func NewCompilationError(message string, cause error) *Error {
	return &Error{Kind: KindCompilation, Message: message, Err: cause}
}

// NewTransformError creates an Error for a runtime transformation failure.
func NewTransformError(message string, cause error) *Error {
	return &Error{Kind: KindTransform, Message: message, Err: cause}
}

// Errorf builds an Error of the given kind with a formatted message. A %w
// verb in format is honoured for the cause.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	wrapped := fmt.Errorf(format, args...)
	return &Error{Kind: kind, Message: wrapped.Error(), Err: errors.Unwrap(wrapped)}
}

// KindOf returns the kind of the first *Error in err's chain. Errors that
// were never tagged (panics, programming mistakes) report "UnknownError".
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return "UnknownError"
}
