package domain

import "errors"

// Error kinds. Every error returned by a service wraps one of these (or is one).
var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("authentication required")
	ErrConflict        = errors.New("conflict")
	ErrInvalidInput    = errors.New("invalid input")
	ErrUpstream        = errors.New("upstream provider error")
)

// Error is a user-facing error of a given kind. Message is safe to return to clients.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// Invalid returns a validation error with a client-facing message.
func Invalid(message string) *Error {
	return &Error{Kind: ErrInvalidInput, Message: message}
}

// Conflict returns a uniqueness error with a client-facing message.
func Conflict(message string) *Error {
	return &Error{Kind: ErrConflict, Message: message}
}

// UpstreamError reports a failing external provider without leaking its response body.
type UpstreamError struct {
	Provider Provider
	Reason   string
}

func (e *UpstreamError) Error() string {
	return string(e.Provider) + ": " + e.Reason
}

func (e *UpstreamError) Unwrap() error { return ErrUpstream }
