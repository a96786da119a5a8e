package domain

import "errors"

// ErrorKind classifies a failure for translation at the HTTP boundary.
type ErrorKind int

const (
	KindValidation ErrorKind = iota
	KindNotFound
	KindUnauthorized
	KindForbidden
	KindConflict
	KindUnavailable
)

type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// E builds a classified error with a caller-visible message.
func E(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// EW wraps an underlying cause. The cause is for server-side logs; only
// Message is exposed to clients.
func EW(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the classification from err, defaulting to Unavailable
// for anything unclassified so unexpected faults map to a 500.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnavailable
}

// MessageOf returns the caller-visible message for err. Unclassified
// errors get a generic message; their detail stays in server-side logs.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Kind != KindUnavailable {
		return de.Message
	}
	return "an unexpected error occurred"
}
