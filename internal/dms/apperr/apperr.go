// Package apperr defines the recoverable error kinds the domain layer hands
// back to callers. Handlers map kinds onto HTTP status codes; nothing here is
// ever fatal to the process.
package apperr

import "errors"

// Kind classifies a domain error.
type Kind int

const (
	// KindValidation: a required field is missing or malformed.
	KindValidation Kind = iota + 1
	// KindNotFound: a referenced id does not exist.
	KindNotFound
	// KindConflict: a uniqueness or concurrent-allocation collision.
	KindConflict
	// KindState: the operation is invalid for the record's current lifecycle state.
	KindState
)

// Error is a classified, user-presentable domain error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation returns a KindValidation error.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// NotFound returns a KindNotFound error.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Conflict returns a KindConflict error.
func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

// State returns a KindState error.
func State(msg string) *Error {
	return &Error{Kind: KindState, Message: msg}
}

// Wrap attaches a cause to a classified error.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf extracts the kind from err, or 0 if err is not a classified error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Is reports whether err is a classified error of the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
