// Package apierror defines the error kinds every service operation reports to
// its caller. Each kind maps to exactly one HTTP status.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the transport layer.
type Kind string

const (
	KindValidation         Kind = "validation"
	KindNotFound           Kind = "not_found"
	KindDuplicateEmail     Kind = "duplicate_email"
	KindDuplicateName      Kind = "duplicate_name"
	KindSlotConflict       Kind = "slot_conflict"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindHasDependents      Kind = "has_dependents"
	KindInvalidTransition  Kind = "invalid_transition"
	KindUnauthorized       Kind = "unauthorized"
	KindForbidden          Kind = "forbidden"
	KindInternal           Kind = "internal"
)

var statusByKind = map[Kind]int{
	KindValidation:         http.StatusBadRequest,
	KindNotFound:           http.StatusNotFound,
	KindDuplicateEmail:     http.StatusBadRequest,
	KindDuplicateName:      http.StatusBadRequest,
	KindSlotConflict:       http.StatusBadRequest,
	KindInvalidCredentials: http.StatusUnauthorized,
	KindHasDependents:      http.StatusBadRequest,
	KindInvalidTransition:  http.StatusConflict,
	KindUnauthorized:       http.StatusUnauthorized,
	KindForbidden:          http.StatusForbidden,
	KindInternal:           http.StatusInternalServerError,
}

// Error is a classified, user-facing error. Message is safe to show to API
// callers; Err carries the underlying cause and is never serialized outside
// development mode.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status returns the HTTP status code for the error's kind.
func (e *Error) Status() int {
	if s, ok := statusByKind[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func DuplicateEmail() *Error {
	return &Error{Kind: KindDuplicateEmail, Message: "Email already registered"}
}

func DuplicateName(message string) *Error {
	return &Error{Kind: KindDuplicateName, Message: message}
}

func SlotConflict() *Error {
	return &Error{Kind: KindSlotConflict, Message: "This time slot is already booked"}
}

// InvalidCredentials uses a single message for every cause so callers cannot
// tell an unknown identity from a wrong password.
func InvalidCredentials(message string) *Error {
	return &Error{Kind: KindInvalidCredentials, Message: message}
}

func HasDependents(message string) *Error {
	return &Error{Kind: KindHasDependents, Message: message}
}

func InvalidTransition(from, to string) *Error {
	return &Error{Kind: KindInvalidTransition, Message: fmt.Sprintf("Cannot change status from %s to %s", from, to)}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// Internal wraps an unexpected failure. The message is generic on purpose.
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	if apiErr, ok := As(err); ok {
		return apiErr.Kind
	}
	return KindInternal
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
