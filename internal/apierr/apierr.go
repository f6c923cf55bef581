package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is the service-layer error type. Status is the HTTP status the
// transport should answer with, Code is a stable machine-readable kind.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

const (
	CodeNotFound      = "not_found"
	CodeConflict      = "conflict"
	CodeInvalidState  = "invalid_state"
	CodeNotAccessible = "not_accessible"
	CodeValidation    = "validation_error"
	CodeForbidden     = "forbidden"
)

// NotFound: a referenced entity does not exist or does not belong to the
// expected parent.
func NotFound(format string, args ...interface{}) *Error {
	return New(http.StatusNotFound, CodeNotFound, fmt.Errorf(format, args...))
}

// Conflict: the operation collides with existing state, e.g. starting a flow
// that already has an active instance for that learner.
func Conflict(format string, args ...interface{}) *Error {
	return New(http.StatusConflict, CodeConflict, fmt.Errorf(format, args...))
}

// InvalidState: the requested transition is not legal from the current state.
func InvalidState(format string, args ...interface{}) *Error {
	return New(http.StatusBadRequest, CodeInvalidState, fmt.Errorf(format, args...))
}

// NotAccessible: the step's computed accessibility is false.
func NotAccessible(format string, args ...interface{}) *Error {
	return New(http.StatusForbidden, CodeNotAccessible, fmt.Errorf(format, args...))
}

// Validation: malformed input.
func Validation(format string, args ...interface{}) *Error {
	return New(http.StatusBadRequest, CodeValidation, fmt.Errorf(format, args...))
}

// Forbidden: the caller lacks a capability. Used at the boundary, never by
// the progression engine itself.
func Forbidden(format string, args ...interface{}) *Error {
	return New(http.StatusForbidden, CodeForbidden, fmt.Errorf(format, args...))
}

// IsCode reports whether err is an *Error with the given code.
func IsCode(err error, code string) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
