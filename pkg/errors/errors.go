package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target carries the same code, so that clones of a
// predefined error still match it.
func (e *Error) Is(target error) bool {
	var t *Error
	if e == nil || !errors.As(target, &t) || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrValidation           = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrNetwork              = New("NETWORK_ERROR", http.StatusBadGateway, "backend unreachable")
	ErrServer               = New("SERVER_ERROR", http.StatusBadGateway, "backend request failed")
	ErrConflict             = New("CONFLICT", http.StatusConflict, "operation already in progress")
	ErrNotFound             = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrConfirmationRequired = New("CONFIRMATION_REQUIRED", http.StatusPreconditionRequired, "explicit confirmation required")
	ErrCacheMiss            = New("CACHE_MISS", http.StatusNotFound, "cache miss")
	ErrInternal             = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Validation returns a validation error with the given user-facing message.
func Validation(message string) *Error {
	return Clone(ErrValidation, message)
}

// Network wraps a transport failure.
func Network(err error) *Error {
	msg := ErrNetwork.Message
	if err != nil {
		msg = err.Error()
	}
	return Wrap(err, ErrNetwork.Code, ErrNetwork.Status, msg)
}

// Server describes a failed backend response. status is the upstream status
// code and is kept on the error for logging; the HTTP status stays 502.
func Server(status int, message string) *Error {
	if message == "" {
		message = fmt.Sprintf("backend responded with status %d", status)
	}
	return Wrap(fmt.Errorf("upstream status %d", status), ErrServer.Code, ErrServer.Status, message)
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNetwork reports whether err is a transport failure.
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// IsServer reports whether err is a failed backend response.
func IsServer(err error) bool {
	return errors.Is(err, ErrServer)
}
