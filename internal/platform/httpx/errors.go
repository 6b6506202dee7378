package httpx

import (
	"errors"
	"net/http"
)

// Sentinel error kinds for the domain layer.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// Error is a domain error with a caller-visible message.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// NotFound builds an ErrNotFound error.
func NotFound(message string) error { return &Error{Kind: ErrNotFound, Message: message} }

// Conflict builds an ErrConflict error.
func Conflict(message string) error { return &Error{Kind: ErrConflict, Message: message} }

// Validation builds an ErrValidation error.
func Validation(message string) error { return &Error{Kind: ErrValidation, Message: message} }

// Forbidden builds an ErrForbidden error.
func Forbidden(message string) error { return &Error{Kind: ErrForbidden, Message: message} }

// Unauthenticated builds an ErrUnauthorized error.
func Unauthenticated(message string) error { return &Error{Kind: ErrUnauthorized, Message: message} }

// StatusOf maps an error to its HTTP status. Unknown errors are internal.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// messageOf returns the caller-visible message of a known error.
func messageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}
