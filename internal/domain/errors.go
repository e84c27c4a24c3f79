package domain

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrValidation         ErrorCode = "VALIDATION"
	ErrInvalidTransition  ErrorCode = "INVALID_TRANSITION"
	ErrParentNotFound     ErrorCode = "PARENT_NOT_FOUND"
	ErrEntityNotFound     ErrorCode = "ENTITY_NOT_FOUND"
	ErrPersistenceFailure ErrorCode = "PERSISTENCE_FAILURE"
	ErrPaymentRequired    ErrorCode = "PAYMENT_REQUIRED"
)

// Error is the single error type surfaced by the core. Every code is
// recoverable; Retryable marks the ones a reload or retry can clear.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Code) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Code) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether reloading state or retrying persistence may succeed.
func (e *Error) Retryable() bool {
	switch e.Code {
	case ErrParentNotFound, ErrEntityNotFound, ErrPersistenceFailure:
		return true
	}
	return false
}

func newError(code ErrorCode, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

func ValidationError(err error, format string, args ...any) *Error {
	return newError(ErrValidation, err, format, args...)
}

func InvalidTransition(format string, args ...any) *Error {
	return newError(ErrInvalidTransition, nil, format, args...)
}

func ParentNotFound(parentID string) *Error {
	return newError(ErrParentNotFound, nil, "work item %s is not in the loaded tree, reload and retry", parentID)
}

func EntityNotFound(kind, id string, err error) *Error {
	return newError(ErrEntityNotFound, err, "%s %s not found", kind, id)
}

func PersistenceFailure(err error, format string, args ...any) *Error {
	return newError(ErrPersistenceFailure, err, format, args...)
}

func PaymentRequired(format string, args ...any) *Error {
	return newError(ErrPaymentRequired, nil, format, args...)
}

// IsCode reports whether err is (or wraps) a domain Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}
