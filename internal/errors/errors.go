// Package errors provides the error codes returned by the topic engine.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a unique error code that callers map to a transport response.
type ErrorCode string

const (
	// General errors
	ErrInternal   ErrorCode = "INTERNAL_ERROR"
	ErrInvalid    ErrorCode = "INVALID_INPUT"
	ErrNotFound   ErrorCode = "NOT_FOUND"
	ErrPermission ErrorCode = "PERMISSION_DENIED"

	// Workflow errors
	ErrInvalidState ErrorCode = "INVALID_STATE"
	ErrConflict     ErrorCode = "CONFLICT"

	// Database errors
	ErrDatabase  ErrorCode = "DATABASE_ERROR"
	ErrMigration ErrorCode = "MIGRATION_FAILED"
)

// AppError represents an application error with code and message.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error

	// Details names the offending id, current status and attempted transition
	// where they apply.
	Details map[string]string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// With attaches a detail key and returns the same error for chaining.
func (e *AppError) With(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new AppError with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with an error code.
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Invalid is shorthand for an INVALID_INPUT error.
func Invalid(format string, args ...interface{}) *AppError {
	return Newf(ErrInvalid, format, args...)
}

// NotFound reports a missing entity of the given kind.
func NotFound(kind, id string) *AppError {
	return Newf(ErrNotFound, "%s not found: %s", kind, id).With("id", id)
}

// InvalidState reports an operation attempted from a status that does not
// permit it. rule is the caller-facing sentence, e.g. "only approved topics
// can be published".
func InvalidState(id, status, transition, rule string) *AppError {
	return Newf(ErrInvalidState, "%s; current status is %s", rule, status).
		With("id", id).
		With("status", status).
		With("transition", transition)
}

// Conflict reports a concurrent mutation that raced past a state re-check.
func Conflict(id, message string) *AppError {
	return New(ErrConflict, message).With("id", id)
}

// Is checks if an error, or any error it wraps, carries a specific code.
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// CodeOf returns the code of the first AppError in the chain, or ErrInternal.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// As exposes errors.As so callers need not import both packages.
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}
