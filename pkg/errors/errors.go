package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode int

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrValidation
	ErrConflict
	ErrUnauthenticated
	ErrTokenExpired
	ErrForbidden
	ErrFieldLocked
	ErrStateTransition
	ErrPartialSuccess
	ErrUnavailable
	ErrInternal
)

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Fields  []string  `json:"fields,omitempty"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches AppErrors by code so callers can branch on kind
// without comparing messages.
func (e *AppError) Is(target error) bool {
	var appErr *AppError
	if !errors.As(target, &appErr) {
		return false
	}
	return e.Code == appErr.Code
}

// CodeOf extracts the error code from err, or ErrInternal if err
// is not an AppError.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// Retryable reports whether the error class is eligible for
// caller-side retry. Business-rule failures never are.
func Retryable(err error) bool {
	return CodeOf(err) == ErrUnavailable
}

// Error constructors

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func Validation(message string, fields ...string) *AppError {
	return &AppError{
		Code:    ErrValidation,
		Message: message,
		Fields:  fields,
	}
}

// MissingField reports a single missing required field by name so
// clients can highlight the exact input.
func MissingField(field string) *AppError {
	return &AppError{
		Code:    ErrValidation,
		Message: fmt.Sprintf("missing required field: %s", field),
		Fields:  []string{field},
	}
}

func Conflict(message string, err error) *AppError {
	return &AppError{
		Code:    ErrConflict,
		Message: message,
		Err:     err,
	}
}

func Unauthenticated(err error) *AppError {
	return &AppError{
		Code:    ErrUnauthenticated,
		Message: "authentication required",
		Err:     err,
	}
}

func TokenExpired(err error) *AppError {
	return &AppError{
		Code:    ErrTokenExpired,
		Message: "token expired",
		Err:     err,
	}
}

// Forbidden deliberately carries no resource detail so a denied
// request looks identical whether or not the target exists.
func Forbidden() *AppError {
	return &AppError{
		Code:    ErrForbidden,
		Message: "access denied",
	}
}

func FieldLocked(fields ...string) *AppError {
	return &AppError{
		Code:    ErrFieldLocked,
		Message: "field is locked after approval",
		Fields:  fields,
	}
}

func StateTransition(from, to string) *AppError {
	return &AppError{
		Code:    ErrStateTransition,
		Message: fmt.Sprintf("invalid transition from %s to %s", from, to),
	}
}

func PartialSuccess(message string, err error) *AppError {
	return &AppError{
		Code:    ErrPartialSuccess,
		Message: message,
		Err:     err,
	}
}

func Unavailable(message string, err error) *AppError {
	return &AppError{
		Code:    ErrUnavailable,
		Message: message,
		Err:     err,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}
