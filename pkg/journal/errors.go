package journal

import (
	"context"
	"errors"
	"fmt"

	"tradejournal/pkg/recordstore"
)

// ErrorCode defines error classification codes for structured error handling.
type ErrorCode string

// Error codes for different error categories.
const (
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeDuplicate        ErrorCode = "DUPLICATE"
	ErrCodeValidation       ErrorCode = "VALIDATION_ERROR"
	ErrCodeDatabase         ErrorCode = "DATABASE_ERROR"
	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	ErrCodeMigration        ErrorCode = "MIGRATION_FAILED"
	ErrCodeExternal         ErrorCode = "EXTERNAL_SERVICE"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
)

// Error represents a structured error with classification code.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Is and errors.As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with classification code and additional context.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// IsErrorCode reports whether any *Error in err's chain carries code.
func IsErrorCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf returns the classification code of err, or ErrCodeInternal.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// classifyStoreError maps record store failures onto journal error codes.
// Errors that are already classified pass through unchanged.
func classifyStoreError(message string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	switch {
	case errors.Is(err, recordstore.ErrStoreUnavailable):
		return WrapError(ErrCodeStoreUnavailable, message, err)
	case errors.Is(err, recordstore.ErrDuplicateKey):
		return WrapError(ErrCodeDuplicate, message, err)
	case errors.Is(err, recordstore.ErrNotFound):
		return WrapError(ErrCodeNotFound, message, err)
	case errors.Is(err, recordstore.ErrInvalidRecord):
		return WrapError(ErrCodeInvalidInput, message, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return WrapError(ErrCodeInternal, message, err)
	default:
		return WrapError(ErrCodeDatabase, message, err)
	}
}
