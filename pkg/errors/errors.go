// Package errors provides structured error types for lyphgraph.
//
// Two kinds of failures flow through the engine:
//
//   - Errors, returned to the caller, for programming mistakes such as a
//     missing class registry or a session used by two passes at once.
//   - Diagnostics, recorded on a hydration session, for anomalies in the model
//     data itself. Hydration never stops on a diagnostic: a bad reference or an
//     unknown field is logged and the pass continues with the next field.
//
// Both carry a machine-readable [Code].
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "model document is empty")
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidSchema, origErr, "load %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidSchema Code = "INVALID_SCHEMA"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// Resource not found errors
	ErrCodeNotFound      Code = "NOT_FOUND"
	ErrCodeFileNotFound  Code = "FILE_NOT_FOUND"
	ErrCodeClassNotFound Code = "CLASS_NOT_FOUND"

	// Data anomalies recorded as diagnostics during hydration
	ErrCodeSchema             Code = "SCHEMA_ERROR"
	ErrCodeDanglingReference  Code = "DANGLING_REFERENCE"
	ErrCodeConsistency        Code = "CONSISTENCY_WARNING"
	ErrCodeUnknownProperty    Code = "UNKNOWN_PROPERTY"
	ErrCodeTypeMismatch       Code = "TYPE_MISMATCH"
	ErrCodeUnknownClass       Code = "UNKNOWN_CLASS"
	ErrCodeUnknownColorScheme Code = "UNKNOWN_COLOR_SCHEME"
	ErrCodeInvalidPath        Code = "INVALID_PATH"
	ErrCodeDuplicateID        Code = "DUPLICATE_ID"
	ErrCodeGeneratedID        Code = "GENERATED_ID"
	ErrCodeValueCoerced       Code = "VALUE_COERCED"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeBusy        Code = "SESSION_BUSY"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
