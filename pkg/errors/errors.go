// Package errors provides structured error types for graphpage.
//
// Every failure in graphpage is fatal to the invocation that hit it, so the
// codes here exist to tell a user (or an HTTP client of the serve command)
// which stage failed, not to drive retries:
//   - INVALID_*: malformed input or configuration
//   - UNKNOWN_VERTEX: an edge endpoint that does not name a vertex
//   - LAYOUT_FAILED: the layout program could not be launched or exited non-zero
//   - TEMPLATE_FAILED: DOT or HTML template execution failed
//   - IO_ERROR: an input or output path could not be read or written
//
// # Usage
//
//	err := errors.New(errors.ErrCodeUnknownVertex, "edge %d: unknown vertex %q", id, key)
//	if errors.Is(err, errors.ErrCodeUnknownVertex) {
//	    // Handle bad reference
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeIO, origErr, "write %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeUnknownVertex Code = "UNKNOWN_VERTEX"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// Rendering errors
	ErrCodeLayoutFailed   Code = "LAYOUT_FAILED"
	ErrCodeTemplateFailed Code = "TEMPLATE_FAILED"

	// I/O errors
	ErrCodeIO Code = "IO_ERROR"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
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
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}
		return e.Message
	}
	return err.Error()
}

// IsInputError reports whether err was caused by the caller's input rather
// than by the environment. The serve command maps these to 4xx responses.
func IsInputError(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeUnknownVertex:
		return true
	}
	return false
}
