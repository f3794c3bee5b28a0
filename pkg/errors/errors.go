// Package errors provides structured error types for the graph engine.
//
// Errors carry a machine-readable [Code] so hosts can decide how to surface
// them: load failures become a user notification, renderer faults are logged
// and swallowed, malformed payload entries are normalized away and only show
// up in debug logs.
//
// # Error Codes
//
//   - LOAD_FAILED: the graph load endpoint could not be fetched or parsed
//   - RENDER_ADAPTER: a renderer call panicked or the capability is missing
//   - MALFORMED_DATA: a payload entry was dropped or defaulted
//   - INVALID_*: input validation failures
//   - NETWORK_ERROR, TIMEOUT, NOT_FOUND: transport level failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "unknown layout %q", name)
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	err := errors.Wrap(errors.ErrCodeLoad, origErr, "fetch graph")
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Engine errors
	ErrCodeLoad          Code = "LOAD_FAILED"
	ErrCodeRenderAdapter Code = "RENDER_ADAPTER"
	ErrCodeMalformedData Code = "MALFORMED_DATA"
	ErrCodeNotReady      Code = "NOT_READY"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidLayout Code = "INVALID_LAYOUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// Resource errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
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
// It walks the whole chain, so a LOAD_FAILED error wrapping a
// NETWORK_ERROR matches both codes.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode extracts the outermost error code from an error, if available.
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

// LoadError reports a failed graph load. The previous snapshot is kept.
func LoadError(cause error) *Error {
	return Wrap(ErrCodeLoad, cause, "failed to load graph data")
}

// RenderAdapterError reports a renderer call that panicked or is unsupported.
func RenderAdapterError(op string, cause error) *Error {
	return Wrap(ErrCodeRenderAdapter, cause, "renderer %s", op)
}

// MalformedData describes a payload entry that was defaulted or dropped.
func MalformedData(format string, args ...any) *Error {
	return New(ErrCodeMalformedData, format, args...)
}
