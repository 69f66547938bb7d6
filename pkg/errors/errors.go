// Package errors provides structured error types for wheeltag.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the library and the CLI
//   - Machine-readable error codes for programmatic handling
//   - Diagnostics that name the offending archive and tag
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Input that is not well-formed (MALFORMED_FILENAME, MALFORMED_TAG,
// INVALID_MANIFEST) is not recoverable. PURE_ARCHIVE is a rule violation a
// caller may choose to skip. DESTINATION_EXISTS is a safety guard and is never
// resolved automatically.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMalformedTag, "empty sub-tag in %q", s)
//	if errors.Is(err, errors.ErrCodeMalformedTag) {
//	    // Handle malformed input
//	}
//
//	// Attach context
//	err = errors.PureArchive(path)
//	fmt.Println(err.Path)
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
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeMalformedFilename Code = "MALFORMED_FILENAME"
	ErrCodeMalformedTag      Code = "MALFORMED_TAG"
	ErrCodeInvalidManifest   Code = "INVALID_MANIFEST"
	ErrCodeEmptyRequest      Code = "EMPTY_REQUEST"

	// Rule violations
	ErrCodePureArchive Code = "PURE_ARCHIVE"

	// Filesystem guards
	ErrCodeDestinationExists Code = "DESTINATION_EXISTS"
	ErrCodeFileNotFound      Code = "FILE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Path    string // Archive or file the error refers to (optional)
	Tag     string // Offending tag (optional)
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Code == ErrCodeMalformedTag && e.Tag != "" {
		msg = fmt.Sprintf("%s: %q", msg, e.Tag)
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Path)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithPath returns e with Path set. Existing paths are kept so the innermost
// context wins.
func (e *Error) WithPath(path string) *Error {
	if e.Path == "" {
		e.Path = path
	}
	return e
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

// MalformedFilename reports a filename that does not split into the five
// canonical components.
func MalformedFilename(filename, format string, args ...any) *Error {
	e := New(ErrCodeMalformedFilename, format, args...)
	e.Path = filename
	return e
}

// MalformedTag reports a tag that violates the tag grammar.
func MalformedTag(tag, format string, args ...any) *Error {
	e := New(ErrCodeMalformedTag, format, args...)
	e.Tag = tag
	return e
}

// PureArchive reports an attempt to add platform tags to a platform-independent archive.
func PureArchive(path string) *Error {
	e := New(ErrCodePureArchive, "cannot add platform tags to pure archive")
	e.Path = path
	e.Tag = "any"
	return e
}

// DestinationExists reports a collision with a distinct pre-existing file.
func DestinationExists(path string) *Error {
	e := New(ErrCodeDestinationExists, "not overwriting existing file; set clobber to overwrite")
	e.Path = path
	return e
}

// WithPath attaches path to the first *Error in err's chain and returns err.
// Errors without a coded error in their chain are returned unchanged.
func WithPath(err error, path string) error {
	var e *Error
	if errors.As(err, &e) {
		e.WithPath(path)
	}
	return err
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
		if e.Tag != "" && e.Code == ErrCodeMalformedTag {
			return fmt.Sprintf("%s: %q", e.Message, e.Tag)
		}
		return e.Message
	}
	return err.Error()
}
