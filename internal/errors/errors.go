// Package errors defines the coded error taxonomy shared by every doxx
// build stage.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode identifies an error category. Codes are stable and are what
// errors.Is compares.
type ErrorCode string

const (
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"

	// Key errors
	ErrKeyUnreadable ErrorCode = "KEY_UNREADABLE"
	ErrKeyMalformed  ErrorCode = "KEY_MALFORMED"

	// Template errors
	ErrTemplateUnavailable ErrorCode = "TEMPLATE_UNAVAILABLE"
	ErrTemplateMalformed   ErrorCode = "TEMPLATE_MALFORMED"

	// Render step errors
	ErrRenderFailed ErrorCode = "RENDER_FAILED"
	ErrWriteFailed  ErrorCode = "WRITE_FAILED"

	// Project archive errors
	ErrProjectSpecMissing        ErrorCode = "PROJECT_SPEC_MISSING"
	ErrProjectNestingUnsupported ErrorCode = "PROJECT_NESTING_UNSUPPORTED"

	// Collaborator errors
	ErrFetchFailed   ErrorCode = "FETCH_FAILED"
	ErrArchiveFailed ErrorCode = "ARCHIVE_FAILED"

	// Worker pool errors
	ErrBuildIncomplete ErrorCode = "BUILD_INCOMPLETE"
	ErrWorkerTimeout   ErrorCode = "WORKER_TIMEOUT"
)

// DoxxError is a structured error with a code and optional details.
type DoxxError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *DoxxError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *DoxxError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is a DoxxError with the same code.
func (e *DoxxError) Is(target error) bool {
	var targetErr *DoxxError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new DoxxError with the given code and message
func New(code ErrorCode, message string) *DoxxError {
	return &DoxxError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new DoxxError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *DoxxError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps err with a code and message. Returns nil when err is nil.
func Wrap(err error, code ErrorCode, message string) *DoxxError {
	if err == nil {
		return nil
	}
	e := New(code, message)
	e.Wrapped = err
	return e
}

// Wrapf wraps err with a code and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *DoxxError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// WithDetail adds a detail to the error
func (e *DoxxError) WithDetail(key string, value interface{}) *DoxxError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var doxxErr *DoxxError
	if errors.As(err, &doxxErr) {
		return doxxErr.Code == code
	}
	return false
}

// GetErrorCode returns the code of the outermost DoxxError in err's chain,
// or ErrUnknown.
func GetErrorCode(err error) ErrorCode {
	var doxxErr *DoxxError
	if errors.As(err, &doxxErr) {
		return doxxErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a DoxxError
func GetErrorDetails(err error) map[string]interface{} {
	var doxxErr *DoxxError
	if errors.As(err, &doxxErr) {
		return doxxErr.Details
	}
	return nil
}
