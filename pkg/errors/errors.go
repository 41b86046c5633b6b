package errors

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error codes as constants
const (
	ErrCodeProfileNotFound = "PROFILE_NOT_FOUND"
	ErrCodeNoActiveProfile = "NO_ACTIVE_PROFILE"
	ErrCodeProfileInvalid  = "PROFILE_INVALID"
	ErrCodeSyncFailed      = "SYNC_FAILED"
	ErrCodeRemoteExec      = "REMOTE_EXEC_FAILED"
	ErrCodeNodeUnreachable = "NODE_UNREACHABLE"
	ErrCodeTeardownStep    = "TEARDOWN_STEP_FAILED"
	ErrCodePlaybookFailed  = "PLAYBOOK_FAILED"
	ErrCodeInvalidInput    = "INVALID_INPUT"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// StructuredError is the error type carried across package boundaries.
// It pairs a stable machine-readable code with a human diagnostic, an
// operation ID for correlating log lines, and optional detail fields.
type StructuredError struct {
	Code        string         `json:"code" yaml:"code"`
	Message     string         `json:"message" yaml:"message"`
	Details     map[string]any `json:"details,omitempty" yaml:"details,omitempty"`
	OperationID string         `json:"operationId" yaml:"operationId"`

	err error
}

// New creates a StructuredError with the given code and message.
func New(code, message string) *StructuredError {
	return &StructuredError{
		Code:        code,
		Message:     message,
		OperationID: uuid.New().String(),
	}
}

// Newf creates a StructuredError with a formatted message.
func Newf(code, format string, args ...any) *StructuredError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap creates a StructuredError that wraps an underlying cause.
// The cause remains reachable through errors.Unwrap/errors.Is/errors.As.
func Wrap(code string, err error, message string) *StructuredError {
	se := New(code, message)
	se.err = err
	return se
}

// WithDetail attaches a named detail value and returns the error for chaining.
func (e *StructuredError) WithDetail(key string, value any) *StructuredError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func (e *StructuredError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *StructuredError) Unwrap() error {
	return e.err
}

// Code extracts the error code from err, or returns ErrCodeInternal when err
// is not a StructuredError.
func Code(err error) string {
	var se *StructuredError
	if errors.As(err, &se) {
		return se.Code
	}
	return ErrCodeInternal
}

// HasCode reports whether err carries the given code anywhere in its
// tree, including joined errors.
func HasCode(err error, code string) bool {
	if err == nil {
		return false
	}
	if se, ok := err.(*StructuredError); ok && se.Code == code {
		return true
	}
	switch x := err.(type) {
	case interface{ Unwrap() error }:
		return HasCode(x.Unwrap(), code)
	case interface{ Unwrap() []error }:
		for _, wrapped := range x.Unwrap() {
			if HasCode(wrapped, code) {
				return true
			}
		}
	}
	return false
}
