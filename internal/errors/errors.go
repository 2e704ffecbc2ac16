// Package errors provides standardized error handling for cyberaudit.
// It defines sentinel errors for the audit failure taxonomy and helpers
// for wrapping them with context.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Sentinel errors for common failure scenarios
var (
	// ErrProbeFailed indicates a probe could not complete
	ErrProbeFailed = stderrors.New("probe failed")

	// ErrCommandFailed indicates an external command exited unsuccessfully
	ErrCommandFailed = stderrors.New("command failed")

	// ErrTimeoutExceeded indicates a command or probe exceeded its timeout
	ErrTimeoutExceeded = stderrors.New("timeout exceeded")

	// ErrCommandNotFound indicates a required command is not available
	ErrCommandNotFound = stderrors.New("command not found")

	// ErrFileOperation indicates a file could not be read or written
	ErrFileOperation = stderrors.New("file operation failed")

	// ErrInvalidConfig indicates configuration is invalid or incomplete
	ErrInvalidConfig = stderrors.New("invalid configuration")

	// ErrInvalidInput indicates caller input is invalid
	ErrInvalidInput = stderrors.New("invalid input")

	// ErrDuplicateKey indicates a report key was written twice
	ErrDuplicateKey = stderrors.New("duplicate report key")
)

// Wrap wraps an error with context message and preserves the underlying error chain.
// Use this to add context while maintaining error identity for stderrors.Is checks.
func Wrap(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", msg, err)
}

// New creates a new error with formatted message.
func New(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target type.
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// Text renders err the way failures appear inside a report.
func Text(err error) string {
	if err == nil {
		return ""
	}
	return "Error: " + err.Error()
}
