// Package domain defines the core domain models for tablesh.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// DomainError represents a domain error with a structured error code.
// Codes have the form TS-<CLASS>-<NUMBER>; the class selects how callers
// are expected to treat the failure.
type DomainError struct {
	Code    string // Error code (e.g., "TS-CONF-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithDetailsf is WithDetails with fmt.Sprintf formatting.
func (e *DomainError) WithDetailsf(format string, args ...any) *DomainError {
	return e.WithDetails(fmt.Sprintf(format, args...))
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Class returns the class segment of the error code.
func (e *DomainError) Class() Class {
	parts := strings.SplitN(e.Code, "-", 3)
	if len(parts) < 3 {
		return ""
	}
	return Class(parts[1])
}

// Class groups error codes by how a caller must react to them.
type Class string

const (
	// ClassState is an operation invoked outside its required lifecycle state.
	ClassState Class = "STATE"
	// ClassConfig is a missing table, self-tee or similar setup problem.
	ClassConfig Class = "CONF"
	// ClassUsage is a malformed command invocation. Reported as a config error.
	ClassUsage Class = "USAG"
	// ClassPermission is a visibility expression that fails to parse or authorize.
	ClassPermission Class = "PERM"
	// ClassWrite is a rejected mutation or a failed writer release.
	ClassWrite Class = "WRIT"
	// ClassStorage is a failure inside the backing store.
	ClassStorage Class = "STOR"
)

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ClassOf returns the class of the outermost DomainError in err's chain.
func ClassOf(err error) Class {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Class()
	}
	return ""
}

// hasClass walks the whole error tree, including joined errors.
func hasClass(err error, classes ...Class) bool {
	if err == nil {
		return false
	}
	if de, ok := err.(*DomainError); ok {
		for _, c := range classes {
			if de.Class() == c {
				return true
			}
		}
	}
	switch u := err.(type) {
	case interface{ WrappedErrors() []error }:
		for _, e := range u.WrappedErrors() {
			if hasClass(e, classes...) {
				return true
			}
		}
	case interface{ Unwrap() error }:
		return hasClass(u.Unwrap(), classes...)
	case interface{ Unwrap() []error }:
		for _, e := range u.Unwrap() {
			if hasClass(e, classes...) {
				return true
			}
		}
	}
	return false
}

// IsStateError reports whether err contains a lifecycle state error.
func IsStateError(err error) bool { return hasClass(err, ClassState) }

// IsConfigError reports whether err contains a configuration or usage error.
func IsConfigError(err error) bool { return hasClass(err, ClassConfig, ClassUsage) }

// IsPermissionError reports whether err contains a visibility/permission error.
func IsPermissionError(err error) bool { return hasClass(err, ClassPermission) }

// IsWriteError reports whether err contains a write error.
func IsWriteError(err error) bool { return hasClass(err, ClassWrite) }

// ============================================================================
// State Errors (STATE)
// ============================================================================

var (
	// ErrNotInitialized indicates a formatter was used before Initialize.
	ErrNotInitialized = NewDomainError("TS-STATE-1000", "not initialized")

	// ErrAlreadyInitialized indicates Initialize was called twice.
	ErrAlreadyInitialized = NewDomainError("TS-STATE-1001", "already initialized")

	// ErrIllegalRemove indicates Remove was called with no current entry.
	ErrIllegalRemove = NewDomainError("TS-STATE-1002", "no entry to remove")

	// ErrCursorClosed indicates a scan cursor was used after Close.
	ErrCursorClosed = NewDomainError("TS-STATE-1003", "cursor closed")

	// ErrNoMoreEntries indicates Next was called on an exhausted cursor.
	ErrNoMoreEntries = NewDomainError("TS-STATE-1004", "no more entries")

	// ErrNotConnected indicates a command needs an open store.
	ErrNotConnected = NewDomainError("TS-STATE-1005", "not connected to a store")

	// ErrAlreadyConnected indicates a store is already open in the session.
	ErrAlreadyConnected = NewDomainError("TS-STATE-1006", "already connected to a store")
)

// ============================================================================
// Configuration Errors (CONF)
// ============================================================================

var (
	// ErrTableNotFound indicates the named table does not exist.
	ErrTableNotFound = NewDomainError("TS-CONF-4040", "table not found")

	// ErrTableExists indicates the named table already exists.
	ErrTableExists = NewDomainError("TS-CONF-4090", "table already exists")

	// ErrSelfTee indicates the tee target equals the source table.
	ErrSelfTee = NewDomainError("TS-CONF-4000", "you can't tee to the current table")

	// ErrNoCurrentTable indicates no table was selected in the session.
	ErrNoCurrentTable = NewDomainError("TS-CONF-4001", "no current table")

	// ErrTeeTargetNotSet indicates a table selects the tee formatter but the
	// session has no tee target.
	ErrTeeTargetNotSet = NewDomainError("TS-CONF-4002", "tee target not set for this session")

	// ErrInvalidTableName indicates a table name is empty or malformed.
	ErrInvalidTableName = NewDomainError("TS-CONF-4003", "invalid table name")

	// ErrInvalidProperty indicates a table property key is not allowed.
	ErrInvalidProperty = NewDomainError("TS-CONF-4004", "invalid table property")

	// ErrUnknownFormatter indicates a formatter name is not registered.
	ErrUnknownFormatter = NewDomainError("TS-CONF-4005", "unknown formatter")

	// ErrInvalidConfig indicates a shell configuration value is out of range.
	ErrInvalidConfig = NewDomainError("TS-CONF-4006", "invalid configuration")
)

// ============================================================================
// Usage Errors (USAG)
// ============================================================================

var (
	// ErrUsage indicates a command was invoked with the wrong arguments.
	ErrUsage = NewDomainError("TS-USAG-1000", "usage")

	// ErrInvalidArgument indicates an argument could not be parsed.
	ErrInvalidArgument = NewDomainError("TS-USAG-1001", "invalid argument")
)

// ============================================================================
// Permission Errors (PERM)
// ============================================================================

var (
	// ErrBadVisibility indicates a visibility label is not a valid expression.
	ErrBadVisibility = NewDomainError("TS-PERM-4030", "invalid visibility expression")

	// ErrVisibilityDenied indicates the session cannot satisfy a visibility label.
	ErrVisibilityDenied = NewDomainError("TS-PERM-4031", "visibility not authorized")
)

// ============================================================================
// Write Errors (WRIT)
// ============================================================================

var (
	// ErrMutationRejected indicates the store refused a mutation.
	ErrMutationRejected = NewDomainError("TS-WRIT-5000", "mutation rejected")

	// ErrWriterClose indicates releasing a writer failed.
	ErrWriterClose = NewDomainError("TS-WRIT-5001", "mutation rejected while closing writer")

	// ErrWriterClosed indicates a mutation was added to a closed writer.
	ErrWriterClosed = NewDomainError("TS-WRIT-5002", "writer closed")

	// ErrMutationTooLarge indicates a mutation exceeds the writer buffer.
	ErrMutationTooLarge = NewDomainError("TS-WRIT-5003", "mutation exceeds writer buffer")

	// ErrEmptyMutation indicates a mutation carries no cells.
	ErrEmptyMutation = NewDomainError("TS-WRIT-5004", "mutation has no cells")
)

// ============================================================================
// Storage Errors (STOR)
// ============================================================================

var (
	// ErrStorage indicates a failure inside the backing store.
	ErrStorage = NewDomainError("TS-STOR-5000", "storage error")

	// ErrCorruptKey indicates a stored key could not be decoded.
	ErrCorruptKey = NewDomainError("TS-STOR-5001", "corrupt key")
)
