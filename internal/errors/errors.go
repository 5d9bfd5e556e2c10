// Package errors provides centralized error definitions and error handling
// utilities for the WorkLens codebase. It defines domain-specific sentinel
// errors, semantic error types, and classification helpers.
//
// Detection and idle processing are designed so that nothing in those paths
// is fatal: transient OS query failures are swallowed at the probe boundary
// and never reach this package. The errors defined here cover the surfaces
// that can legitimately fail, the ledger's manual operations, the session
// store, the archive, and configuration loading.
//
// Creating errors:
//
//	err := errors.NewLedgerError("cannot pause", errors.ErrTaskNotFound)
//	err := errors.NewNotFoundError("task", id)
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrNoActiveTask) { ... }
//
//	var nf *errors.NotFoundError
//	if errors.As(err, &nf) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience. This allows
// callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Ledger-related sentinel errors
var (
	// ErrTaskNotFound indicates that a task could not be found in the ledger.
	ErrTaskNotFound = New("task not found")
	// ErrNoActiveTask indicates that an operation requires an active task
	// and there is none.
	ErrNoActiveTask = New("no active task")
	// ErrTaskStopped indicates that an operation is not valid on a stopped task.
	ErrTaskStopped = New("task is stopped")
)

// Persistence-related sentinel errors
var (
	// ErrSessionCorrupted indicates that the persisted session could not
	// be decoded. Load treats this as an empty collection.
	ErrSessionCorrupted = New("session data corrupted")
	// ErrArchiveClosed indicates that the archive database is closed.
	ErrArchiveClosed = New("archive is closed")
)

// LedgerError represents an error from the task ledger.
type LedgerError struct {
	message string
	cause   error
	// TaskID is the task involved, when known.
	TaskID string
}

// NewLedgerError creates a LedgerError wrapping an underlying cause.
func NewLedgerError(message string, cause error) *LedgerError {
	return &LedgerError{message: message, cause: cause}
}

// WithTask attaches the task ID for context.
func (e *LedgerError) WithTask(id string) *LedgerError {
	e.TaskID = id
	return e
}

// Error implements the error interface.
func (e *LedgerError) Error() string {
	msg := e.message
	if e.TaskID != "" {
		msg = fmt.Sprintf("%s (task %s)", msg, e.TaskID)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *LedgerError) Unwrap() error {
	return e.cause
}

// StoreError represents an error from session persistence or the archive.
type StoreError struct {
	message string
	cause   error
	// Path is the file involved, when known.
	Path string
}

// NewStoreError creates a StoreError wrapping an underlying cause.
func NewStoreError(message string, cause error) *StoreError {
	return &StoreError{message: message, cause: cause}
}

// WithPath attaches the file path for context.
func (e *StoreError) WithPath(path string) *StoreError {
	e.Path = path
	return e
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	msg := e.message
	if e.Path != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Path)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *StoreError) Unwrap() error {
	return e.cause
}

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	// Resource is the kind of resource (e.g. "task").
	Resource string
	// ID identifies the specific resource.
	ID string
}

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// Is matches the generic not-found sentinel so callers can test with
// errors.Is(err, ErrTaskNotFound) without knowing the concrete type.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrTaskNotFound && e.Resource == "task"
}

// ValidationError indicates invalid input or state.
type ValidationError struct {
	// Field is the input field that failed validation.
	Field string
	// Message describes what is wrong.
	Message string
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsNotFound reports whether err is a not-found condition of any kind.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf) || errors.Is(err, ErrTaskNotFound)
}
