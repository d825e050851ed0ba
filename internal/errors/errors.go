// Package errors provides centralized error definitions and error handling
// utilities for taskmux. It defines domain-specific error types for tmux
// operations and task lifecycle management, plus semantic errors for common
// conditions like missing tasks and invalid state transitions.
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Sentinel errors for common conditions.
var (
	// ErrTaskNotFound indicates the requested task ID does not exist in the store.
	ErrTaskNotFound = errors.New("task not found")

	// ErrNotPending indicates a start was attempted on a task that has
	// already left the pending state.
	ErrNotPending = errors.New("task is not pending")

	// ErrAlreadyTerminal indicates a stop was attempted on a task that has
	// already reached a terminal state.
	ErrAlreadyTerminal = errors.New("task already in terminal state")

	// ErrStoreCorrupt indicates the task state file could not be decoded.
	ErrStoreCorrupt = errors.New("task state file is corrupt")
)

// NotFoundError indicates a task lookup failed. It wraps ErrTaskNotFound so
// callers can use errors.Is without knowing the concrete type.
type NotFoundError struct {
	TaskID string
}

func NewNotFoundError(taskID string) *NotFoundError {
	return &NotFoundError{TaskID: taskID}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task %s not found", e.TaskID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrTaskNotFound
}

// StateError indicates a lifecycle operation was rejected because the task
// was not in an acceptable state. It wraps one of the state sentinels above.
type StateError struct {
	TaskID string
	Status string
	Op     string
	err    error
}

func NewStateError(taskID, status, op string, sentinel error) *StateError {
	return &StateError{TaskID: taskID, Status: status, Op: op, err: sentinel}
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s task %s in state %s", e.Op, e.TaskID, e.Status)
}

func (e *StateError) Unwrap() error {
	return e.err
}

// TmuxError indicates the external tmux server rejected an operation.
type TmuxError struct {
	Op      string
	Session string
	Err     error
}

func NewTmuxError(op, session string, err error) *TmuxError {
	return &TmuxError{Op: op, Session: session, Err: err}
}

func (e *TmuxError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("tmux %s failed for session %s", e.Op, e.Session)
	}
	return fmt.Sprintf("tmux %s failed for session %s: %v", e.Op, e.Session, e.Err)
}

func (e *TmuxError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err represents a missing task.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTaskNotFound)
}

// IsStateRejection reports whether err represents a lifecycle precondition
// failure (start on non-pending, stop on terminal). These are expected
// caller errors, not faults.
func IsStateRejection(err error) bool {
	return errors.Is(err, ErrNotPending) || errors.Is(err, ErrAlreadyTerminal)
}

// IsTmux reports whether err originated from the tmux adapter.
func IsTmux(err error) bool {
	var te *TmuxError
	return errors.As(err, &te)
}
