// Package task defines the Task record and its durable store. The store
// owns the full task set: every mutation is a whole-record update that is
// immediately persisted to a single JSON state file with atomic
// replace-on-write semantics.
package task

import (
	"fmt"
	"time"
)

// Status represents the current state of a task.
type Status string

const (
	// StatusPending indicates the task has been created but not started.
	StatusPending Status = "pending"

	// StatusRunning indicates the task's tmux session is executing.
	StatusRunning Status = "running"

	// StatusCompleted indicates the task finished or was stopped cleanly.
	StatusCompleted Status = "completed"

	// StatusFailed indicates session creation failed.
	StatusFailed Status = "failed"

	// StatusKilled indicates the task was force-stopped.
	StatusKilled Status = "killed"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true if this status represents a final state.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusKilled
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusCompleted, StatusFailed, StatusKilled:
		return true
	}
	return false
}

// Task is a supervised shell command running in a detached tmux session.
type Task struct {
	// ID is a stable zero-padded decimal identifier, unique for the
	// lifetime of the record.
	ID string `json:"id"`

	// Name is a free-text label, not unique.
	Name string `json:"name"`

	// Command is the shell instruction executed in the session.
	Command string `json:"command"`

	// SessionName is derived from ID and names the tmux session.
	SessionName string `json:"session_name"`

	// Status is the lifecycle state.
	Status Status `json:"status"`

	// Priority is advisory and affects display only.
	Priority int `json:"priority"`

	// MaxRetries and RetryCount are recorded but no automatic restart
	// policy acts on them.
	MaxRetries int `json:"max_retries"`
	RetryCount int `json:"retry_count"`

	// CreatedAt is set once at creation.
	CreatedAt time.Time `json:"created_at"`

	// StartTime is set exactly once, on the pending-to-running transition.
	StartTime *time.Time `json:"start_time,omitempty"`

	// EndTime is set exactly once, on entering a terminal state.
	EndTime *time.Time `json:"end_time,omitempty"`

	// PID is the session's leader process ID, best-effort.
	PID int `json:"pid,omitempty"`

	// ExitCode is recorded on failure paths when known.
	ExitCode *int `json:"exit_code,omitempty"`

	// ErrorMessage describes why a task failed.
	ErrorMessage string `json:"error_message,omitempty"`
}

// SessionName derives the tmux session name for a task ID. The mapping is
// deterministic so a task and its session stay 1:1 for the task's lifetime.
func SessionName(id string) string {
	return "task_" + id
}

// FormatID renders a numeric task ID in the canonical zero-padded form.
func FormatID(n int) string {
	return fmt.Sprintf("%05d", n)
}

// Duration returns how long the task ran: start to end for terminal tasks,
// start to now for running ones, zero if never started.
func (t *Task) Duration() time.Duration {
	if t.StartTime == nil {
		return 0
	}
	if t.EndTime != nil {
		return t.EndTime.Sub(*t.StartTime)
	}
	return time.Since(*t.StartTime)
}

// Clone returns a deep copy of the task. The store hands out clones so
// callers can only mutate records through Update.
func (t *Task) Clone() *Task {
	c := *t
	if t.StartTime != nil {
		st := *t.StartTime
		c.StartTime = &st
	}
	if t.EndTime != nil {
		et := *t.EndTime
		c.EndTime = &et
	}
	if t.ExitCode != nil {
		ec := *t.ExitCode
		c.ExitCode = &ec
	}
	return &c
}
