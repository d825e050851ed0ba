// Package notify fires notifications when a task reaches a terminal state.
// Actual delivery (mail, desktop, chat) is delegated to an external command;
// the supervisor treats the whole operation as fire-and-forget.
package notify

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/taskmux/taskmux/internal/logging"
)

// Event describes a terminal transition. It is what an external delivery
// command receives on stdin as JSON.
type Event struct {
	TaskID    string     `json:"task_id"`
	Name      string     `json:"name"`
	Status    string     `json:"status"`
	Command   string     `json:"command"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Duration  string     `json:"duration"`
}

// Summary renders a one-line human description of the event.
func (e Event) Summary() string {
	return fmt.Sprintf("task %s (%s) %s after %s", e.TaskID, e.Name, e.Status, e.Duration)
}

// Notifier delivers terminal-transition events. Delivery failures must not
// affect task state; callers ignore the error beyond logging it.
type Notifier interface {
	NotifyTerminal(ev Event) error
}

// LogNotifier records events in the supervisor log without external
// delivery. It is the default when no notify command is configured.
type LogNotifier struct {
	logger *logging.Logger
}

// NewLogNotifier returns a Notifier that only logs.
func NewLogNotifier(logger *logging.Logger) *LogNotifier {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &LogNotifier{logger: logger.WithComponent("notify")}
}

func (n *LogNotifier) NotifyTerminal(ev Event) error {
	n.logger.Info("task reached terminal state",
		"task_id", ev.TaskID,
		"status", ev.Status,
		"duration", ev.Duration,
	)
	return nil
}

// CommandNotifier pipes the event as JSON into a user-configured shell
// command. The command owns delivery entirely; taskmux only reports whether
// it exited cleanly.
type CommandNotifier struct {
	command string
	timeout time.Duration
	logger  *logging.Logger
}

// NewCommandNotifier returns a Notifier that executes command per event.
func NewCommandNotifier(command string, logger *logging.Logger) *CommandNotifier {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &CommandNotifier{
		command: command,
		timeout: 30 * time.Second,
		logger:  logger.WithComponent("notify"),
	}
}

func (n *CommandNotifier) NotifyTerminal(ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	cmd := exec.Command("sh", "-c", n.command)
	cmd.Stdin = strings.NewReader(string(payload))

	done := make(chan error, 1)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start notify command: %w", err)
	}
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("notify command: %w", err)
		}
		n.logger.Debug("notification delivered", "task_id", ev.TaskID)
		return nil
	case <-time.After(n.timeout):
		_ = cmd.Process.Kill()
		return fmt.Errorf("notify command timed out after %s", n.timeout)
	}
}
