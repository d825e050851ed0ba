// Package tmux wraps the tmux primitives taskmux needs to supervise task
// sessions: create-and-run, interrupt, kill, liveness, pane snapshots, and
// continuous output duplication via pipe-pane.
//
// Task sessions live on a dedicated tmux socket so they never collide with
// the user's own tmux server. Sessions are detached and deliberately
// decoupled from the taskmux process lifetime: killing taskmux leaves every
// task running.
package tmux

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Client is the capability set the supervisor and capture engine consume.
// The production implementation shells out to the tmux binary; tests supply
// fakes.
type Client interface {
	// CreateAndRun starts command inside a new detached session.
	CreateAndRun(session, command string) error

	// SendInterrupt delivers Ctrl+C to the session's foreground process.
	SendInterrupt(session string) error

	// Kill unconditionally terminates the session.
	Kill(session string) error

	// Exists reports whether the session is alive.
	Exists(session string) bool

	// LeaderPID returns the pane's leader process ID.
	LeaderPID(session string) (int, error)

	// Snapshot returns up to maxLines trailing lines of the session's
	// visible buffer plus scrollback. maxLines <= 0 returns everything.
	Snapshot(session string, maxLines int) (string, error)

	// StreamTo duplicates every byte written to the session's pane into
	// sinkPath, append-only. The duplication is performed by the tmux
	// server itself and survives taskmux exiting.
	StreamTo(session, sinkPath string) error

	// StopStream cancels a previous StreamTo.
	StopStream(session string) error

	// ListSessions returns the names of all sessions on the socket.
	ListSessions() ([]string, error)
}

// ExecClient implements Client by invoking the tmux binary.
type ExecClient struct {
	// Socket is the tmux socket name (tmux -L).
	Socket string
	// Width and Height set the pane dimensions for new sessions.
	Width, Height int
	// HistoryLimit is the scrollback line count for new sessions.
	HistoryLimit int
}

// NewClient returns an ExecClient for the given socket with the given pane
// geometry.
func NewClient(socket string, width, height, historyLimit int) *ExecClient {
	return &ExecClient{
		Socket:       socket,
		Width:        width,
		Height:       height,
		HistoryLimit: historyLimit,
	}
}

// command builds an exec.Cmd for tmux on the client's socket.
func (c *ExecClient) command(args ...string) *exec.Cmd {
	full := append([]string{"-L", c.Socket}, args...)
	return exec.Command("tmux", full...)
}

// CreateAndRun starts command inside a new detached session. The session
// runs the command directly, so the session exits when the command does.
func (c *ExecClient) CreateAndRun(session, command string) error {
	createCmd := c.command(
		"new-session",
		"-d",
		"-s", session,
		"-x", strconv.Itoa(c.Width),
		"-y", strconv.Itoa(c.Height),
		command,
	)
	createCmd.Env = append(os.Environ(), "TERM=xterm-256color")
	if out, err := createCmd.CombinedOutput(); err != nil {
		msg := strings.TrimSpace(string(out))
		if msg != "" {
			return fmt.Errorf("tmux new-session: %s", msg)
		}
		return fmt.Errorf("tmux new-session: %w", err)
	}

	// Scrollback depth matters for the polling capture fallback; errors
	// here are not fatal to the task.
	_ = c.command("set-option", "-t", session, "history-limit",
		strconv.Itoa(c.HistoryLimit)).Run()

	return nil
}

// SendInterrupt delivers Ctrl+C to the session's foreground process.
func (c *ExecClient) SendInterrupt(session string) error {
	return c.command("send-keys", "-t", session, "C-c").Run()
}

// Kill unconditionally terminates the session.
func (c *ExecClient) Kill(session string) error {
	return c.command("kill-session", "-t", session).Run()
}

// Exists reports whether the session is alive.
func (c *ExecClient) Exists(session string) bool {
	return c.command("has-session", "-t", session).Run() == nil
}

// LeaderPID returns the pane's leader process ID.
func (c *ExecClient) LeaderPID(session string) (int, error) {
	out, err := c.command("display-message", "-t", session, "-p", "#{pane_pid}").Output()
	if err != nil {
		return 0, fmt.Errorf("tmux display-message: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil {
		return 0, fmt.Errorf("parse pane pid: %w", err)
	}
	return pid, nil
}

// Snapshot captures the session's visible buffer plus scrollback and returns
// the trailing maxLines lines.
func (c *ExecClient) Snapshot(session string, maxLines int) (string, error) {
	// -p prints to stdout, -S -/-E - covers the full scrollback.
	out, err := c.command("capture-pane", "-t", session, "-p", "-S", "-", "-E", "-").Output()
	if err != nil {
		return "", fmt.Errorf("tmux capture-pane: %w", err)
	}
	return TailLines(string(out), maxLines), nil
}

// StreamTo duplicates pane output into sinkPath via pipe-pane. The -o flag
// makes the call idempotent: it only toggles the pipe on when no pipe is
// active, rather than toggling an active pipe off.
func (c *ExecClient) StreamTo(session, sinkPath string) error {
	pipeCmd := fmt.Sprintf("cat >> %s", shellQuote(sinkPath))
	if err := c.command("pipe-pane", "-o", "-t", session, pipeCmd).Run(); err != nil {
		return fmt.Errorf("tmux pipe-pane: %w", err)
	}
	return nil
}

// StopStream cancels output duplication for the session.
func (c *ExecClient) StopStream(session string) error {
	return c.command("pipe-pane", "-t", session).Run()
}

// ListSessions returns the names of all sessions on the socket. A missing
// server (no sessions at all) is not an error.
func (c *ExecClient) ListSessions() ([]string, error) {
	out, err := c.command("list-sessions", "-F", "#{session_name}").Output()
	if err != nil {
		return nil, nil
	}

	var sessions []string
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line != "" {
			sessions = append(sessions, line)
		}
	}
	return sessions, nil
}

// TailLines returns the last n lines of text. n <= 0 returns text unchanged.
func TailLines(text string, n int) string {
	if n <= 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) <= n {
		return text
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}

// shellQuote single-quotes a string for safe interpolation into the shell
// command tmux runs for pipe-pane.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "'\\''") + "'"
}
