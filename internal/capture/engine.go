// Package capture makes task output durably available whether or not
// anyone is watching. The preferred strategy asks tmux to duplicate pane
// output straight into the task's log via pipe-pane, so capture survives
// the taskmux process exiting. When streaming is unavailable the engine
// falls back to a per-task polling loop that snapshots the pane and
// appends the unseen suffix.
package capture

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/taskmux/taskmux/internal/logging"
	"github.com/taskmux/taskmux/internal/tmux"
)

// Mode identifies which capture strategy a handle is using.
type Mode string

const (
	// ModeStream means tmux itself is duplicating output to the log.
	ModeStream Mode = "stream"
	// ModePoll means a background loop is snapshot-diffing the pane.
	ModePoll Mode = "poll"
)

// Config controls capture behavior.
type Config struct {
	// Interval is the polling cadence for the fallback strategy.
	Interval time.Duration
	// PreferStream probes pipe-pane streaming before falling back.
	PreferStream bool
	// MaxPollers caps the number of concurrent fallback loops.
	MaxPollers int
}

// DefaultConfig returns sensible capture defaults.
func DefaultConfig() Config {
	return Config{
		Interval:     time.Second,
		PreferStream: true,
		MaxPollers:   32,
	}
}

// LogPath returns the durable log file path for a task ID.
func LogPath(dir, taskID string) string {
	return filepath.Join(dir, taskID+".log")
}

// Handle represents an active capture for one task.
type Handle struct {
	TaskID string
	Mode   Mode

	done     chan struct{}
	stopOnce sync.Once
	stop     func()
}

// Stop ends capture for this task. For streaming captures it cancels the
// pipe; for polling captures it signals the loop to exit. Safe to call
// more than once.
func (h *Handle) Stop() {
	h.stopOnce.Do(func() {
		if h.stop != nil {
			h.stop()
		}
		close(h.done)
	})
}

// Done is closed when the capture has been stopped.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Engine owns output capture for all running tasks.
type Engine struct {
	client  tmux.Client
	logsDir string
	cfg     Config
	logger  *logging.Logger

	mu      sync.Mutex
	handles map[string]*Handle

	// pollSlots bounds concurrent fallback loops so a large task set
	// cannot grow goroutines without limit.
	pollSlots chan struct{}
}

// NewEngine creates a capture engine writing logs under logsDir.
func NewEngine(client tmux.Client, logsDir string, cfg Config, logger *logging.Logger) (*Engine, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, fmt.Errorf("create logs directory: %w", err)
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.MaxPollers <= 0 {
		cfg.MaxPollers = 32
	}

	return &Engine{
		client:    client,
		logsDir:   logsDir,
		cfg:       cfg,
		logger:    logger.WithComponent("capture"),
		handles:   make(map[string]*Handle),
		pollSlots: make(chan struct{}, cfg.MaxPollers),
	}, nil
}

// LogPath returns the durable log file path for a task ID.
func (e *Engine) LogPath(taskID string) string {
	return LogPath(e.logsDir, taskID)
}

// Start begins capturing output for the given task. It probes streaming
// first and falls back to polling; either way it returns immediately, never
// blocking the caller on the capture itself.
func (e *Engine) Start(taskID, session string) *Handle {
	logPath := e.LogPath(taskID)

	if e.cfg.PreferStream {
		if err := e.client.StreamTo(session, logPath); err == nil {
			h := &Handle{
				TaskID: taskID,
				Mode:   ModeStream,
				done:   make(chan struct{}),
				stop: func() {
					_ = e.client.StopStream(session)
				},
			}
			e.track(h)
			e.logger.Debug("streaming capture started", "task_id", taskID)
			return h
		}
		e.logger.Warn("pipe-pane unavailable, falling back to polling", "task_id", taskID)
	}

	h := &Handle{
		TaskID: taskID,
		Mode:   ModePoll,
		done:   make(chan struct{}),
	}
	e.track(h)
	go e.pollLoop(h, session, logPath)
	return h
}

// Lookup returns the active handle for a task, if any.
func (e *Engine) Lookup(taskID string) (*Handle, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	h, ok := e.handles[taskID]
	return h, ok
}

// StopTask stops the active capture for a task, if any.
func (e *Engine) StopTask(taskID string) {
	if h, ok := e.Lookup(taskID); ok {
		h.Stop()
	}
}

func (e *Engine) track(h *Handle) {
	e.mu.Lock()
	e.handles[h.TaskID] = h
	e.mu.Unlock()

	go func() {
		<-h.done
		e.mu.Lock()
		if e.handles[h.TaskID] == h {
			delete(e.handles, h.TaskID)
		}
		e.mu.Unlock()
	}()
}

// pollLoop periodically snapshots the session and appends the suffix not
// previously seen. It exits when the session disappears or the handle is
// stopped; either way is normal termination, not a fault.
func (e *Engine) pollLoop(h *Handle, session, logPath string) {
	select {
	case e.pollSlots <- struct{}{}:
		defer func() { <-e.pollSlots }()
	case <-h.done:
		return
	}

	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()

	var last string
	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			snap, err := e.client.Snapshot(session, 0)
			if err == nil && snap != last {
				if suffix := unseenSuffix(last, snap); suffix != "" {
					if err := appendToLog(logPath, suffix); err != nil {
						e.logger.Warn("log append failed",
							"task_id", h.TaskID, "error", err.Error())
					}
				}
				last = snap
			}

			if !e.client.Exists(session) {
				h.Stop()
				return
			}
		}
	}
}

// unseenSuffix returns the part of cur not already captured. The common
// case is cur extending prev, leaving the appended suffix. Once scrollback
// rolls past the history limit prev stops being a prefix; the longest
// suffix of prev that still starts cur locates the seam, so only the truly
// new tail is appended. A cleared screen has no overlap at all and the
// whole snapshot is treated as new.
func unseenSuffix(prev, cur string) string {
	if prev == "" {
		return cur
	}
	if strings.HasPrefix(cur, prev) {
		return cur[len(prev):]
	}
	for k := min(len(prev), len(cur)); k > 0; k-- {
		if strings.HasPrefix(cur, prev[len(prev)-k:]) {
			return cur[k:]
		}
	}
	return cur
}

// appendToLog appends text to the task log, creating it if needed.
func appendToLog(path, text string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteString(text)
	return err
}

// Tail returns the last maxLines lines of the task's current output. While
// the session lives, a fresh pane snapshot is the source of truth; once it
// is gone, the durable log is used instead.
func (e *Engine) Tail(taskID, session string, maxLines int) (string, error) {
	if e.client.Exists(session) {
		return e.client.Snapshot(session, maxLines)
	}

	data, err := os.ReadFile(e.LogPath(taskID))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("no captured output for task %s", taskID)
		}
		return "", fmt.Errorf("read task log: %w", err)
	}
	return tmux.TailLines(string(data), maxLines), nil
}
