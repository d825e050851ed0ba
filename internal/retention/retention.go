// Package retention prunes terminal-state tasks and their durable logs
// once they pass an age threshold. Running and pending tasks are never
// touched, so the pass is idempotent and safe to run before every listing.
package retention

import (
	"os"
	"strings"
	"time"

	"github.com/taskmux/taskmux/internal/capture"
	"github.com/taskmux/taskmux/internal/logging"
	"github.com/taskmux/taskmux/internal/task"
	"github.com/taskmux/taskmux/internal/tmux"
)

// Manager deletes old finished tasks from the store along with their logs.
type Manager struct {
	store   *task.Store
	logsDir string
	client  tmux.Client
	logger  *logging.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewManager creates a retention manager over the given store and logs
// directory. client may be nil, in which case orphan session cleanup is
// disabled.
func NewManager(store *task.Store, logsDir string, client tmux.Client, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Manager{
		store:   store,
		logsDir: logsDir,
		client:  client,
		logger:  logger.WithComponent("retention"),
		now:     time.Now,
	}
}

// Cleanup removes every terminal-state task whose end time is older than
// maxAge, deleting its record and log file. maxAge of zero removes all
// terminal tasks immediately. Returns the number of tasks removed.
func (m *Manager) Cleanup(maxAge time.Duration) int {
	now := m.now()
	removed := 0

	for _, t := range m.store.List("") {
		if !t.Status.IsTerminal() || t.EndTime == nil {
			continue
		}
		if now.Sub(*t.EndTime) <= maxAge {
			continue
		}

		if err := m.store.Delete(t.ID); err != nil {
			m.logger.Warn("failed to delete task record",
				"task_id", t.ID, "error", err.Error())
			continue
		}
		logPath := capture.LogPath(m.logsDir, t.ID)
		if err := os.Remove(logPath); err != nil && !os.IsNotExist(err) {
			m.logger.Warn("failed to delete task log",
				"task_id", t.ID, "error", err.Error())
		}
		removed++
	}

	if removed > 0 {
		m.logger.Info("cleaned up old tasks", "removed", removed)
	}
	return removed
}

// KillOrphans kills task sessions on the socket that no live task record
// points at: sessions whose record was deleted, or whose record already
// reached a terminal state. Returns the number of sessions killed.
func (m *Manager) KillOrphans() int {
	if m.client == nil {
		return 0
	}

	sessions, err := m.client.ListSessions()
	if err != nil {
		m.logger.Warn("failed to list sessions", "error", err.Error())
		return 0
	}

	killed := 0
	for _, name := range sessions {
		id, ok := strings.CutPrefix(name, "task_")
		if !ok {
			continue
		}

		t, err := m.store.Get(id)
		if err == nil && !t.Status.IsTerminal() {
			continue
		}

		if err := m.client.Kill(name); err != nil {
			m.logger.Warn("failed to kill orphaned session",
				"session", name, "error", err.Error())
			continue
		}
		m.logger.Info("killed orphaned session", "session", name)
		killed++
	}
	return killed
}
