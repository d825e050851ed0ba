package retention

import (
	"os"
	"testing"
	"time"

	"github.com/taskmux/taskmux/internal/capture"
	"github.com/taskmux/taskmux/internal/errors"
	"github.com/taskmux/taskmux/internal/task"
)

type fixture struct {
	store   *task.Store
	manager *Manager
	logsDir string
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := task.NewStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	logsDir := t.TempDir()
	m := NewManager(store, logsDir, nil, nil)

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	return &fixture{store: store, manager: m, logsDir: logsDir, now: now}
}

// addTask creates a task in the given status with an end time age hours in
// the past (ignored for non-terminal statuses) and a log file on disk.
func (f *fixture) addTask(t *testing.T, status task.Status, age time.Duration) *task.Task {
	t.Helper()
	created, err := f.store.Create("job", "true", 0, 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	created.Status = status
	if status != task.StatusPending {
		start := f.now.Add(-age - time.Minute)
		created.StartTime = &start
	}
	if status.IsTerminal() {
		end := f.now.Add(-age)
		created.EndTime = &end
	}
	if err := f.store.Update(created); err != nil {
		t.Fatalf("Update: %v", err)
	}

	logPath := capture.LogPath(f.logsDir, created.ID)
	if err := os.WriteFile(logPath, []byte("output\n"), 0644); err != nil {
		t.Fatal(err)
	}
	return created
}

func (f *fixture) logExists(id string) bool {
	_, err := os.Stat(capture.LogPath(f.logsDir, id))
	return err == nil
}

func TestCleanupZeroRemovesAllTerminal(t *testing.T) {
	f := newFixture(t)

	completed := f.addTask(t, task.StatusCompleted, time.Hour)
	failed := f.addTask(t, task.StatusFailed, time.Minute)
	killed := f.addTask(t, task.StatusKilled, time.Second)
	running := f.addTask(t, task.StatusRunning, 0)
	pending := f.addTask(t, task.StatusPending, 0)

	removed := f.manager.Cleanup(0)
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}

	for _, id := range []string{completed.ID, failed.ID, killed.ID} {
		if _, err := f.store.Get(id); !errors.IsNotFound(err) {
			t.Errorf("terminal task %s survived cleanup", id)
		}
		if f.logExists(id) {
			t.Errorf("log for %s survived cleanup", id)
		}
	}
	for _, id := range []string{running.ID, pending.ID} {
		if _, err := f.store.Get(id); err != nil {
			t.Errorf("live task %s was removed", id)
		}
		if !f.logExists(id) {
			t.Errorf("log for live task %s was removed", id)
		}
	}
}

func TestCleanupRespectsAgeThreshold(t *testing.T) {
	f := newFixture(t)

	old := f.addTask(t, task.StatusCompleted, 48*time.Hour)
	recent := f.addTask(t, task.StatusCompleted, time.Hour)

	removed := f.manager.Cleanup(24 * time.Hour)
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, err := f.store.Get(old.ID); !errors.IsNotFound(err) {
		t.Error("old task survived")
	}
	if _, err := f.store.Get(recent.ID); err != nil {
		t.Error("recent task was removed")
	}
}

func TestCleanupIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.addTask(t, task.StatusCompleted, time.Hour)

	if removed := f.manager.Cleanup(0); removed != 1 {
		t.Fatalf("first pass removed %d", removed)
	}
	if removed := f.manager.Cleanup(0); removed != 0 {
		t.Errorf("second pass removed %d, want 0", removed)
	}
}

func TestCleanupMissingLogIsFine(t *testing.T) {
	f := newFixture(t)
	doomed := f.addTask(t, task.StatusKilled, time.Hour)
	if err := os.Remove(capture.LogPath(f.logsDir, doomed.ID)); err != nil {
		t.Fatal(err)
	}

	if removed := f.manager.Cleanup(0); removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
}

func TestCleanupEmptyStore(t *testing.T) {
	f := newFixture(t)
	if removed := f.manager.Cleanup(0); removed != 0 {
		t.Errorf("removed = %d on empty store", removed)
	}
}

// fakeSessions implements tmux.Client over a static session list, tracking
// which sessions were killed.
type fakeSessions struct {
	names  []string
	killed []string
}

func (f *fakeSessions) CreateAndRun(session, command string) error { return nil }
func (f *fakeSessions) SendInterrupt(session string) error         { return nil }
func (f *fakeSessions) Exists(session string) bool                 { return false }
func (f *fakeSessions) LeaderPID(session string) (int, error)      { return 0, nil }
func (f *fakeSessions) Snapshot(session string, maxLines int) (string, error) {
	return "", nil
}
func (f *fakeSessions) StreamTo(session, sinkPath string) error { return nil }
func (f *fakeSessions) StopStream(session string) error         { return nil }
func (f *fakeSessions) ListSessions() ([]string, error)         { return f.names, nil }

func (f *fakeSessions) Kill(session string) error {
	f.killed = append(f.killed, session)
	return nil
}

func TestKillOrphans(t *testing.T) {
	f := newFixture(t)

	running := f.addTask(t, task.StatusRunning, 0)
	terminal := f.addTask(t, task.StatusCompleted, time.Hour)

	client := &fakeSessions{names: []string{
		task.SessionName(running.ID),  // live record, must survive
		task.SessionName(terminal.ID), // terminal record, orphan
		"task_99999",                  // no record at all, orphan
		"unrelated",                   // not a task session
	}}
	f.manager.client = client

	if killed := f.manager.KillOrphans(); killed != 2 {
		t.Errorf("killed = %d, want 2", killed)
	}

	want := map[string]bool{
		task.SessionName(terminal.ID): true,
		"task_99999":                  true,
	}
	for _, name := range client.killed {
		if !want[name] {
			t.Errorf("unexpected kill of session %q", name)
		}
		delete(want, name)
	}
	for name := range want {
		t.Errorf("session %q was not killed", name)
	}
}

func TestKillOrphansWithoutClient(t *testing.T) {
	f := newFixture(t)
	if killed := f.manager.KillOrphans(); killed != 0 {
		t.Errorf("killed = %d with nil client", killed)
	}
}
