// Package supervisor implements the task lifecycle state machine:
// pending -> running -> {completed, failed, killed}. It orchestrates the
// tmux adapter, the task store, the capture engine, and the notification
// trigger.
//
// Status queries are not read-only: querying a running task reconciles the
// stored status against live session existence, and a vanished session is
// recorded as spontaneous completion as a side effect of the query.
package supervisor

import (
	"sync"
	"time"

	"github.com/taskmux/taskmux/internal/capture"
	"github.com/taskmux/taskmux/internal/errors"
	"github.com/taskmux/taskmux/internal/logging"
	"github.com/taskmux/taskmux/internal/notify"
	"github.com/taskmux/taskmux/internal/task"
	"github.com/taskmux/taskmux/internal/tmux"
)

// Supervisor drives task lifecycle transitions. Each task record is
// mutated only through a whole-record read-modify-write-persist sequence
// guarded by a per-task lock, so stop and reconcile can never both commit
// a terminal transition for the same task.
type Supervisor struct {
	store    *task.Store
	client   tmux.Client
	capture  *capture.Engine
	notifier notify.Notifier
	logger   *logging.Logger
	grace    time.Duration

	// locks holds one mutex per task ID.
	locks sync.Map
}

// New creates a Supervisor. grace is how long a non-forced stop waits
// after sending an interrupt before escalating to kill.
func New(store *task.Store, client tmux.Client, eng *capture.Engine, notifier notify.Notifier, logger *logging.Logger, grace time.Duration) *Supervisor {
	if logger == nil {
		logger = logging.NopLogger()
	}
	if notifier == nil {
		notifier = notify.NewLogNotifier(logger)
	}
	if grace <= 0 {
		grace = 1500 * time.Millisecond
	}
	return &Supervisor{
		store:    store,
		client:   client,
		capture:  eng,
		notifier: notifier,
		logger:   logger.WithComponent("supervisor"),
		grace:    grace,
	}
}

func (s *Supervisor) lockFor(id string) *sync.Mutex {
	v, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// persist saves a mutated record. Persistence failures are logged and
// swallowed: taskmux is a best-effort local operator tool and a failed
// write must not abort a lifecycle transition that already happened in
// the external session host.
func (s *Supervisor) persist(t *task.Task) {
	if err := s.store.Update(t); err != nil {
		s.logger.Warn("failed to persist task state",
			"task_id", t.ID, "status", t.Status.String(), "error", err.Error())
	}
}

// fireNotification triggers the notifier exactly once per terminal
// transition. Delivery failures are logged and never roll back the
// transition.
func (s *Supervisor) fireNotification(t *task.Task) {
	ev := notify.Event{
		TaskID:    t.ID,
		Name:      t.Name,
		Status:    t.Status.String(),
		Command:   t.Command,
		StartTime: t.StartTime,
		EndTime:   t.EndTime,
		Duration:  t.Duration().Round(time.Second).String(),
	}
	if err := s.notifier.NotifyTerminal(ev); err != nil {
		s.logger.Warn("notification delivery failed",
			"task_id", t.ID, "error", err.Error())
	}
}

// Create allocates a new pending task. No external side effect happens
// until Start.
func (s *Supervisor) Create(name, command string, priority, maxRetries int) (*task.Task, error) {
	t, err := s.store.Create(name, command, priority, maxRetries)
	if err != nil {
		if t == nil {
			return nil, err
		}
		// Record exists but was not durably written.
		s.logger.Warn("task created without durable write",
			"task_id", t.ID, "error", err.Error())
	}
	return t, nil
}

// Start launches a pending task inside a new tmux session. On adapter
// failure the task transitions to failed with the error recorded; no retry
// is attempted.
func (s *Supervisor) Start(id string) (*task.Task, error) {
	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	t, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if t.Status != task.StatusPending {
		return nil, errors.NewStateError(id, t.Status.String(), "start", errors.ErrNotPending)
	}

	if err := s.client.CreateAndRun(t.SessionName, t.Command); err != nil {
		now := time.Now()
		t.Status = task.StatusFailed
		t.ErrorMessage = err.Error()
		t.EndTime = &now
		s.persist(t)
		s.fireNotification(t)
		s.logger.Error("session creation failed", "task_id", id, "error", err.Error())
		return nil, errors.NewTmuxError("new-session", t.SessionName, err)
	}

	now := time.Now()
	t.StartTime = &now
	t.Status = task.StatusRunning

	// The leader pid is best-effort; its absence is not an error.
	if pid, err := s.client.LeaderPID(t.SessionName); err == nil {
		t.PID = pid
	}

	s.persist(t)
	s.capture.Start(t.ID, t.SessionName)

	s.logger.Info("task started", "task_id", id, "session", t.SessionName, "pid", t.PID)
	return t, nil
}

// Stop terminates a pending or running task. With force, the session is
// killed outright and the task is marked killed. Without force, an
// interrupt is sent, the grace period elapses, and the session is killed
// only if still alive; the task is marked completed either way, reflecting
// "requested a clean stop" semantics.
func (s *Supervisor) Stop(id string, force bool) (*task.Task, error) {
	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	t, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if t.Status.IsTerminal() {
		return nil, errors.NewStateError(id, t.Status.String(), "stop", errors.ErrAlreadyTerminal)
	}

	if force {
		if err := s.client.Kill(t.SessionName); err != nil && s.client.Exists(t.SessionName) {
			return nil, errors.NewTmuxError("kill-session", t.SessionName, err)
		}
		t.Status = task.StatusKilled
	} else {
		// Interrupt errors are ignored; the liveness re-check decides
		// whether escalation is needed.
		_ = s.client.SendInterrupt(t.SessionName)
		time.Sleep(s.grace)
		if s.client.Exists(t.SessionName) {
			if err := s.client.Kill(t.SessionName); err != nil && s.client.Exists(t.SessionName) {
				return nil, errors.NewTmuxError("kill-session", t.SessionName, err)
			}
		}
		t.Status = task.StatusCompleted
	}

	now := time.Now()
	t.EndTime = &now
	s.persist(t)
	s.capture.StopTask(t.ID)
	s.fireNotification(t)

	s.logger.Info("task stopped", "task_id", id, "status", t.Status.String(), "force", force)
	return t, nil
}

// Status returns the task's current record, reconciling a running task
// against live session existence first.
func (s *Supervisor) Status(id string) (*task.Task, error) {
	t, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if t.Status != task.StatusRunning {
		return t, nil
	}
	return s.reconcile(t), nil
}

// List returns all tasks in display order (running first, then newest
// first), reconciling every running task along the way.
func (s *Supervisor) List(filter task.Status) []*task.Task {
	for _, t := range s.store.List(task.StatusRunning) {
		s.reconcile(t)
	}
	return s.store.List(filter)
}

// reconcile compares a running task's record against live session
// existence. A vanished session is spontaneous completion: this is the only
// path to completed that does not go through an explicit Stop.
func (s *Supervisor) reconcile(t *task.Task) *task.Task {
	if s.client.Exists(t.SessionName) {
		return t
	}

	mu := s.lockFor(t.ID)
	mu.Lock()
	defer mu.Unlock()

	// Re-read under the lock: a concurrent stop may have already
	// committed the terminal transition.
	current, err := s.store.Get(t.ID)
	if err != nil {
		return t
	}
	if current.Status != task.StatusRunning {
		return current
	}
	if s.client.Exists(current.SessionName) {
		return current
	}

	now := time.Now()
	current.Status = task.StatusCompleted
	current.EndTime = &now
	s.persist(current)
	s.capture.StopTask(current.ID)
	s.fireNotification(current)

	s.logger.Info("session vanished, task reconciled to completed", "task_id", current.ID)
	return current
}

// Output returns the last maxLines lines of a task's output, from a live
// pane snapshot while the session exists or from the durable log after it
// is gone.
func (s *Supervisor) Output(id string, maxLines int) (string, error) {
	t, err := s.store.Get(id)
	if err != nil {
		return "", err
	}
	return s.capture.Tail(t.ID, t.SessionName, maxLines)
}
