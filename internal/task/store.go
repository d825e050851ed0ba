package task

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/taskmux/taskmux/internal/errors"
	"github.com/taskmux/taskmux/internal/logging"
)

const stateFileName = "tasks.json"

// Store is the durable mapping from task ID to Task record. It is the sole
// owner of task records: callers receive clones and write changes back via
// Update. Every mutation persists the full task set to a single JSON file,
// written atomically (temp file plus rename) and guarded by a file lock for
// cross-process safety. All methods are safe for concurrent use via an
// internal mutex.
type Store struct {
	mu     sync.Mutex
	dir    string
	tasks  map[string]*Task
	logger *logging.Logger
}

// NewStore opens (or initializes) a task store in the given directory.
func NewStore(dir string, logger *logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	s := &Store{
		dir:    dir,
		tasks:  make(map[string]*Task),
		logger: logger.WithComponent("store"),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// load reads the state file if it exists. A missing file means an empty
// store, not an error.
func (s *Store) load() error {
	fl := NewFileLock(s.dir)
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer func() { _ = fl.Unlock() }()

	data, err := os.ReadFile(filepath.Join(s.dir, stateFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read state file: %w", err)
	}

	var tasks map[string]*Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrStoreCorrupt, err)
	}
	if tasks != nil {
		s.tasks = tasks
	}
	return nil
}

// save writes the full task set atomically: marshal, write to a temp file,
// rename into place. A crash mid-write leaves the previous state file
// intact. Callers must hold s.mu.
func (s *Store) save() error {
	fl := NewFileLock(s.dir)
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer func() { _ = fl.Unlock() }()

	data, err := json.MarshalIndent(s.tasks, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal task state: %w", err)
	}

	target := filepath.Join(s.dir, stateFileName)
	tmp := target + ".tmp"

	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp) // best-effort cleanup
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// AllocateID returns a fresh zero-padded identifier not currently assigned
// to any live record. IDs are the numeric maximum over live records plus
// one, so an ID is never reused while its record exists.
func (s *Store) AllocateID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allocateIDLocked()
}

func (s *Store) allocateIDLocked() string {
	maxID := 0
	for id := range s.tasks {
		if n, err := strconv.Atoi(id); err == nil && n > maxID {
			maxID = n
		}
	}
	return FormatID(maxID + 1)
}

// Create builds a pending Task, persists it, and returns a clone.
// Allocation and insertion happen under one critical section, so two
// concurrent creates can never share an ID.
func (s *Store) Create(name, command string, priority, maxRetries int) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.allocateIDLocked()
	t := &Task{
		ID:          id,
		Name:        name,
		Command:     command,
		SessionName: SessionName(id),
		Status:      StatusPending,
		Priority:    priority,
		MaxRetries:  maxRetries,
		CreatedAt:   time.Now(),
	}

	s.tasks[id] = t
	if err := s.save(); err != nil {
		// The record stays live in memory; the caller decides whether a
		// durability failure is fatal.
		return t.Clone(), err
	}

	s.logger.Info("task created", "task_id", id, "name", name)
	return t.Clone(), nil
}

// Get returns a clone of the task with the given ID.
func (s *Store) Get(id string) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, errors.NewNotFoundError(id)
	}
	return t.Clone(), nil
}

// List returns clones of all tasks, optionally filtered by status. The
// ordering is a user-facing contract: running tasks sort before all others,
// and within each partition tasks sort by ID descending (newest first).
func (s *Store) List(filter Status) []*Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := make([]*Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if filter != "" && t.Status != filter {
			continue
		}
		tasks = append(tasks, t.Clone())
	}

	sort.Slice(tasks, func(i, j int) bool {
		ri, rj := tasks[i].Status == StatusRunning, tasks[j].Status == StatusRunning
		if ri != rj {
			return ri
		}
		return tasks[i].ID > tasks[j].ID
	})
	return tasks
}

// Update persists a mutated record. The record must already exist.
func (s *Store) Update(t *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[t.ID]; !ok {
		return errors.NewNotFoundError(t.ID)
	}
	s.tasks[t.ID] = t.Clone()
	return s.save()
}

// Delete removes the record permanently.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return errors.NewNotFoundError(id)
	}
	delete(s.tasks, id)
	return s.save()
}

// Count returns the number of live records.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}
