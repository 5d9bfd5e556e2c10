// Package store persists the task collection as a single JSON document,
// written atomically so a crash mid-save never corrupts the previous
// session.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/worklens/worklens/internal/errors"
	"github.com/worklens/worklens/internal/logging"
	"github.com/worklens/worklens/internal/task"
)

// sessionVersion is bumped when the on-disk envelope changes shape.
const sessionVersion = 1

// envelope is the on-disk session document.
type envelope struct {
	Version int          `json:"version"`
	SavedAt time.Time    `json:"savedAt"`
	Tasks   []*task.Task `json:"tasks"`
}

// SessionStore reads and writes the session file.
type SessionStore struct {
	path   string
	mu     sync.Mutex
	logger *logging.Logger
}

// NewSessionStore creates a store writing to the given file path. The
// parent directory is created on first save.
func NewSessionStore(path string, logger *logging.Logger) *SessionStore {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &SessionStore{path: path, logger: logger.WithComponent("store")}
}

// Path returns the session file path.
func (s *SessionStore) Path() string {
	return s.path
}

// Save writes the given task snapshots to disk atomically.
func (s *SessionStore) Save(tasks []*task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := envelope{
		Version: sessionVersion,
		SavedAt: time.Now().UTC(),
		Tasks:   tasks,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.NewStoreError("encode session", err).WithPath(s.path)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return errors.NewStoreError("create session directory", err).WithPath(s.path)
	}
	if err := atomicWriteFile(s.path, data, 0644); err != nil {
		return errors.NewStoreError("write session", err).WithPath(s.path)
	}
	return nil
}

// Load reads the session from disk. Tasks saved mid-flight by a prior
// run are coerced to Stopped: the program was not observing in the
// meantime, so their accrual is closed off at the last known instant.
// A missing file is a normal first run and yields an empty collection.
func (s *SessionStore) Load() ([]*task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewStoreError("read session", err).WithPath(s.path)
	}

	var doc envelope
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewStoreError("decode session", errors.Join(errors.ErrSessionCorrupted, err)).WithPath(s.path)
	}

	for _, t := range doc.Tasks {
		coerceStopped(t)
	}
	s.logger.Info("session loaded", "path", s.path, "tasks", len(doc.Tasks))
	return doc.Tasks, nil
}

// coerceStopped finalizes a task that was live when the previous run
// ended. A running task ends at its last accrued instant; a paused task
// ends where the pause began, since no work happened after that.
func coerceStopped(t *task.Task) {
	switch t.State {
	case task.StateRunning:
		end := t.StartTime.Add(t.Elapsed)
		t.State = task.StateStopped
		t.EndTime = &end
	case task.StatePaused:
		end := t.StartTime.Add(t.Elapsed)
		if t.PauseStartTime != nil {
			end = *t.PauseStartTime
		}
		t.State = task.StateStopped
		t.EndTime = &end
		t.PauseStartTime = nil
		t.PauseReason = ""
	}
}

// atomicWriteFile writes data to a temp file in the target directory
// and renames it over the destination.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}
