// Package ledger owns the task collection and implements the matching
// engine: consuming detection signals and idle transitions, and
// producing a single, non-duplicated, monotonically consistent stream
// of start/resume/stop transitions.
//
// All mutations, detection cycles, idle transitions, and manual
// commands, are serialized behind one mutex; the probe, extractor, and
// mapper run outside it and only the final signal batch crosses in.
// Events are published after the lock is released, in mutation order,
// so collaborators observe refresh-then-stop-then-notify within each
// cycle and may call back into the ledger from handlers.
package ledger

import (
	"sync"
	"time"

	"github.com/worklens/worklens/internal/errors"
	"github.com/worklens/worklens/internal/event"
	"github.com/worklens/worklens/internal/logging"
	"github.com/worklens/worklens/internal/task"
)

// DefaultRevivalWindow is the grace period after a task stops during
// which a matching detection reopens it instead of creating a new task.
const DefaultRevivalWindow = 5 * time.Minute

// Config holds ledger tuning.
type Config struct {
	// RevivalWindow overrides DefaultRevivalWindow when positive.
	RevivalWindow time.Duration
}

// Ledger is the single owner of the task collection.
type Ledger struct {
	mu       sync.Mutex
	tasks    []*task.Task
	activeID string

	revivalWindow time.Duration
	bus           *event.Bus
	logger        *logging.Logger

	// clk is the time source, overridable in tests.
	clk func() time.Time
}

// New creates an empty Ledger publishing to the given bus.
func New(cfg Config, bus *event.Bus, logger *logging.Logger) *Ledger {
	window := cfg.RevivalWindow
	if window <= 0 {
		window = DefaultRevivalWindow
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Ledger{
		revivalWindow: window,
		bus:           bus,
		logger:        logger.WithComponent("ledger"),
		clk:           time.Now,
	}
}

// Load seeds the collection from persistence. The store has already
// coerced any non-terminated task to Stopped, so loading never yields
// an active task.
func (l *Ledger) Load(tasks []*task.Task) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tasks = tasks
	l.activeID = ""
}

// ProcessCycle applies one detection cycle's signals: deduplicate,
// match against running, paused, then recently-stopped tasks, create
// what is left, and auto-stop auto-detected tasks that disappeared.
func (l *Ledger) ProcessCycle(signals []task.DetectionSignal) {
	now := l.clk()

	l.mu.Lock()
	var events []event.Event

	seen := make(map[string]bool, len(signals))
	var cycleActive *task.Task
	for _, sig := range signals {
		key := sig.Key()
		if seen[key] {
			// Two windows mapping to the same logical task in one
			// cycle produce exactly one start/refresh.
			continue
		}
		seen[key] = true

		matched := l.applySignal(sig, key, now, &events)
		if cycleActive == nil {
			cycleActive = matched
		}
	}

	// Auto-stop: any running auto-detected task whose key went unseen
	// this cycle is finalized. Manual tasks are never auto-stopped.
	activeStopped := false
	for _, t := range l.tasks {
		if t.State != task.StateRunning || !t.AutoDetected || seen[t.MatchKey()] {
			continue
		}
		if err := t.Stop(now); err != nil {
			continue
		}
		l.logger.Info("task no longer detected", "task_id", t.ID, "key", t.MatchKey())
		events = append(events, event.NewTaskStoppedEvent(t.Clone(), now))
		if t.ID == l.activeID {
			activeStopped = true
		}
	}

	// The most-likely-focused signal's task is the cycle's active task.
	if cycleActive != nil {
		l.setActive(cycleActive.ID, now, &events)
	} else if activeStopped {
		l.setActive(l.mostRecentlyStartedRunning(), now, &events)
	}

	l.tickRunning(now)

	if len(signals) == 0 {
		events = append(events, event.NewNoDetectionEvent(now))
	}
	l.mu.Unlock()

	l.publish(events)
}

// applySignal matches one deduplicated signal against the collection,
// per the precedence running > paused > revivable > new. Returns the
// matched or created task. Caller holds the lock.
func (l *Ledger) applySignal(sig task.DetectionSignal, key string, now time.Time, events *[]event.Event) *task.Task {
	if t := l.findByState(key, task.StateRunning); t != nil {
		t.RefreshDetection(sig)
		t.Tick(now)
		*events = append(*events, event.NewTaskUpdatedEvent(t.Clone(), now))
		return t
	}

	if t := l.findByState(key, task.StatePaused); t != nil {
		if err := t.Resume(now); err == nil {
			t.RefreshDetection(sig)
			l.logger.Info("task resumed by detection", "task_id", t.ID, "key", key)
			*events = append(*events, event.NewTaskUpdatedEvent(t.Clone(), now))
		}
		return t
	}

	if t := l.findRevivable(key, now); t != nil {
		if err := t.Revive(now); err == nil {
			t.RefreshDetection(sig)
			l.logger.Info("task revived", "task_id", t.ID, "key", key)
			*events = append(*events, event.NewTaskUpdatedEvent(t.Clone(), now))
		}
		return t
	}

	t := task.NewDetected(sig, now)
	l.tasks = append(l.tasks, t)
	l.logger.Info("task detected", "task_id", t.ID, "key", key, "name", t.Name)
	*events = append(*events, event.NewTaskCreatedEvent(t.Clone(), now))
	return t
}

// findByState returns the task matching key in the given state.
func (l *Ledger) findByState(key string, state task.State) *task.Task {
	for _, t := range l.tasks {
		if t.State == state && t.MatchKey() == key {
			return t
		}
	}
	return nil
}

// findRevivable returns the most recently stopped task matching key
// whose end time is within the revival window of now.
func (l *Ledger) findRevivable(key string, now time.Time) *task.Task {
	var best *task.Task
	for _, t := range l.tasks {
		if t.State != task.StateStopped || t.EndTime == nil || t.MatchKey() != key {
			continue
		}
		if now.Sub(*t.EndTime) > l.revivalWindow {
			continue
		}
		if best == nil || t.EndTime.After(*best.EndTime) {
			best = t
		}
	}
	return best
}

// StartManual finalizes the current active task, then creates a running
// task from user-supplied fields. Returns a snapshot of the new task.
func (l *Ledger) StartManual(name, label string, category task.Category) *task.Task {
	now := l.clk()

	l.mu.Lock()
	var events []event.Event
	l.stopTaskLocked(l.activeID, now, &events)

	t := task.NewManual(name, label, category, now)
	l.tasks = append(l.tasks, t)
	l.logger.Info("task started manually", "task_id", t.ID, "name", t.Name)
	events = append(events, event.NewTaskCreatedEvent(t.Clone(), now))
	l.setActive(t.ID, now, &events)
	snapshot := t.Clone()
	l.mu.Unlock()

	l.publish(events)
	return snapshot
}

// TogglePause flips a task between Running and Paused. An empty id
// targets the active task.
func (l *Ledger) TogglePause(id string) error {
	now := l.clk()

	l.mu.Lock()
	t, err := l.resolveLocked(id)
	if err != nil {
		l.mu.Unlock()
		return err
	}

	var events []event.Event
	switch t.State {
	case task.StateRunning:
		err = t.Pause(now, task.PauseManual)
	case task.StatePaused:
		err = t.Resume(now)
	default:
		err = errors.NewLedgerError("cannot toggle pause", errors.ErrTaskStopped).WithTask(t.ID)
	}
	if err == nil {
		events = append(events, event.NewTaskUpdatedEvent(t.Clone(), now))
	}
	l.mu.Unlock()

	l.publish(events)
	return err
}

// Stop finalizes a task. An empty id targets the active task. Stopping
// does not remove the task; it is kept as history.
func (l *Ledger) Stop(id string) error {
	now := l.clk()

	l.mu.Lock()
	t, err := l.resolveLocked(id)
	if err != nil {
		l.mu.Unlock()
		return err
	}

	var events []event.Event
	l.stopTaskLocked(t.ID, now, &events)
	l.mu.Unlock()

	l.publish(events)
	return nil
}

// Delete removes a task from the collection. The active task is
// finalized first. There is no un-delete.
func (l *Ledger) Delete(id string) error {
	now := l.clk()

	l.mu.Lock()
	t, err := l.resolveLocked(id)
	if err != nil {
		l.mu.Unlock()
		return err
	}

	var events []event.Event
	if t.State != task.StateStopped {
		l.stopTaskLocked(t.ID, now, &events)
	}
	for i, candidate := range l.tasks {
		if candidate.ID == t.ID {
			l.tasks = append(l.tasks[:i:i], l.tasks[i+1:]...)
			break
		}
	}
	l.logger.Info("task deleted", "task_id", t.ID)
	events = append(events, event.NewTaskRemovedEvent(t.ID, now))
	l.mu.Unlock()

	l.publish(events)
	return nil
}

// ClearStopped removes all stopped tasks in one step and returns their
// snapshots. When archive is non-nil it runs with those snapshots
// before anything is removed, still under the ledger lock, so a
// concurrent detection cycle cannot revive a task between the archive
// write and its removal. An archive error leaves the collection
// untouched.
func (l *Ledger) ClearStopped(archive func([]*task.Task) error) ([]*task.Task, error) {
	now := l.clk()

	l.mu.Lock()
	var cleared []*task.Task
	for _, t := range l.tasks {
		if t.State == task.StateStopped {
			cleared = append(cleared, t.Clone())
		}
	}
	if len(cleared) == 0 {
		l.mu.Unlock()
		return nil, nil
	}
	if archive != nil {
		if err := archive(cleared); err != nil {
			l.mu.Unlock()
			return nil, err
		}
	}

	var events []event.Event
	kept := l.tasks[:0]
	for _, t := range l.tasks {
		if t.State == task.StateStopped {
			events = append(events, event.NewTaskRemovedEvent(t.ID, now))
			continue
		}
		kept = append(kept, t)
	}
	l.tasks = kept
	l.logger.Info("stopped tasks cleared", "count", len(cleared))
	l.mu.Unlock()

	l.publish(events)
	return cleared, nil
}

// OnIdleChanged reacts to idle transitions: idle start pauses a running
// active task; idle end resumes a paused active task. The resume path
// is shared with manual pausing, so a manually paused active task is
// also resumed on input; that ambiguity is a documented tradeoff.
func (l *Ledger) OnIdleChanged(idle bool) {
	now := l.clk()

	l.mu.Lock()
	var events []event.Event
	if t := l.activeLocked(); t != nil {
		if idle && t.State == task.StateRunning {
			if err := t.Pause(now, task.PauseIdle); err == nil {
				l.logger.Info("active task paused by idle", "task_id", t.ID)
				events = append(events, event.NewTaskUpdatedEvent(t.Clone(), now))
			}
		} else if !idle && t.State == task.StatePaused {
			if err := t.Resume(now); err == nil {
				l.logger.Info("active task resumed by input", "task_id", t.ID)
				events = append(events, event.NewTaskUpdatedEvent(t.Clone(), now))
			}
		}
	}
	l.mu.Unlock()

	l.publish(events)
}

// Tick refreshes elapsed time on running tasks.
func (l *Ledger) Tick() {
	now := l.clk()
	l.mu.Lock()
	l.tickRunning(now)
	l.mu.Unlock()
}

// Snapshot returns clones of all tasks, elapsed freshly computed, in
// insertion order.
func (l *Ledger) Snapshot() []*task.Task {
	now := l.clk()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.tickRunning(now)
	out := make([]*task.Task, len(l.tasks))
	for i, t := range l.tasks {
		out[i] = t.Clone()
	}
	return out
}

// Active returns a snapshot of the active task, or nil.
func (l *Ledger) Active() *task.Task {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t := l.activeLocked(); t != nil {
		t.Tick(l.clk())
		return t.Clone()
	}
	return nil
}

// ActiveID returns the active task's ID, or "".
func (l *Ledger) ActiveID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.activeID
}

// Get returns a snapshot of one task.
func (l *Ledger) Get(id string) (*task.Task, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, t := range l.tasks {
		if t.ID == id {
			return t.Clone(), nil
		}
	}
	return nil, errors.NewNotFoundError("task", id)
}

// stopTaskLocked finalizes the given task if it exists and is not
// already stopped, clearing the active pointer when it was active.
// Caller holds the lock.
func (l *Ledger) stopTaskLocked(id string, now time.Time, events *[]event.Event) {
	if id == "" {
		return
	}
	for _, t := range l.tasks {
		if t.ID != id {
			continue
		}
		if t.State == task.StateStopped {
			return
		}
		if err := t.Stop(now); err != nil {
			return
		}
		l.logger.Info("task stopped", "task_id", t.ID)
		*events = append(*events, event.NewTaskStoppedEvent(t.Clone(), now))
		if l.activeID == id {
			l.activeID = ""
			*events = append(*events, event.NewActiveChangedEvent("", now))
		}
		return
	}
}

// setActive updates the active pointer, publishing on change. Caller
// holds the lock.
func (l *Ledger) setActive(id string, now time.Time, events *[]event.Event) {
	if l.activeID == id {
		return
	}
	l.activeID = id
	*events = append(*events, event.NewActiveChangedEvent(id, now))
}

// activeLocked returns the live active task, or nil. Caller holds the
// lock.
func (l *Ledger) activeLocked() *task.Task {
	if l.activeID == "" {
		return nil
	}
	for _, t := range l.tasks {
		if t.ID == l.activeID {
			return t
		}
	}
	return nil
}

// resolveLocked maps an id ("" = active) to a live task. Caller holds
// the lock.
func (l *Ledger) resolveLocked(id string) (*task.Task, error) {
	if id == "" {
		t := l.activeLocked()
		if t == nil {
			return nil, errors.ErrNoActiveTask
		}
		return t, nil
	}
	for _, t := range l.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, errors.NewNotFoundError("task", id)
}

// mostRecentlyStartedRunning returns the running task with the latest
// start time, or "". Caller holds the lock.
func (l *Ledger) mostRecentlyStartedRunning() string {
	var best *task.Task
	for _, t := range l.tasks {
		if t.State != task.StateRunning {
			continue
		}
		if best == nil || t.StartTime.After(best.StartTime) {
			best = t
		}
	}
	if best == nil {
		return ""
	}
	return best.ID
}

// tickRunning refreshes elapsed on running tasks. Caller holds the lock.
func (l *Ledger) tickRunning(now time.Time) {
	for _, t := range l.tasks {
		t.Tick(now)
	}
}

// publish dispatches collected events outside the lock, in order.
func (l *Ledger) publish(events []event.Event) {
	if l.bus == nil {
		return
	}
	for _, e := range events {
		l.bus.Publish(e)
	}
}
