// Package task defines the Task data model and its lifecycle transitions.
// A Task is a unit of tracked work: it accrues wall-clock time while
// running, subtracts time spent paused, and keeps provenance metadata
// describing how it was detected. The ledger package owns the collection
// of tasks; this package owns the per-task invariants.
package task

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AutoNamePrefix marks the names of tasks the detection engine created
// itself, as opposed to tasks the user started manually. The ledger uses
// the AutoDetected flag for matching decisions; the prefix exists so the
// provenance survives in exported data.
const AutoNamePrefix = "[auto] "

// Task is a tracked unit of work with its own timer and lifecycle.
//
// Elapsed is the wall-clock span from StartTime to "now" while running,
// frozen at the pause instant while paused and at EndTime once stopped.
// PausedDuration accumulates completed pause intervals; the effective
// working time is Elapsed - PausedDuration.
type Task struct {
	// ID is an opaque identifier, generated at creation, immutable.
	ID string `json:"id"`

	// Name is the user-facing title. Auto-detected tasks carry
	// AutoNamePrefix.
	Name string `json:"name"`

	// Label is a short free-text annotation (e.g. "code review").
	Label string `json:"label,omitempty"`

	// Category classifies the work.
	Category Category `json:"category"`

	// State is the current lifecycle state.
	State State `json:"state"`

	// StartTime is when the task was created or last revived.
	StartTime time.Time `json:"start_time"`

	// EndTime is set only while the task is stopped.
	EndTime *time.Time `json:"end_time,omitempty"`

	// Elapsed is the wall-clock duration accrued since StartTime,
	// pause intervals included. Refreshed by Tick while running.
	Elapsed time.Duration `json:"elapsed"`

	// PausedDuration is the cumulative time spent paused since StartTime.
	PausedDuration time.Duration `json:"paused_duration"`

	// PauseStartTime is set only while the task is currently paused.
	PauseStartTime *time.Time `json:"pause_start_time,omitempty"`

	// PauseReason records why the current pause began. Informational
	// only; the resume path is identical for idle and manual pauses.
	PauseReason PauseReason `json:"pause_reason,omitempty"`

	// AutoDetected is true for tasks the detection engine created. Only
	// auto-detected tasks are subject to the "no longer detected"
	// auto-stop rule.
	AutoDetected bool `json:"auto_detected"`

	// ContextKey is the identity used for matching detections to tasks.
	// Once set it is sticky: later detections refresh provenance fields
	// but never overwrite a non-empty key.
	ContextKey string `json:"context_key,omitempty"`

	// Provenance metadata, overwritten on every re-detection of the same
	// task, never used for identity.
	ProcessName          string `json:"process_name,omitempty"`
	DetectedURL          string `json:"detected_url,omitempty"`
	DetectedTabTitle     string `json:"detected_tab_title,omitempty"`
	DetectedDocumentName string `json:"detected_document_name,omitempty"`
}

// NewManual creates a running task from user-supplied fields. Manual
// tasks have no context key and are never auto-stopped.
func NewManual(name, label string, category Category, now time.Time) *Task {
	if category == "" {
		category = CategoryManual
	}
	return &Task{
		ID:        newID(),
		Name:      name,
		Label:     label,
		Category:  category,
		State:     StateRunning,
		StartTime: now,
	}
}

// NewDetected creates a running task from a detection signal. The name
// is synthesized from the signal's label, with the context key appended
// in parentheses when present, and marked with AutoNamePrefix.
func NewDetected(sig DetectionSignal, now time.Time) *Task {
	name := sig.Label
	if sig.ContextKey != "" {
		name = fmt.Sprintf("%s (%s)", sig.Label, sig.ContextKey)
	}
	t := &Task{
		ID:           newID(),
		Name:         AutoNamePrefix + name,
		Label:        sig.Label,
		Category:     sig.Category,
		State:        StateRunning,
		StartTime:    now,
		AutoDetected: true,
	}
	t.SetContextKey(sig.ContextKey)
	t.RefreshDetection(sig)
	return t
}

// newID returns a short opaque identifier.
func newID() string {
	return strings.SplitN(uuid.NewString(), "-", 2)[0]
}

// MatchKey returns the identity used to match detections against this
// task: category and context key joined with "|".
func (t *Task) MatchKey() string {
	return string(t.Category) + "|" + t.ContextKey
}

// SetContextKey sets the context key if it has never been set. Returns
// true if the key was written. A non-empty key is immutable.
func (t *Task) SetContextKey(key string) bool {
	if t.ContextKey != "" || key == "" {
		return false
	}
	t.ContextKey = key
	return true
}

// RefreshDetection overwrites the provenance metadata from a new
// detection of the same task. Identity fields are not touched.
func (t *Task) RefreshDetection(sig DetectionSignal) {
	t.ProcessName = sig.ProcessName
	t.DetectedURL = sig.URL
	t.DetectedTabTitle = sig.WindowTitle
	t.DetectedDocumentName = sig.DocumentName
}

// Tick recomputes Elapsed against the current clock. Only running tasks
// accrue; paused and stopped tasks keep their frozen value.
func (t *Task) Tick(now time.Time) {
	if t.State != StateRunning {
		return
	}
	t.Elapsed = now.Sub(t.StartTime)
}

// Pause transitions a running task to paused, freezing Elapsed and
// recording the pause start.
func (t *Task) Pause(now time.Time, reason PauseReason) error {
	if t.State != StateRunning {
		return fmt.Errorf("cannot pause task in state %q", t.State)
	}
	t.Elapsed = now.Sub(t.StartTime)
	t.State = StatePaused
	t.PauseStartTime = &now
	t.PauseReason = reason
	return nil
}

// Resume transitions a paused task back to running, folding the open
// pause interval into PausedDuration.
func (t *Task) Resume(now time.Time) error {
	if t.State != StatePaused {
		return fmt.Errorf("cannot resume task in state %q", t.State)
	}
	t.foldPause(now)
	t.State = StateRunning
	t.Elapsed = now.Sub(t.StartTime)
	return nil
}

// Stop finalizes the task. An open pause interval is folded first so a
// stopped task never retains a pause start.
func (t *Task) Stop(now time.Time) error {
	if t.State == StateStopped {
		return fmt.Errorf("task already stopped")
	}
	t.foldPause(now)
	t.State = StateStopped
	t.EndTime = &now
	t.Elapsed = now.Sub(t.StartTime)
	return nil
}

// Revive reopens a stopped task after a matching detection inside the
// revival window. The gap between stop and revival counts toward
// Elapsed; that is deliberate, revival exists to preserve continuity
// across brief context switches.
func (t *Task) Revive(now time.Time) error {
	if t.State != StateStopped {
		return fmt.Errorf("cannot revive task in state %q", t.State)
	}
	t.State = StateRunning
	t.EndTime = nil
	t.PauseStartTime = nil
	t.PauseReason = ""
	t.Elapsed = now.Sub(t.StartTime)
	return nil
}

// foldPause closes an open pause interval, if any, into PausedDuration.
func (t *Task) foldPause(now time.Time) {
	if t.PauseStartTime == nil {
		return
	}
	t.PausedDuration += now.Sub(*t.PauseStartTime)
	t.PauseStartTime = nil
	t.PauseReason = ""
}

// EffectiveElapsed returns the working time: elapsed minus time paused.
func (t *Task) EffectiveElapsed() time.Duration {
	d := t.Elapsed - t.PausedDuration
	if d < 0 {
		return 0
	}
	return d
}

// Clone returns a deep copy. Snapshots handed to collaborators must not
// alias the ledger's live records.
func (t *Task) Clone() *Task {
	c := *t
	if t.EndTime != nil {
		end := *t.EndTime
		c.EndTime = &end
	}
	if t.PauseStartTime != nil {
		ps := *t.PauseStartTime
		c.PauseStartTime = &ps
	}
	return &c
}
