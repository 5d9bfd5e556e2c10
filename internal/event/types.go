package event

import (
	"time"

	"github.com/worklens/worklens/internal/task"
)

// Event type identifiers published by the tracker core.
const (
	TypeTaskCreated   = "task.created"
	TypeTaskUpdated   = "task.updated"
	TypeTaskStopped   = "task.stopped"
	TypeTaskRemoved   = "task.removed"
	TypeActiveChanged = "active.changed"
	TypeIdleChanged   = "idle.changed"
	TypeNoDetection   = "detect.none"
)

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "task.created", "idle.changed").
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events. Embed this in
// concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string, at time.Time) baseEvent {
	return baseEvent{eventType: eventType, timestamp: at}
}

// TaskCreatedEvent is emitted when a task enters the ledger, whether
// created manually or by the detection engine.
type TaskCreatedEvent struct {
	baseEvent
	Task *task.Task // Snapshot of the new task
}

// NewTaskCreatedEvent creates a TaskCreatedEvent.
func NewTaskCreatedEvent(t *task.Task, at time.Time) TaskCreatedEvent {
	return TaskCreatedEvent{baseEvent: newBaseEvent(TypeTaskCreated, at), Task: t}
}

// TaskUpdatedEvent is emitted when an existing task changes state or
// provenance: resume, pause, revival, metadata refresh.
type TaskUpdatedEvent struct {
	baseEvent
	Task *task.Task // Snapshot of the task after the change
}

// NewTaskUpdatedEvent creates a TaskUpdatedEvent.
func NewTaskUpdatedEvent(t *task.Task, at time.Time) TaskUpdatedEvent {
	return TaskUpdatedEvent{baseEvent: newBaseEvent(TypeTaskUpdated, at), Task: t}
}

// TaskStoppedEvent is emitted when a task is finalized, by the
// auto-stop rule, a manual stop, or as part of deletion.
type TaskStoppedEvent struct {
	baseEvent
	Task *task.Task // Snapshot of the stopped task
}

// NewTaskStoppedEvent creates a TaskStoppedEvent.
func NewTaskStoppedEvent(t *task.Task, at time.Time) TaskStoppedEvent {
	return TaskStoppedEvent{baseEvent: newBaseEvent(TypeTaskStopped, at), Task: t}
}

// TaskRemovedEvent is emitted when a task is deleted from the ledger.
type TaskRemovedEvent struct {
	baseEvent
	TaskID string // ID of the removed task
}

// NewTaskRemovedEvent creates a TaskRemovedEvent.
func NewTaskRemovedEvent(id string, at time.Time) TaskRemovedEvent {
	return TaskRemovedEvent{baseEvent: newBaseEvent(TypeTaskRemoved, at), TaskID: id}
}

// ActiveChangedEvent is emitted when the process-wide active task
// changes. TaskID is empty when no task is active.
type ActiveChangedEvent struct {
	baseEvent
	TaskID string // New active task, "" for none
}

// NewActiveChangedEvent creates an ActiveChangedEvent.
func NewActiveChangedEvent(id string, at time.Time) ActiveChangedEvent {
	return ActiveChangedEvent{baseEvent: newBaseEvent(TypeActiveChanged, at), TaskID: id}
}

// IdleChangedEvent is emitted by the idle monitor on threshold crossings.
type IdleChangedEvent struct {
	baseEvent
	Idle bool // true on idle start, false on idle end
}

// NewIdleChangedEvent creates an IdleChangedEvent.
func NewIdleChangedEvent(idle bool, at time.Time) IdleChangedEvent {
	return IdleChangedEvent{baseEvent: newBaseEvent(TypeIdleChanged, at), Idle: idle}
}

// NoDetectionEvent is emitted when a detection cycle produced no signals
// at all. Collaborators use it to clear transient UI state; it does not
// itself imply any task mutation beyond the normal auto-stop rule.
type NoDetectionEvent struct {
	baseEvent
}

// NewNoDetectionEvent creates a NoDetectionEvent.
func NewNoDetectionEvent(at time.Time) NoDetectionEvent {
	return NoDetectionEvent{baseEvent: newBaseEvent(TypeNoDetection, at)}
}
