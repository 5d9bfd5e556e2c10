package task

// State represents the lifecycle state of a tracked task.
type State string

const (
	// StateRunning indicates the task is actively accruing time.
	StateRunning State = "running"

	// StatePaused indicates accrual is frozen; the pause interval will be
	// subtracted from the task's effective elapsed time on resume.
	StatePaused State = "paused"

	// StateStopped indicates the task is finished. Stopped tasks are kept
	// as history until exported or cleared.
	StateStopped State = "stopped"
)

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// IsTerminal returns true if this state represents a final state.
// A stopped task may still be revived by a matching detection within
// the revival window, which replaces it with a running record.
func (s State) IsTerminal() bool {
	return s == StateStopped
}

// Category classifies what kind of work a task represents. The set is
// closed at build time; the detection mapper assigns categories from
// user-configured rules.
type Category string

const (
	// CategoryManual marks tasks the user created by hand.
	CategoryManual Category = "manual"

	// CategoryCodeReview marks browser-based review work (pull requests,
	// change lists) on configured review domains.
	CategoryCodeReview Category = "code_review"

	// CategoryCodeEditor marks work in a workspace-oriented code editor
	// whose title follows the "document — workspace — Product" convention.
	CategoryCodeEditor Category = "code_editor"

	// CategoryIDE marks work in the second supported workspace editor.
	CategoryIDE Category = "ide"

	// CategoryDocument marks work in a word processor or diff/merge tool.
	CategoryDocument Category = "document"

	// CategorySpreadsheet marks spreadsheet work.
	CategorySpreadsheet Category = "spreadsheet"

	// CategoryOther marks detections that matched a rule without a more
	// specific category.
	CategoryOther Category = "other"
)

// String returns the string representation of the category.
func (c Category) String() string {
	return string(c)
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryManual, CategoryCodeReview, CategoryCodeEditor, CategoryIDE,
		CategoryDocument, CategorySpreadsheet, CategoryOther:
		return true
	}
	return false
}

// PauseReason records why a task was paused. Idle pausing and manual
// pausing share one Paused state and one resume path; the reason is
// recorded for observability only and never changes resume behavior.
type PauseReason string

const (
	// PauseManual indicates the user paused the task.
	PauseManual PauseReason = "manual"

	// PauseIdle indicates the idle monitor paused the task.
	PauseIdle PauseReason = "idle"
)
