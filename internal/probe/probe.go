// Package probe samples the OS desktop for candidate windows. A probe
// snapshot is an ordered list of visible, non-minimized top-level
// windows, most-likely-focused first: the foreground window leads,
// followed by the topmost window on each other display, with the
// always-on-top flag taking precedence over plain stacking order.
//
// The probe is a pure read with no side effects. Per-window failures
// (window destroyed between enumeration and query, process already
// exited, permission denied) cause that window to be skipped for the
// cycle; a snapshot never fails as a whole. The Prober interface keeps
// the matching engine free of any OS dependency; tests use the Fake
// implementation.
package probe

import "context"

// Window is one candidate window from a probe snapshot.
type Window struct {
	// Handle is the OS window identifier, opaque to consumers.
	Handle string

	// Title is the window's current title text.
	Title string

	// ProcessName is the short name of the owning process.
	ProcessName string

	// PID is the owning process ID, when known.
	PID int

	// Monitor is the index of the display the window is on.
	Monitor int

	// Foreground marks the OS-reported focused window.
	Foreground bool

	// Topmost marks windows with the always-on-top flag.
	Topmost bool
}

// Prober returns the ordered candidate windows for one detection cycle.
type Prober interface {
	// Snapshot returns candidate windows, most-likely-focused first.
	// Implementations must be read-only, time-bounded, and must never
	// return an error for individual window failures; a window that
	// cannot be fully resolved is simply omitted.
	Snapshot(ctx context.Context) []Window
}
