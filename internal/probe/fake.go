package probe

import (
	"context"
	"sync"
)

// Fake is an in-memory Prober for tests and for running the tracker
// without a desktop session. Snapshots return whatever windows were
// last set, in order.
type Fake struct {
	mu      sync.Mutex
	windows []Window
	calls   int
}

// NewFake creates a Fake with no windows.
func NewFake() *Fake {
	return &Fake{}
}

// SetWindows replaces the windows returned by subsequent snapshots.
func (f *Fake) SetWindows(windows ...Window) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.windows = make([]Window, len(windows))
	copy(f.windows, windows)
}

// Snapshot implements Prober.
func (f *Fake) Snapshot(ctx context.Context) []Window {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	out := make([]Window, len(f.windows))
	copy(out, f.windows)
	return out
}

// Calls returns how many snapshots have been taken.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
