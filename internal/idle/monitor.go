// Package idle watches the OS-wide time since last user input and
// raises idle transitions against a configurable threshold. The monitor
// never touches task data itself; it publishes IdleChangedEvents and
// the ledger reacts. It polls on its own schedule, independent of the
// detection cycle.
package idle

import (
	"context"
	"sync"
	"time"

	"github.com/worklens/worklens/internal/event"
	"github.com/worklens/worklens/internal/logging"
)

// LastInputSource reports how long the user has been idle. A failing
// source (no X session, missing tool) must be treated as "not idle".
type LastInputSource interface {
	// IdleDuration returns the time since the last user input.
	IdleDuration(ctx context.Context) (time.Duration, error)
}

// Monitor tracks the Active/Idle state against a threshold.
type Monitor struct {
	source   LastInputSource
	interval time.Duration
	bus      *event.Bus
	logger   *logging.Logger

	mu        sync.Mutex
	threshold time.Duration
	idle      bool

	clk func() time.Time
}

// New creates a Monitor. interval defaults to one second when zero or
// negative.
func New(source LastInputSource, threshold, interval time.Duration, bus *event.Bus, logger *logging.Logger) *Monitor {
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Monitor{
		source:    source,
		threshold: threshold,
		interval:  interval,
		bus:       bus,
		logger:    logger.WithComponent("idle"),
		clk:       time.Now,
	}
}

// Run polls until the context is canceled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Poll(ctx)
		}
	}
}

// Poll samples the input source once and publishes a transition event
// if the idle state flipped. Exported so the tracker (and tests) can
// drive polling explicitly.
func (m *Monitor) Poll(ctx context.Context) {
	idleFor, err := m.source.IdleDuration(ctx)
	if err != nil {
		// Missing last-input data means "not idle".
		idleFor = 0
	}
	m.mu.Lock()
	nowIdle := m.threshold > 0 && idleFor >= m.threshold
	changed := nowIdle != m.idle
	m.idle = nowIdle
	m.mu.Unlock()

	if !changed {
		return
	}
	if nowIdle {
		m.logger.Info("idle started", "idle_for", idleFor.String())
	} else {
		m.logger.Info("idle ended")
	}
	m.bus.Publish(event.NewIdleChangedEvent(nowIdle, m.clk()))
}

// SetThreshold replaces the idle threshold. Zero disables idle
// detection; an ongoing idle period ends on the next poll.
func (m *Monitor) SetThreshold(threshold time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threshold = threshold
}

// IsIdle returns the current idle state.
func (m *Monitor) IsIdle() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.idle
}
