// Package tracker wires the probe, mapper, idle monitor, ledger, and
// stores into the running daemon. It owns the polling loops and the
// persistence schedule; all task semantics live in the ledger.
package tracker

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/worklens/worklens/internal/a11y"
	"github.com/worklens/worklens/internal/archive"
	"github.com/worklens/worklens/internal/config"
	"github.com/worklens/worklens/internal/errors"
	"github.com/worklens/worklens/internal/event"
	"github.com/worklens/worklens/internal/idle"
	"github.com/worklens/worklens/internal/ledger"
	"github.com/worklens/worklens/internal/logging"
	"github.com/worklens/worklens/internal/mapper"
	"github.com/worklens/worklens/internal/probe"
	"github.com/worklens/worklens/internal/store"
	"github.com/worklens/worklens/internal/task"
	"github.com/worklens/worklens/internal/workspace"
)

// Tracker is the assembled daemon.
type Tracker struct {
	mu  sync.Mutex
	cfg *config.Config

	bus      *event.Bus
	ledger   *ledger.Ledger
	prober   probe.Prober
	mapper   *mapper.Mapper
	resolver *workspace.Resolver
	monitor  *idle.Monitor
	sessions *store.SessionStore
	archive  *archive.Archive
	logger   *logging.Logger

	// dirty is set by task events and cleared on save.
	dirty atomic.Bool
}

// New assembles a Tracker from configuration and the OS-facing pieces.
// prober and source are injectable so tests can run without a desktop
// session. archive may be nil; clearing then discards history.
func New(cfg *config.Config, prober probe.Prober, source idle.LastInputSource, sessions *store.SessionStore, arch *archive.Archive, logger *logging.Logger) *Tracker {
	if logger == nil {
		logger = logging.NopLogger()
	}

	bus := event.NewBus()
	reader := a11y.NewCommandReader(cfg.Browser.AddressBarCommands, logger)
	resolver := workspace.NewResolver(workspaceQueries(cfg), logger)
	rules, domains := mapperRules(cfg)

	t := &Tracker{
		cfg:      cfg,
		bus:      bus,
		ledger:   ledger.New(ledger.Config{RevivalWindow: cfg.Detection.RevivalWindow()}, bus, logger),
		prober:   prober,
		mapper:   mapper.New(rules, domains, reader, resolver, logger),
		resolver: resolver,
		monitor:  idle.New(source, cfg.Idle.Threshold(), cfg.Idle.PollInterval(), bus, logger),
		sessions: sessions,
		archive:  arch,
		logger:   logger.WithComponent("tracker"),
	}

	// Any task mutation schedules a save.
	for _, typ := range []string{
		event.TypeTaskCreated, event.TypeTaskUpdated,
		event.TypeTaskStopped, event.TypeTaskRemoved,
	} {
		bus.Subscribe(typ, func(event.Event) { t.dirty.Store(true) })
	}
	bus.Subscribe(event.TypeIdleChanged, func(e event.Event) {
		if ie, ok := e.(event.IdleChangedEvent); ok {
			t.ledger.OnIdleChanged(ie.Idle)
		}
	})

	return t
}

// Bus exposes the event bus for additional subscribers (UI, tests).
func (t *Tracker) Bus() *event.Bus {
	return t.bus
}

// Run loads the previous session and drives the polling loops until the
// context is canceled, then writes a final save.
func (t *Tracker) Run(ctx context.Context) error {
	tasks, err := t.sessions.Load()
	if err != nil {
		// A corrupt session is logged and abandoned; tracking starts
		// over rather than refusing to run.
		t.logger.Warn("session load failed, starting empty", "error", err)
		tasks = nil
	}
	t.ledger.Load(tasks)
	t.logger.Info("tracker started", "restored_tasks", len(tasks))

	go t.monitor.Run(ctx)
	if interval := t.autosaveInterval(); interval > 0 {
		go t.autosaveLoop(ctx, interval)
	}

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("tracker stopping")
			if err := t.Save(); err != nil {
				t.logger.Error("final save failed", "error", err)
			}
			return nil
		case <-time.After(t.pollInterval()):
			t.DetectOnce(ctx)
		}
	}
}

// DetectOnce runs a single detection cycle: sample windows, map them to
// signals, and feed the batch to the ledger.
func (t *Tracker) DetectOnce(ctx context.Context) {
	windows := t.prober.Snapshot(ctx)
	signals := make([]task.DetectionSignal, 0, len(windows))
	for _, w := range windows {
		if sig, ok := t.mapper.Map(ctx, w); ok {
			signals = append(signals, sig)
		}
	}
	t.ledger.ProcessCycle(signals)
}

// ApplyConfig installs a reloaded configuration. Detection rules,
// domain rules, workspace queries, and the idle threshold take effect
// immediately; poll intervals apply from the next tick.
func (t *Tracker) ApplyConfig(cfg *config.Config) {
	rules, domains := mapperRules(cfg)
	t.mapper.SetRules(rules, domains)
	t.resolver.SetQueries(workspaceQueries(cfg))
	t.monitor.SetThreshold(cfg.Idle.Threshold())

	t.mu.Lock()
	t.cfg = cfg
	t.mu.Unlock()
	t.logger.Info("configuration reloaded", "rules", len(rules), "domains", len(domains))
}

// StartManual creates a user-defined running task.
func (t *Tracker) StartManual(name string, category task.Category) (*task.Task, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.NewValidationError("name", "must not be empty")
	}
	if category == "" {
		category = task.CategoryManual
	}
	if !category.Valid() {
		return nil, errors.NewValidationError("category", "unknown category")
	}
	return t.ledger.StartManual(name, name, category), nil
}

// TogglePause flips a task between running and paused ("" = active).
func (t *Tracker) TogglePause(id string) error {
	return t.ledger.TogglePause(id)
}

// Stop finalizes a task ("" = active).
func (t *Tracker) Stop(id string) error {
	return t.ledger.Stop(id)
}

// Delete removes a task ("" = active).
func (t *Tracker) Delete(id string) error {
	return t.ledger.Delete(id)
}

// Tasks returns snapshots of the whole collection.
func (t *Tracker) Tasks() []*task.Task {
	return t.ledger.Snapshot()
}

// Active returns a snapshot of the active task, or nil.
func (t *Tracker) Active() *task.Task {
	return t.ledger.Active()
}

// Clear archives all stopped tasks and removes them, as one ledger
// step. Archiving runs before removal, so a failed insert loses
// nothing, and a detection cycle cannot revive a task in between.
// Returns how many tasks were cleared.
func (t *Tracker) Clear() (int, error) {
	var archiveStopped func([]*task.Task) error
	if t.archive != nil {
		archiveStopped = func(stopped []*task.Task) error {
			return t.archive.Insert(stopped, time.Now())
		}
	}
	cleared, err := t.ledger.ClearStopped(archiveStopped)
	if err != nil {
		return 0, err
	}
	return len(cleared), nil
}

// Save writes the current collection to the session file.
func (t *Tracker) Save() error {
	t.dirty.Store(false)
	return t.sessions.Save(t.ledger.Snapshot())
}

// autosaveLoop saves periodically while there are unsaved changes.
func (t *Tracker) autosaveLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !t.dirty.Load() {
				continue
			}
			if err := t.Save(); err != nil {
				t.logger.Error("autosave failed", "error", err)
			}
		}
	}
}

func (t *Tracker) pollInterval() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cfg.Detection.PollInterval()
}

func (t *Tracker) autosaveInterval() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cfg.Session.AutosaveInterval()
}

// mapperRules converts config detection rules to mapper rules.
func mapperRules(cfg *config.Config) ([]mapper.Rule, []mapper.DomainRule) {
	rules := make([]mapper.Rule, 0, len(cfg.Detection.Rules))
	for _, r := range cfg.Detection.Rules {
		rules = append(rules, mapper.Rule{
			ProcessName:   r.ProcessName,
			TitleContains: r.TitleContains,
			Category:      task.Category(r.Category),
			Label:         r.Label,
			ProductSuffix: r.ProductSuffix,
		})
	}
	domains := make([]mapper.DomainRule, 0, len(cfg.Detection.Domains))
	for _, d := range cfg.Detection.Domains {
		domains = append(domains, mapper.DomainRule{
			DomainContains: d.DomainContains,
			TaskName:       d.TaskName,
		})
	}
	return rules, domains
}

// workspaceQueries converts config workspace queries.
func workspaceQueries(cfg *config.Config) map[string]workspace.Query {
	queries := make(map[string]workspace.Query, len(cfg.Workspace.Queries))
	for proc, q := range cfg.Workspace.Queries {
		queries[proc] = workspace.Query{Command: q.Command, JSONPath: q.JSONPath}
	}
	return queries
}
