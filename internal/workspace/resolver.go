// Package workspace resolves the open workspace of an editor by an
// out-of-process status call. Some editors expose richer context than
// their window title carries (a multi-root workspace, a remote
// session); a configured helper command queries it and reports JSON,
// from which a gjson path plucks the workspace name.
//
// The call is made asynchronously with a short timeout and the answer
// is cached, so a slow or hung helper never stalls a detection cycle:
// a cycle that cannot get a fresh value uses the previous cached value,
// and when there is none the caller falls back to the title-derived
// identity.
package workspace

import (
	"context"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/worklens/worklens/internal/logging"
)

const (
	// callTimeout bounds each helper invocation.
	callTimeout = 3 * time.Second

	// cacheTTL is how long a resolved workspace stays fresh.
	cacheTTL = 30 * time.Second
)

// Query describes one editor's status-call helper.
type Query struct {
	// Command is the helper argv, e.g. ["code", "--status"].
	Command []string

	// JSONPath is the gjson path to the workspace name in the helper's
	// output, e.g. "workspace.folders.0.name". An empty path uses the
	// whole trimmed output as a plain string.
	JSONPath string
}

// cacheEntry is a resolved (or failed) answer with its freshness.
type cacheEntry struct {
	workspace string
	resolved  bool
	at        time.Time
	pending   bool
}

// Resolver answers workspace queries for configured editor processes.
// It implements mapper.WorkspaceResolver.
type Resolver struct {
	logger *logging.Logger

	mu      sync.Mutex
	queries map[string]Query
	cache   map[string]*cacheEntry

	// clk and run are overridable in tests.
	clk func() time.Time
	run func(ctx context.Context, argv []string) (string, error)
}

// NewResolver creates a Resolver from a process-name-to-query map.
func NewResolver(queries map[string]Query, logger *logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.NopLogger()
	}
	normalized := make(map[string]Query, len(queries))
	for proc, q := range queries {
		normalized[strings.ToLower(proc)] = q
	}
	return &Resolver{
		queries: normalized,
		logger:  logger.WithComponent("workspace"),
		cache:   make(map[string]*cacheEntry),
		clk:     time.Now,
		run:     runStatusCall,
	}
}

// runStatusCall executes the helper under the call timeout.
func runStatusCall(ctx context.Context, argv []string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, argv[0], argv[1:]...).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// Workspace implements mapper.WorkspaceResolver. It returns the cached
// answer when fresh; otherwise it kicks off a background refresh and
// returns the stale answer if one exists. ok=false means no answer is
// available at all and the caller should use its title fallback.
func (r *Resolver) Workspace(ctx context.Context, processName, title string) (string, bool) {
	proc := strings.ToLower(processName)
	key := proc + "\x00" + title
	now := r.clk()

	r.mu.Lock()
	query, configured := r.queries[proc]
	if !configured || len(query.Command) == 0 {
		r.mu.Unlock()
		return "", false
	}
	entry, exists := r.cache[key]
	if !exists {
		entry = &cacheEntry{}
		r.cache[key] = entry
	}
	fresh := entry.resolved && now.Sub(entry.at) < cacheTTL
	needRefresh := !fresh && !entry.pending
	if needRefresh {
		entry.pending = true
	}
	workspace, resolved := entry.workspace, entry.resolved
	r.mu.Unlock()

	if needRefresh {
		// Single in-flight refresh per key; the current cycle uses the
		// stale value (or the title fallback) rather than waiting.
		go r.refresh(key, query)
	}

	return workspace, resolved && workspace != ""
}

// refresh performs the status call and updates the cache.
func (r *Resolver) refresh(key string, query Query) {
	out, err := r.run(context.Background(), query.Command)

	r.mu.Lock()
	defer r.mu.Unlock()
	entry := r.cache[key]
	if entry == nil {
		return
	}
	entry.pending = false
	if err != nil {
		// Keep any previous answer; failures only delay refresh.
		r.logger.Debug("status call failed", "error", err)
		entry.at = r.clk()
		return
	}

	workspace := out
	if query.JSONPath != "" {
		workspace = gjson.Get(out, query.JSONPath).String()
	}
	entry.workspace = workspace
	entry.resolved = true
	entry.at = r.clk()
}

// SetQueries replaces the query map and drops all cached answers.
// Used on config reload.
func (r *Resolver) SetQueries(queries map[string]Query) {
	normalized := make(map[string]Query, len(queries))
	for proc, q := range queries {
		normalized[strings.ToLower(proc)] = q
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = normalized
	r.cache = make(map[string]*cacheEntry)
}

// Flush drops all cached answers. Used on config reload.
func (r *Resolver) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]*cacheEntry)
}
