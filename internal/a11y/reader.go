// Package a11y implements the accessibility-tree boundary: fetching
// the browser address-bar text for a window. Desktop accessibility
// stacks are not directly reachable from here, so the reader shells out
// to a configured helper command (an AT-SPI script, browser extension
// bridge, or xdotool recipe) per browser process. Everything is best
// effort: any failure, timeout, or missing configuration yields an
// empty string, which the mapper treats as "suppress this window".
package a11y

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/worklens/worklens/internal/logging"
	"github.com/worklens/worklens/internal/probe"
)

// queryTimeout bounds each helper invocation.
const queryTimeout = 2 * time.Second

// CommandReader resolves address-bar text by running per-process helper
// commands. Commands may reference {handle} and {pid}, replaced with
// the window's values before execution.
type CommandReader struct {
	// commands maps lowercase process names to helper command lines.
	commands map[string][]string
	logger   *logging.Logger

	// run executes the helper and returns trimmed stdout. Overridable
	// in tests.
	run func(ctx context.Context, name string, args ...string) (string, error)
}

// NewCommandReader creates a reader from a process-to-command map. The
// command value is a pre-split argv; an empty map is valid and yields a
// reader that never answers.
func NewCommandReader(commands map[string][]string, logger *logging.Logger) *CommandReader {
	if logger == nil {
		logger = logging.NopLogger()
	}
	normalized := make(map[string][]string, len(commands))
	for proc, argv := range commands {
		normalized[strings.ToLower(proc)] = argv
	}
	return &CommandReader{
		commands: normalized,
		logger:   logger.WithComponent("a11y"),
		run:      runHelper,
	}
}

// runHelper executes the helper command under the query timeout.
func runHelper(ctx context.Context, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// AddressBar implements mapper.AddressBarReader.
func (r *CommandReader) AddressBar(ctx context.Context, w probe.Window) string {
	argv, ok := r.commands[strings.ToLower(w.ProcessName)]
	if !ok || len(argv) == 0 {
		return ""
	}

	expanded := make([]string, len(argv))
	for i, arg := range argv {
		arg = strings.ReplaceAll(arg, "{handle}", w.Handle)
		arg = strings.ReplaceAll(arg, "{pid}", strconv.Itoa(w.PID))
		expanded[i] = arg
	}

	out, err := r.run(ctx, expanded[0], expanded[1:]...)
	if err != nil {
		r.logger.Debug("address-bar query failed", "process", w.ProcessName, "error", err)
		return ""
	}
	return out
}
