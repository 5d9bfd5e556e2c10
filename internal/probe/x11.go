package probe

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/worklens/worklens/internal/logging"
)

// queryTimeout bounds every individual OS query so a hung X server or
// tool can never stall a detection cycle.
const queryTimeout = 2 * time.Second

// X11Prober samples the desktop through standard X11 tooling: wmctrl
// for the window list, xprop for stacking order, focus, and window
// state, and xrandr for monitor geometry. Process names come from
// /proc/{pid}/comm.
type X11Prober struct {
	logger *logging.Logger

	// run executes an external query and returns its trimmed stdout.
	// Overridable in tests.
	run func(ctx context.Context, name string, args ...string) (string, error)

	// readProcessName resolves a PID to a process name. Overridable in
	// tests.
	readProcessName func(pid int) (string, error)
}

// NewX11Prober creates a prober backed by the X11 command-line tools.
func NewX11Prober(logger *logging.Logger) *X11Prober {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &X11Prober{
		logger:          logger.WithComponent("probe"),
		run:             runCommand,
		readProcessName: procComm,
	}
}

// runCommand executes a query command under a hard timeout.
func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// procComm reads the short process name for a PID. A process that
// exited between enumeration and lookup yields an error, which the
// caller treats as "skip this window".
func procComm(pid int) (string, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/comm", pid))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// x11Window is the raw enumeration record before candidate selection.
type x11Window struct {
	Window
	x, y, w, h int
	stackRank  int // higher = nearer the top of the stacking order
}

// Snapshot implements Prober. Failures of whole queries produce an
// empty or shorter candidate list, never an error.
func (p *X11Prober) Snapshot(ctx context.Context) []Window {
	windows := p.enumerate(ctx)
	if len(windows) == 0 {
		return nil
	}

	monitors := p.monitors(ctx)
	for i := range windows {
		windows[i].Monitor = monitorIndex(monitors, windows[i].x+windows[i].w/2, windows[i].y+windows[i].h/2)
	}

	return selectCandidates(windows)
}

// enumerate lists visible, non-minimized top-level windows with
// process, stacking, focus, and topmost information filled in.
func (p *X11Prober) enumerate(ctx context.Context) []x11Window {
	listing, err := p.run(ctx, "wmctrl", "-lpG")
	if err != nil {
		p.logger.Debug("window enumeration failed", "error", err)
		return nil
	}

	stacking := p.stackingOrder(ctx)
	activeID := p.activeWindowID(ctx)

	var windows []x11Window
	for _, line := range strings.Split(listing, "\n") {
		w, ok := parseWindowLine(line)
		if !ok {
			continue
		}

		name, err := p.readProcessName(w.PID)
		if err != nil || name == "" {
			// Process exited between enumeration and lookup; skip
			// this window for the cycle.
			continue
		}
		w.ProcessName = name

		hidden, topmost := p.windowState(ctx, w.Handle)
		if hidden {
			continue
		}
		w.Topmost = topmost
		w.Foreground = activeID != 0 && windowID(w.Handle) == activeID
		w.stackRank = stackRank(stacking, w.Handle)

		windows = append(windows, w)
	}
	return windows
}

// parseWindowLine parses one wmctrl -lpG line:
//
//	0x03a00003  0 1234   0 0 2560 1400  host  title words...
func parseWindowLine(line string) (x11Window, bool) {
	fields := strings.Fields(line)
	if len(fields) < 9 {
		return x11Window{}, false
	}

	// Desktop -1 marks sticky/dock windows, not user work.
	desktop, err := strconv.Atoi(fields[1])
	if err != nil || desktop < 0 {
		return x11Window{}, false
	}
	pid, err := strconv.Atoi(fields[2])
	if err != nil || pid <= 0 {
		return x11Window{}, false
	}

	var geom [4]int
	for i := 0; i < 4; i++ {
		v, err := strconv.Atoi(fields[3+i])
		if err != nil {
			return x11Window{}, false
		}
		geom[i] = v
	}

	return x11Window{
		Window: Window{
			Handle: fields[0],
			PID:    pid,
			Title:  strings.Join(fields[8:], " "),
		},
		x: geom[0], y: geom[1], w: geom[2], h: geom[3],
	}, true
}

// stackingOrder returns window IDs bottom-to-top from the root window's
// _NET_CLIENT_LIST_STACKING property.
func (p *X11Prober) stackingOrder(ctx context.Context) []uint64 {
	out, err := p.run(ctx, "xprop", "-root", "_NET_CLIENT_LIST_STACKING")
	if err != nil {
		return nil
	}
	_, list, ok := strings.Cut(out, "#")
	if !ok {
		return nil
	}

	var ids []uint64
	for _, tok := range strings.Split(list, ",") {
		if id := windowID(strings.TrimSpace(tok)); id != 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// activeWindowID returns the focused window's ID, or 0 when unknown.
func (p *X11Prober) activeWindowID(ctx context.Context) uint64 {
	out, err := p.run(ctx, "xprop", "-root", "_NET_ACTIVE_WINDOW")
	if err != nil {
		return 0
	}
	_, id, ok := strings.Cut(out, "#")
	if !ok {
		return 0
	}
	return windowID(strings.TrimSpace(id))
}

// windowState reports whether a window is minimized (hidden) and
// whether it carries the always-on-top flag. Errors degrade to
// "visible, not topmost": a window we cannot query is still worth
// considering.
func (p *X11Prober) windowState(ctx context.Context, handle string) (hidden, topmost bool) {
	out, err := p.run(ctx, "xprop", "-id", handle, "_NET_WM_STATE")
	if err != nil {
		return false, false
	}
	return strings.Contains(out, "_NET_WM_STATE_HIDDEN"), strings.Contains(out, "_NET_WM_STATE_ABOVE")
}

// monitor is one physical display's geometry.
type monitor struct {
	x, y, w, h int
}

// monitors queries display geometry from xrandr --listmonitors.
// Example line: " 0: +*eDP-1 2560/310x1440/170+0+0  eDP-1".
func (p *X11Prober) monitors(ctx context.Context) []monitor {
	out, err := p.run(ctx, "xrandr", "--listmonitors")
	if err != nil {
		return nil
	}

	var mons []monitor
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 || !strings.HasSuffix(fields[0], ":") {
			continue
		}
		if m, ok := parseMonitorGeometry(fields[2]); ok {
			mons = append(mons, m)
		}
	}
	return mons
}

// parseMonitorGeometry parses "2560/310x1440/170+0+0" into a monitor.
func parseMonitorGeometry(s string) (monitor, bool) {
	dims, rest, ok := strings.Cut(s, "+")
	if !ok {
		return monitor{}, false
	}
	xs, ys, ok := strings.Cut(rest, "+")
	if !ok {
		return monitor{}, false
	}
	ws, hs, ok := strings.Cut(dims, "x")
	if !ok {
		return monitor{}, false
	}

	m := monitor{}
	var err error
	if m.w, err = strconv.Atoi(strings.SplitN(ws, "/", 2)[0]); err != nil {
		return monitor{}, false
	}
	if m.h, err = strconv.Atoi(strings.SplitN(hs, "/", 2)[0]); err != nil {
		return monitor{}, false
	}
	if m.x, err = strconv.Atoi(xs); err != nil {
		return monitor{}, false
	}
	if m.y, err = strconv.Atoi(ys); err != nil {
		return monitor{}, false
	}
	return m, true
}

// monitorIndex returns the display containing the point, defaulting to 0.
func monitorIndex(mons []monitor, cx, cy int) int {
	for i, m := range mons {
		if cx >= m.x && cx < m.x+m.w && cy >= m.y && cy < m.y+m.h {
			return i
		}
	}
	return 0
}

// windowID parses a hex window handle ("0x03a00003") to a comparable
// numeric ID. Returns 0 on failure.
func windowID(handle string) uint64 {
	id, err := strconv.ParseUint(strings.TrimPrefix(handle, "0x"), 16, 64)
	if err != nil {
		return 0
	}
	return id
}

// stackRank returns the position of a window in the stacking order;
// higher means nearer the top. Unknown windows rank lowest.
func stackRank(stacking []uint64, handle string) int {
	id := windowID(handle)
	for i, s := range stacking {
		if s == id {
			return i
		}
	}
	return -1
}

// selectCandidates orders the enumeration into the probe contract:
// foreground window first, then the top window on each other display,
// always-on-top windows beating plain stacking order.
func selectCandidates(windows []x11Window) []Window {
	var out []Window
	seenMonitors := make(map[int]bool)

	for _, w := range windows {
		if w.Foreground {
			out = append(out, w.Window)
			seenMonitors[w.Monitor] = true
			break
		}
	}

	// Highest monitor index bounds the scan.
	maxMonitor := 0
	for _, w := range windows {
		if w.Monitor > maxMonitor {
			maxMonitor = w.Monitor
		}
	}

	for m := 0; m <= maxMonitor; m++ {
		if seenMonitors[m] {
			continue
		}
		best := -1
		for i, w := range windows {
			if w.Monitor != m {
				continue
			}
			if best == -1 || precedes(windows[i], windows[best]) {
				best = i
			}
		}
		if best >= 0 {
			out = append(out, windows[best].Window)
		}
	}
	return out
}

// precedes reports whether a should be chosen over b on the same
// display: the always-on-top flag wins, then stacking order.
func precedes(a, b x11Window) bool {
	if a.Topmost != b.Topmost {
		return a.Topmost
	}
	return a.stackRank > b.stackRank
}
