package probe

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestParseWindowLine(t *testing.T) {
	line := "0x03a00003  0 1234   10 20 2560 1400  host  ledger.go — worklens — Visual Studio Code"
	w, ok := parseWindowLine(line)
	if !ok {
		t.Fatal("expected line to parse")
	}
	if w.Handle != "0x03a00003" {
		t.Errorf("unexpected handle %q", w.Handle)
	}
	if w.PID != 1234 {
		t.Errorf("unexpected pid %d", w.PID)
	}
	if w.Title != "ledger.go — worklens — Visual Studio Code" {
		t.Errorf("unexpected title %q", w.Title)
	}
	if w.x != 10 || w.y != 20 || w.w != 2560 || w.h != 1400 {
		t.Errorf("unexpected geometry %d,%d %dx%d", w.x, w.y, w.w, w.h)
	}
}

func TestParseWindowLine_SkipsStickyAndMalformed(t *testing.T) {
	cases := []string{
		"0x00c00003 -1 900    0 0 2560 28  host  panel", // desktop -1
		"not a window line",
		"",
		"0x1 0 notapid 0 0 1 1 host title",
	}
	for _, line := range cases {
		if _, ok := parseWindowLine(line); ok {
			t.Errorf("line %q should not parse", line)
		}
	}
}

func TestParseMonitorGeometry(t *testing.T) {
	m, ok := parseMonitorGeometry("2560/310x1440/170+0+0")
	if !ok {
		t.Fatal("expected geometry to parse")
	}
	if m.w != 2560 || m.h != 1440 || m.x != 0 || m.y != 0 {
		t.Errorf("unexpected geometry %+v", m)
	}

	m, ok = parseMonitorGeometry("1920/530x1080/300+2560+180")
	if !ok {
		t.Fatal("expected second geometry to parse")
	}
	if m.x != 2560 || m.y != 180 {
		t.Errorf("unexpected offset %+v", m)
	}

	if _, ok := parseMonitorGeometry("garbage"); ok {
		t.Error("garbage should not parse")
	}
}

func TestWindowID(t *testing.T) {
	if windowID("0x03a00003") != windowID("0x3a00003") {
		t.Error("leading zeros must not change the ID")
	}
	if windowID("nope") != 0 {
		t.Error("unparseable handle should yield 0")
	}
}

func TestSelectCandidates_ForegroundFirstThenPerMonitor(t *testing.T) {
	windows := []x11Window{
		{Window: Window{Handle: "0x1", ProcessName: "code", Monitor: 0}, stackRank: 5},
		{Window: Window{Handle: "0x2", ProcessName: "firefox", Monitor: 0, Foreground: true}, stackRank: 9},
		{Window: Window{Handle: "0x3", ProcessName: "slack", Monitor: 1}, stackRank: 2},
		{Window: Window{Handle: "0x4", ProcessName: "soffice", Monitor: 1}, stackRank: 7},
	}

	got := selectCandidates(windows)
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates (one per display), got %d", len(got))
	}
	if got[0].Handle != "0x2" {
		t.Errorf("foreground window must come first, got %q", got[0].Handle)
	}
	if got[1].Handle != "0x4" {
		t.Errorf("expected top-of-stack window on monitor 1, got %q", got[1].Handle)
	}
}

func TestSelectCandidates_TopmostBeatsStacking(t *testing.T) {
	windows := []x11Window{
		{Window: Window{Handle: "0x1", Monitor: 0, Foreground: true}, stackRank: 9},
		{Window: Window{Handle: "0x2", Monitor: 1}, stackRank: 8},
		{Window: Window{Handle: "0x3", Monitor: 1, Topmost: true}, stackRank: 1},
	}

	got := selectCandidates(windows)
	if len(got) != 2 || got[1].Handle != "0x3" {
		t.Fatalf("always-on-top window must beat plain stacking order, got %+v", got)
	}
}

func TestSelectCandidates_NoForeground(t *testing.T) {
	windows := []x11Window{
		{Window: Window{Handle: "0x1", Monitor: 0}, stackRank: 1},
		{Window: Window{Handle: "0x2", Monitor: 0}, stackRank: 3},
	}
	got := selectCandidates(windows)
	if len(got) != 1 || got[0].Handle != "0x2" {
		t.Fatalf("without a foreground window the top of stack should lead, got %+v", got)
	}
}

// stubbedProber wires canned command output into an X11Prober.
func stubbedProber(t *testing.T, outputs map[string]string, processNames map[int]string) *X11Prober {
	t.Helper()
	p := NewX11Prober(nil)
	p.run = func(ctx context.Context, name string, args ...string) (string, error) {
		key := name + " " + strings.Join(args, " ")
		out, ok := outputs[key]
		if !ok {
			return "", errors.New("command failed")
		}
		return out, nil
	}
	p.readProcessName = func(pid int) (string, error) {
		name, ok := processNames[pid]
		if !ok {
			return "", errors.New("process exited")
		}
		return name, nil
	}
	return p
}

func TestSnapshot_EndToEnd(t *testing.T) {
	outputs := map[string]string{
		"wmctrl -lpG": strings.Join([]string{
			"0x0100001  0 100   0 0 2560 1400  host  ledger.go — worklens — Visual Studio Code",
			"0x0100002  0 200   2600 0 1900 1000  host  acme/billing: PR #42 — Mozilla Firefox",
			"0x0100003  0 300   50 50 800 600  host  minimized thing",
			"0x0100004  0 400   60 60 800 600  host  gone process",
		}, "\n"),
		"xprop -root _NET_CLIENT_LIST_STACKING": "_NET_CLIENT_LIST_STACKING(WINDOW): window id # 0x100003, 0x100002, 0x100001",
		"xprop -root _NET_ACTIVE_WINDOW":        "_NET_ACTIVE_WINDOW(WINDOW): window id # 0x100001",
		"xprop -id 0x0100001 _NET_WM_STATE":     "_NET_WM_STATE(ATOM) = _NET_WM_STATE_FOCUSED",
		"xprop -id 0x0100002 _NET_WM_STATE":     "_NET_WM_STATE(ATOM) =",
		"xprop -id 0x0100003 _NET_WM_STATE":     "_NET_WM_STATE(ATOM) = _NET_WM_STATE_HIDDEN",
		"xrandr --listmonitors": strings.Join([]string{
			"Monitors: 2",
			" 0: +*eDP-1 2560/310x1440/170+0+0  eDP-1",
			" 1: +HDMI-1 1920/530x1080/300+2560+0  HDMI-1",
		}, "\n"),
	}
	processNames := map[int]string{100: "code", 200: "firefox", 300: "slack"}

	got := stubbedProber(t, outputs, processNames).Snapshot(context.Background())

	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d: %+v", len(got), got)
	}
	if got[0].ProcessName != "code" || !got[0].Foreground {
		t.Errorf("expected focused editor first, got %+v", got[0])
	}
	if got[1].ProcessName != "firefox" || got[1].Monitor != 1 {
		t.Errorf("expected browser on second display, got %+v", got[1])
	}
}

func TestSnapshot_EnumerationFailureYieldsEmpty(t *testing.T) {
	p := stubbedProber(t, map[string]string{}, nil)
	if got := p.Snapshot(context.Background()); got != nil {
		t.Errorf("expected nil snapshot on enumeration failure, got %+v", got)
	}
}

func TestSnapshot_StateQueryFailureKeepsWindow(t *testing.T) {
	outputs := map[string]string{
		"wmctrl -lpG":                           "0x0100001  0 100   0 0 2560 1400  host  something",
		"xprop -root _NET_CLIENT_LIST_STACKING": "_NET_CLIENT_LIST_STACKING(WINDOW): window id # 0x100001",
		"xprop -root _NET_ACTIVE_WINDOW":        "_NET_ACTIVE_WINDOW(WINDOW): window id # 0x100001",
		// No _NET_WM_STATE entry: the per-window query fails.
		"xrandr --listmonitors": "Monitors: 1\n 0: +*eDP-1 2560/310x1440/170+0+0  eDP-1",
	}
	got := stubbedProber(t, outputs, map[int]string{100: "code"}).Snapshot(context.Background())
	if len(got) != 1 {
		t.Fatalf("a window whose state cannot be queried is still a candidate, got %+v", got)
	}
}

func TestFakeProber(t *testing.T) {
	f := NewFake()
	f.SetWindows(Window{Handle: "0x1", ProcessName: "code", Foreground: true})

	got := f.Snapshot(context.Background())
	if len(got) != 1 || got[0].ProcessName != "code" {
		t.Fatalf("unexpected snapshot %+v", got)
	}

	// Mutating the returned slice must not affect later snapshots.
	got[0].ProcessName = "mutated"
	if f.Snapshot(context.Background())[0].ProcessName != "code" {
		t.Error("snapshot must return a copy")
	}
	if f.Calls() != 2 {
		t.Errorf("expected 2 calls, got %d", f.Calls())
	}
}
