package idle

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// queryTimeout bounds the last-input query.
const queryTimeout = 2 * time.Second

// XPrintIdleSource reads the X11 idle time via the xprintidle tool,
// which prints milliseconds since the last user input.
type XPrintIdleSource struct {
	// run executes the query. Overridable in tests.
	run func(ctx context.Context) (string, error)
}

// NewXPrintIdleSource creates the production input source.
func NewXPrintIdleSource() *XPrintIdleSource {
	return &XPrintIdleSource{run: runXPrintIdle}
}

func runXPrintIdle(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "xprintidle").Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// IdleDuration implements LastInputSource.
func (s *XPrintIdleSource) IdleDuration(ctx context.Context) (time.Duration, error) {
	out, err := s.run(ctx)
	if err != nil {
		return 0, err
	}
	ms, err := strconv.ParseInt(out, 10, 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(ms) * time.Millisecond, nil
}
