package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/worklens/worklens/internal/task"
	"github.com/worklens/worklens/internal/tracker"
)

const consoleHelp = `Commands:
  start <name>   start a manual task (stops the current active task)
  pause [id]     pause or resume a task (default: active)
  stop [id]      stop a task (default: active)
  delete <id>    remove a task
  list           show all tasks
  active         show the active task
  clear          archive and remove all stopped tasks
  save           write the session to disk now
  help           show this help
  quit           save and exit`

// runConsole reads manual commands from in until the context ends or
// the user quits. It never blocks the tracking loops.
func runConsole(ctx context.Context, cancel context.CancelFunc, tr *tracker.Tracker, in io.Reader, out io.Writer) {
	fmt.Fprintln(out, `worklens is tracking; type "help" for commands`)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if dispatchConsole(tr, strings.Fields(scanner.Text()), out) {
			cancel()
			return
		}
	}
}

// dispatchConsole executes one console command. Returns true to quit.
func dispatchConsole(tr *tracker.Tracker, fields []string, out io.Writer) bool {
	if len(fields) == 0 {
		return false
	}
	arg := ""
	if len(fields) > 1 {
		arg = strings.Join(fields[1:], " ")
	}

	switch fields[0] {
	case "help":
		fmt.Fprintln(out, consoleHelp)

	case "start":
		tk, err := tr.StartManual(arg, task.CategoryManual)
		if err != nil {
			fmt.Fprintln(out, "error:", err)
			return false
		}
		fmt.Fprintf(out, "started %s (%s)\n", tk.Name, tk.ID)

	case "pause":
		if err := tr.TogglePause(arg); err != nil {
			fmt.Fprintln(out, "error:", err)
		}

	case "stop":
		if err := tr.Stop(arg); err != nil {
			fmt.Fprintln(out, "error:", err)
		}

	case "delete":
		if arg == "" {
			fmt.Fprintln(out, "error: delete requires a task id")
			return false
		}
		if err := tr.Delete(arg); err != nil {
			fmt.Fprintln(out, "error:", err)
		}

	case "list", "tasks":
		writeTaskTable(out, tr.Tasks(), tr.Active())

	case "active":
		active := tr.Active()
		if active == nil {
			fmt.Fprintln(out, "no active task")
			return false
		}
		writeTaskTable(out, []*task.Task{active}, active)

	case "clear":
		n, err := tr.Clear()
		if err != nil {
			fmt.Fprintln(out, "error:", err)
			return false
		}
		fmt.Fprintf(out, "cleared %d stopped task(s)\n", n)

	case "save":
		if err := tr.Save(); err != nil {
			fmt.Fprintln(out, "error:", err)
			return false
		}
		fmt.Fprintln(out, "session saved")

	case "quit", "exit":
		return true

	default:
		fmt.Fprintf(out, "unknown command %q; type \"help\"\n", fields[0])
	}
	return false
}

// writeTaskTable renders tasks as an aligned table. The active task is
// marked with an asterisk.
func writeTaskTable(out io.Writer, tasks []*task.Task, active *task.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(out, "no tasks")
		return
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tSTATE\tELAPSED\tPAUSED")
	for _, t := range tasks {
		marker := ""
		if active != nil && t.ID == active.ID {
			marker = " *"
		}
		fmt.Fprintf(w, "%s\t%s%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Name, marker, t.Category, t.State,
			formatElapsed(t.EffectiveElapsed()), formatElapsed(t.PausedDuration))
	}
	w.Flush()
}

func formatElapsed(d time.Duration) string {
	return d.Round(time.Second).String()
}
