// Package export renders task collections as CSV for spreadsheet
// consumption.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/worklens/worklens/internal/task"
)

// header is the fixed CSV column set. Order is part of the format.
var header = []string{
	"id", "name", "label", "category", "state",
	"start", "end", "elapsed", "pausedDuration", "effectiveElapsed",
	"processName", "detectedUrl", "detectedTabTitle", "detectedDocumentName",
}

// WriteCSV renders the given tasks to w, one row each, preceded by the
// header. An empty collection still writes the header.
func WriteCSV(w io.Writer, tasks []*task.Task) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, t := range tasks {
		if err := cw.Write(row(t)); err != nil {
			return fmt.Errorf("write csv row for task %s: %w", t.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func row(t *task.Task) []string {
	end := ""
	if t.EndTime != nil {
		end = t.EndTime.UTC().Format(time.RFC3339)
	}
	return []string{
		t.ID,
		t.Name,
		t.Label,
		string(t.Category),
		string(t.State),
		t.StartTime.UTC().Format(time.RFC3339),
		end,
		formatDuration(t.Elapsed),
		formatDuration(t.PausedDuration),
		formatDuration(t.EffectiveElapsed()),
		t.ProcessName,
		t.DetectedURL,
		t.DetectedTabTitle,
		t.DetectedDocumentName,
	}
}

// formatDuration renders a duration as whole seconds, the unit
// spreadsheets handle without parsing Go duration syntax.
func formatDuration(d time.Duration) string {
	return strconv.FormatInt(int64(d/time.Second), 10)
}
