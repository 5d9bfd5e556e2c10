package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/worklens/worklens/internal/archive"
	"github.com/worklens/worklens/internal/export"
	"github.com/worklens/worklens/internal/store"
	"github.com/worklens/worklens/internal/task"
)

var (
	exportOutput      string
	exportWithArchive bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export tasks as CSV",
	Long: `Export the saved session as CSV, to stdout or a file.
With --archive, previously cleared tasks are appended after the
current session's tasks.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to file instead of stdout")
	exportCmd.Flags().BoolVar(&exportWithArchive, "archive", false, "include archived (cleared) tasks")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sessions := store.NewSessionStore(cfg.Session.SessionFile(), nil)
	tasks, err := sessions.Load()
	if err != nil {
		return err
	}

	if exportWithArchive {
		arch, err := archive.Open(cfg.Session.ArchiveFile(), nil)
		if err != nil {
			return fmt.Errorf("failed to open archive: %w", err)
		}
		defer arch.Close()

		records, err := arch.List()
		if err != nil {
			return err
		}
		for _, r := range records {
			tasks = append(tasks, r.Task)
		}
	}

	var out io.Writer = cmd.OutOrStdout()
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := export.WriteCSV(out, tasks); err != nil {
		return err
	}
	if exportOutput != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d task(s) to %s\n", len(tasks), exportOutput)
	}
	return nil
}

// stoppedOnly filters a collection down to stopped tasks.
func stoppedOnly(tasks []*task.Task) []*task.Task {
	var out []*task.Task
	for _, t := range tasks {
		if t.State == task.StateStopped {
			out = append(out, t)
		}
	}
	return out
}
