package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/worklens/worklens/internal/archive"
	"github.com/worklens/worklens/internal/store"
	"github.com/worklens/worklens/internal/task"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Archive and remove all stopped tasks",
	Long: `Move all stopped tasks from the saved session into the archive
database. Running and paused tasks are not touched. Archived tasks
remain available to "export --archive".`,
	RunE: runClear,
}

func init() {
	rootCmd.AddCommand(clearCmd)
}

func runClear(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sessions := store.NewSessionStore(cfg.Session.SessionFile(), nil)
	tasks, err := sessions.Load()
	if err != nil {
		return err
	}

	stopped := stoppedOnly(tasks)
	if len(stopped) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "nothing to clear")
		return nil
	}

	arch, err := archive.Open(cfg.Session.ArchiveFile(), nil)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer arch.Close()

	if err := arch.Insert(stopped, time.Now()); err != nil {
		return err
	}

	var remaining []*task.Task
	for _, t := range tasks {
		if t.State != task.StateStopped {
			remaining = append(remaining, t)
		}
	}
	if err := sessions.Save(remaining); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "cleared %d stopped task(s)\n", len(stopped))
	return nil
}
