package cmd

import (
	"github.com/spf13/cobra"

	"github.com/worklens/worklens/internal/store"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List tasks from the saved session",
	Long: `List the tasks recorded in the saved session file. Tasks that were
live when the tracker last exited are shown as stopped.`,
	RunE: runTasks,
}

func init() {
	rootCmd.AddCommand(tasksCmd)
}

func runTasks(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sessions := store.NewSessionStore(cfg.Session.SessionFile(), nil)
	tasks, err := sessions.Load()
	if err != nil {
		return err
	}

	writeTaskTable(cmd.OutOrStdout(), tasks, nil)
	return nil
}
