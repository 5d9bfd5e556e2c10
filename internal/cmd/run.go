package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/worklens/worklens/internal/archive"
	"github.com/worklens/worklens/internal/config"
	"github.com/worklens/worklens/internal/idle"
	"github.com/worklens/worklens/internal/logging"
	"github.com/worklens/worklens/internal/probe"
	"github.com/worklens/worklens/internal/store"
	"github.com/worklens/worklens/internal/tracker"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the tracker daemon",
	Long: `Run the tracker: poll the desktop for windows, derive tasks, and
persist the session. An interactive prompt on stdin accepts manual
commands while tracking runs; type "help" there for the list.
Stop with Ctrl-C or the "quit" command.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logger.Close()

	sessions := store.NewSessionStore(cfg.Session.SessionFile(), logger)
	arch, err := archive.Open(cfg.Session.ArchiveFile(), logger)
	if err != nil {
		// Tracking still works without history; clearing will discard.
		logger.Warn("archive unavailable", "error", err)
		arch = nil
	} else {
		defer arch.Close()
	}

	tr := tracker.New(cfg, probe.NewX11Prober(logger), idle.NewXPrintIdleSource(), sessions, arch, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Reload detection rules when the config file changes on disk.
	if path := viper.ConfigFileUsed(); path != "" {
		watcher, werr := config.NewWatcher(path,
			func(c *config.Config) { tr.ApplyConfig(c) },
			func(rerr error) { logger.Warn("config reload rejected", "error", rerr) },
		)
		if werr != nil {
			logger.Warn("config watcher unavailable", "error", werr)
		} else {
			watcher.Start()
			defer watcher.Stop()
		}
	}

	go runConsole(ctx, cancel, tr, cmd.InOrStdin(), cmd.OutOrStdout())

	return tr.Run(ctx)
}

// buildLogger opens the rotating file logger, or a no-op logger when
// file logging is disabled.
func buildLogger(cfg *config.Config) (*logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NopLogger(), nil
	}
	return logging.NewLogger(cfg.Session.LogFile(), cfg.Logging.Level, logging.RotationConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
}
