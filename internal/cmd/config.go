package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/worklens/worklens/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or initialize WorkLens configuration",
	Long: `View or initialize WorkLens configuration.

Without arguments, displays the effective configuration.
Use "config init" to create a starter config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter config file",
	Long:  `Create a starter config file at ~/.config/worklens/config.yaml with the default detection rules.`,
	RunE:  runConfigInit,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if file := viper.ConfigFileUsed(); file != "" {
		fmt.Fprintf(out, "# config file: %s\n", file)
	} else {
		fmt.Fprintln(out, "# no config file found; showing defaults")
	}

	fmt.Fprintf(out, "detection.poll_interval_seconds: %d\n", cfg.Detection.PollIntervalSeconds)
	fmt.Fprintf(out, "detection.revival_window_minutes: %d\n", cfg.Detection.RevivalWindowMinutes)
	fmt.Fprintln(out, "detection.rules:")
	for _, r := range cfg.Detection.Rules {
		fmt.Fprintf(out, "  - process=%s category=%s label=%q", r.ProcessName, r.Category, r.Label)
		if r.TitleContains != "" {
			fmt.Fprintf(out, " title_contains=%q", r.TitleContains)
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintln(out, "detection.domains:")
	for _, d := range cfg.Detection.Domains {
		fmt.Fprintf(out, "  - contains=%s task_name=%q\n", d.DomainContains, d.TaskName)
	}
	fmt.Fprintf(out, "idle.threshold_seconds: %d\n", cfg.Idle.ThresholdSeconds)
	fmt.Fprintf(out, "idle.poll_interval_seconds: %d\n", cfg.Idle.PollIntervalSeconds)
	fmt.Fprintf(out, "session.data_dir: %s\n", cfg.Session.ResolveDataDir())
	fmt.Fprintf(out, "session.autosave_interval_seconds: %d\n", cfg.Session.AutosaveIntervalSeconds)
	fmt.Fprintf(out, "logging.enabled: %t\n", cfg.Logging.Enabled)
	fmt.Fprintf(out, "logging.level: %s\n", cfg.Logging.Level)
	return nil
}

// starterConfig is written by "config init".
const starterConfig = `# WorkLens configuration
detection:
  poll_interval_seconds: 5
  revival_window_minutes: 5
  rules:
    - process_name: firefox
      category: code_review
      label: Firefox
      product_suffix: " — Mozilla Firefox"
    - process_name: code
      category: code_editor
      label: VS Code
      product_suffix: " - Visual Studio Code"
    - process_name: goland
      category: ide
      label: GoLand
    - process_name: soffice.bin
      title_contains: Calc
      category: spreadsheet
      label: LibreOffice Calc
      product_suffix: " - LibreOffice Calc"
    - process_name: soffice.bin
      category: document
      label: LibreOffice Writer
      product_suffix: " - LibreOffice Writer"
  domains:
    - domain_contains: github.com
      task_name: GitHub

# Browser address-bar helpers; {handle} and {pid} are substituted.
browser:
  address_bar_commands: {}

# Editor workspace status calls, parsed with a gjson path.
workspace:
  queries: {}

idle:
  threshold_seconds: 300
  poll_interval_seconds: 1

session:
  autosave_interval_seconds: 30

logging:
  enabled: true
  level: info
  max_size_mb: 10
  max_backups: 3
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.ConfigFile()
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(starterConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", path)
	return nil
}
