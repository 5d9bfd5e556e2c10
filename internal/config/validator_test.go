package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return Default()
}

func findError(errs []ValidationError, field string) *ValidationError {
	for i := range errs {
		if errs[i].Field == field {
			return &errs[i]
		}
	}
	return nil
}

func TestValidatePollIntervalBounds(t *testing.T) {
	cfg := validConfig()
	cfg.Detection.PollIntervalSeconds = 0
	if findError(cfg.Validate(), "detection.poll_interval_seconds") == nil {
		t.Error("expected error for zero poll interval")
	}

	cfg = validConfig()
	cfg.Detection.PollIntervalSeconds = 7200
	if findError(cfg.Validate(), "detection.poll_interval_seconds") == nil {
		t.Error("expected error for excessive poll interval")
	}
}

func TestValidateNegativeRevivalWindow(t *testing.T) {
	cfg := validConfig()
	cfg.Detection.RevivalWindowMinutes = -1
	if findError(cfg.Validate(), "detection.revival_window_minutes") == nil {
		t.Error("expected error for negative revival window")
	}
}

func TestValidateRuleFields(t *testing.T) {
	cfg := validConfig()
	cfg.Detection.Rules = []RuleConfig{
		{ProcessName: "", Category: "ide", Label: "GoLand"},
		{ProcessName: "goland", Category: "videogame", Label: "GoLand"},
		{ProcessName: "goland", Category: "ide", Label: ""},
	}
	errs := cfg.Validate()
	if findError(errs, "detection.rules[0].process_name") == nil {
		t.Error("expected error for empty process name")
	}
	if e := findError(errs, "detection.rules[1].category"); e == nil {
		t.Error("expected error for unknown category")
	} else if !strings.Contains(e.Message, "code_editor") {
		t.Errorf("expected valid categories listed, got %q", e.Message)
	}
	if findError(errs, "detection.rules[2].label") == nil {
		t.Error("expected error for empty label")
	}
}

func TestValidateDomainRules(t *testing.T) {
	cfg := validConfig()
	cfg.Detection.Domains = []DomainRuleConfig{{DomainContains: ""}}
	if findError(cfg.Validate(), "detection.domains[0].domain_contains") == nil {
		t.Error("expected error for empty domain")
	}
}

func TestValidateEmptyHelperCommands(t *testing.T) {
	cfg := validConfig()
	cfg.Browser.AddressBarCommands = map[string][]string{"firefox": {}}
	cfg.Workspace.Queries = map[string]WorkspaceQueryConfig{"code": {}}
	errs := cfg.Validate()
	if findError(errs, "browser.address_bar_commands[firefox]") == nil {
		t.Error("expected error for empty address bar command")
	}
	if findError(errs, "workspace.queries[code].command") == nil {
		t.Error("expected error for empty workspace command")
	}
}

func TestValidateIdle(t *testing.T) {
	cfg := validConfig()
	cfg.Idle.ThresholdSeconds = -1
	cfg.Idle.PollIntervalSeconds = 0
	errs := cfg.Validate()
	if findError(errs, "idle.threshold_seconds") == nil {
		t.Error("expected error for negative threshold")
	}
	if findError(errs, "idle.poll_interval_seconds") == nil {
		t.Error("expected error for zero idle poll interval")
	}

	// Zero threshold is valid: it disables idle detection.
	cfg = validConfig()
	cfg.Idle.ThresholdSeconds = 0
	if findError(cfg.Validate(), "idle.threshold_seconds") != nil {
		t.Error("zero threshold should be accepted")
	}
}

func TestValidateLogging(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "verbose"
	cfg.Logging.MaxSizeMB = 0
	cfg.Logging.MaxBackups = -1
	errs := cfg.Validate()
	if findError(errs, "logging.level") == nil {
		t.Error("expected error for unknown log level")
	}
	if findError(errs, "logging.max_size_mb") == nil {
		t.Error("expected error for zero max size")
	}
	if findError(errs, "logging.max_backups") == nil {
		t.Error("expected error for negative max backups")
	}
}

func TestValidationErrorsFormatting(t *testing.T) {
	errs := ValidationErrors{
		{Field: "a.b", Value: 1, Message: "bad"},
		{Field: "c.d", Value: "x", Message: "worse"},
	}
	msg := errs.Error()
	if !strings.Contains(msg, "2 validation errors") {
		t.Errorf("expected count header, got %q", msg)
	}
	if !strings.Contains(msg, "a.b: bad (got: 1)") {
		t.Errorf("expected first error listed, got %q", msg)
	}

	single := ValidationErrors{{Field: "a.b", Value: 1, Message: "bad"}}
	if single.Error() != "a.b: bad (got: 1)" {
		t.Errorf("single error formatting: %q", single.Error())
	}
}
