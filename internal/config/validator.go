package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "detection.poll_interval_seconds")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidCategories returns the list of valid detection rule categories
func ValidCategories() []string {
	return []string{"code_review", "code_editor", "ide", "document", "spreadsheet", "other"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateDetection()...)
	errors = append(errors, c.validateBrowser()...)
	errors = append(errors, c.validateWorkspace()...)
	errors = append(errors, c.validateIdle()...)
	errors = append(errors, c.validateSession()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

// validateDetection validates the DetectionConfig
func (c *Config) validateDetection() []ValidationError {
	var errors []ValidationError

	if c.Detection.PollIntervalSeconds < 1 {
		errors = append(errors, ValidationError{
			Field:   "detection.poll_interval_seconds",
			Value:   c.Detection.PollIntervalSeconds,
			Message: "must be at least 1",
		})
	}

	// Polling slower than once an hour makes detection meaningless
	const maxPollIntervalSeconds = 3600
	if c.Detection.PollIntervalSeconds > maxPollIntervalSeconds {
		errors = append(errors, ValidationError{
			Field:   "detection.poll_interval_seconds",
			Value:   c.Detection.PollIntervalSeconds,
			Message: fmt.Sprintf("exceeds maximum of %d", maxPollIntervalSeconds),
		})
	}

	if c.Detection.RevivalWindowMinutes < 0 {
		errors = append(errors, ValidationError{
			Field:   "detection.revival_window_minutes",
			Value:   c.Detection.RevivalWindowMinutes,
			Message: "must be non-negative",
		})
	}

	for i, rule := range c.Detection.Rules {
		if rule.ProcessName == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("detection.rules[%d].process_name", i),
				Value:   rule.ProcessName,
				Message: "must not be empty",
			})
		}
		if !slices.Contains(ValidCategories(), rule.Category) {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("detection.rules[%d].category", i),
				Value:   rule.Category,
				Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidCategories(), ", ")),
			})
		}
		if rule.Label == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("detection.rules[%d].label", i),
				Value:   rule.Label,
				Message: "must not be empty",
			})
		}
	}

	for i, domain := range c.Detection.Domains {
		if domain.DomainContains == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("detection.domains[%d].domain_contains", i),
				Value:   domain.DomainContains,
				Message: "must not be empty",
			})
		}
	}

	return errors
}

// validateBrowser validates the BrowserConfig
func (c *Config) validateBrowser() []ValidationError {
	var errors []ValidationError

	for process, command := range c.Browser.AddressBarCommands {
		if len(command) == 0 {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("browser.address_bar_commands[%s]", process),
				Value:   command,
				Message: "command must not be empty",
			})
		}
	}

	return errors
}

// validateWorkspace validates the WorkspaceConfig
func (c *Config) validateWorkspace() []ValidationError {
	var errors []ValidationError

	for process, query := range c.Workspace.Queries {
		if len(query.Command) == 0 {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("workspace.queries[%s].command", process),
				Value:   query.Command,
				Message: "command must not be empty",
			})
		}
	}

	return errors
}

// validateIdle validates the IdleConfig
func (c *Config) validateIdle() []ValidationError {
	var errors []ValidationError

	if c.Idle.ThresholdSeconds < 0 {
		errors = append(errors, ValidationError{
			Field:   "idle.threshold_seconds",
			Value:   c.Idle.ThresholdSeconds,
			Message: "must be non-negative (0 disables idle detection)",
		})
	}
	if c.Idle.PollIntervalSeconds < 1 {
		errors = append(errors, ValidationError{
			Field:   "idle.poll_interval_seconds",
			Value:   c.Idle.PollIntervalSeconds,
			Message: "must be at least 1",
		})
	}

	return errors
}

// validateSession validates the SessionConfig
func (c *Config) validateSession() []ValidationError {
	var errors []ValidationError

	if c.Session.AutosaveIntervalSeconds < 0 {
		errors = append(errors, ValidationError{
			Field:   "session.autosave_interval_seconds",
			Value:   c.Session.AutosaveIntervalSeconds,
			Message: "must be non-negative (0 saves only on changes and exit)",
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}
	if c.Logging.MaxSizeMB < 1 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be at least 1",
		})
	}
	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}
