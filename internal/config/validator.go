package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "engine.default_retries")
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

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	if c.Engine.DefaultRetries < 0 {
		errors = append(errors, ValidationError{
			Field:   "engine.default_retries",
			Value:   c.Engine.DefaultRetries,
			Message: "must be non-negative",
		})
	}

	if c.Engine.DefaultWaitMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "engine.default_wait_ms",
			Value:   c.Engine.DefaultWaitMs,
			Message: "must be non-negative",
		})
	}

	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if c.TUI.RefreshIntervalMs <= 0 {
		errors = append(errors, ValidationError{
			Field:   "tui.refresh_interval_ms",
			Value:   c.TUI.RefreshIntervalMs,
			Message: "must be positive",
		})
	}

	return errors
}
