package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/vinhdn/inputbridge/internal/bridge"
	"github.com/vinhdn/inputbridge/internal/phrase"
)

// ValidationError represents a single validation failure.
type ValidationError struct {
	Field   string // config field path (e.g., "bridge.poll_interval")
	Value   any    // the invalid value
	Message string // human-readable description
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
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

// Validate checks the Config for invalid values and returns all errors found.
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	if c.Bridge.PollInterval <= 0 {
		errors = append(errors, ValidationError{
			Field:   "bridge.poll_interval",
			Value:   c.Bridge.PollInterval,
			Message: "must be a positive duration",
		})
	}
	if c.Bridge.GraceInterval <= 0 {
		errors = append(errors, ValidationError{
			Field:   "bridge.grace_interval",
			Value:   c.Bridge.GraceInterval,
			Message: "must be a positive duration",
		})
	}
	if c.Bridge.DefaultTimeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "bridge.default_timeout",
			Value:   c.Bridge.DefaultTimeout,
			Message: "must be a positive duration",
		})
	} else if c.Bridge.GraceInterval > 0 && c.Bridge.DefaultTimeout < c.Bridge.GraceInterval+bridge.TimeoutMargin {
		errors = append(errors, ValidationError{
			Field: "bridge.default_timeout",
			Value: c.Bridge.DefaultTimeout,
			Message: fmt.Sprintf("must be at least grace_interval + %s so one keep-alive cycle fits",
				bridge.TimeoutMargin),
		})
	}

	if !slices.Contains(phrase.SupportedLanguages(), c.Language) {
		errors = append(errors, ValidationError{
			Field:   "language",
			Value:   c.Language,
			Message: fmt.Sprintf("must be one of %v", phrase.SupportedLanguages()),
		})
	}

	level := strings.ToLower(c.Logging.Level)
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: "must be one of [debug info warn error]",
		})
	}
	if c.Logging.MaxSizeMB < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must not be negative",
		})
	}
	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must not be negative",
		})
	}

	return errors
}
