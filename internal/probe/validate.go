package probe

import (
	"errors"
	"strings"
)

// ErrInvalidConfig matches every *ConfigError via errors.Is.
var ErrInvalidConfig = errors.New("probe: invalid config")

// ConfigError reports the first precondition a Config violates.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "probe: " + e.Field + " " + e.Reason
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

func invalid(field, reason string) error {
	return &ConfigError{Field: field, Reason: reason}
}

// ValidateCheck checks the fields a single-shot check needs.
// It performs no I/O and stops at the first violation.
func ValidateCheck(cfg Config) error {
	if err := validateTarget(cfg); err != nil {
		return err
	}
	return validateStatus(cfg)
}

// ValidateObserve checks the schedule fields and then everything
// ValidateCheck does.
func ValidateObserve(cfg Config) error {
	if err := validateSchedule(cfg); err != nil {
		return err
	}
	return ValidateCheck(cfg)
}

func validateSchedule(cfg Config) error {
	if cfg.InitialDelay < 0 {
		return invalid("initial_delay", "must not be negative")
	}
	if cfg.Interval <= 0 {
		return invalid("interval", "must be a positive duration")
	}
	return nil
}

// validateTarget covers the fields shared by every strategy.
func validateTarget(cfg Config) error {
	if strings.TrimSpace(cfg.Host) == "" {
		return invalid("host", "must not be empty")
	}
	if cfg.Port <= 0 {
		return invalid("port", "must be a positive number")
	}
	if cfg.Timeout <= 0 {
		return invalid("timeout", "must be a positive duration")
	}
	if cfg.ErrorHandler == nil {
		return invalid("error_handler", "is required")
	}
	return nil
}

func validateStatus(cfg Config) error {
	if cfg.ExpectedStatus <= 0 {
		return invalid("expected_status", "must be a positive number")
	}
	return nil
}
