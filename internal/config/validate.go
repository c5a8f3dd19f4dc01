package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jdziat/simple-recurring-visits/pkg/limits"
	"github.com/jdziat/simple-recurring-visits/pkg/storage"
)

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Database.DSN == "" {
		errs = append(errs, fmt.Errorf("database.dsn is required"))
	}
	if c.Database.MaxOpenConns < 0 || c.Database.MaxIdleConns < 0 {
		errs = append(errs, fmt.Errorf("database pool sizes must be >= 0"))
	}
	if _, _, err := storage.PoolPreset(c.Database.Preset); err != nil {
		errs = append(errs, fmt.Errorf("database.preset: %w", err))
	}

	if c.Expand.WeeklyGuardDays < 1 || c.Expand.WeeklyGuardDays > limits.MaxGuardDays {
		errs = append(errs, fmt.Errorf("expand.weekly_guard_days must be between 1 and %d", limits.MaxGuardDays))
	}
	if c.Expand.BiweeklyGuardDays < 1 || c.Expand.BiweeklyGuardDays > limits.MaxGuardDays {
		errs = append(errs, fmt.Errorf("expand.biweekly_guard_days must be between 1 and %d", limits.MaxGuardDays))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}

	if c.Materialize.Concurrency < 1 || c.Materialize.Concurrency > limits.MaxConcurrency {
		errs = append(errs, fmt.Errorf("materialize.concurrency must be between 1 and %d", limits.MaxConcurrency))
	}
	if c.Materialize.RetryAttempts < 1 {
		errs = append(errs, fmt.Errorf("materialize.retry_attempts must be >= 1"))
	}
	if c.Materialize.RetryInitialDelayMs < 0 || c.Materialize.RetryMaxDelayMs < c.Materialize.RetryInitialDelayMs {
		errs = append(errs, fmt.Errorf("materialize retry delays must satisfy 0 <= initial <= max"))
	}

	if _, err := c.Schedule(); err != nil {
		errs = append(errs, err)
	}
	for i, p := range c.Horizon.Plans {
		if p.PatternID == "" {
			errs = append(errs, fmt.Errorf("horizon.plans[%d].pattern_id is required", i))
		}
		if p.Occurrences < 0 || p.Occurrences > limits.MaxOccurrences {
			errs = append(errs, fmt.Errorf("horizon.plans[%d].occurrences must be between 0 and %d", i, limits.MaxOccurrences))
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid logging.level: %s (expected: debug, info, warn, error)", c.Logging.Level))
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Errorf("invalid logging.format: %s (expected: json, text)", c.Logging.Format))
	}
	if c.Logging.Output == "" {
		errs = append(errs, fmt.Errorf("logging.output is required"))
	}

	if c.Metrics.Listen != "" && c.Metrics.Namespace == "" {
		errs = append(errs, fmt.Errorf("metrics.namespace is required when metrics.listen is set"))
	}

	return errors.Join(errs...)
}
