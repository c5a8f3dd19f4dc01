package expand

import (
	"time"

	"github.com/jdziat/simple-recurring-visits/pkg/limits"
)

// Default scan windows for weekday-driven frequencies.
const (
	DefaultWeeklyGuardDays   = 30
	DefaultBiweeklyGuardDays = 60
)

// Config holds expander configuration.
type Config struct {
	// WeeklyGuardDays is how far a weekly scan may walk without finding a
	// matching weekday before it gives up with ErrExpansionGuardTripped.
	// Default: 30
	WeeklyGuardDays int

	// BiweeklyGuardDays is the same bound for biweekly scans.
	// Default: 60
	BiweeklyGuardDays int

	// StrictMonthly rejects monthly patterns that carry days of week.
	// Monthly patterns always recur on the start date's day of month; by
	// default any days of week on them are ignored.
	StrictMonthly bool

	// Location decides which calendar day a reference instant falls on.
	// Default: UTC
	Location *time.Location
}

// DefaultConfig returns the default expander configuration.
func DefaultConfig() Config {
	return Config{
		WeeklyGuardDays:   DefaultWeeklyGuardDays,
		BiweeklyGuardDays: DefaultBiweeklyGuardDays,
		Location:          time.UTC,
	}
}

func (c Config) normalized() Config {
	c.WeeklyGuardDays = limits.ClampGuardDays(c.WeeklyGuardDays, DefaultWeeklyGuardDays)
	c.BiweeklyGuardDays = limits.ClampGuardDays(c.BiweeklyGuardDays, DefaultBiweeklyGuardDays)
	if c.Location == nil {
		c.Location = time.UTC
	}
	return c
}

// Option configures an Expander.
type Option interface {
	apply(*Config)
}

type optionFunc func(*Config)

func (f optionFunc) apply(c *Config) { f(c) }

// WeeklyGuardDays sets the weekly scan window.
func WeeklyGuardDays(n int) Option {
	return optionFunc(func(c *Config) {
		c.WeeklyGuardDays = n
	})
}

// BiweeklyGuardDays sets the biweekly scan window.
func BiweeklyGuardDays(n int) Option {
	return optionFunc(func(c *Config) {
		c.BiweeklyGuardDays = n
	})
}

// StrictMonthly toggles rejection of days of week on monthly patterns.
func StrictMonthly(enabled bool) Option {
	return optionFunc(func(c *Config) {
		c.StrictMonthly = enabled
	})
}

// InLocation sets the time zone used to read reference instants.
func InLocation(loc *time.Location) Option {
	return optionFunc(func(c *Config) {
		c.Location = loc
	})
}
