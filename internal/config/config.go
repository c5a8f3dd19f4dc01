// Package config loads the visits service configuration from a TOML file with
// VISITS_* environment overrides.
package config

import (
	"fmt"
	"sort"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/BurntSushi/toml"

	"github.com/jdziat/simple-recurring-visits/pkg/expand"
	"github.com/jdziat/simple-recurring-visits/pkg/horizon"
	"github.com/jdziat/simple-recurring-visits/pkg/materialize"
	"github.com/jdziat/simple-recurring-visits/pkg/schedule"
	"github.com/jdziat/simple-recurring-visits/pkg/storage"
)

// Config is the root of the configuration file.
type Config struct {
	Database    DatabaseConfig    `toml:"database"`
	Expand      ExpandConfig      `toml:"expand"`
	Materialize MaterializeConfig `toml:"materialize"`
	Horizon     HorizonConfig     `toml:"horizon"`
	Logging     LoggingConfig     `toml:"logging"`
	Metrics     MetricsConfig     `toml:"metrics"`
}

// DatabaseConfig selects the SQLite database and its pool. Preset names a
// storage pool preset ("default", "sqlite" or "bulk"); the individual pool
// values override it. Zero pool values keep the preset or storage defaults.
type DatabaseConfig struct {
	DSN                    string `toml:"dsn"`
	Preset                 string `toml:"preset"`
	MaxOpenConns           int    `toml:"max_open_conns"`
	MaxIdleConns           int    `toml:"max_idle_conns"`
	ConnMaxLifetimeSeconds int    `toml:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int    `toml:"conn_max_idle_time_seconds"`
}

type ExpandConfig struct {
	WeeklyGuardDays   int    `toml:"weekly_guard_days"`
	BiweeklyGuardDays int    `toml:"biweekly_guard_days"`
	StrictMonthly     bool   `toml:"strict_monthly"`
	TimeZone          string `toml:"time_zone"`
}

type MaterializeConfig struct {
	Concurrency         int     `toml:"concurrency"`
	RetryAttempts       int     `toml:"retry_attempts"`
	RetryInitialDelayMs int     `toml:"retry_initial_delay_ms"`
	RetryMaxDelayMs     int     `toml:"retry_max_delay_ms"`
	RetryMultiplier     float64 `toml:"retry_multiplier"`
}

// HorizonConfig drives `visits serve`.
type HorizonConfig struct {
	Schedule   string       `toml:"schedule"`
	RunOnStart bool         `toml:"run_on_start"`
	Plans      []PlanConfig `toml:"plans"`
}

type PlanConfig struct {
	PatternID     string `toml:"pattern_id"`
	TemplateJobID string `toml:"template_job_id"`
	Occurrences   int    `toml:"occurrences"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Output string `toml:"output"`
}

type MetricsConfig struct {
	Listen    string `toml:"listen"`
	Namespace string `toml:"namespace"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	retry := materialize.DefaultRetryConfig()
	return &Config{
		Database: DatabaseConfig{
			DSN: "visits.db",
		},
		Expand: ExpandConfig{
			WeeklyGuardDays:   expand.DefaultWeeklyGuardDays,
			BiweeklyGuardDays: expand.DefaultBiweeklyGuardDays,
			TimeZone:          "UTC",
		},
		Materialize: MaterializeConfig{
			Concurrency:         1,
			RetryAttempts:       retry.MaxAttempts,
			RetryInitialDelayMs: int(retry.InitialBackoff / time.Millisecond),
			RetryMaxDelayMs:     int(retry.MaxBackoff / time.Millisecond),
			RetryMultiplier:     retry.BackoffMultiplier,
		},
		Horizon: HorizonConfig{
			Schedule: "@daily",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Namespace: "visits",
		},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path yields the defaults with overrides. Unknown keys are errors.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			sort.Strings(keys)
			return nil, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	return cfg, nil
}

// PoolOptions returns the storage pool options for the non-zero settings.
func (c *Config) PoolOptions() []storage.PoolOption {
	var opts []storage.PoolOption
	d := c.Database
	if preset, ok, _ := storage.PoolPreset(d.Preset); ok {
		opts = append(opts, storage.WithPoolConfig(preset))
	}
	if d.MaxOpenConns > 0 {
		opts = append(opts, storage.MaxOpenConns(d.MaxOpenConns))
	}
	if d.MaxIdleConns > 0 {
		opts = append(opts, storage.MaxIdleConns(d.MaxIdleConns))
	}
	if d.ConnMaxLifetimeSeconds > 0 {
		opts = append(opts, storage.ConnMaxLifetime(time.Duration(d.ConnMaxLifetimeSeconds)*time.Second))
	}
	if d.ConnMaxIdleTimeSeconds > 0 {
		opts = append(opts, storage.ConnMaxIdleTime(time.Duration(d.ConnMaxIdleTimeSeconds)*time.Second))
	}
	return opts
}

// Location resolves the expand time zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Expand.TimeZone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Expand.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("expand.time_zone: %w", err)
	}
	return loc, nil
}

// Expander builds the date expander.
func (c *Config) Expander() (*expand.Expander, error) {
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	return expand.New(
		expand.WeeklyGuardDays(c.Expand.WeeklyGuardDays),
		expand.BiweeklyGuardDays(c.Expand.BiweeklyGuardDays),
		expand.StrictMonthly(c.Expand.StrictMonthly),
		expand.InLocation(loc),
	), nil
}

// Retry returns the materializer retry policy.
func (c *Config) Retry() materialize.RetryConfig {
	m := c.Materialize
	cfg := materialize.DefaultRetryConfig()
	cfg.MaxAttempts = m.RetryAttempts
	cfg.InitialBackoff = time.Duration(m.RetryInitialDelayMs) * time.Millisecond
	cfg.MaxBackoff = time.Duration(m.RetryMaxDelayMs) * time.Millisecond
	if m.RetryMultiplier > 0 {
		cfg.BackoffMultiplier = m.RetryMultiplier
	}
	return cfg
}

// Schedule parses the horizon schedule expression.
func (c *Config) Schedule() (schedule.Schedule, error) {
	s, err := schedule.Cron(c.Horizon.Schedule)
	if err != nil {
		return nil, fmt.Errorf("horizon.schedule: %w", err)
	}
	return s, nil
}

// Plans returns the horizon plans.
func (c *Config) Plans() []horizon.Plan {
	plans := make([]horizon.Plan, len(c.Horizon.Plans))
	for i, p := range c.Horizon.Plans {
		plans[i] = horizon.Plan{
			PatternID:     p.PatternID,
			TemplateJobID: p.TemplateJobID,
			Occurrences:   p.Occurrences,
		}
	}
	return plans
}
