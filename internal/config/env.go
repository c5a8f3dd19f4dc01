package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment overrides. Only scalar settings are overridable; horizon plans
// come from the file.
const (
	EnvDatabaseDSN     = "VISITS_DATABASE_DSN"
	EnvDatabasePreset  = "VISITS_DATABASE_PRESET"
	EnvTimeZone        = "VISITS_TIME_ZONE"
	EnvConcurrency     = "VISITS_CONCURRENCY"
	EnvRetryAttempts   = "VISITS_RETRY_ATTEMPTS"
	EnvHorizonSchedule = "VISITS_HORIZON_SCHEDULE"
	EnvLogLevel        = "VISITS_LOG_LEVEL"
	EnvLogFormat       = "VISITS_LOG_FORMAT"
	EnvLogOutput       = "VISITS_LOG_OUTPUT"
	EnvMetricsListen   = "VISITS_METRICS_LISTEN"
)

func applyEnv(cfg *Config) error {
	setString(&cfg.Database.DSN, EnvDatabaseDSN)
	setString(&cfg.Database.Preset, EnvDatabasePreset)
	setString(&cfg.Expand.TimeZone, EnvTimeZone)
	setString(&cfg.Horizon.Schedule, EnvHorizonSchedule)
	setString(&cfg.Logging.Level, EnvLogLevel)
	setString(&cfg.Logging.Format, EnvLogFormat)
	setString(&cfg.Logging.Output, EnvLogOutput)
	setString(&cfg.Metrics.Listen, EnvMetricsListen)

	if err := setInt(&cfg.Materialize.Concurrency, EnvConcurrency); err != nil {
		return err
	}
	return setInt(&cfg.Materialize.RetryAttempts, EnvRetryAttempts)
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = strings.TrimSpace(v)
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}
