package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jdziat/simple-recurring-visits/internal/config"
	"github.com/jdziat/simple-recurring-visits/internal/logger"
	"github.com/jdziat/simple-recurring-visits/pkg/core"
	"github.com/jdziat/simple-recurring-visits/pkg/materialize"
	"github.com/jdziat/simple-recurring-visits/pkg/storage"
)

// app carries the state shared by subcommands once the root has loaded the
// configuration.
type app struct {
	configPath string

	cfg      *config.Config
	log      *slog.Logger
	closeLog func() error
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "visits",
		Short: "Recurring service visit scheduler",
		Long: `visits expands recurring patterns into dated service visits and
materializes them as jobs copied from a template job.`,
		Version:           Version,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.teardown()
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", os.Getenv("VISITS_CONFIG"), "path to the TOML config file")

	cmd.AddCommand(
		newVersionCmd(),
		newMigrateCmd(a),
		newPatternCmd(a),
		newTemplateCmd(a),
		newPreviewCmd(a),
		newGenerateCmd(a),
		newServeCmd(a),
	)
	return cmd
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}

	log, closeLog, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = log.With("command", cmd.Name())
	a.closeLog = closeLog
	return nil
}

func (a *app) teardown() error {
	if a.closeLog == nil {
		return nil
	}
	return a.closeLog()
}

// openStore opens the configured database. The returned function closes it.
func (a *app) openStore() (*storage.GormStorage, func(), error) {
	db, err := gorm.Open(sqlite.Open(a.cfg.Database.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	store, err := storage.NewGormStorageWithPool(db, a.cfg.PoolOptions())
	if err != nil {
		return nil, nil, err
	}

	closeFn := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return store, closeFn, nil
}

// materializer builds a Materializer from the configuration.
func (a *app) materializer(store core.Store, opts ...materialize.Option) (*materialize.Materializer, error) {
	exp, err := a.cfg.Expander()
	if err != nil {
		return nil, err
	}

	base := []materialize.Option{
		materialize.WithExpander(exp),
		materialize.Concurrency(a.cfg.Materialize.Concurrency),
		materialize.WithRetry(a.cfg.Retry()),
		materialize.WithLogger(a.log),
	}
	return materialize.New(store, append(base, opts...)...), nil
}

// parseDateFlag parses an optional YYYY-MM-DD flag. Empty yields the zero time.
func parseDateFlag(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	d, err := core.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: expected YYYY-MM-DD: %w", name, err)
	}
	return d, nil
}
