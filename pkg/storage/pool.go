package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// PoolConfig holds connection pool configuration.
type PoolConfig struct {
	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 25
	MaxOpenConns int

	// MaxIdleConns is the maximum number of connections in the idle pool.
	// Default: 10
	MaxIdleConns int

	// ConnMaxLifetime is the maximum amount of time a connection may be reused.
	// Default: 5 minutes
	ConnMaxLifetime time.Duration

	// ConnMaxIdleTime is the maximum amount of time a connection may be idle.
	// Default: 1 minute
	ConnMaxIdleTime time.Duration
}

// DefaultPoolConfig returns defaults suited to a networked database serving
// a handful of concurrent occurrence writers.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 1 * time.Minute,
	}
}

// SQLitePoolConfig returns settings for SQLite files and in-memory databases.
// SQLite allows one writer at a time, so a single connection serializes
// occurrence transactions instead of failing them with SQLITE_BUSY. The
// connection never expires, which keeps in-memory databases alive.
func SQLitePoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}
}

// BulkGenerationPoolConfig returns settings for large generation runs with
// high materializer concurrency.
func BulkGenerationPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    64,
		MaxIdleConns:    32,
		ConnMaxLifetime: 10 * time.Minute,
		ConnMaxIdleTime: 2 * time.Minute,
	}
}

// ErrUnknownPoolPreset is returned by PoolPreset for an unrecognized name.
var ErrUnknownPoolPreset = errors.New("visits: unknown pool preset")

// PoolPreset returns the named pool configuration: "default", "sqlite" or
// "bulk". An empty name reports false with no error, meaning the dialect
// decides.
func PoolPreset(name string) (PoolConfig, bool, error) {
	switch strings.ToLower(name) {
	case "":
		return PoolConfig{}, false, nil
	case "default":
		return DefaultPoolConfig(), true, nil
	case "sqlite":
		return SQLitePoolConfig(), true, nil
	case "bulk":
		return BulkGenerationPoolConfig(), true, nil
	}
	return PoolConfig{}, false, fmt.Errorf("%w: %q", ErrUnknownPoolPreset, name)
}

// PoolOption configures connection pool settings.
type PoolOption interface {
	applyPool(*PoolConfig)
}

type poolOptionFunc func(*PoolConfig)

func (f poolOptionFunc) applyPool(c *PoolConfig) { f(c) }

// WithPoolConfig replaces every pool setting with cfg.
// Later options still override individual fields.
func WithPoolConfig(cfg PoolConfig) PoolOption {
	return poolOptionFunc(func(c *PoolConfig) {
		*c = cfg
	})
}

// MaxOpenConns sets the maximum number of open connections.
// Set to 0 for unlimited.
func MaxOpenConns(n int) PoolOption {
	return poolOptionFunc(func(c *PoolConfig) {
		c.MaxOpenConns = n
	})
}

// MaxIdleConns sets the maximum number of idle connections.
func MaxIdleConns(n int) PoolOption {
	return poolOptionFunc(func(c *PoolConfig) {
		c.MaxIdleConns = n
	})
}

// ConnMaxLifetime sets the maximum connection lifetime. Zero means no limit.
func ConnMaxLifetime(d time.Duration) PoolOption {
	return poolOptionFunc(func(c *PoolConfig) {
		c.ConnMaxLifetime = d
	})
}

// ConnMaxIdleTime sets the maximum idle time for connections. Zero means no limit.
func ConnMaxIdleTime(d time.Duration) PoolOption {
	return poolOptionFunc(func(c *PoolConfig) {
		c.ConnMaxIdleTime = d
	})
}

// ConfigurePool applies pool configuration to a GORM database connection.
// SQLite handles start from SQLitePoolConfig, everything else from
// DefaultPoolConfig.
func ConfigurePool(db *gorm.DB, opts ...PoolOption) error {
	config := DefaultPoolConfig()
	if isSQLite(db) {
		config = SQLitePoolConfig()
	}
	for _, opt := range opts {
		opt.applyPool(&config)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying *sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	return nil
}

func isSQLite(db *gorm.DB) bool {
	return db != nil && db.Dialector != nil && db.Dialector.Name() == "sqlite"
}

// NewGormStorageWithPool creates a GORM-backed storage with connection
// pooling configured.
//
// Example:
//
//	store, err := NewGormStorageWithPool(db, []PoolOption{MaxOpenConns(50)},
//	    WithIDAllocator(core.UUIDAllocator{}),
//	)
func NewGormStorageWithPool(db *gorm.DB, poolOpts []PoolOption, opts ...Option) (*GormStorage, error) {
	if err := ConfigurePool(db, poolOpts...); err != nil {
		return nil, err
	}
	return NewGormStorage(db, opts...), nil
}
