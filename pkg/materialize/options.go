package materialize

import (
	"log/slog"
	"time"

	"github.com/jdziat/simple-recurring-visits/pkg/expand"
	"github.com/jdziat/simple-recurring-visits/pkg/limits"
)

// Config holds materializer configuration.
type Config struct {
	// Concurrency is the number of occurrences written in parallel.
	// Default: 1
	Concurrency int

	// Retry controls re-running an occurrence whose unit of work failed
	// with a storage error.
	Retry RetryConfig

	// DefaultTemplate serves requests without a template. Nil means such
	// requests fail with core.ErrTemplateRequired.
	DefaultTemplate DefaultTemplatePolicy

	// Expander computes occurrence dates.
	Expander *expand.Expander

	// Now supplies the reference instant for requests that leave it zero.
	Now func() time.Time

	Logger *slog.Logger
	Hooks  []Hooks
}

// Option configures a Materializer.
type Option interface {
	apply(*Config)
}

type optionFunc func(*Config)

func (f optionFunc) apply(c *Config) { f(c) }

// Concurrency sets the number of parallel occurrence writers.
// Values are clamped to [1, MaxConcurrency].
func Concurrency(n int) Option {
	return optionFunc(func(c *Config) {
		c.Concurrency = limits.ClampConcurrency(n)
	})
}

// WithRetry sets the retry policy for occurrence units of work.
func WithRetry(cfg RetryConfig) Option {
	return optionFunc(func(c *Config) {
		c.Retry = cfg
	})
}

// WithDefaultTemplate installs the policy used for template-less requests.
func WithDefaultTemplate(p DefaultTemplatePolicy) Option {
	return optionFunc(func(c *Config) {
		c.DefaultTemplate = p
	})
}

// WithExpander sets the date expander.
func WithExpander(e *expand.Expander) Option {
	return optionFunc(func(c *Config) {
		if e != nil {
			c.Expander = e
		}
	})
}

// WithClock sets the source of the default reference instant.
func WithClock(now func() time.Time) Option {
	return optionFunc(func(c *Config) {
		if now != nil {
			c.Now = now
		}
	})
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	})
}

// WithHooks registers lifecycle hooks. It may be given more than once.
func WithHooks(h Hooks) Option {
	return optionFunc(func(c *Config) {
		if h != nil {
			c.Hooks = append(c.Hooks, h)
		}
	})
}
