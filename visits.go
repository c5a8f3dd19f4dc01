// Package visits materializes recurring service visits.
//
// This is the main package users should import. It re-exports the public
// types from the pkg/ packages for a clean API surface.
//
// Basic usage:
//
//	// Create storage and materializer
//	db, _ := gorm.Open(sqlite.Open("visits.db"), &gorm.Config{})
//	store := visits.NewGormStorage(db)
//	store.Migrate(context.Background())
//	m := visits.New(store)
//
//	// Define a pattern
//	p := &visits.Pattern{
//	    Frequency:  visits.FrequencyWeekly,
//	    DaysOfWeek: visits.Weekdays{time.Monday, time.Thursday},
//	    StartDate:  visits.DateOf(time.Now()),
//	}
//	store.CreatePattern(ctx, p)
//
//	// Preview, then create jobs copied from a template job
//	dates, _ := m.Preview(ctx, p.ID, time.Time{}, 10)
//	ids, err := m.Generate(ctx, visits.Request{PatternID: p.ID, TemplateJobID: templateID})
package visits

import (
	"time"

	"gorm.io/gorm"

	"github.com/jdziat/simple-recurring-visits/pkg/core"
	"github.com/jdziat/simple-recurring-visits/pkg/expand"
	"github.com/jdziat/simple-recurring-visits/pkg/horizon"
	"github.com/jdziat/simple-recurring-visits/pkg/limits"
	"github.com/jdziat/simple-recurring-visits/pkg/materialize"
	"github.com/jdziat/simple-recurring-visits/pkg/schedule"
	"github.com/jdziat/simple-recurring-visits/pkg/storage"
)

type (
	// Pattern is a recurrence definition.
	Pattern = core.Pattern

	// Frequency is the recurrence cadence of a pattern.
	Frequency = core.Frequency

	// Weekdays is a set of weekdays.
	Weekdays = core.Weekdays

	// Job is one scheduled service visit.
	Job = core.Job

	// JobGroup is a named set of service points within a job.
	JobGroup = core.JobGroup

	// ServicePoint is one plant to service during a visit.
	ServicePoint = core.ServicePoint

	// JobStatus represents the lifecycle state of a job.
	JobStatus = core.JobStatus

	// Template is the job shape copied into each occurrence.
	Template      = core.Template
	TemplateGroup = core.TemplateGroup
	TemplatePoint = core.TemplatePoint

	// OccurrenceDate is one previewed occurrence.
	OccurrenceDate = core.OccurrenceDate

	// Store is the persistence the materializer needs.
	Store = core.Store

	// Event is the interface for all materialization events.
	Event = core.Event

	// OccurrenceMaterialized is emitted after an occurrence commits.
	OccurrenceMaterialized = core.OccurrenceMaterialized

	// OccurrenceFailed is emitted when an occurrence is abandoned.
	OccurrenceFailed = core.OccurrenceFailed

	// OccurrenceRetrying is emitted before an occurrence is retried.
	OccurrenceRetrying = core.OccurrenceRetrying

	// OccurrenceError reports the occurrence a Generate failure belongs to.
	OccurrenceError = core.OccurrenceError

	// StorageError wraps a failed storage operation.
	StorageError = core.StorageError

	// Expander computes occurrence dates.
	Expander = expand.Expander

	// Materializer creates jobs for pattern occurrences.
	Materializer = materialize.Materializer

	// Request describes one Generate call.
	Request = materialize.Request

	// Option configures a Materializer.
	Option = materialize.Option

	// Hooks observes occurrence lifecycle events.
	Hooks = materialize.Hooks

	// RetryConfig controls occurrence retries.
	RetryConfig = materialize.RetryConfig

	// DefaultTemplatePolicy serves requests without a template.
	DefaultTemplatePolicy = materialize.DefaultTemplatePolicy

	// GormStorage implements Store using GORM.
	GormStorage = storage.GormStorage

	// Schedule defines when the horizon runner fires next.
	Schedule = schedule.Schedule

	// HorizonRunner keeps patterns materialized ahead of time.
	HorizonRunner = horizon.Runner

	// HorizonPlan keeps one pattern materialized ahead of time.
	HorizonPlan = horizon.Plan
)

// Frequency constants
const (
	FrequencyDaily    = core.FrequencyDaily
	FrequencyWeekly   = core.FrequencyWeekly
	FrequencyBiweekly = core.FrequencyBiweekly
	FrequencyMonthly  = core.FrequencyMonthly
	FrequencyCustom   = core.FrequencyCustom
)

// Status constants
const (
	StatusAssigned   = core.StatusAssigned
	StatusInProgress = core.StatusInProgress
	StatusCompleted  = core.StatusCompleted
)

// Limits
const (
	DefaultOccurrences = limits.DefaultOccurrences
	MaxOccurrences     = limits.MaxOccurrences
	MaxConcurrency     = limits.MaxConcurrency
)

// Error variables
var (
	ErrNotFound              = core.ErrNotFound
	ErrPatternNotFound       = core.ErrPatternNotFound
	ErrTemplateNotFound      = core.ErrTemplateNotFound
	ErrTemplateRequired      = core.ErrTemplateRequired
	ErrTemplateIncomplete    = core.ErrTemplateIncomplete
	ErrInvalidPattern        = core.ErrInvalidPattern
	ErrExpansionGuardTripped = core.ErrExpansionGuardTripped
	ErrPatternInUse          = core.ErrPatternInUse
)

// Materializer options
var (
	Concurrency         = materialize.Concurrency
	WithRetry           = materialize.WithRetry
	WithDefaultTemplate = materialize.WithDefaultTemplate
	WithExpander        = materialize.WithExpander
	WithClock           = materialize.WithClock
	WithLogger          = materialize.WithLogger
	WithHooks           = materialize.WithHooks
	StaticTemplate      = materialize.StaticTemplate
	DefaultRetryConfig  = materialize.DefaultRetryConfig
	NoRetryConfig       = materialize.NoRetryConfig
)

// New creates a Materializer over the given store.
func New(s Store, opts ...Option) *Materializer {
	return materialize.New(s, opts...)
}

// NewGormStorage creates a new GORM-backed storage.
func NewGormStorage(db *gorm.DB) *GormStorage {
	return storage.NewGormStorage(db)
}

// NewExpander creates a date expander with default settings.
func NewExpander() *Expander {
	return expand.New()
}

// DateOf returns the calendar date of t as midnight UTC.
func DateOf(t time.Time) time.Time {
	return core.DateOf(t)
}

// NoRetry wraps an error to indicate it should not be retried.
func NoRetry(err error) error {
	return core.NoRetry(err)
}

// Every returns a schedule that fires at fixed intervals.
func Every(d time.Duration) Schedule {
	return schedule.Every(d)
}

// Daily returns a schedule that fires daily at the given UTC time.
func Daily(hour, minute int) Schedule {
	return schedule.Daily(hour, minute)
}

// Weekly returns a schedule that fires weekly on the given day and UTC time.
func Weekly(day time.Weekday, hour, minute int) Schedule {
	return schedule.Weekly(day, hour, minute)
}

// Cron parses a cron expression into a schedule.
func Cron(expr string) (Schedule, error) {
	return schedule.Cron(expr)
}
