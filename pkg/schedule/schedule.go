package schedule

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Schedule determines when the horizon runner tops up materialized jobs.
type Schedule interface {
	// Next returns the first activation strictly after from.
	Next(from time.Time) time.Time
}

// everySchedule tops up at a fixed interval from the previous run.
type everySchedule struct {
	interval time.Duration
}

// Every tops up the horizon every d, counted from the previous run. It suits
// short horizons and tests. A non-positive d tops up once a day.
func Every(d time.Duration) Schedule {
	if d <= 0 {
		d = 24 * time.Hour
	}
	return &everySchedule{interval: d}
}

func (s *everySchedule) Next(from time.Time) time.Time {
	return from.Add(s.interval)
}

// dailySchedule tops up once a day at a wall-clock time.
type dailySchedule struct {
	hour   int
	minute int
	loc    *time.Location
}

// Daily tops up once a day at hour:minute UTC. One run a day is enough to
// keep a horizon of daily visits full, since at most one occurrence falls
// into the past between runs.
func Daily(hour, minute int) Schedule {
	return DailyIn(hour, minute, time.UTC)
}

// DailyIn is Daily with the wall clock read in loc. Pass the expander's
// location so the run lands just after local midnight rolls the date.
func DailyIn(hour, minute int, loc *time.Location) Schedule {
	if loc == nil {
		loc = time.UTC
	}
	return &dailySchedule{hour: hour, minute: minute, loc: loc}
}

func (s *dailySchedule) Next(from time.Time) time.Time {
	from = from.In(s.loc)
	next := time.Date(from.Year(), from.Month(), from.Day(), s.hour, s.minute, 0, 0, s.loc)
	if !next.After(from) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// weeklySchedule tops up once a week on a given weekday.
type weeklySchedule struct {
	day    time.Weekday
	hour   int
	minute int
	loc    *time.Location
}

// Weekly tops up once a week on day at hour:minute UTC. Plans on a weekly
// schedule need at least a week of occurrences ahead, or the horizon runs
// dry between runs.
func Weekly(day time.Weekday, hour, minute int) Schedule {
	return WeeklyIn(day, hour, minute, time.UTC)
}

// WeeklyIn is Weekly with the wall clock read in loc.
func WeeklyIn(day time.Weekday, hour, minute int, loc *time.Location) Schedule {
	if loc == nil {
		loc = time.UTC
	}
	return &weeklySchedule{day: day, hour: hour, minute: minute, loc: loc}
}

func (s *weeklySchedule) Next(from time.Time) time.Time {
	from = from.In(s.loc)

	ahead := (int(s.day) - int(from.Weekday()) + 7) % 7
	next := time.Date(from.Year(), from.Month(), from.Day()+ahead, s.hour, s.minute, 0, 0, s.loc)
	if !next.After(from) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

// cronSchedule wraps a cron expression.
type cronSchedule struct {
	expr     string
	schedule cron.Schedule
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Cron creates a schedule from a five-field cron expression or a descriptor
// such as "@daily" or "@every 6h". This is the form horizon.schedule takes in
// the config file.
func Cron(expr string) (Schedule, error) {
	schedule, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return &cronSchedule{expr: expr, schedule: schedule}, nil
}

// MustCron is like Cron but panics on an invalid expression.
func MustCron(expr string) Schedule {
	s, err := Cron(expr)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *cronSchedule) Next(from time.Time) time.Time {
	return s.schedule.Next(from)
}

func (s *cronSchedule) String() string {
	return s.expr
}
