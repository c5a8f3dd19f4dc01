package horizon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jdziat/simple-recurring-visits/pkg/core"
	"github.com/jdziat/simple-recurring-visits/pkg/limits"
	"github.com/jdziat/simple-recurring-visits/pkg/materialize"
	"github.com/jdziat/simple-recurring-visits/pkg/schedule"
)

// Plan keeps a pattern materialized ahead of time.
type Plan struct {
	PatternID     string
	TemplateJobID string

	// Occurrences is how many jobs dated today or later the runner keeps
	// in place for the pattern. Zero selects limits.DefaultOccurrences.
	Occurrences int
}

// Generator creates jobs for a request. *materialize.Materializer satisfies it.
type Generator interface {
	Generate(ctx context.Context, req materialize.Request) ([]string, error)
}

// Store reads patterns and the jobs already materialized from them.
// *storage.GormStorage satisfies it.
type Store interface {
	core.PatternReader
	core.OccurrenceIndex
}

// Result reports one plan's outcome in a run.
type Result struct {
	Plan      Plan
	Reference time.Time
	Existing  int
	JobIDs    []string
	Err       error
}

// Runner tops up every plan each time its schedule fires.
type Runner struct {
	gen      Generator
	store    Store
	schedule schedule.Schedule
	plans    []Plan

	logger     *slog.Logger
	now        func() time.Time
	loc        *time.Location
	runOnStart bool
	onResult   []func(Result)

	wg sync.WaitGroup
}

// Option configures a Runner.
type Option interface {
	apply(*Runner)
}

type optionFunc func(*Runner)

func (f optionFunc) apply(r *Runner) { f(r) }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	})
}

// WithClock sets the source of the current time.
func WithClock(now func() time.Time) Option {
	return optionFunc(func(r *Runner) {
		if now != nil {
			r.now = now
		}
	})
}

// InLocation sets the time zone that decides which calendar day "today" is.
// Use the expander's location so both agree on dates. Default: UTC
func InLocation(loc *time.Location) Option {
	return optionFunc(func(r *Runner) {
		if loc != nil {
			r.loc = loc
		}
	})
}

// RunOnStart makes Start run every plan once before waiting for the schedule.
func RunOnStart(enabled bool) Option {
	return optionFunc(func(r *Runner) {
		r.runOnStart = enabled
	})
}

// OnResult registers a callback invoked with every plan result.
func OnResult(fn func(Result)) Option {
	return optionFunc(func(r *Runner) {
		if fn != nil {
			r.onResult = append(r.onResult, fn)
		}
	})
}

// New creates a Runner for plans.
func New(gen Generator, store Store, sched schedule.Schedule, plans []Plan, opts ...Option) *Runner {
	r := &Runner{
		gen:      gen,
		store:    store,
		schedule: sched,
		plans:    append([]Plan(nil), plans...),
		logger:   slog.Default(),
		now:      time.Now,
		loc:      time.UTC,
	}
	for _, opt := range opts {
		opt.apply(r)
	}
	return r
}

// Start runs plans on the schedule. Blocks until ctx is cancelled.
func (r *Runner) Start(ctx context.Context) error {
	r.wg.Add(1)
	defer r.wg.Done()

	if r.runOnStart {
		r.RunOnce(ctx)
	}

	for {
		now := r.now()
		next := r.schedule.Next(now)
		timer := time.NewTimer(next.Sub(now))

		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			r.logger.Debug("horizon run", "scheduled_for", next)
			r.RunOnce(ctx)
		}
	}
}

// Wait blocks until Start has returned.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// RunOnce tops up every plan. A failing plan does not stop the others.
func (r *Runner) RunOnce(ctx context.Context) []Result {
	results := make([]Result, 0, len(r.plans))
	for _, plan := range r.plans {
		if ctx.Err() != nil {
			break
		}
		res := r.topUp(ctx, plan)
		if res.Err != nil {
			r.logger.Error("horizon plan failed",
				"pattern_id", plan.PatternID,
				"created", len(res.JobIDs),
				"error", res.Err)
		} else if len(res.JobIDs) > 0 {
			r.logger.Info("horizon extended",
				"pattern_id", plan.PatternID,
				"created", len(res.JobIDs),
				"from", res.Reference.Format(core.DateLayout))
		}
		for _, fn := range r.onResult {
			fn(res)
		}
		results = append(results, res)
	}
	return results
}

// topUp generates the occurrences a plan is missing. It resumes after the
// latest materialized occurrence on the pattern's own rhythm, so existing
// dates are not generated twice and intervals stay intact across runs.
// Patterns with EndAfterOccurrences stop once that many jobs exist.
func (r *Runner) topUp(ctx context.Context, plan Plan) Result {
	today := core.DateOf(r.now().In(r.loc))
	res := Result{Plan: plan, Reference: today}

	p, err := r.store.GetPattern(ctx, plan.PatternID)
	if errors.Is(err, core.ErrNotFound) {
		res.Err = fmt.Errorf("%w: %s: %w", core.ErrPatternNotFound, plan.PatternID, err)
		return res
	}
	if err != nil {
		res.Err = fmt.Errorf("load pattern %s: %w", plan.PatternID, err)
		return res
	}

	jobs, err := r.store.ListJobsByPattern(ctx, plan.PatternID)
	if err != nil {
		res.Err = fmt.Errorf("list jobs for pattern %s: %w", plan.PatternID, err)
		return res
	}
	for _, j := range jobs {
		if !core.DateOf(j.Date).Before(today) {
			res.Existing++
		}
	}

	want := plan.Occurrences
	if want <= 0 {
		want = limits.DefaultOccurrences
	}
	missing := want - res.Existing
	if p.EndAfterOccurrences != nil {
		missing = min(missing, *p.EndAfterOccurrences-len(jobs))
	}
	if missing <= 0 {
		return res
	}

	latest, err := r.store.LatestOccurrence(ctx, plan.PatternID)
	if err != nil {
		res.Err = fmt.Errorf("latest occurrence for pattern %s: %w", plan.PatternID, err)
		return res
	}
	res.Reference = resumeFrom(p, latest, today)

	ids, err := r.gen.Generate(ctx, materialize.Request{
		PatternID:     plan.PatternID,
		TemplateJobID: plan.TemplateJobID,
		Reference:     r.midnight(res.Reference),
		Occurrences:   missing,
	})
	res.JobIDs = ids
	res.Err = err
	return res
}

// midnight returns the start of date's calendar day in the runner's location.
func (r *Runner) midnight(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, r.loc)
}

// resumeFrom returns the first day a top-up may start on: the earliest day
// on or after today that continues p's rhythm past latest. Custom patterns
// resume a whole number of intervals after latest. Biweekly patterns resume
// inside latest's week or in a week an even number of weeks after it, since
// expansion counts its weeks from the start day.
func resumeFrom(p *core.Pattern, latest *time.Time, today time.Time) time.Time {
	if latest == nil {
		return today
	}
	last := core.DateOf(*latest)
	next := last.AddDate(0, 0, 1)

	switch p.Frequency {
	case core.FrequencyCustom:
		step := p.Interval()
		next = last.AddDate(0, 0, step)
		if next.Before(today) {
			behind := daysBetween(next, today)
			next = next.AddDate(0, 0, (behind+step-1)/step*step)
		}
		return next

	case core.FrequencyBiweekly:
		if next.Before(today) {
			next = today
		}
		weekStart := last.AddDate(0, 0, -int(last.Weekday()))
		offset := daysBetween(weekStart, next)
		if offset%14 >= 7 {
			next = weekStart.AddDate(0, 0, (offset/14+1)*14)
		}
		return next
	}

	if next.Before(today) {
		return today
	}
	return next
}

// daysBetween counts whole days from a to b. Both are midnight UTC dates.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
