package materialize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jdziat/simple-recurring-visits/pkg/core"
	"github.com/jdziat/simple-recurring-visits/pkg/expand"
	"github.com/jdziat/simple-recurring-visits/pkg/limits"
)

// Materializer turns a pattern and a template into persisted jobs.
type Materializer struct {
	store  core.Store
	config Config
	logger *slog.Logger

	mu        sync.RWMutex
	eventSubs []chan core.Event
}

// Request describes one generation run.
type Request struct {
	PatternID string

	// TemplateJobID names a stored job whose shape is copied. When empty,
	// Template is used, then the materializer's default template policy.
	TemplateJobID string
	Template      *core.Template

	// Reference is the earliest instant to generate for. Zero means now.
	Reference time.Time

	// Occurrences is the number of dates to generate. Zero selects
	// limits.DefaultOccurrences; larger values are capped at
	// limits.MaxOccurrences.
	Occurrences int
}

// New creates a Materializer backed by store.
func New(store core.Store, opts ...Option) *Materializer {
	cfg := Config{
		Concurrency: 1,
		Retry:       DefaultRetryConfig(),
		Expander:    expand.New(),
		Now:         time.Now,
		Logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	return &Materializer{
		store:  store,
		config: cfg,
		logger: cfg.Logger,
	}
}

// Config returns the effective configuration.
func (m *Materializer) Config() Config {
	return m.config
}

// Preview returns the dates a Generate call with the same arguments would
// write, paired with weekday names. It writes nothing.
func (m *Materializer) Preview(ctx context.Context, patternID string, reference time.Time, occurrences int) ([]core.OccurrenceDate, error) {
	p, err := m.loadPattern(ctx, patternID)
	if err != nil {
		return nil, err
	}
	return m.config.Expander.Preview(p, m.reference(reference), occurrenceCount(occurrences))
}

// Generate creates one job per occurrence date of the request's pattern,
// each with fresh copies of the template's groups and service points.
//
// Every occurrence is written in its own unit of work, so an occurrence is
// either fully present or absent. On failure Generate stops starting new
// occurrences and returns the IDs of those already committed, in date
// order, together with the error. The same holds for cancellation:
// occurrences committed before ctx was cancelled remain as standalone jobs.
func (m *Materializer) Generate(ctx context.Context, req Request) ([]string, error) {
	p, err := m.loadPattern(ctx, req.PatternID)
	if err != nil {
		return nil, err
	}

	tpl, err := m.resolveTemplate(ctx, p, req)
	if err != nil {
		return nil, err
	}

	dates, err := m.config.Expander.Expand(p, m.reference(req.Reference), occurrenceCount(req.Occurrences))
	if err != nil {
		return nil, err
	}
	if len(dates) == 0 {
		m.logger.Debug("no occurrences to generate", "pattern_id", p.ID)
		return []string{}, nil
	}

	ids, err := m.run(ctx, p, tpl, dates)
	if err != nil {
		m.logger.Warn("generation incomplete",
			"pattern_id", p.ID,
			"requested", len(dates),
			"created", len(ids),
			"error", limits.SanitizeErrorMessage(err.Error()))
		return ids, err
	}

	m.logger.Info("generated occurrences",
		"pattern_id", p.ID,
		"template_job_id", tpl.JobID,
		"created", len(ids),
		"first", dates[0].Format(core.DateLayout),
		"last", dates[len(dates)-1].Format(core.DateLayout))
	return ids, nil
}

func (m *Materializer) loadPattern(ctx context.Context, id string) (*core.Pattern, error) {
	p, err := m.store.GetPattern(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrPatternNotFound, id, err)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (m *Materializer) reference(t time.Time) time.Time {
	if t.IsZero() {
		return m.config.Now()
	}
	return t
}

func occurrenceCount(n int) int {
	if n == 0 {
		return limits.DefaultOccurrences
	}
	return limits.ClampOccurrences(n)
}

// run writes the occurrences on a bounded pool of workers. Results are kept
// by index so the returned IDs follow date order whatever the completion
// order was.
func (m *Materializer) run(ctx context.Context, p *core.Pattern, tpl *core.Template, dates []time.Time) ([]string, error) {
	results := make([]string, len(dates))
	failures := make([]error, len(dates))

	var (
		wg      sync.WaitGroup
		stopped atomic.Bool
	)
	work := make(chan int)

	workers := min(limits.ClampConcurrency(m.config.Concurrency), len(dates))
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				if stopped.Load() {
					continue
				}
				id, err := m.occurrence(ctx, p, tpl, dates[i])
				if err != nil {
					failures[i] = &core.OccurrenceError{Index: i, Date: dates[i], Err: err}
					stopped.Store(true)
					continue
				}
				results[i] = id
			}
		}()
	}

	dispatched := 0
dispatch:
	for i := range dates {
		if stopped.Load() || ctx.Err() != nil {
			break
		}
		select {
		case work <- i:
			dispatched++
		case <-ctx.Done():
			break dispatch
		}
	}
	close(work)
	wg.Wait()

	ids := make([]string, 0, len(dates))
	for _, id := range results {
		if id != "" {
			ids = append(ids, id)
		}
	}

	var errs []error
	for _, err := range failures {
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 && dispatched < len(dates) && ctx.Err() != nil {
		errs = append(errs, ctx.Err())
	}
	return ids, errors.Join(errs...)
}

// occurrence writes a single occurrence, retrying transient storage failures.
func (m *Materializer) occurrence(ctx context.Context, p *core.Pattern, tpl *core.Template, date time.Time) (string, error) {
	start := time.Now()

	var (
		job    *core.Job
		groups int
		points int
	)
	err := retryWithBackoff(ctx, m.config.Retry, func() error {
		var err error
		job, groups, points, err = m.write(ctx, p.ID, tpl, date)
		return err
	}, func(attempt int, err error) {
		m.logger.Warn("retrying occurrence",
			"pattern_id", p.ID,
			"date", date.Format(core.DateLayout),
			"attempt", attempt,
			"error", err)
		m.emit(ctx, &core.OccurrenceRetrying{
			PatternID: p.ID,
			Date:      date,
			Attempt:   attempt,
			Error:     err,
			Timestamp: time.Now(),
		})
	})
	if err != nil {
		m.logger.Error("occurrence failed",
			"pattern_id", p.ID,
			"date", date.Format(core.DateLayout),
			"error", limits.SanitizeErrorMessage(err.Error()))
		m.emit(ctx, &core.OccurrenceFailed{
			PatternID: p.ID,
			Date:      date,
			Error:     err,
			Timestamp: time.Now(),
		})
		return "", err
	}

	m.logger.Debug("occurrence materialized",
		"pattern_id", p.ID,
		"job_id", job.ID,
		"date", date.Format(core.DateLayout))
	m.emit(ctx, &core.OccurrenceMaterialized{
		PatternID: p.ID,
		Job:       job,
		Groups:    groups,
		Points:    points,
		Duration:  time.Since(start),
		Timestamp: time.Now(),
	})
	return job.ID, nil
}

// write creates the job and then its groups and points inside one unit of
// work. Every record is built fresh from the template's values.
func (m *Materializer) write(ctx context.Context, patternID string, tpl *core.Template, date time.Time) (*core.Job, int, int, error) {
	var (
		job    *core.Job
		groups int
		points int
	)
	err := m.store.WithinTx(ctx, func(ctx context.Context, w core.JobWriter) error {
		pid := patternID
		job = &core.Job{
			CustomerID:         tpl.CustomerID,
			AssignedToID:       tpl.AssignedToID,
			PlantCount:         tpl.PlantCount,
			Date:               core.DateOf(date),
			Status:             core.StatusAssigned,
			IsRecurring:        true,
			RecurringPatternID: &pid,
		}
		if err := w.CreateJob(ctx, job); err != nil {
			return err
		}

		for gi, g := range tpl.Groups {
			group := &core.JobGroup{JobID: job.ID, Name: g.Name, Position: gi}
			if err := w.CreateGroup(ctx, group); err != nil {
				return err
			}
			groups++

			for pi, tp := range g.Points {
				groupID := group.ID
				if err := w.CreateServicePoint(ctx, newPoint(job.ID, &groupID, tp, pi)); err != nil {
					return err
				}
				points++
			}
		}

		for pi, tp := range tpl.Ungrouped {
			if err := w.CreateServicePoint(ctx, newPoint(job.ID, nil, tp, pi)); err != nil {
				return err
			}
			points++
		}
		return nil
	})
	if err != nil {
		return nil, 0, 0, err
	}
	return job, groups, points, nil
}

func newPoint(jobID string, groupID *string, tp core.TemplatePoint, position int) *core.ServicePoint {
	return &core.ServicePoint{
		JobID:     jobID,
		GroupID:   groupID,
		PlantType: tp.PlantType,
		PotType:   tp.PotType,
		Status:    core.PointPending,
		Position:  position,
	}
}
