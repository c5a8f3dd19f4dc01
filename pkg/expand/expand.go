package expand

import (
	"fmt"
	"time"

	"github.com/jdziat/simple-recurring-visits/pkg/core"
)

// Expander turns recurrence patterns into occurrence dates.
// It holds only configuration and is safe for concurrent use.
type Expander struct {
	cfg Config
}

// New creates an Expander with DefaultConfig adjusted by opts.
func New(opts ...Option) *Expander {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt.apply(&cfg)
	}
	return &Expander{cfg: cfg.normalized()}
}

// NewWithConfig creates an Expander from a complete Config.
func NewWithConfig(cfg Config) *Expander {
	return &Expander{cfg: cfg.normalized()}
}

// Config returns the effective configuration.
func (e *Expander) Config() Config {
	return e.cfg
}

// Expand returns up to occurrences dates on which p recurs, starting no
// earlier than the later of p.StartDate and the calendar day of reference.
//
// The result is strictly increasing, never passes p.EndDate, and is cut at
// p.EndAfterOccurrences. An end date before the first candidate yields an
// empty result with a nil error. A weekday scan that finds nothing within
// its guard window fails with core.ErrExpansionGuardTripped.
func (e *Expander) Expand(p *core.Pattern, reference time.Time, occurrences int) ([]time.Time, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil pattern", core.ErrInvalidPattern)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if e.cfg.StrictMonthly && p.Frequency == core.FrequencyMonthly && len(p.DaysOfWeek) > 0 {
		return nil, fmt.Errorf("%w: monthly patterns recur on a day of month, not on days of week", core.ErrInvalidPattern)
	}

	limit := occurrences
	if p.EndAfterOccurrences != nil && *p.EndAfterOccurrences < limit {
		limit = *p.EndAfterOccurrences
	}
	if limit <= 0 {
		return []time.Time{}, nil
	}

	start := core.DateOf(p.StartDate)
	base := core.DateOf(reference.In(e.cfg.Location))
	if start.After(base) {
		base = start
	}

	w := &walk{limit: limit, dates: make([]time.Time, 0, limit)}
	if p.EndDate != nil {
		end := core.DateOf(*p.EndDate)
		w.end = &end
	}

	switch p.Frequency {
	case core.FrequencyDaily:
		w.every(base, 1)
	case core.FrequencyCustom:
		w.every(base, p.Interval())
	case core.FrequencyWeekly:
		if err := w.weekdays(base, p.DaysOfWeek.Normalize(), e.cfg.WeeklyGuardDays, false); err != nil {
			return nil, err
		}
	case core.FrequencyBiweekly:
		if err := w.weekdays(base, p.DaysOfWeek.Normalize(), e.cfg.BiweeklyGuardDays, true); err != nil {
			return nil, err
		}
	case core.FrequencyMonthly:
		w.monthly(base, start.Day())
	}

	return w.dates, nil
}

// Preview expands p and pairs every date with its weekday name.
func (e *Expander) Preview(p *core.Pattern, reference time.Time, occurrences int) ([]core.OccurrenceDate, error) {
	dates, err := e.Expand(p, reference, occurrences)
	if err != nil {
		return nil, err
	}
	out := make([]core.OccurrenceDate, len(dates))
	for i, d := range dates {
		out[i] = core.OccurrenceDate{Date: d, WeekdayName: d.Weekday().String()}
	}
	return out, nil
}

// walk accumulates dates until the limit or the end date is reached.
type walk struct {
	limit int
	end   *time.Time
	dates []time.Time
}

func (w *walk) full() bool {
	return len(w.dates) >= w.limit
}

func (w *walk) pastEnd(d time.Time) bool {
	return w.end != nil && d.After(*w.end)
}

func (w *walk) every(base time.Time, days int) {
	for cur := base; !w.full(); cur = cur.AddDate(0, 0, days) {
		if w.pastEnd(cur) {
			return
		}
		w.dates = append(w.dates, cur)
	}
}

// weekdays walks one day at a time. For biweekly scans a week counter
// advances whenever the walk lands on a Sunday and only even weeks emit.
func (w *walk) weekdays(base time.Time, days core.Weekdays, guard int, biweekly bool) error {
	cur := base
	week := 0
	scanned := 0
	for !w.full() {
		if w.pastEnd(cur) {
			return nil
		}
		if days.Contains(cur.Weekday()) && (!biweekly || week%2 == 0) {
			w.dates = append(w.dates, cur)
		}

		cur = cur.AddDate(0, 0, 1)
		scanned++
		if cur.Weekday() == time.Sunday {
			week++
		}

		if len(w.dates) == 0 && scanned >= guard {
			return fmt.Errorf("%w: scanned %d days from %s for %v",
				core.ErrExpansionGuardTripped, scanned, base.Format(core.DateLayout), days.Names())
		}
	}
	return nil
}

// monthly emits the anchor day of each month, clamped to the month's length.
func (w *walk) monthly(base time.Time, anchor int) {
	for i := 0; !w.full(); i++ {
		first := time.Date(base.Year(), base.Month()+time.Month(i), 1, 0, 0, 0, 0, time.UTC)
		day := anchor
		if n := daysIn(first.Year(), first.Month()); day > n {
			day = n
		}
		cur := time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
		if cur.Before(base) {
			continue
		}
		if w.pastEnd(cur) {
			return
		}
		w.dates = append(w.dates, cur)
	}
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
