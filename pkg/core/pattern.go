package core

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Frequency is the recurrence cadence of a pattern.
type Frequency string

const (
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyMonthly  Frequency = "monthly"
	FrequencyCustom   Frequency = "custom" // every CustomInterval days
)

// Valid reports whether f is one of the supported frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly, FrequencyCustom:
		return true
	}
	return false
}

// UsesWeekdays reports whether the frequency selects dates by weekday.
func (f Frequency) UsesWeekdays() bool {
	return f == FrequencyWeekly || f == FrequencyBiweekly
}

// ParseFrequency parses a frequency name case-insensitively.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("%w: unknown frequency %q", ErrInvalidPattern, s)
	}
	return f, nil
}

// Weekdays is a set of weekdays, persisted as lower-case English names.
type Weekdays []time.Weekday

// ParseWeekday parses an English weekday name ("monday", "Mon").
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || (len(name) == 3 && strings.HasPrefix(full, name)) {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("%w: unknown weekday %q", ErrInvalidPattern, s)
}

// ParseWeekdays parses a list of weekday names into a normalized set.
func ParseWeekdays(names []string) (Weekdays, error) {
	days := make(Weekdays, 0, len(names))
	for _, n := range names {
		d, err := ParseWeekday(n)
		if err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days.Normalize(), nil
}

// Normalize returns the set sorted Sunday-first with duplicates removed.
func (w Weekdays) Normalize() Weekdays {
	seen := make(map[time.Weekday]struct{}, len(w))
	out := make(Weekdays, 0, len(w))
	for _, d := range w {
		if d < time.Sunday || d > time.Saturday {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Contains reports whether d is in the set.
func (w Weekdays) Contains(d time.Weekday) bool {
	for _, x := range w {
		if x == d {
			return true
		}
	}
	return false
}

// Names returns the lower-case weekday names.
func (w Weekdays) Names() []string {
	names := make([]string, len(w))
	for i, d := range w {
		names[i] = strings.ToLower(d.String())
	}
	return names
}

func (w Weekdays) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.Names())
}

func (w *Weekdays) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	days, err := ParseWeekdays(names)
	if err != nil {
		return err
	}
	*w = days
	return nil
}

// Pattern is a recurrence definition. Patterns are only changed through an
// explicit update; expansion never mutates them.
type Pattern struct {
	ID                  string     `gorm:"primaryKey;size:36"`
	Frequency           Frequency  `gorm:"size:20;not null"`
	CustomInterval      *int       // days, custom frequency only
	DaysOfWeek          Weekdays   `gorm:"serializer:json;type:text"`
	StartDate           time.Time  `gorm:"not null"`
	EndDate             *time.Time // inclusive
	EndAfterOccurrences *int
	CreatedAt           time.Time `gorm:"autoCreateTime"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime"`
}

// TableName keeps the table name used by the rest of the schema.
func (Pattern) TableName() string { return "recurring_patterns" }

// Interval returns the custom interval in days, defaulting to 1 when the
// interval is absent or non-positive.
func (p *Pattern) Interval() int {
	if p.CustomInterval == nil || *p.CustomInterval <= 0 {
		return 1
	}
	return *p.CustomInterval
}

// Validate checks the structural rules of a pattern. It does not look at
// dates relative to any reference date: an end date before the start date is
// a pattern with no occurrences, not an invalid one.
func (p *Pattern) Validate() error {
	if !p.Frequency.Valid() {
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidPattern, p.Frequency)
	}
	if p.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrInvalidPattern)
	}
	if p.Frequency.UsesWeekdays() && len(p.DaysOfWeek.Normalize()) == 0 {
		return fmt.Errorf("%w: %s pattern needs at least one day of week", ErrInvalidPattern, p.Frequency)
	}
	if p.EndDate != nil && p.EndAfterOccurrences != nil {
		return fmt.Errorf("%w: end date and end-after-occurrences are mutually exclusive", ErrInvalidPattern)
	}
	if p.EndAfterOccurrences != nil && *p.EndAfterOccurrences <= 0 {
		return fmt.Errorf("%w: end-after-occurrences must be positive", ErrInvalidPattern)
	}
	return nil
}

// Clone returns a deep copy of the pattern.
func (p *Pattern) Clone() *Pattern {
	c := *p
	c.CustomInterval = cloneInt(p.CustomInterval)
	c.EndAfterOccurrences = cloneInt(p.EndAfterOccurrences)
	if p.EndDate != nil {
		end := *p.EndDate
		c.EndDate = &end
	}
	c.DaysOfWeek = append(Weekdays(nil), p.DaysOfWeek...)
	return &c
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
