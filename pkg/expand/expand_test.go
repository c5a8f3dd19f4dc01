package expand

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/simple-recurring-visits/pkg/core"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func intPtr(n int) *int { return &n }

func timePtr(t time.Time) *time.Time { return &t }

func weekdays(days ...time.Weekday) core.Weekdays { return core.Weekdays(days) }

func TestExpand_Daily(t *testing.T) {
	p := &core.Pattern{Frequency: core.FrequencyDaily, StartDate: date(2025, 1, 1)}

	got, err := New().Expand(p, date(2025, 1, 1), 5)
	require.NoError(t, err)

	assert.Equal(t, []time.Time{
		date(2025, 1, 1), date(2025, 1, 2), date(2025, 1, 3), date(2025, 1, 4), date(2025, 1, 5),
	}, got)
}

func TestExpand_WeeklyMondayWednesday(t *testing.T) {
	p := &core.Pattern{
		Frequency:  core.FrequencyWeekly,
		DaysOfWeek: weekdays(time.Monday, time.Wednesday),
		StartDate:  date(2025, 1, 1), // Wednesday
	}

	got, err := New().Expand(p, date(2025, 1, 1), 4)
	require.NoError(t, err)

	assert.Equal(t, []time.Time{
		date(2025, 1, 1), date(2025, 1, 6), date(2025, 1, 8), date(2025, 1, 13),
	}, got)
}

func TestExpand_BiweeklySkipsOddWeeks(t *testing.T) {
	p := &core.Pattern{
		Frequency:  core.FrequencyBiweekly,
		DaysOfWeek: weekdays(time.Wednesday),
		StartDate:  date(2025, 1, 1),
	}

	got, err := New().Expand(p, date(2025, 1, 1), 3)
	require.NoError(t, err)

	assert.Equal(t, []time.Time{date(2025, 1, 1), date(2025, 1, 15), date(2025, 1, 29)}, got)
}

func TestExpand_BiweeklyWeekStartsOnSunday(t *testing.T) {
	p := &core.Pattern{
		Frequency:  core.FrequencyBiweekly,
		DaysOfWeek: weekdays(time.Sunday, time.Monday),
		StartDate:  date(2025, 1, 5), // Sunday
	}

	got, err := New().Expand(p, date(2025, 1, 5), 3)
	require.NoError(t, err)

	assert.Equal(t, []time.Time{date(2025, 1, 5), date(2025, 1, 6), date(2025, 1, 19)}, got)
}

func TestExpand_MonthlyClampsShortMonths(t *testing.T) {
	p := &core.Pattern{Frequency: core.FrequencyMonthly, StartDate: date(2025, 1, 31)}

	got, err := New().Expand(p, date(2025, 1, 31), 3)
	require.NoError(t, err)

	assert.Equal(t, []time.Time{date(2025, 1, 31), date(2025, 2, 28), date(2025, 3, 31)}, got)
}

func TestExpand_MonthlyLeapYear(t *testing.T) {
	p := &core.Pattern{Frequency: core.FrequencyMonthly, StartDate: date(2024, 1, 31)}

	got, err := New().Expand(p, date(2024, 1, 1), 4)
	require.NoError(t, err)

	assert.Equal(t, []time.Time{
		date(2024, 1, 31), date(2024, 2, 29), date(2024, 3, 31), date(2024, 4, 30),
	}, got)
}

func TestExpand_MonthlySkipsAnchorBeforeReference(t *testing.T) {
	p := &core.Pattern{Frequency: core.FrequencyMonthly, StartDate: date(2025, 1, 15)}

	got, err := New().Expand(p, date(2025, 3, 20), 2)
	require.NoError(t, err)

	assert.Equal(t, []time.Time{date(2025, 4, 15), date(2025, 5, 15)}, got)
}

func TestExpand_MonthlyIgnoresDaysOfWeekByDefault(t *testing.T) {
	p := &core.Pattern{
		Frequency:  core.FrequencyMonthly,
		DaysOfWeek: weekdays(time.Friday),
		StartDate:  date(2025, 1, 10),
	}

	got, err := New().Expand(p, date(2025, 1, 1), 2)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{date(2025, 1, 10), date(2025, 2, 10)}, got)
}

func TestExpand_StrictMonthlyRejectsDaysOfWeek(t *testing.T) {
	p := &core.Pattern{
		Frequency:  core.FrequencyMonthly,
		DaysOfWeek: weekdays(time.Friday),
		StartDate:  date(2025, 1, 10),
	}

	_, err := New(StrictMonthly(true)).Expand(p, date(2025, 1, 1), 2)
	assert.ErrorIs(t, err, core.ErrInvalidPattern)
}

func TestExpand_CustomInterval(t *testing.T) {
	p := &core.Pattern{
		Frequency:      core.FrequencyCustom,
		CustomInterval: intPtr(3),
		StartDate:      date(2025, 1, 1),
	}

	got, err := New().Expand(p, date(2025, 1, 1), 3)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{date(2025, 1, 1), date(2025, 1, 4), date(2025, 1, 7)}, got)
}

func TestExpand_CustomIntervalDefaultsToOneDay(t *testing.T) {
	for _, interval := range []*int{nil, intPtr(0), intPtr(-4)} {
		p := &core.Pattern{
			Frequency:      core.FrequencyCustom,
			CustomInterval: interval,
			StartDate:      date(2025, 1, 1),
		}

		got, err := New().Expand(p, date(2025, 1, 1), 3)
		require.NoError(t, err)
		assert.Equal(t, []time.Time{date(2025, 1, 1), date(2025, 1, 2), date(2025, 1, 3)}, got)
	}
}

func TestExpand_EndAfterOccurrencesCapsCount(t *testing.T) {
	p := &core.Pattern{
		Frequency:           core.FrequencyDaily,
		StartDate:           date(2025, 1, 1),
		EndAfterOccurrences: intPtr(2),
	}

	got, err := New().Expand(p, date(2025, 1, 1), 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestExpand_EndDateIsInclusive(t *testing.T) {
	p := &core.Pattern{
		Frequency: core.FrequencyDaily,
		StartDate: date(2025, 1, 1),
		EndDate:   timePtr(date(2025, 1, 3)),
	}

	got, err := New().Expand(p, date(2025, 1, 1), 10)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{date(2025, 1, 1), date(2025, 1, 2), date(2025, 1, 3)}, got)
}

func TestExpand_EndDateBeforeFirstCandidateIsEmpty(t *testing.T) {
	patterns := []*core.Pattern{
		{Frequency: core.FrequencyDaily, StartDate: date(2025, 1, 10), EndDate: timePtr(date(2025, 1, 5))},
		{Frequency: core.FrequencyWeekly, DaysOfWeek: weekdays(time.Monday), StartDate: date(2025, 1, 1), EndDate: timePtr(date(2025, 1, 3))},
		{Frequency: core.FrequencyMonthly, StartDate: date(2025, 1, 10), EndDate: timePtr(date(2025, 1, 9))},
	}

	for _, p := range patterns {
		got, err := New().Expand(p, date(2025, 1, 1), 5)
		require.NoError(t, err, "frequency %s", p.Frequency)
		assert.Empty(t, got, "frequency %s", p.Frequency)
	}
}

func TestExpand_FutureStartDateWins(t *testing.T) {
	p := &core.Pattern{Frequency: core.FrequencyDaily, StartDate: date(2025, 3, 1)}

	got, err := New().Expand(p, date(2025, 1, 1), 2)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{date(2025, 3, 1), date(2025, 3, 2)}, got)
}

func TestExpand_ReferenceTimeOfDayIsDropped(t *testing.T) {
	p := &core.Pattern{Frequency: core.FrequencyDaily, StartDate: date(2025, 1, 1)}

	got, err := New().Expand(p, time.Date(2025, 2, 10, 15, 30, 0, 0, time.UTC), 1)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{date(2025, 2, 10)}, got)
}

func TestExpand_ReferenceReadInConfiguredLocation(t *testing.T) {
	p := &core.Pattern{Frequency: core.FrequencyDaily, StartDate: date(2024, 12, 1)}
	tokyo := time.FixedZone("JST", 9*60*60)

	got, err := New(InLocation(tokyo)).Expand(p, time.Date(2025, 1, 1, 23, 30, 0, 0, time.UTC), 1)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{date(2025, 1, 2)}, got)
}

func TestExpand_GuardTrips(t *testing.T) {
	p := &core.Pattern{
		Frequency:  core.FrequencyWeekly,
		DaysOfWeek: weekdays(time.Monday),
		StartDate:  date(2025, 1, 1), // Wednesday
	}

	_, err := New(WeeklyGuardDays(2)).Expand(p, date(2025, 1, 1), 3)
	assert.ErrorIs(t, err, core.ErrExpansionGuardTripped)
}

func TestExpand_BiweeklyGuardTrips(t *testing.T) {
	p := &core.Pattern{
		Frequency:  core.FrequencyBiweekly,
		DaysOfWeek: weekdays(time.Sunday),
		StartDate:  date(2025, 1, 6), // Monday; the next Sunday starts an odd week
	}

	_, err := New(BiweeklyGuardDays(10)).Expand(p, date(2025, 1, 6), 1)
	assert.ErrorIs(t, err, core.ErrExpansionGuardTripped)

	got, err := New().Expand(p, date(2025, 1, 6), 1)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{date(2025, 1, 19)}, got)
}

func TestExpand_InvalidPatterns(t *testing.T) {
	tests := []struct {
		name    string
		pattern *core.Pattern
	}{
		{"nil", nil},
		{"unknown frequency", &core.Pattern{Frequency: "yearly", StartDate: date(2025, 1, 1)}},
		{"weekly without days", &core.Pattern{Frequency: core.FrequencyWeekly, StartDate: date(2025, 1, 1)}},
		{"biweekly without days", &core.Pattern{Frequency: core.FrequencyBiweekly, StartDate: date(2025, 1, 1)}},
		{"missing start", &core.Pattern{Frequency: core.FrequencyDaily}},
		{"both terminations", &core.Pattern{
			Frequency:           core.FrequencyDaily,
			StartDate:           date(2025, 1, 1),
			EndDate:             timePtr(date(2025, 2, 1)),
			EndAfterOccurrences: intPtr(3),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Expand(tt.pattern, date(2025, 1, 1), 3)
			assert.ErrorIs(t, err, core.ErrInvalidPattern)
		})
	}
}

func TestExpand_ZeroOccurrences(t *testing.T) {
	p := &core.Pattern{Frequency: core.FrequencyDaily, StartDate: date(2025, 1, 1)}

	got, err := New().Expand(p, date(2025, 1, 1), 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExpand_OrderingAndBounds(t *testing.T) {
	patterns := []*core.Pattern{
		{Frequency: core.FrequencyDaily, StartDate: date(2025, 1, 1)},
		{Frequency: core.FrequencyWeekly, DaysOfWeek: weekdays(time.Tuesday, time.Friday, time.Sunday), StartDate: date(2024, 11, 3)},
		{Frequency: core.FrequencyBiweekly, DaysOfWeek: weekdays(time.Saturday, time.Monday), StartDate: date(2025, 2, 1)},
		{Frequency: core.FrequencyMonthly, StartDate: date(2024, 8, 30)},
		{Frequency: core.FrequencyCustom, CustomInterval: intPtr(9), StartDate: date(2025, 1, 20)},
	}
	references := []time.Time{date(2024, 12, 31), date(2025, 1, 25), date(2025, 6, 15)}

	for _, p := range patterns {
		for _, ref := range references {
			got, err := New().Expand(p, ref, 25)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(got), 25)

			floor := ref
			if p.StartDate.After(floor) {
				floor = p.StartDate
			}
			for i, d := range got {
				assert.False(t, d.Before(floor), "%s: %s before %s", p.Frequency, d, floor)
				if i > 0 {
					assert.True(t, d.After(got[i-1]), "%s: not strictly increasing at %d", p.Frequency, i)
				}
			}
		}
	}
}

func TestPreview_IsIdempotent(t *testing.T) {
	p := &core.Pattern{
		Frequency:  core.FrequencyWeekly,
		DaysOfWeek: weekdays(time.Monday, time.Wednesday),
		StartDate:  date(2025, 1, 1),
	}
	before := p.Clone()
	e := New()

	first, err := e.Preview(p, date(2025, 1, 1), 4)
	require.NoError(t, err)
	second, err := e.Preview(p, date(2025, 1, 1), 4)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, before, p, "preview must not mutate the pattern")
	assert.Equal(t, "Wednesday", first[0].WeekdayName)
	assert.Equal(t, "Monday", first[1].WeekdayName)
}

func TestNew_NormalizesConfig(t *testing.T) {
	e := New(WeeklyGuardDays(0), BiweeklyGuardDays(-1), InLocation(nil))
	cfg := e.Config()

	assert.Equal(t, DefaultWeeklyGuardDays, cfg.WeeklyGuardDays)
	assert.Equal(t, DefaultBiweeklyGuardDays, cfg.BiweeklyGuardDays)
	assert.Equal(t, time.UTC, cfg.Location)
}
