package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrequency(t *testing.T) {
	f, err := ParseFrequency(" Weekly ")
	require.NoError(t, err)
	assert.Equal(t, FrequencyWeekly, f)

	_, err = ParseFrequency("yearly")
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestParseWeekdays(t *testing.T) {
	days, err := ParseWeekdays([]string{"wednesday", "Mon", "monday", "SUN"})
	require.NoError(t, err)
	assert.Equal(t, Weekdays{time.Sunday, time.Monday, time.Wednesday}, days)
	assert.Equal(t, []string{"sunday", "monday", "wednesday"}, days.Names())

	_, err = ParseWeekdays([]string{"funday"})
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestWeekdays_JSON(t *testing.T) {
	data, err := json.Marshal(Weekdays{time.Friday, time.Monday})
	require.NoError(t, err)
	assert.JSONEq(t, `["friday","monday"]`, string(data))

	var days Weekdays
	require.NoError(t, json.Unmarshal([]byte(`["friday","monday"]`), &days))
	assert.Equal(t, Weekdays{time.Monday, time.Friday}, days)
	assert.True(t, days.Contains(time.Friday))
	assert.False(t, days.Contains(time.Tuesday))
}

func TestPattern_Interval(t *testing.T) {
	n := func(v int) *int { return &v }

	assert.Equal(t, 1, (&Pattern{}).Interval())
	assert.Equal(t, 1, (&Pattern{CustomInterval: n(0)}).Interval())
	assert.Equal(t, 1, (&Pattern{CustomInterval: n(-3)}).Interval())
	assert.Equal(t, 14, (&Pattern{CustomInterval: n(14)}).Interval())
}

func TestPattern_Validate(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	zero, three := 0, 3

	tests := []struct {
		name    string
		pattern Pattern
		valid   bool
	}{
		{"daily", Pattern{Frequency: FrequencyDaily, StartDate: start}, true},
		{"monthly with days", Pattern{Frequency: FrequencyMonthly, StartDate: start, DaysOfWeek: Weekdays{time.Friday}}, true},
		{"end date before start", Pattern{Frequency: FrequencyDaily, StartDate: end, EndDate: &start}, true},
		{"count", Pattern{Frequency: FrequencyDaily, StartDate: start, EndAfterOccurrences: &three}, true},
		{"unknown frequency", Pattern{Frequency: "hourly", StartDate: start}, false},
		{"no start", Pattern{Frequency: FrequencyDaily}, false},
		{"weekly without days", Pattern{Frequency: FrequencyWeekly, StartDate: start}, false},
		{"out of range day only", Pattern{Frequency: FrequencyBiweekly, StartDate: start, DaysOfWeek: Weekdays{9}}, false},
		{"both terminations", Pattern{Frequency: FrequencyDaily, StartDate: start, EndDate: &end, EndAfterOccurrences: &three}, false},
		{"zero count", Pattern{Frequency: FrequencyDaily, StartDate: start, EndAfterOccurrences: &zero}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.pattern.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidPattern)
			}
		})
	}
}

func TestPattern_CloneIsDeep(t *testing.T) {
	interval := 3
	end := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	p := &Pattern{
		Frequency:      FrequencyCustom,
		CustomInterval: &interval,
		DaysOfWeek:     Weekdays{time.Monday},
		StartDate:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        &end,
	}

	c := p.Clone()
	*c.CustomInterval = 7
	*c.EndDate = end.AddDate(1, 0, 0)
	c.DaysOfWeek[0] = time.Friday

	assert.Equal(t, 3, *p.CustomInterval)
	assert.Equal(t, end, *p.EndDate)
	assert.Equal(t, time.Monday, p.DaysOfWeek[0])
}

func TestSequenceAllocator(t *testing.T) {
	a := NewSequenceAllocator("job")
	b := NewSequenceAllocator("job")

	assert.Equal(t, "job-1", a.NewID())
	assert.Equal(t, "job-2", a.NewID())
	assert.Equal(t, "job-1", b.NewID(), "allocators do not share state")
	assert.Len(t, UUIDAllocator{}.NewID(), 36)
}
