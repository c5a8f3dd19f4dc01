package core

import "time"

// Event is the interface for all materialization events.
type Event interface {
	eventMarker()
}

// OccurrenceMaterialized is emitted after an occurrence's unit of work commits.
type OccurrenceMaterialized struct {
	PatternID string
	Job       *Job
	Groups    int
	Points    int
	Duration  time.Duration
	Timestamp time.Time
}

func (*OccurrenceMaterialized) eventMarker() {}

// OccurrenceFailed is emitted when an occurrence is abandoned after retries.
type OccurrenceFailed struct {
	PatternID string
	Date      time.Time
	Error     error
	Timestamp time.Time
}

func (*OccurrenceFailed) eventMarker() {}

// OccurrenceRetrying is emitted before an occurrence's unit of work is retried.
type OccurrenceRetrying struct {
	PatternID string
	Date      time.Time
	Attempt   int
	Error     error
	Timestamp time.Time
}

func (*OccurrenceRetrying) eventMarker() {}
