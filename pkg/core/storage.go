package core

import (
	"context"
	"time"
)

// PatternReader loads recurrence patterns.
type PatternReader interface {
	// GetPattern returns ErrNotFound when no pattern has the given ID.
	GetPattern(ctx context.Context, id string) (*Pattern, error)
}

// PatternStore administers recurrence patterns.
type PatternStore interface {
	PatternReader
	CreatePattern(ctx context.Context, p *Pattern) error
	UpdatePattern(ctx context.Context, p *Pattern) error
	DeletePattern(ctx context.Context, id string) error
	ListPatterns(ctx context.Context) ([]*Pattern, error)
}

// JobReader loads jobs and their group/service-point structure.
type JobReader interface {
	// GetJob returns ErrNotFound when no job has the given ID.
	GetJob(ctx context.Context, id string) (*Job, error)
	GetGroupsForJob(ctx context.Context, jobID string) ([]*JobGroup, error)
	GetServicePointsForJob(ctx context.Context, jobID string) ([]*ServicePoint, error)
	GetServicePointsForGroup(ctx context.Context, groupID string) ([]*ServicePoint, error)
}

// JobWriter creates job records. Create methods assign an ID when the
// record has none and write it back into the argument.
type JobWriter interface {
	CreateJob(ctx context.Context, job *Job) error
	CreateGroup(ctx context.Context, group *JobGroup) error
	CreateServicePoint(ctx context.Context, point *ServicePoint) error
}

// UnitOfWork scopes a set of writes that commit or roll back together.
// A job written through w is visible to later writes through the same w.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, w JobWriter) error) error
}

// Store is everything the materializer needs from persistence.
type Store interface {
	PatternReader
	JobReader
	UnitOfWork
}

// OccurrenceIndex answers questions about already-materialized occurrences.
type OccurrenceIndex interface {
	// LatestOccurrence returns the date of the newest job generated from the
	// pattern, or nil when there is none.
	LatestOccurrence(ctx context.Context, patternID string) (*time.Time, error)
	ListJobsByPattern(ctx context.Context, patternID string) ([]*Job, error)
}
