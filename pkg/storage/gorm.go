package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/jdziat/simple-recurring-visits/pkg/core"
)

// GormStorage implements the core storage interfaces using GORM.
type GormStorage struct {
	db  *gorm.DB
	ids core.IDAllocator
}

// Option configures a GormStorage.
type Option interface {
	apply(*GormStorage)
}

type optionFunc func(*GormStorage)

func (f optionFunc) apply(s *GormStorage) { f(s) }

// WithIDAllocator sets the allocator used for records created without an ID.
// Defaults to random UUIDs.
func WithIDAllocator(ids core.IDAllocator) Option {
	return optionFunc(func(s *GormStorage) {
		if ids != nil {
			s.ids = ids
		}
	})
}

// NewGormStorage creates a new GORM-backed storage.
func NewGormStorage(db *gorm.DB, opts ...Option) *GormStorage {
	s := &GormStorage{db: db, ids: core.UUIDAllocator{}}
	for _, opt := range opts {
		opt.apply(s)
	}
	return s
}

// DB returns the underlying database handle.
func (s *GormStorage) DB() *gorm.DB {
	return s.db
}

// Migrate creates the necessary tables.
func (s *GormStorage) Migrate(ctx context.Context) error {
	err := s.db.WithContext(ctx).AutoMigrate(
		&core.Pattern{},
		&core.Job{},
		&core.JobGroup{},
		&core.ServicePoint{},
	)
	return core.WrapStorage("migrate", err)
}

// CreatePattern validates and stores a new pattern.
func (s *GormStorage) CreatePattern(ctx context.Context, p *core.Pattern) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = s.ids.NewID()
	}
	normalizePattern(p)
	return core.WrapStorage("create pattern", s.db.WithContext(ctx).Create(p).Error)
}

// UpdatePattern replaces an existing pattern.
func (s *GormStorage) UpdatePattern(ctx context.Context, p *core.Pattern) error {
	if err := p.Validate(); err != nil {
		return err
	}
	normalizePattern(p)

	result := s.db.WithContext(ctx).
		Model(&core.Pattern{}).
		Where("id = ?", p.ID).
		Select("frequency", "custom_interval", "days_of_week", "start_date", "end_date", "end_after_occurrences", "updated_at").
		Updates(p)
	if result.Error != nil {
		return core.WrapStorage("update pattern", result.Error)
	}
	if result.RowsAffected == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeletePattern removes a pattern. Patterns that materialized jobs still
// point at are refused with core.ErrPatternInUse.
func (s *GormStorage) DeletePattern(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&core.Job{}).Where("recurring_pattern_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return core.ErrPatternInUse
		}

		result := tx.Delete(&core.Pattern{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return core.ErrNotFound
		}
		return nil
	})
	if errors.Is(err, core.ErrPatternInUse) {
		return err
	}
	return core.WrapStorage("delete pattern", err)
}

// GetPattern retrieves a pattern by ID.
func (s *GormStorage) GetPattern(ctx context.Context, id string) (*core.Pattern, error) {
	var p core.Pattern
	err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, core.WrapStorage("get pattern", err)
	}
	return &p, nil
}

// ListPatterns returns all patterns, oldest first.
func (s *GormStorage) ListPatterns(ctx context.Context) ([]*core.Pattern, error) {
	var patterns []*core.Pattern
	err := s.db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Find(&patterns).Error
	return patterns, core.WrapStorage("list patterns", err)
}

// GetJob retrieves a job by ID.
func (s *GormStorage) GetJob(ctx context.Context, id string) (*core.Job, error) {
	var job core.Job
	err := s.db.WithContext(ctx).First(&job, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, core.WrapStorage("get job", err)
	}
	return &job, nil
}

// GetGroupsForJob returns a job's groups in position order.
func (s *GormStorage) GetGroupsForJob(ctx context.Context, jobID string) ([]*core.JobGroup, error) {
	var groups []*core.JobGroup
	err := s.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("position ASC, id ASC").
		Find(&groups).Error
	return groups, core.WrapStorage("get groups", err)
}

// GetServicePointsForJob returns all of a job's service points, grouped or
// not, in position order.
func (s *GormStorage) GetServicePointsForJob(ctx context.Context, jobID string) ([]*core.ServicePoint, error) {
	var points []*core.ServicePoint
	err := s.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("position ASC, id ASC").
		Find(&points).Error
	return points, core.WrapStorage("get service points", err)
}

// GetServicePointsForGroup returns a group's service points in position order.
func (s *GormStorage) GetServicePointsForGroup(ctx context.Context, groupID string) ([]*core.ServicePoint, error) {
	var points []*core.ServicePoint
	err := s.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("position ASC, id ASC").
		Find(&points).Error
	return points, core.WrapStorage("get group service points", err)
}

// ListJobsByPattern returns the jobs generated from a pattern in date order.
func (s *GormStorage) ListJobsByPattern(ctx context.Context, patternID string) ([]*core.Job, error) {
	var jobs []*core.Job
	err := s.db.WithContext(ctx).
		Where("recurring_pattern_id = ?", patternID).
		Order("date ASC, created_at ASC").
		Find(&jobs).Error
	return jobs, core.WrapStorage("list jobs by pattern", err)
}

// LatestOccurrence returns the date of the newest job generated from a
// pattern, or nil when none exists.
func (s *GormStorage) LatestOccurrence(ctx context.Context, patternID string) (*time.Time, error) {
	var job core.Job
	err := s.db.WithContext(ctx).
		Where("recurring_pattern_id = ?", patternID).
		Order("date DESC").
		First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, core.WrapStorage("latest occurrence", err)
	}
	d := core.DateOf(job.Date)
	return &d, nil
}

// CreateJob stores a job outside of any unit of work.
func (s *GormStorage) CreateJob(ctx context.Context, job *core.Job) error {
	return s.writer(s.db).CreateJob(ctx, job)
}

// CreateGroup stores a job group outside of any unit of work.
func (s *GormStorage) CreateGroup(ctx context.Context, group *core.JobGroup) error {
	return s.writer(s.db).CreateGroup(ctx, group)
}

// CreateServicePoint stores a service point outside of any unit of work.
func (s *GormStorage) CreateServicePoint(ctx context.Context, point *core.ServicePoint) error {
	return s.writer(s.db).CreateServicePoint(ctx, point)
}

// WithinTx runs fn in a database transaction. Every write made through the
// supplied writer commits when fn returns nil and rolls back otherwise.
func (s *GormStorage) WithinTx(ctx context.Context, fn func(ctx context.Context, w core.JobWriter) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, s.writer(tx))
	})
}

func (s *GormStorage) writer(db *gorm.DB) *txWriter {
	return &txWriter{db: db, ids: s.ids}
}

// txWriter writes through a single handle, which inside WithinTx is the
// transaction.
type txWriter struct {
	db  *gorm.DB
	ids core.IDAllocator
}

func (w *txWriter) CreateJob(ctx context.Context, job *core.Job) error {
	if job.ID == "" {
		job.ID = w.ids.NewID()
	}
	if job.Status == "" {
		job.Status = core.StatusAssigned
	}
	job.Date = core.DateOf(job.Date)
	return core.WrapStorage("create job", w.db.WithContext(ctx).Create(job).Error)
}

func (w *txWriter) CreateGroup(ctx context.Context, group *core.JobGroup) error {
	if group.ID == "" {
		group.ID = w.ids.NewID()
	}
	return core.WrapStorage("create group", w.db.WithContext(ctx).Create(group).Error)
}

func (w *txWriter) CreateServicePoint(ctx context.Context, point *core.ServicePoint) error {
	if point.ID == "" {
		point.ID = w.ids.NewID()
	}
	if point.Status == "" {
		point.Status = core.PointPending
	}
	return core.WrapStorage("create service point", w.db.WithContext(ctx).Create(point).Error)
}

func normalizePattern(p *core.Pattern) {
	p.StartDate = core.DateOf(p.StartDate)
	if p.EndDate != nil {
		end := core.DateOf(*p.EndDate)
		p.EndDate = &end
	}
	p.DaysOfWeek = p.DaysOfWeek.Normalize()
}

var (
	_ core.PatternStore    = (*GormStorage)(nil)
	_ core.Store           = (*GormStorage)(nil)
	_ core.JobWriter       = (*GormStorage)(nil)
	_ core.OccurrenceIndex = (*GormStorage)(nil)
)
