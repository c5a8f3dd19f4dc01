package core

import (
	"encoding/json"
	"time"
)

// JobStatus represents the lifecycle state of a service visit.
// Transitions after creation belong to job management, not to this module.
type JobStatus string

const (
	StatusAssigned   JobStatus = "assigned"
	StatusInProgress JobStatus = "in_progress"
	StatusCompleted  JobStatus = "completed"
)

// PointStatus represents the completion state of a single service point.
type PointStatus string

const (
	PointPending   PointStatus = "pending"
	PointCompleted PointStatus = "completed"
)

// Job is one scheduled service visit at a customer site.
type Job struct {
	ID                 string    `gorm:"primaryKey;size:36"`
	CustomerID         string    `gorm:"index;size:36;not null"`
	Date               time.Time `gorm:"index;not null"` // date only, midnight
	Status             JobStatus `gorm:"index;size:20;default:'assigned'"`
	AssignedToID       string    `gorm:"index;size:36;not null"`
	PlantCount         int       `gorm:"default:0"`
	IsRecurring        bool      `gorm:"default:false"`
	RecurringPatternID *string   `gorm:"index;size:36"`
	CreatedAt          time.Time `gorm:"autoCreateTime"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime"`
}

// JobGroup is a named area of a job (a floor, a room) that owns service points.
type JobGroup struct {
	ID       string `gorm:"primaryKey;size:36"`
	JobID    string `gorm:"index;size:36;not null"`
	Name     string `gorm:"size:255;not null"`
	Position int    `gorm:"default:0"`
}

// ServicePoint is one serviceable plant/pot within a job, optionally grouped.
type ServicePoint struct {
	ID        string      `gorm:"primaryKey;size:36"`
	JobID     string      `gorm:"index;size:36;not null"`
	GroupID   *string     `gorm:"index;size:36"` // nil when ungrouped
	PlantType string      `gorm:"size:255"`
	PotType   string      `gorm:"size:255"`
	Status    PointStatus `gorm:"size:20;default:'pending'"`
	Position  int         `gorm:"default:0"`
}

// Template is a value snapshot of the shape copied into every occurrence.
// It holds no record IDs of its own children, so nothing it contains can
// alias a materialized job's records.
type Template struct {
	JobID        string // empty for caller-supplied templates
	CustomerID   string
	AssignedToID string
	PlantCount   int
	Groups       []TemplateGroup
	Ungrouped    []TemplatePoint
}

// TemplateGroup is a group and its points in template order.
type TemplateGroup struct {
	Name   string
	Points []TemplatePoint
}

// TemplatePoint carries the copyable attributes of a service point.
type TemplatePoint struct {
	PlantType string
	PotType   string
}

// PointCount returns the number of service points the template produces.
func (t *Template) PointCount() int {
	n := len(t.Ungrouped)
	for _, g := range t.Groups {
		n += len(g.Points)
	}
	return n
}

// Clone returns a deep copy of the template.
func (t *Template) Clone() *Template {
	c := *t
	c.Groups = make([]TemplateGroup, len(t.Groups))
	for i, g := range t.Groups {
		c.Groups[i] = TemplateGroup{Name: g.Name, Points: append([]TemplatePoint(nil), g.Points...)}
	}
	c.Ungrouped = append([]TemplatePoint(nil), t.Ungrouped...)
	return &c
}

// Validate checks that a template names a customer and an assignee.
func (t *Template) Validate() error {
	if t.CustomerID == "" {
		return ErrTemplateIncomplete
	}
	if t.AssignedToID == "" {
		return ErrTemplateIncomplete
	}
	return nil
}

// OccurrenceDate is one previewed occurrence.
type OccurrenceDate struct {
	Date        time.Time `json:"date"`
	WeekdayName string    `json:"dayOfWeek"`
}

// MarshalJSON renders the date as YYYY-MM-DD.
func (o OccurrenceDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date        string `json:"date"`
		WeekdayName string `json:"dayOfWeek"`
	}{o.Date.Format(DateLayout), o.WeekdayName})
}

// DateLayout is the wire form of occurrence dates.
const DateLayout = "2006-01-02"

// DateOf returns the calendar date of t, read in t's own location, as
// midnight UTC. All stored and computed dates use this form.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
