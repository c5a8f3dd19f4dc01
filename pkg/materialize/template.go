package materialize

import (
	"context"
	"errors"
	"fmt"

	"github.com/jdziat/simple-recurring-visits/pkg/core"
)

// DefaultTemplatePolicy supplies the template for generation requests that
// name neither a template job nor an explicit template.
type DefaultTemplatePolicy interface {
	DefaultTemplate(ctx context.Context, p *core.Pattern) (*core.Template, error)
}

// DefaultTemplateFunc adapts a function to DefaultTemplatePolicy.
type DefaultTemplateFunc func(ctx context.Context, p *core.Pattern) (*core.Template, error)

func (f DefaultTemplateFunc) DefaultTemplate(ctx context.Context, p *core.Pattern) (*core.Template, error) {
	return f(ctx, p)
}

// StaticTemplate returns a policy that always yields a copy of t.
func StaticTemplate(t core.Template) DefaultTemplatePolicy {
	return DefaultTemplateFunc(func(context.Context, *core.Pattern) (*core.Template, error) {
		return t.Clone(), nil
	})
}

// LoadTemplate snapshots a stored job, its groups and their service points
// into a Template. Points without a group are collected as ungrouped.
func LoadTemplate(ctx context.Context, r core.JobReader, jobID string) (*core.Template, error) {
	job, err := r.GetJob(ctx, jobID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrTemplateNotFound, jobID, err)
	}
	if err != nil {
		return nil, err
	}

	tpl := &core.Template{
		JobID:        job.ID,
		CustomerID:   job.CustomerID,
		AssignedToID: job.AssignedToID,
		PlantCount:   job.PlantCount,
	}

	groups, err := r.GetGroupsForJob(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		points, err := r.GetServicePointsForGroup(ctx, g.ID)
		if err != nil {
			return nil, err
		}
		tpl.Groups = append(tpl.Groups, core.TemplateGroup{Name: g.Name, Points: templatePoints(points)})
	}

	all, err := r.GetServicePointsForJob(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	var ungrouped []*core.ServicePoint
	for _, p := range all {
		if p.GroupID == nil {
			ungrouped = append(ungrouped, p)
		}
	}
	tpl.Ungrouped = templatePoints(ungrouped)

	return tpl, nil
}

func templatePoints(points []*core.ServicePoint) []core.TemplatePoint {
	out := make([]core.TemplatePoint, len(points))
	for i, p := range points {
		out[i] = core.TemplatePoint{PlantType: p.PlantType, PotType: p.PotType}
	}
	return out
}

// resolveTemplate picks the request's template source: a stored job, then an
// explicit template, then the configured default policy.
func (m *Materializer) resolveTemplate(ctx context.Context, p *core.Pattern, req Request) (*core.Template, error) {
	var (
		tpl *core.Template
		err error
	)
	switch {
	case req.TemplateJobID != "":
		tpl, err = LoadTemplate(ctx, m.store, req.TemplateJobID)
	case req.Template != nil:
		tpl = req.Template.Clone()
	case m.config.DefaultTemplate != nil:
		tpl, err = m.config.DefaultTemplate.DefaultTemplate(ctx, p)
		if err == nil && tpl == nil {
			err = core.ErrTemplateRequired
		}
	default:
		err = core.ErrTemplateRequired
	}
	if err != nil {
		return nil, err
	}
	if err := tpl.Validate(); err != nil {
		return nil, err
	}
	return tpl, nil
}
