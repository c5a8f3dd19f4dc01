package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jdziat/simple-recurring-visits/pkg/core"
	"github.com/jdziat/simple-recurring-visits/pkg/horizon"
	"github.com/jdziat/simple-recurring-visits/pkg/materialize"
)

// Collector records occurrence and horizon activity. It implements
// materialize.Hooks.
type Collector struct {
	occurrences   *prometheus.CounterVec
	retries       prometheus.Counter
	duration      prometheus.Histogram
	pointsCreated prometheus.Counter
	groupsCreated prometheus.Counter
	horizonRuns   *prometheus.CounterVec
	horizonJobs   prometheus.Counter
}

// NewCollector creates the metrics and registers them with reg, or with the
// default registerer when reg is nil.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		occurrences: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "occurrences_total",
				Help:      "Occurrences processed, by outcome",
			},
			[]string{"status"},
		),
		retries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "occurrence_retries_total",
				Help:      "Occurrence units of work re-run after a storage failure",
			},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "occurrence_duration_seconds",
				Help:      "Time to write one occurrence, retries included",
				Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
			},
		),
		pointsCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "service_points_created_total",
				Help:      "Service points copied into materialized jobs",
			},
		),
		groupsCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "job_groups_created_total",
				Help:      "Job groups copied into materialized jobs",
			},
		),
		horizonRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "horizon_plan_runs_total",
				Help:      "Horizon plan evaluations, by result",
			},
			[]string{"result"},
		),
		horizonJobs: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "horizon_jobs_created_total",
				Help:      "Jobs created by the horizon runner",
			},
		),
	}

	reg.MustRegister(
		c.occurrences,
		c.retries,
		c.duration,
		c.pointsCreated,
		c.groupsCreated,
		c.horizonRuns,
		c.horizonJobs,
	)

	return c
}

func (c *Collector) OnMaterialized(_ context.Context, e *core.OccurrenceMaterialized) {
	c.occurrences.WithLabelValues("materialized").Inc()
	c.duration.Observe(e.Duration.Seconds())
	c.groupsCreated.Add(float64(e.Groups))
	c.pointsCreated.Add(float64(e.Points))
}

func (c *Collector) OnFailed(context.Context, *core.OccurrenceFailed) {
	c.occurrences.WithLabelValues("failed").Inc()
}

func (c *Collector) OnRetrying(context.Context, *core.OccurrenceRetrying) {
	c.retries.Inc()
}

// ObserveHorizon records a horizon plan result. Pass it to horizon.OnResult.
func (c *Collector) ObserveHorizon(res horizon.Result) {
	switch {
	case res.Err != nil:
		c.horizonRuns.WithLabelValues("error").Inc()
	case len(res.JobIDs) == 0:
		c.horizonRuns.WithLabelValues("noop").Inc()
	default:
		c.horizonRuns.WithLabelValues("extended").Inc()
	}
	c.horizonJobs.Add(float64(len(res.JobIDs)))
}

var _ materialize.Hooks = (*Collector)(nil)
