// Package materialize turns recurrence patterns into persisted service visits.
//
// A Materializer loads a pattern and a template, expands the pattern into
// occurrence dates and writes one job per date. Each job receives its own
// copies of the template's groups and service points, all reset to pending,
// inside a unit of work of its own.
//
// Example:
//
//	m := materialize.New(store, materialize.Concurrency(4))
//	ids, err := m.Generate(ctx, materialize.Request{
//	    PatternID:     patternID,
//	    TemplateJobID: templateJobID,
//	    Occurrences:   12,
//	})
//
// Most users should import the root package github.com/jdziat/simple-recurring-visits
// instead of this package directly.
package materialize
