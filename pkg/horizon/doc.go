// Package horizon keeps recurring patterns materialized a fixed number of
// occurrences ahead.
//
// A Runner holds a list of plans and, each time its schedule fires, counts
// the jobs each pattern already has from today on and generates the missing
// ones, continuing after the latest existing occurrence on the pattern's
// rhythm. A pattern with EndAfterOccurrences is never topped up past that
// many jobs in total.
package horizon
