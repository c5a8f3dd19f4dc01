// Package expand computes the calendar dates on which a recurring pattern occurs.
//
// Expansion is a pure computation: no I/O, no shared state. Supported
// frequencies are daily, weekly and biweekly (weekday scans), monthly
// (day of month of the pattern start, clamped to short months) and custom
// (every N days).
//
// Most users should import the root package github.com/jdziat/simple-recurring-visits
// which re-exports the expander.
package expand
