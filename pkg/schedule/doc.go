// Package schedule provides the activation schedules of the horizon runner.
//
// This package includes:
//   - Schedule interface
//   - Every() for fixed-interval schedules
//   - Daily() and DailyIn() for a specific time each day
//   - Weekly() and WeeklyIn() for a specific day and time each week
//   - Cron() for cron expressions and descriptors
//
// Most users should import the root package github.com/jdziat/simple-recurring-visits
// which re-exports these functions.
package schedule
