// Package core provides the fundamental types and interfaces for recurring visits.
//
// This package contains:
//   - Pattern, Job, JobGroup and ServicePoint models with GORM annotations
//   - Template, the value snapshot copied into each occurrence
//   - Storage interfaces consumed by the materializer
//   - IDAllocator implementations
//   - Event and error types
//
// Most users should import the root package github.com/jdziat/simple-recurring-visits
// instead of this package directly.
package core
