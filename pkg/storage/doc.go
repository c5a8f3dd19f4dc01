// Package storage provides persistence for patterns and materialized jobs.
//
// GormStorage implements the pattern, job and unit-of-work interfaces
// defined in pkg/core on top of GORM. WithinTx hands callers a writer bound
// to one transaction, so a job, its groups and its service points commit or
// roll back together.
//
// Most users should import the root package github.com/jdziat/simple-recurring-visits
// which provides NewGormStorage() to create storage instances.
package storage
