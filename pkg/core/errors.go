package core

import (
	"errors"
	"fmt"
	"time"
)

// Lookup and validation errors.
var (
	ErrNotFound              = errors.New("visits: record not found")
	ErrPatternNotFound       = errors.New("visits: recurring pattern not found")
	ErrTemplateNotFound      = errors.New("visits: template job not found")
	ErrTemplateRequired      = errors.New("visits: template job or fallback template required")
	ErrTemplateIncomplete    = errors.New("visits: template needs a customer and an assignee")
	ErrInvalidPattern        = errors.New("visits: invalid recurring pattern")
	ErrExpansionGuardTripped = errors.New("visits: no matching weekday within the scan window")
	ErrPatternInUse          = errors.New("visits: pattern has associated jobs")
)

// StorageError wraps a failure reported by the backing store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("visits: storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// WrapStorage wraps err as a StorageError unless it is nil or already one.
// ErrNotFound passes through untouched so callers can test for it directly.
func WrapStorage(op string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// OccurrenceError reports the failure of one occurrence in a batch.
// Its unit of work was rolled back, so nothing of it was persisted.
type OccurrenceError struct {
	Index int
	Date  time.Time
	Err   error
}

func (e *OccurrenceError) Error() string {
	return fmt.Sprintf("visits: occurrence %d (%s): %v", e.Index, e.Date.Format(DateLayout), e.Err)
}

func (e *OccurrenceError) Unwrap() error {
	return e.Err
}

// NoRetryError marks an error that must not be retried.
type NoRetryError struct {
	Err error
}

func (e *NoRetryError) Error() string {
	return fmt.Sprintf("no retry: %v", e.Err)
}

func (e *NoRetryError) Unwrap() error {
	return e.Err
}

// NoRetry wraps an error to indicate it should not be retried.
func NoRetry(err error) error {
	return &NoRetryError{Err: err}
}
