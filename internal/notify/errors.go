package notify

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrDuplicateNotification is returned by a Sink when the unique index already
	// holds the same user, type, record and day.
	ErrDuplicateNotification = errors.New("notification already sent today")

	// ErrScanInProgress is returned when a scan is requested while another one runs.
	ErrScanInProgress = errors.New("notification scan already running")
)

// EvaluatorError is a failure inside one condition evaluator. The scan drops that
// evaluator's candidates and keeps going with the others.
type EvaluatorError struct {
	Evaluator string
	EntityID  uint
	Err       error
}

func (e *EvaluatorError) Error() string {
	if e.EntityID != 0 {
		return fmt.Sprintf("evaluator %s failed on entity %d: %v", e.Evaluator, e.EntityID, e.Err)
	}
	return fmt.Sprintf("evaluator %s failed: %v", e.Evaluator, e.Err)
}

func (e *EvaluatorError) Unwrap() error {
	return e.Err
}

// ScanTimeoutError means the run ran out of time. Whatever was persisted before
// the deadline stays; the next run's dedup check takes care of the rest.
type ScanTimeoutError struct {
	Partial RunResult
}

func (e *ScanTimeoutError) Error() string {
	return fmt.Sprintf("notification scan timed out after creating %d and skipping %d notifications",
		e.Partial.Created, e.Partial.Skipped)
}

func (e *ScanTimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}
