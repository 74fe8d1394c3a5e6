// Package orchestrator drives an analysis job from submission to a terminal
// outcome: upload, submit, poll, complete/fail/cancel.
package orchestrator

import (
	"github.com/resumecurator/analyzer/internal/classify"
	"github.com/resumecurator/analyzer/internal/report"
)

// Status is the client-side lifecycle of an analysis job.
type Status string

const (
	StatusIdle       Status = "Idle"
	StatusValidating Status = "Validating"
	StatusSubmitting Status = "Submitting"
	StatusPolling    Status = "Polling"
	StatusCompleted  Status = "Completed"
	StatusFailed     Status = "Failed"
	StatusCancelled  Status = "Cancelled"
)

// Terminal reports whether no further automatic transition occurs.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Active reports whether the job may be cancelled.
func (s Status) Active() bool {
	return s == StatusSubmitting || s == StatusPolling
}

// Snapshot is a read-only copy of the tracked job. The orchestrator is the
// only writer; consumers must treat Result and Failure as immutable.
// Exactly one of Result/Failure is set, and only in the matching terminal
// status.
type Snapshot struct {
	// ID is assigned by the remote service after submission.
	ID     string `json:"id,omitempty"`
	Status Status `json:"status"`
	// ProgressPercent is 0-100 and monotonically non-decreasing while
	// polling.
	ProgressPercent  int    `json:"progressPercent"`
	CurrentStepLabel string `json:"currentStepLabel,omitempty"`
	// Attempts counts the poll requests issued.
	Attempts int                         `json:"attempts"`
	Result   *report.CompatibilityReport `json:"result,omitempty"`
	Failure  *classify.ClassifiedError   `json:"failure,omitempty"`
}
