package domain

import "errors"

var (
	// ErrJobNotFound is returned when a job cannot be found in the database
	ErrJobNotFound = errors.New("job not found")

	// ErrTemplateNotFound is returned when no message template is available
	ErrTemplateNotFound = errors.New("message template not found")

	// ErrJobProcessing is returned when an operation requires the job not to
	// be mid-execution
	ErrJobProcessing = errors.New("job is currently being processed")

	// ErrNotWaitingForInput is returned when user input is submitted for a job
	// that is not paused
	ErrNotWaitingForInput = errors.New("job is not waiting for user input")

	// ErrNotStarted is returned for run requests before crash recovery has run
	ErrNotStarted = errors.New("orchestrator not started")
)

// AutomationError wraps a failure reported by the automation session gateway.
// It marks the job failed but resumable from its current workflow step.
type AutomationError struct {
	Reason string
	Err    error
}

func (e *AutomationError) Error() string {
	if e.Err != nil {
		return "automation failure: " + e.Reason + ": " + e.Err.Error()
	}
	return "automation failure: " + e.Reason
}

func (e *AutomationError) Unwrap() error {
	return e.Err
}

// NewAutomationError creates an AutomationError with the given reason.
func NewAutomationError(reason string, err error) error {
	return &AutomationError{Reason: reason, Err: err}
}
