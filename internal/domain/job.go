package domain

import (
	"time"

	"github.com/lib/pq"
)

// Job status constants
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusNeedsInput = "needs_input"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
	JobStatusAborted    = "aborted"
	JobStatusDone       = "done"
	JobStatusRejected   = "rejected"
)

// Workflow step constants
const (
	StepCompanyExtraction  = "company_extraction"
	StepSearchConnections  = "search_connections"
	StepNeedsHebrewNames   = "needs_hebrew_names"
	StepMessageConnections = "message_connections"
	StepWaitingForReply    = "waiting_for_reply"
	StepSearchLinkedIn     = "search_linkedin"
	StepSendRequests       = "send_requests"
	StepWaitingForAccept   = "waiting_for_accept"
	StepDone               = "done"
)

// Job represents one submitted job posting under outreach.
type Job struct {
	JobID        string         `db:"job_id"`
	URL          string         `db:"url"`
	CompanyName  *string        `db:"company_name"`
	JobTitle     *string        `db:"job_title"`
	Status       string         `db:"status"`
	WorkflowStep string         `db:"workflow_step"`
	ErrorMessage *string        `db:"error_message"`
	PendingNames pq.StringArray `db:"pending_names"`
	LastCheckAt  *time.Time     `db:"last_check_at"`
	CreatedAt    time.Time      `db:"created_at"`
	ProcessedAt  *time.Time     `db:"processed_at"`
}

// Company returns the company name or "" when not yet known.
func (j *Job) Company() string {
	if j.CompanyName == nil {
		return ""
	}
	return *j.CompanyName
}

// ManuallyClosed reports whether the user declared the job finished.
// Such jobs are never executed again until explicitly reset.
func (j *Job) ManuallyClosed() bool {
	return j.Status == JobStatusDone || j.Status == JobStatusRejected
}

// ValidStatus reports whether s is a known job status.
func ValidStatus(s string) bool {
	switch s {
	case JobStatusPending, JobStatusProcessing, JobStatusNeedsInput,
		JobStatusCompleted, JobStatusFailed, JobStatusAborted,
		JobStatusDone, JobStatusRejected:
		return true
	}
	return false
}

// Snapshot captures the restorable part of a job's state before a run.
type Snapshot struct {
	Status       string
	WorkflowStep string
	ErrorMessage *string
}

// TakeSnapshot records the job's current status, step, and error message.
func (j *Job) TakeSnapshot() Snapshot {
	return Snapshot{
		Status:       j.Status,
		WorkflowStep: j.WorkflowStep,
		ErrorMessage: j.ErrorMessage,
	}
}
