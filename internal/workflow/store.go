package workflow

import (
	"context"

	"github.com/tomerlv/outreach-be/internal/domain"
)

// JobStateUpdate is one atomic transition of a job's workflow state.
// Status and WorkflowStep always overwrite; ErrorMessage and PendingNames
// overwrite too, so a nil value clears the column.
type JobStateUpdate struct {
	Status         string
	WorkflowStep   string
	ErrorMessage   *string
	PendingNames   []string
	TouchLastCheck bool
	TouchProcessed bool
}

// Store is the durable state the orchestrator reads and writes. The job row
// of a processing job is mutated only by the orchestrator while it holds the
// execution slot.
type Store interface {
	GetJob(ctx context.Context, jobID string) (*domain.Job, error)
	UpdateJobState(ctx context.Context, jobID string, upd JobStateUpdate) error
	SetJobCompany(ctx context.Context, jobID, companyName string) error

	// ResetInterrupted reconciles jobs left processing by a crashed process.
	ResetInterrupted(ctx context.Context) (int64, error)

	SaveMessagedContacts(ctx context.Context, jobID, company string, people []Person) ([]domain.Contact, error)
	SaveRequestedContacts(ctx context.Context, jobID, company string, people []Person) ([]domain.Contact, error)
	ContactsAwaitingReply(ctx context.Context, jobID string) ([]domain.Contact, error)
	ContactsAwaitingAccept(ctx context.Context, jobID string) ([]domain.Contact, error)
	MarkContactReplied(ctx context.Context, linkedinURL string) error
	MarkContactAccepted(ctx context.Context, linkedinURL string) error

	// GetTemplate returns the template by ID, or the default when id is empty.
	GetTemplate(ctx context.Context, templateID string) (*domain.Template, error)
}

// Recorder is the notification/logging sink for workflow transitions.
type Recorder interface {
	Record(ctx context.Context, actionType, description string, details map[string]any, jobID string)
}
