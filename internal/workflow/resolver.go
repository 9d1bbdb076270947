package workflow

import (
	"github.com/tomerlv/outreach-be/internal/domain"
	"github.com/tomerlv/outreach-be/internal/extract"
)

// ActionType identifies what the orchestrator should attempt next for a job.
type ActionType int

const (
	// ActionNoOp means nothing is runnable; logged, never an error to the caller.
	ActionNoOp ActionType = iota
	// ActionRequestCompanyInput pauses the job until the user names the company.
	ActionRequestCompanyInput
	// ActionExtractAndAdvance stores the company and moves to search_connections.
	ActionExtractAndAdvance
	// ActionSearchAllDegrees runs the combined 1st/2nd/3rd-degree search + send.
	ActionSearchAllDegrees
	// ActionSearchForMorePeople re-runs the search excluding messaged contacts.
	ActionSearchForMorePeople
	// ActionCheckReplies checks messaged contacts for a reply.
	ActionCheckReplies
	// ActionCheckAccepts checks whether connection requests were accepted.
	ActionCheckAccepts
	// ActionResetWorkflow sends a finished job back to search_connections.
	ActionResetWorkflow
)

// String returns the action name for logging.
func (a ActionType) String() string {
	switch a {
	case ActionRequestCompanyInput:
		return "request_company_input"
	case ActionExtractAndAdvance:
		return "extract_and_advance"
	case ActionSearchAllDegrees:
		return "search_all_degrees"
	case ActionSearchForMorePeople:
		return "search_for_more_people"
	case ActionCheckReplies:
		return "check_replies"
	case ActionCheckAccepts:
		return "check_accepts"
	case ActionResetWorkflow:
		return "reset_workflow"
	default:
		return "noop"
	}
}

// Action is the resolver's decision for one run.
type Action struct {
	Type ActionType
	// CompanyName accompanies ActionExtractAndAdvance.
	CompanyName string
}

// Resolve maps (job, trigger) to the next action. It is a pure function and
// the single source of truth for transition legality: the orchestrator never
// moves a job anywhere this table does not authorize. Rules are evaluated in
// order, first match wins.
func Resolve(job *domain.Job, trigger domain.TriggerOptions) Action {
	// Manual done/rejected marks are binding until an explicit reset.
	if job.ManuallyClosed() {
		return Action{Type: ActionNoOp}
	}

	switch job.WorkflowStep {
	case domain.StepCompanyExtraction:
		if name := job.Company(); name != "" {
			return Action{Type: ActionExtractAndAdvance, CompanyName: name}
		}
		if name, ok := extract.Company(job.URL); ok {
			return Action{Type: ActionExtractAndAdvance, CompanyName: name}
		}
		return Action{Type: ActionRequestCompanyInput}

	case domain.StepSearchConnections,
		domain.StepMessageConnections,
		domain.StepSearchLinkedIn,
		domain.StepSendRequests,
		// Re-entered after the user supplied the missing translations; the
		// search re-runs with the new names merged in.
		domain.StepNeedsHebrewNames:
		return Action{Type: ActionSearchAllDegrees}

	case domain.StepWaitingForReply:
		if trigger.ForceSearch {
			return Action{Type: ActionSearchForMorePeople}
		}
		return Action{Type: ActionCheckReplies}

	case domain.StepWaitingForAccept:
		if trigger.ForceSearch {
			return Action{Type: ActionSearchForMorePeople}
		}
		if trigger.FirstDegreeOnly {
			return Action{Type: ActionCheckAccepts}
		}
		return Action{Type: ActionSearchAllDegrees}

	case domain.StepDone:
		if trigger.FindMore {
			return Action{Type: ActionSearchForMorePeople}
		}
		if trigger.Reset {
			return Action{Type: ActionResetWorkflow}
		}
		return Action{Type: ActionNoOp}
	}

	return Action{Type: ActionNoOp}
}
