package domain

import "time"

// Activity action types
const (
	ActionJobSubmitted          = "job_submitted"
	ActionCompanyExtracted      = "company_extracted"
	ActionCompanyInputNeeded    = "company_input_needed"
	ActionTranslationNeeded     = "translation_needed"
	ActionConnectionSearch      = "connection_search"
	ActionConnectionFound       = "connection_found"
	ActionMessageSent           = "message_sent"
	ActionConnectionRequestSent = "connection_request_sent"
	ActionReplyReceived         = "reply_received"
	ActionPatternLearned        = "pattern_learned"
	ActionWorkflowAborted       = "workflow_aborted"
	ActionError                 = "error"
)

// ActivityEntry is one recorded workflow transition or notable event.
type ActivityEntry struct {
	ID          int64     `db:"id"`
	ActionType  string    `db:"action_type"`
	Description string    `db:"description"`
	Details     []byte    `db:"details"` // JSON
	JobID       *string   `db:"job_id"`
	CreatedAt   time.Time `db:"created_at"`
}
