package workflow

import (
	"context"

	"github.com/tomerlv/outreach-be/internal/domain"
)

// Person is a LinkedIn profile reported by the automation gateway.
type Person struct {
	Name        string `json:"name"`
	LinkedInURL string `json:"linkedin_url"`
	Headline    string `json:"headline,omitempty"`
	Degree      int    `json:"degree,omitempty"`
	Message     string `json:"message,omitempty"` // content sent, for messaged people
}

// SearchRequest describes one combined-degree search against the company.
// People with a sent message are never messaged again regardless of flags;
// ExcludeMessaged additionally drops them from the search result itself when
// the caller is looking for more people.
type SearchRequest struct {
	Company         string
	Template        string // message template content with {name}/{company} placeholders
	ExcludeMessaged bool
	FirstDegreeOnly bool // only look for new 1st degree (accept follow-up)
}

// SearchOutcome tags the result of a combined search.
type SearchOutcome string

const (
	// SearchMessaged means at least one 1st-degree contact was messaged.
	SearchMessaged SearchOutcome = "messaged"
	// SearchRequestsSent means only connection requests went out (2nd/3rd degree).
	SearchRequestsSent SearchOutcome = "requests_sent"
	// SearchTranslationMissing means messaging paused on untranslatable names.
	SearchTranslationMissing SearchOutcome = "translation_missing"
	// SearchNoneFound means no reachable people were found at the company.
	SearchNoneFound SearchOutcome = "none_found"
)

// SearchResult is the tagged outcome of SearchAllDegrees. Exactly the fields
// matching Outcome are populated.
type SearchResult struct {
	Outcome      SearchOutcome
	Messaged     []Person
	Requested    []Person
	MissingNames []string
}

// ReplyResult reports contacts that replied to an earlier message.
// An empty Replied slice means no reply yet.
type ReplyResult struct {
	Replied []Person
}

// AcceptResult reports connection requests that were accepted.
// An empty Accepted slice means all requests are still pending.
type AcceptResult struct {
	Accepted []Person
}

// Gateway is the automation session the orchestrator drives. Implementations
// own one browser identity; the orchestrator guarantees at most one call is in
// flight at a time. Calls may take minutes and must honor ctx cancellation
// between internal sub-steps. Failures are reported as ctx errors (abort) or
// *domain.AutomationError; pause conditions are tagged results, never errors.
type Gateway interface {
	SearchAllDegrees(ctx context.Context, req SearchRequest) (*SearchResult, error)
	CheckReplies(ctx context.Context, contacts []domain.Contact) (*ReplyResult, error)
	CheckAccepts(ctx context.Context, contacts []domain.Contact) (*AcceptResult, error)
}
