package domain

// TriggerOptions carries caller intent for a workflow run.
type TriggerOptions struct {
	// TemplateID selects the outreach message template; empty uses the default.
	TemplateID string `json:"template_id"`
	// ForceSearch looks for new people instead of just checking replies/accepts.
	ForceSearch bool `json:"force_search"`
	// FirstDegreeOnly restricts a waiting_for_accept run to an accept check.
	FirstDegreeOnly bool `json:"first_degree_only"`
	// FindMore re-searches a finished job, excluding already-contacted people.
	FindMore bool `json:"find_more"`
	// Reset sends a finished job back to search_connections.
	Reset bool `json:"reset"`
}
