package dto

import "github.com/tomerlv/outreach-be/internal/domain"

type CreateJobRequest struct {
	URL      string `json:"url" binding:"required"`
	JobTitle string `json:"job_title"`
}

type ListJobsRequest struct {
	Status string `form:"status"`
	Skip   int    `form:"skip"`
	Limit  int    `form:"limit"`
}

type ListJobsResponse struct {
	Jobs  []JobDTO `json:"jobs"`
	Total int      `json:"total"`
}

type JobDTO struct {
	JobID        string   `json:"job_id"`
	URL          string   `json:"url"`
	CompanyName  *string  `json:"company_name"`
	JobTitle     *string  `json:"job_title"`
	Status       string   `json:"status"`
	WorkflowStep string   `json:"workflow_step"`
	ErrorMessage *string  `json:"error_message"`
	PendingNames []string `json:"pending_names,omitempty"`
	LastCheckAt  *string  `json:"last_check_at"`
	CreatedAt    string   `json:"created_at"`
	ProcessedAt  *string  `json:"processed_at"`
}

type TriggerWorkflowRequest struct {
	TemplateID      string `json:"template_id"`
	ForceSearch     bool   `json:"force_search"`
	FirstDegreeOnly bool   `json:"first_degree_only"`
	FindMore        bool   `json:"find_more"`
	Reset           bool   `json:"reset"`
}

// Options converts the request body to trigger options.
func (r *TriggerWorkflowRequest) Options() domain.TriggerOptions {
	return domain.TriggerOptions{
		TemplateID:      r.TemplateID,
		ForceSearch:     r.ForceSearch,
		FirstDegreeOnly: r.FirstDegreeOnly,
		FindMore:        r.FindMore,
		Reset:           r.Reset,
	}
}

type SubmitCompanyRequest struct {
	CompanyName  string `json:"company_name" binding:"required"`
	SiteType     string `json:"site_type"`
	PlatformName string `json:"platform_name"`
}

type NameTranslationDTO struct {
	EnglishName string `json:"english_name" binding:"required"`
	HebrewName  string `json:"hebrew_name" binding:"required"`
}

type SubmitNamesRequest struct {
	Translations []NameTranslationDTO `json:"translations" binding:"required"`
}

type MarkJobRequest struct {
	Status string `json:"status" binding:"required"`
}

type CurrentStatusResponse struct {
	RunningJobID string   `json:"running_job_id"`
	QueuedJobIDs []string `json:"queued_job_ids"`
}
