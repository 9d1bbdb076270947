package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tomerlv/outreach-be/internal/api/dto"
	"github.com/tomerlv/outreach-be/internal/domain"
	"github.com/tomerlv/outreach-be/internal/extract"
)

// CreateJob handles POST /api/v1/jobs.
// Submits a job posting URL and immediately requests the first workflow run.
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req dto.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	parsed, err := url.Parse(req.URL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url must be a valid http(s) URL"})
		return
	}

	job := &domain.Job{
		JobID:        uuid.New().String(),
		URL:          req.URL,
		Status:       domain.JobStatusPending,
		WorkflowStep: domain.StepCompanyExtraction,
		CreatedAt:    time.Now().UTC(),
	}
	if req.JobTitle != "" {
		job.JobTitle = &req.JobTitle
	}

	if company := h.resolveCompany(c, req.URL); company != "" {
		job.CompanyName = &company
	}

	if err := h.storage.CreateJob(c.Request.Context(), job); err != nil {
		h.respondError(c, err)
		return
	}

	h.activity.Record(c.Request.Context(), domain.ActionJobSubmitted,
		"Job posting submitted",
		map[string]any{"url": job.URL}, job.JobID)

	decision, err := h.orchestrator.RunJob(c.Request.Context(), job.JobID, domain.TriggerOptions{})
	if err != nil {
		// Job is stored; the user can trigger the run again.
		h.logger.Error("Failed to start workflow for new job",
			slog.String("job_id", job.JobID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusAccepted, gin.H{"job": toJobDTO(job), "run": "not_started"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"job": toJobDTO(job), "run": string(decision)})
}

// resolveCompany tries the builtin platform patterns, then any learned pattern
// for the URL's domain.
func (h *JobHandler) resolveCompany(c *gin.Context, rawURL string) string {
	if company, ok := extract.Company(rawURL); ok {
		return company
	}

	pattern, err := h.storage.GetSitePattern(c.Request.Context(), extract.Domain(rawURL))
	if err != nil {
		h.logger.Warn("Site pattern lookup failed", slog.String("error", err.Error()))
		return ""
	}
	if pattern == nil {
		return ""
	}

	if pattern.SiteType == domain.SiteTypeCompany && pattern.CompanyName != nil {
		return *pattern.CompanyName
	}
	if pattern.URLPattern != nil {
		return extract.CompanyFromPattern(rawURL, *pattern.URLPattern)
	}
	return ""
}

// GetJob handles GET /api/v1/jobs/:job_id.
// Returns the job together with its discovered contacts.
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID := c.Param("job_id")

	job, err := h.storage.GetJob(c.Request.Context(), jobID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	contacts, err := h.storage.ListContacts(c.Request.Context(), jobID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job":      toJobDTO(job),
		"contacts": contacts,
	})
}

// ListJobs handles GET /api/v1/jobs.
func (h *JobHandler) ListJobs(c *gin.Context) {
	var req dto.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	if req.Status != "" && !domain.ValidStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status filter"})
		return
	}
	if req.Limit <= 0 {
		req.Limit = 50
	}
	if req.Limit > 200 {
		req.Limit = 200
	}
	if req.Skip < 0 {
		req.Skip = 0
	}

	jobs, total, err := h.storage.ListJobs(c.Request.Context(), req.Status, req.Skip, req.Limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	response := make([]dto.JobDTO, len(jobs))
	for i := range jobs {
		response[i] = toJobDTO(&jobs[i])
	}
	c.JSON(http.StatusOK, dto.ListJobsResponse{Jobs: response, Total: total})
}

// MarkJob handles POST /api/v1/jobs/:job_id/mark.
// Manual terminal override: done (position filled or outreach succeeded
// offline) or rejected. Refused while the job is mid-execution.
func (h *JobHandler) MarkJob(c *gin.Context) {
	jobID := c.Param("job_id")

	var req dto.MarkJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.Status != domain.JobStatusDone && req.Status != domain.JobStatusRejected {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be done or rejected"})
		return
	}

	job, err := h.storage.GetJob(c.Request.Context(), jobID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if job.Status == domain.JobStatusProcessing {
		h.respondError(c, domain.ErrJobProcessing)
		return
	}

	if err := h.storage.MarkJobManually(c.Request.Context(), jobID, req.Status); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"job_id": jobID, "status": req.Status})
}

// DeleteJob handles DELETE /api/v1/jobs/:job_id.
func (h *JobHandler) DeleteJob(c *gin.Context) {
	jobID := c.Param("job_id")

	job, err := h.storage.GetJob(c.Request.Context(), jobID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if job.Status == domain.JobStatusProcessing {
		h.respondError(c, domain.ErrJobProcessing)
		return
	}

	if err := h.storage.DeleteJob(c.Request.Context(), jobID); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func toJobDTO(job *domain.Job) dto.JobDTO {
	out := dto.JobDTO{
		JobID:        job.JobID,
		URL:          job.URL,
		CompanyName:  job.CompanyName,
		JobTitle:     job.JobTitle,
		Status:       job.Status,
		WorkflowStep: job.WorkflowStep,
		ErrorMessage: job.ErrorMessage,
		PendingNames: job.PendingNames,
		CreatedAt:    job.CreatedAt.Format(time.RFC3339),
	}
	if job.LastCheckAt != nil {
		s := job.LastCheckAt.Format(time.RFC3339)
		out.LastCheckAt = &s
	}
	if job.ProcessedAt != nil {
		s := job.ProcessedAt.Format(time.RFC3339)
		out.ProcessedAt = &s
	}
	return out
}
