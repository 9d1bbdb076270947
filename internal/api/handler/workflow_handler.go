package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tomerlv/outreach-be/internal/api/dto"
	"github.com/tomerlv/outreach-be/internal/domain"
	"github.com/tomerlv/outreach-be/internal/extract"
	"github.com/tomerlv/outreach-be/internal/workflow"
)

// TriggerWorkflow handles POST /api/v1/jobs/:job_id/workflow.
// Requests execution of the next workflow step; the body is optional.
func (h *JobHandler) TriggerWorkflow(c *gin.Context) {
	jobID := c.Param("job_id")

	var req dto.TriggerWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	decision, err := h.orchestrator.RunJob(c.Request.Context(), jobID, req.Options())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID, "run": string(decision)})
}

// CurrentStatus handles GET /api/v1/jobs/current.
func (h *JobHandler) CurrentStatus(c *gin.Context) {
	running, queued := h.orchestrator.CurrentStatus()
	c.JSON(http.StatusOK, dto.CurrentStatusResponse{
		RunningJobID: running,
		QueuedJobIDs: queued,
	})
}

// AbortCurrent handles POST /api/v1/jobs/abort.
func (h *JobHandler) AbortCurrent(c *gin.Context) {
	jobID := h.orchestrator.AbortCurrent()
	if jobID == "" {
		c.JSON(http.StatusOK, gin.H{"aborted": false, "message": "no job is running"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"aborted": true, "job_id": jobID})
}

// AbortJob handles POST /api/v1/jobs/:job_id/abort.
func (h *JobHandler) AbortJob(c *gin.Context) {
	jobID := c.Param("job_id")

	if !h.orchestrator.AbortJob(jobID) {
		c.JSON(http.StatusConflict, gin.H{"error": "job is neither running nor queued"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"aborted": true, "job_id": jobID})
}

// RetryJob handles POST /api/v1/jobs/:job_id/retry.
// Clears a failure and reruns the job from its current workflow step.
func (h *JobHandler) RetryJob(c *gin.Context) {
	jobID := c.Param("job_id")

	job, err := h.storage.GetJob(c.Request.Context(), jobID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if job.Status != domain.JobStatusFailed {
		c.JSON(http.StatusConflict, gin.H{"error": "only failed jobs can be retried"})
		return
	}

	if err := h.storage.UpdateJobState(c.Request.Context(), jobID, retryReset(job)); err != nil {
		h.respondError(c, err)
		return
	}

	decision, err := h.orchestrator.RunJob(c.Request.Context(), jobID, domain.TriggerOptions{})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID, "run": string(decision)})
}

// retryReset clears the failure but keeps the workflow step so the rerun
// resumes where the job stopped.
func retryReset(job *domain.Job) workflow.JobStateUpdate {
	return workflow.JobStateUpdate{
		Status:       domain.JobStatusPending,
		WorkflowStep: job.WorkflowStep,
		PendingNames: job.PendingNames,
	}
}

// SubmitCompany handles POST /api/v1/jobs/:job_id/company.
// The user names the company for an unrecognized job site; the rule is learned
// so future URLs from the same domain resolve automatically.
func (h *JobHandler) SubmitCompany(c *gin.Context) {
	jobID := c.Param("job_id")

	var req dto.SubmitCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	job, err := h.storage.GetJob(c.Request.Context(), jobID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if job.Status != domain.JobStatusNeedsInput || job.WorkflowStep != domain.StepCompanyExtraction {
		h.respondError(c, domain.ErrNotWaitingForInput)
		return
	}

	h.learnPattern(c, job, &req)

	if err := h.storage.SetJobCompany(c.Request.Context(), jobID, req.CompanyName); err != nil {
		h.respondError(c, err)
		return
	}

	decision, err := h.orchestrator.RunJob(c.Request.Context(), jobID, domain.TriggerOptions{})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID, "company_name": req.CompanyName, "run": string(decision)})
}

// learnPattern stores the extraction rule derived from the user's answer.
// Learning is best-effort: a failure here must not block the company input.
func (h *JobHandler) learnPattern(c *gin.Context, job *domain.Job, req *dto.SubmitCompanyRequest) {
	siteDomain := extract.Domain(job.URL)
	if siteDomain == "" {
		return
	}

	siteType := req.SiteType
	if siteType == "" {
		siteType = domain.SiteTypeCompany
		if extract.IsKnownPlatform(job.URL) {
			siteType = domain.SiteTypePlatform
		}
	}

	pattern := &domain.SitePattern{
		Domain:     siteDomain,
		SiteType:   siteType,
		ExampleURL: &job.URL,
	}
	switch siteType {
	case domain.SiteTypeCompany:
		pattern.CompanyName = &req.CompanyName
	case domain.SiteTypePlatform:
		if req.PlatformName != "" {
			pattern.PlatformName = &req.PlatformName
		}
		if learned := extract.LearnPattern(job.URL, req.CompanyName); learned != "" {
			pattern.URLPattern = &learned
		}
	default:
		return
	}

	if err := h.storage.LearnSitePattern(c.Request.Context(), pattern); err != nil {
		h.logger.Warn("Failed to learn site pattern",
			slog.String("domain", siteDomain),
			slog.String("error", err.Error()),
		)
		return
	}
	h.activity.Record(c.Request.Context(), domain.ActionPatternLearned,
		"Learned extraction rule for "+siteDomain,
		map[string]any{"domain": siteDomain, "site_type": siteType}, job.JobID)
}

// GetPendingNames handles GET /api/v1/jobs/:job_id/pending-names.
func (h *JobHandler) GetPendingNames(c *gin.Context) {
	jobID := c.Param("job_id")

	job, err := h.storage.GetJob(c.Request.Context(), jobID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"job_id":        job.JobID,
		"pending_names": []string(job.PendingNames),
	})
}

// SubmitNames handles POST /api/v1/jobs/:job_id/names.
// Accepts Hebrew translations for the names that paused the workflow. The set
// must cover every pending name so the rerun cannot pause on the same batch.
func (h *JobHandler) SubmitNames(c *gin.Context) {
	jobID := c.Param("job_id")

	var req dto.SubmitNamesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	job, err := h.storage.GetJob(c.Request.Context(), jobID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if job.Status != domain.JobStatusNeedsInput || job.WorkflowStep != domain.StepNeedsHebrewNames {
		h.respondError(c, domain.ErrNotWaitingForInput)
		return
	}

	provided := make(map[string]string, len(req.Translations))
	for _, t := range req.Translations {
		provided[strings.ToLower(strings.TrimSpace(t.EnglishName))] = t.HebrewName
	}

	var missing []string
	for _, name := range job.PendingNames {
		if provided[strings.ToLower(name)] == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":         "translations missing for some pending names",
			"missing_names": missing,
		})
		return
	}

	for _, t := range req.Translations {
		if err := h.storage.SaveTranslation(c.Request.Context(), t.EnglishName, t.HebrewName); err != nil {
			h.respondError(c, err)
			return
		}
	}

	decision, err := h.orchestrator.RunJob(c.Request.Context(), jobID, domain.TriggerOptions{})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID, "run": string(decision)})
}
