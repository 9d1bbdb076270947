package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tomerlv/outreach-be/internal/domain"
	"github.com/tomerlv/outreach-be/internal/store"
	"github.com/tomerlv/outreach-be/internal/workflow"
)

// Orchestrator is the slice of the workflow orchestrator the handlers drive.
type Orchestrator interface {
	RunJob(ctx context.Context, jobID string, opts domain.TriggerOptions) (workflow.RunDecision, error)
	AbortCurrent() string
	AbortJob(jobID string) bool
	CurrentStatus() (runningJobID string, queuedJobIDs []string)
}

// Dependencies holds all dependencies needed by handlers.
type Dependencies struct {
	Logger       *slog.Logger
	Storage      *store.Storage
	Orchestrator Orchestrator
	Activity     workflow.Recorder
}

// JobHandler handles job-related HTTP requests.
type JobHandler struct {
	logger       *slog.Logger
	storage      *store.Storage
	orchestrator Orchestrator
	activity     workflow.Recorder
}

// NewJobHandler creates a new JobHandler instance.
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger:       deps.Logger,
		storage:      deps.Storage,
		orchestrator: deps.Orchestrator,
		activity:     deps.Activity,
	}
}

// respondError maps domain errors to HTTP statuses.
func (h *JobHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
	case errors.Is(err, domain.ErrJobProcessing):
		c.JSON(http.StatusConflict, gin.H{"error": "job is currently being processed"})
	case errors.Is(err, domain.ErrNotWaitingForInput):
		c.JSON(http.StatusConflict, gin.H{"error": "job is not waiting for this input"})
	case errors.Is(err, domain.ErrNotStarted):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "orchestrator is not ready"})
	default:
		h.logger.Error("Request failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
