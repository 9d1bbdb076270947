package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tomerlv/outreach-be/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "outreach-api-service",
		})
	})

	jobHandler := handler.NewJobHandler(deps)

	v1 := r.Group("/api/v1")
	{
		jobs := v1.Group("/jobs")
		{
			// POST /api/v1/jobs - Submit a job posting URL
			jobs.POST("", jobHandler.CreateJob)

			// GET /api/v1/jobs - List jobs with status filter and pagination
			jobs.GET("", jobHandler.ListJobs)

			// GET /api/v1/jobs/current - Running job and wait queue
			jobs.GET("/current", jobHandler.CurrentStatus)

			// POST /api/v1/jobs/abort - Abort the in-flight run
			jobs.POST("/abort", jobHandler.AbortCurrent)

			// GET /api/v1/jobs/:job_id - Job details with contacts
			jobs.GET("/:job_id", jobHandler.GetJob)

			// POST /api/v1/jobs/:job_id/workflow - Run the next workflow step
			jobs.POST("/:job_id/workflow", jobHandler.TriggerWorkflow)

			// POST /api/v1/jobs/:job_id/abort - Abort a running or queued job
			jobs.POST("/:job_id/abort", jobHandler.AbortJob)

			// POST /api/v1/jobs/:job_id/retry - Rerun a failed job
			jobs.POST("/:job_id/retry", jobHandler.RetryJob)

			// POST /api/v1/jobs/:job_id/company - User supplies the company name
			jobs.POST("/:job_id/company", jobHandler.SubmitCompany)

			// GET /api/v1/jobs/:job_id/pending-names - Names awaiting translation
			jobs.GET("/:job_id/pending-names", jobHandler.GetPendingNames)

			// POST /api/v1/jobs/:job_id/names - Submit Hebrew name translations
			jobs.POST("/:job_id/names", jobHandler.SubmitNames)

			// POST /api/v1/jobs/:job_id/mark - Manually mark done/rejected
			jobs.POST("/:job_id/mark", jobHandler.MarkJob)

			// DELETE /api/v1/jobs/:job_id - Delete a job
			jobs.DELETE("/:job_id", jobHandler.DeleteJob)
		}
	}

	return r
}
