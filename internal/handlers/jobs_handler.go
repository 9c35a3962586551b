package handlers

import (
	"net/http"

	"github.com/cobranca-ops/fidc-backoffice/internal/jobs"
	"github.com/cobranca-ops/fidc-backoffice/internal/middleware"
	"github.com/gin-gonic/gin"
)

// JobHandler exposes the batch jobs to the operator API and the scheduler.
type JobHandler struct {
	registry *jobs.Registry
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(registry *jobs.Registry) *JobHandler {
	return &JobHandler{registry: registry}
}

// ListJobs returns the names of the runnable jobs.
func (h *JobHandler) ListJobs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"jobs": h.registry.Names()})
}

// RunJob executes one job synchronously and returns its run summary.
func (h *JobHandler) RunJob(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	name := c.Param("name")

	if operatorID, ok := middleware.GetOperatorIDFromContext(c); ok {
		logger.Info("Job triggered by operator", "job", name, "operator", operatorID)
	}

	summary, err := h.registry.Run(c.Request.Context(), name)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
