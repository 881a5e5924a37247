package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/company-intel/internal/api/dto"
)

// SearchCompanyAsync handles POST /companies/search/async
// Persists a processing job and hands it to the worker pool.
func (h *Handler) SearchCompanyAsync(c *gin.Context) {
	var req dto.CompanySearchRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.CompanyName) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Company name cannot be empty"})
		return
	}

	job, err := h.worker.Submit(c.Request.Context(), req.CompanyName)
	if err != nil {
		h.logger.Warn("Async search rejected",
			slog.String("company_name", req.CompanyName),
			slog.Any("error", err),
		)
		h.respondError(c, "SearchCompanyAsync", err)
		return
	}

	c.JSON(http.StatusOK, dto.AsyncSearchResponse{
		JobID:               job.JobID,
		Status:              job.Status,
		ProgressMessage:     job.ProgressMessage,
		CreatedAt:           job.CreatedAt,
		EstimatedCompletion: h.worker.EstimatedCompletion(job),
	})
}

// GetJobStatus handles GET /companies/jobs/:job_id/status
func (h *Handler) GetJobStatus(c *gin.Context) {
	jobID := c.Param("job_id")

	job, err := h.worker.GetStatus(c.Request.Context(), jobID)
	if err != nil {
		h.respondError(c, "GetJobStatus", err)
		return
	}

	c.JSON(http.StatusOK, dto.NewJobStatusResponse(job))
}

// ListCompanyJobs handles GET /companies/jobs
func (h *Handler) ListCompanyJobs(c *gin.Context) {
	var req dto.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil || strings.TrimSpace(req.CompanyName) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	jobs, err := h.worker.ListByCompany(c.Request.Context(), req.CompanyName, req.Limit)
	if err != nil {
		h.respondError(c, "ListCompanyJobs", err)
		return
	}

	resp := dto.ListJobsResponse{Jobs: make([]dto.JobStatusResponse, len(jobs))}
	for i := range jobs {
		resp.Jobs[i] = dto.NewJobStatusResponse(&jobs[i])
	}

	c.JSON(http.StatusOK, resp)
}
