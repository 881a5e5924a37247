package dto

import (
	"time"

	"github.com/cuongbtq/company-intel/internal/domain"
)

type ListJobsRequest struct {
	CompanyName string `form:"company_name" binding:"required"`
	Limit       int    `form:"limit" binding:"min=0,max=100"`
}

type AsyncSearchResponse struct {
	JobID               string    `json:"job_id"`
	Status              string    `json:"status"`
	ProgressMessage     string    `json:"progress_message"`
	CreatedAt           time.Time `json:"created_at"`
	EstimatedCompletion time.Time `json:"estimated_completion"`
}

type JobStatusResponse struct {
	JobID           string      `json:"job_id"`
	CompanyName     string      `json:"company_name"`
	Status          string      `json:"status"`
	ProgressMessage string      `json:"progress_message"`
	CreatedAt       time.Time   `json:"created_at"`
	CompletedAt     *time.Time  `json:"completed_at,omitempty"`
	Result          *CompanyDTO `json:"result,omitempty"`
	ErrorMessage    string      `json:"error_message,omitempty"`
}

type ListJobsResponse struct {
	Jobs []JobStatusResponse `json:"jobs"`
}

func NewJobStatusResponse(job *domain.Job) JobStatusResponse {
	resp := JobStatusResponse{
		JobID:           job.JobID,
		CompanyName:     job.CompanyName,
		Status:          job.Status,
		ProgressMessage: job.ProgressMessage,
		CreatedAt:       job.CreatedAt,
		CompletedAt:     job.CompletedAt,
		ErrorMessage:    job.ErrorMessage,
	}
	if job.Status == domain.JobStatusCompleted && job.Result != nil {
		result := NewCompanyDTO(job.Result)
		resp.Result = &result
	}
	return resp
}
