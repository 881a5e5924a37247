package domain

import "time"

// Job is an asynchronously processed company search
type Job struct {
	JobID           string
	CompanyName     string
	Status          string
	ProgressMessage string
	Result          *CompanyRecord
	ErrorMessage    string
	CreatedAt       time.Time
	CompletedAt     *time.Time
}

// IsTerminal reports whether the job reached completed or failed
func (j *Job) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// JobMessage is the unit handed from the submission path to the worker pool
type JobMessage struct {
	JobID       string `json:"job_id"`
	CompanyName string `json:"company_name"`
}

// JobEvent is published when a job reaches a terminal state
type JobEvent struct {
	JobID        string    `json:"job_id"`
	CompanyName  string    `json:"company_name"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CompletedAt  time.Time `json:"completed_at"`
}
