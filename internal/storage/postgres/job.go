package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cuongbtq/company-intel/internal/domain"
)

const jobColumns = `job_id, company_name, status, progress_message, result, error_message, created_at, completed_at`

type jobRepo struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func (r *jobRepo) CreateJob(ctx context.Context, job *domain.Job) error {
	query := `
		INSERT INTO async_jobs (
			job_id, company_name, status, progress_message, created_at
		) VALUES (
			$1, $2, $3, $4, $5
		)
	`

	_, err := r.db.ExecContext(ctx, query,
		job.JobID,
		job.CompanyName,
		job.Status,
		job.ProgressMessage,
		job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

func (r *jobRepo) GetJobByID(ctx context.Context, jobID string) (*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM async_jobs WHERE job_id = $1`

	var row jobRow
	if err := r.db.GetContext(ctx, &row, query, jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	job, err := row.toDomain()
	if err != nil {
		return nil, fmt.Errorf("failed to decode job result: %w", err)
	}
	return job, nil
}

func (r *jobRepo) UpdateJobProgress(ctx context.Context, jobID, message string) error {
	query := `
		UPDATE async_jobs
		SET progress_message = $1
		WHERE job_id = $2 AND status = $3
	`

	result, err := r.db.ExecContext(ctx, query, message, jobID, domain.JobStatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to update job progress: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		r.logger.Warn("Job progress update - no rows affected (job may not be processing)",
			slog.String("job_id", jobID),
		)
	}

	return nil
}

func (r *jobRepo) CompleteJob(ctx context.Context, jobID string, result *domain.CompanyRecord, completedAt time.Time) error {
	var resultJSON []byte
	if result != nil {
		var err error
		resultJSON, err = json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
	}

	query := `
		UPDATE async_jobs
		SET status = $1,
			progress_message = $2,
			result = $3,
			completed_at = $4
		WHERE job_id = $5 AND status = $6
	`

	return r.finish(ctx, jobID, query,
		domain.JobStatusCompleted,
		domain.ProgressCompleted,
		resultJSON,
		completedAt,
		jobID,
		domain.JobStatusProcessing,
	)
}

func (r *jobRepo) FailJob(ctx context.Context, jobID, errorMessage string, completedAt time.Time) error {
	query := `
		UPDATE async_jobs
		SET status = $1,
			progress_message = $2,
			error_message = $3,
			completed_at = $4
		WHERE job_id = $5 AND status = $6
	`

	return r.finish(ctx, jobID, query,
		domain.JobStatusFailed,
		domain.ProgressFailed,
		errorMessage,
		completedAt,
		jobID,
		domain.JobStatusProcessing,
	)
}

// finish runs a conditional terminal transition and tells a missing job
// apart from one that already left the processing state
func (r *jobRepo) finish(ctx context.Context, jobID, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to finish job: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM async_jobs WHERE job_id = $1)`, jobID); err != nil {
		return fmt.Errorf("failed to check job: %w", err)
	}
	if !exists {
		return domain.ErrJobNotFound
	}
	return domain.ErrJobAlreadyFinished
}

func (r *jobRepo) ListJobsByCompany(ctx context.Context, companyName string, limit int) ([]domain.Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM async_jobs
		WHERE lower(btrim(company_name)) = $1
		ORDER BY created_at DESC, job_id DESC
		LIMIT $2
	`

	var rows []jobRow
	if err := r.db.SelectContext(ctx, &rows, query, companyName, limit); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	jobs := make([]domain.Job, 0, len(rows))
	for i := range rows {
		job, err := rows[i].toDomain()
		if err != nil {
			return nil, fmt.Errorf("failed to decode job result: %w", err)
		}
		jobs = append(jobs, *job)
	}

	return jobs, nil
}

func (r *jobRepo) CountJobsByStatus(ctx context.Context) (map[string]int, error) {
	query := `SELECT status, COUNT(*) AS count FROM async_jobs GROUP BY status`

	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
