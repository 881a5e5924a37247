package postgres

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"

	"github.com/cuongbtq/company-intel/internal/domain"
)

type companyRow struct {
	ID             int64          `db:"id"`
	CompanyName    string         `db:"company_name"`
	CanonicalName  sql.NullString `db:"canonical_name"`
	SearchQuery    string         `db:"search_query"`
	AnalysisResult types.JSONText `db:"analysis_result"`
	Status         string         `db:"status"`
	CreatedAt      time.Time      `db:"created_at"`
}

func (r *companyRow) toDomain() domain.CompanyRecord {
	rec := domain.CompanyRecord{
		ID:             r.ID,
		CompanyName:    r.CompanyName,
		SearchQuery:    r.SearchQuery,
		AnalysisResult: json.RawMessage(r.AnalysisResult),
		Status:         r.Status,
		CreatedAt:      r.CreatedAt.UTC(),
	}
	if r.CanonicalName.Valid {
		name := r.CanonicalName.String
		rec.CanonicalName = &name
	}
	return rec
}

type tokenRow struct {
	Token     string    `db:"token"`
	ClientID  string    `db:"client_id"`
	CreatedAt time.Time `db:"created_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

type jobRow struct {
	JobID           string             `db:"job_id"`
	CompanyName     string             `db:"company_name"`
	Status          string             `db:"status"`
	ProgressMessage string             `db:"progress_message"`
	Result          types.NullJSONText `db:"result"`
	ErrorMessage    sql.NullString     `db:"error_message"`
	CreatedAt       time.Time          `db:"created_at"`
	CompletedAt     sql.NullTime       `db:"completed_at"`
}

func (r *jobRow) toDomain() (*domain.Job, error) {
	job := &domain.Job{
		JobID:           r.JobID,
		CompanyName:     r.CompanyName,
		Status:          r.Status,
		ProgressMessage: r.ProgressMessage,
		ErrorMessage:    r.ErrorMessage.String,
		CreatedAt:       r.CreatedAt.UTC(),
	}
	if r.CompletedAt.Valid {
		completedAt := r.CompletedAt.Time.UTC()
		job.CompletedAt = &completedAt
	}
	if r.Result.Valid && len(r.Result.JSONText) > 0 {
		var result domain.CompanyRecord
		if err := r.Result.Unmarshal(&result); err != nil {
			return nil, err
		}
		job.Result = &result
	}
	return job, nil
}
