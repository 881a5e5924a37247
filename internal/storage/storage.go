// Package storage defines the persistence contracts shared by the postgres
// and in-memory backends.
package storage

import (
	"context"
	"time"

	"github.com/cuongbtq/company-intel/internal/domain"
)

// CompanyFilter selects a page of company records. When Cursor is set it
// takes precedence over Offset.
type CompanyFilter struct {
	Search string
	Limit  int
	Offset int
	Cursor *CompanyCursor
}

// CompanyCursor marks the last record returned on the previous page
type CompanyCursor struct {
	ID int64
}

// CompanyRepository persists company analyses. Records are append-only.
type CompanyRepository interface {
	CreateCompany(ctx context.Context, rec *domain.NewCompanyRecord) (*domain.CompanyRecord, error)
	GetCompanyByID(ctx context.Context, id int64) (*domain.CompanyRecord, error)
	// FindCompanyByName returns the oldest record whose sanitized name equals name
	FindCompanyByName(ctx context.Context, name string) (*domain.CompanyRecord, error)
	// FindCompanyCandidates returns records containing term in company_name or
	// canonical_name, ordered by domain.MatchPriority, then name length, then id
	FindCompanyCandidates(ctx context.Context, term string) ([]domain.CompanyRecord, error)
	// ListCompanies returns up to filter.Limit+1 records ordered by id descending
	ListCompanies(ctx context.Context, filter CompanyFilter) ([]domain.CompanyRecord, error)
	CountCompanies(ctx context.Context, search string) (int, error)
	CompanyStats(ctx context.Context, since time.Time) (*domain.CompanyStats, error)
}

// TokenRepository persists issued bearer tokens
type TokenRepository interface {
	CreateToken(ctx context.Context, token *domain.AccessToken) error
	GetToken(ctx context.Context, token string) (*domain.AccessToken, error)
	DeleteToken(ctx context.Context, token string) error
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

// JobRepository persists async job state
type JobRepository interface {
	CreateJob(ctx context.Context, job *domain.Job) error
	GetJobByID(ctx context.Context, jobID string) (*domain.Job, error)
	UpdateJobProgress(ctx context.Context, jobID, message string) error
	// CompleteJob moves a processing job to completed. It returns
	// domain.ErrJobAlreadyFinished when the job is already terminal.
	CompleteJob(ctx context.Context, jobID string, result *domain.CompanyRecord, completedAt time.Time) error
	// FailJob moves a processing job to failed with the same guarantees as CompleteJob
	FailJob(ctx context.Context, jobID, errorMessage string, completedAt time.Time) error
	ListJobsByCompany(ctx context.Context, companyName string, limit int) ([]domain.Job, error)
	CountJobsByStatus(ctx context.Context) (map[string]int, error)
}

// Store bundles every repository behind one handle
type Store interface {
	Companies() CompanyRepository
	Tokens() TokenRepository
	Jobs() JobRepository
	Ping(ctx context.Context) error
	Close() error
}
