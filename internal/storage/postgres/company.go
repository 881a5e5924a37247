package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/cuongbtq/company-intel/internal/domain"
	"github.com/cuongbtq/company-intel/internal/storage"
)

const companyColumns = `id, company_name, canonical_name, search_query, analysis_result, status, created_at`

type companyRepo struct {
	db *sqlx.DB
}

func (r *companyRepo) CreateCompany(ctx context.Context, in *domain.NewCompanyRecord) (*domain.CompanyRecord, error) {
	query := `
		INSERT INTO company_analysis (
			company_name, canonical_name, search_query, analysis_result, status
		) VALUES (
			$1, $2, $3, $4, $5
		)
		RETURNING ` + companyColumns

	analysis := types.JSONText(in.AnalysisResult)
	if len(analysis) == 0 {
		analysis = types.JSONText("{}")
	}

	var canonical sql.NullString
	if in.CanonicalName != nil {
		canonical = sql.NullString{String: *in.CanonicalName, Valid: true}
	}

	var row companyRow
	err := r.db.GetContext(ctx, &row, query,
		in.CompanyName,
		canonical,
		in.SearchQuery,
		analysis,
		in.Status,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create company: %w", err)
	}

	rec := row.toDomain()
	return &rec, nil
}

func (r *companyRepo) GetCompanyByID(ctx context.Context, id int64) (*domain.CompanyRecord, error) {
	query := `SELECT ` + companyColumns + ` FROM company_analysis WHERE id = $1`

	var row companyRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCompanyNotFound
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	rec := row.toDomain()
	return &rec, nil
}

func (r *companyRepo) FindCompanyByName(ctx context.Context, name string) (*domain.CompanyRecord, error) {
	query := `
		SELECT ` + companyColumns + `
		FROM company_analysis
		WHERE lower(company_name) = $1
		ORDER BY id
		LIMIT 1
	`

	var row companyRow
	if err := r.db.GetContext(ctx, &row, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCompanyNotFound
		}
		return nil, fmt.Errorf("failed to find company by name: %w", err)
	}

	rec := row.toDomain()
	return &rec, nil
}

func (r *companyRepo) FindCompanyCandidates(ctx context.Context, term string) ([]domain.CompanyRecord, error) {
	query := `
		SELECT ` + companyColumns + `
		FROM company_analysis
		WHERE lower(company_name) LIKE $1
		   OR lower(canonical_name) LIKE $1
		ORDER BY
			CASE
				WHEN lower(company_name) = $2 THEN 1
				WHEN lower(canonical_name) = $2 THEN 2
				WHEN lower(company_name) LIKE $1 THEN 3
				WHEN lower(canonical_name) LIKE $1 THEN 4
				ELSE 5
			END,
			LENGTH(company_name),
			id
	`

	var rows []companyRow
	if err := r.db.SelectContext(ctx, &rows, query, containsPattern(term), term); err != nil {
		return nil, fmt.Errorf("failed to find company candidates: %w", err)
	}

	return toRecords(rows), nil
}

func (r *companyRepo) ListCompanies(ctx context.Context, filter storage.CompanyFilter) ([]domain.CompanyRecord, error) {
	query := `
		SELECT ` + companyColumns + `
		FROM company_analysis
		WHERE 1=1
	`
	args := []interface{}{}
	argIdx := 1

	if term := domain.SanitizeCompanyName(filter.Search); term != "" {
		query += fmt.Sprintf(" AND (lower(company_name) LIKE $%d OR lower(canonical_name) LIKE $%d)", argIdx, argIdx)
		args = append(args, containsPattern(term))
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND id < $%d", argIdx)
		args = append(args, filter.Cursor.ID)
		argIdx++
	}

	query += " ORDER BY id DESC"

	// Fetch one extra to determine if there are more results
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, filter.Limit+1)
	argIdx++

	if filter.Cursor == nil && filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, filter.Offset)
	}

	var rows []companyRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}

	return toRecords(rows), nil
}

func (r *companyRepo) CountCompanies(ctx context.Context, search string) (int, error) {
	query := `SELECT COUNT(*) FROM company_analysis`
	args := []interface{}{}

	if term := domain.SanitizeCompanyName(search); term != "" {
		query += ` WHERE lower(company_name) LIKE $1 OR lower(canonical_name) LIKE $1`
		args = append(args, containsPattern(term))
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count companies: %w", err)
	}

	return count, nil
}

func (r *companyRepo) CompanyStats(ctx context.Context, since time.Time) (*domain.CompanyStats, error) {
	query := `
		SELECT
			COUNT(*) AS total_companies,
			COUNT(*) FILTER (WHERE status = $1) AS successful_analyses,
			COUNT(*) FILTER (WHERE status = $2) AS failed_analyses,
			COUNT(*) FILTER (WHERE created_at >= $3) AS recent_analyses
		FROM company_analysis
	`

	var stats domain.CompanyStats
	err := r.db.GetContext(ctx, &stats, query, domain.RecordStatusSuccess, domain.RecordStatusFailed, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get company stats: %w", err)
	}

	return &stats, nil
}

func toRecords(rows []companyRow) []domain.CompanyRecord {
	records := make([]domain.CompanyRecord, 0, len(rows))
	for i := range rows {
		records = append(records, rows[i].toDomain())
	}
	return records
}
