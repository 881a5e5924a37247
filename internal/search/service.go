package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cuongbtq/company-intel/internal/analysis"
	"github.com/cuongbtq/company-intel/internal/domain"
	"github.com/cuongbtq/company-intel/internal/storage"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 100

	recentWindow = 7 * 24 * time.Hour
)

// Generator produces a new analysis for a company name
type Generator interface {
	Generate(ctx context.Context, companyName string) (*analysis.Analysis, error)
}

// ProgressFunc receives human-readable progress messages
type ProgressFunc func(message string)

// Outcome is the result of a search
type Outcome struct {
	Record    *domain.CompanyRecord
	Match     *domain.MatchResult
	Generated bool
}

// ListParams selects a page of companies
type ListParams struct {
	Search string
	Limit  int
	Offset int
	Cursor *storage.CompanyCursor
}

// ListPage is one page of companies. Total is only set on the first page.
type ListPage struct {
	Companies  []domain.CompanyRecord
	HasMore    bool
	NextCursor *storage.CompanyCursor
	Total      *int
}

// Service runs the resolve, generate, persist sequence
type Service struct {
	companies storage.CompanyRepository
	resolver  *Resolver
	generator Generator
	now       func() time.Time
	logger    *slog.Logger
}

// NewService creates a search service
func NewService(companies storage.CompanyRepository, generator Generator, logger *slog.Logger) *Service {
	return &Service{
		companies: companies,
		resolver:  NewResolver(companies, logger),
		generator: generator,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger,
	}
}

// Resolver exposes the match resolver
func (s *Service) Resolver() *Resolver {
	return s.resolver
}

// Search returns a stored record matching name, or generates and stores a
// new one. progress may be nil.
func (s *Service) Search(ctx context.Context, name string, progress ProgressFunc) (*Outcome, error) {
	query := strings.TrimSpace(name)
	if query == "" {
		return nil, domain.ErrEmptyCompanyName
	}
	report := func(msg string) {
		if progress != nil {
			progress(msg)
		}
	}

	report(domain.ProgressChecking)
	match, err := s.resolver.Resolve(ctx, query)
	if err != nil {
		return nil, err
	}
	if match.Found {
		return &Outcome{Record: match.Record, Match: match}, nil
	}

	report(domain.ProgressGenerating)
	result, err := s.generator.Generate(ctx, query)
	if err != nil {
		return nil, err
	}

	report(domain.ProgressSaving)
	rec, err := s.companies.CreateCompany(ctx, &domain.NewCompanyRecord{
		CompanyName:    domain.SanitizeCompanyName(query),
		CanonicalName:  result.CanonicalName,
		SearchQuery:    query,
		AnalysisResult: result.Document,
		Status:         domain.RecordStatusSuccess,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save analysis: %w", err)
	}

	s.logger.Info("Saved new analysis",
		slog.String("company_name", rec.CompanyName),
		slog.Int64("company_id", rec.ID),
	)

	return &Outcome{Record: rec, Match: match, Generated: true}, nil
}

// Get returns a record by id
func (s *Service) Get(ctx context.Context, id int64) (*domain.CompanyRecord, error) {
	return s.companies.GetCompanyByID(ctx, id)
}

// List returns a page of companies ordered newest first. A cursor takes
// precedence over an offset.
func (s *Service) List(ctx context.Context, params ListParams) (*ListPage, error) {
	if params.Limit <= 0 {
		params.Limit = DefaultListLimit
	}
	if params.Limit > MaxListLimit {
		params.Limit = MaxListLimit
	}
	if params.Offset < 0 {
		params.Offset = 0
	}
	if params.Cursor != nil {
		params.Offset = 0
	}

	rows, err := s.companies.ListCompanies(ctx, storage.CompanyFilter{
		Search: params.Search,
		Limit:  params.Limit,
		Offset: params.Offset,
		Cursor: params.Cursor,
	})
	if err != nil {
		return nil, err
	}

	page := &ListPage{}
	if len(rows) > params.Limit {
		page.HasMore = true
		rows = rows[:params.Limit]
	}
	page.Companies = rows

	if page.HasMore && len(rows) > 0 {
		page.NextCursor = &storage.CompanyCursor{ID: rows[len(rows)-1].ID}
	}

	if params.Cursor == nil && params.Offset == 0 {
		total, err := s.companies.CountCompanies(ctx, params.Search)
		if err != nil {
			return nil, err
		}
		page.Total = &total
	}

	return page, nil
}

// Stats summarises stored analyses, counting the last seven days as recent
func (s *Service) Stats(ctx context.Context) (*domain.CompanyStats, error) {
	return s.companies.CompanyStats(ctx, s.now().Add(-recentWindow))
}
