// Package search resolves free-text company names against stored analyses
// and generates new analyses on a miss.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/company-intel/internal/domain"
	"github.com/cuongbtq/company-intel/internal/storage"
)

// Resolver decides whether a stored record already answers a search. It
// never writes.
type Resolver struct {
	companies storage.CompanyRepository
	logger    *slog.Logger
}

// NewResolver creates a resolver over the company repository
func NewResolver(companies storage.CompanyRepository, logger *slog.Logger) *Resolver {
	return &Resolver{
		companies: companies,
		logger:    logger,
	}
}

// Resolve runs the exact pass, then the fuzzy pass
func (r *Resolver) Resolve(ctx context.Context, name string) (*domain.MatchResult, error) {
	term := domain.SanitizeCompanyName(name)
	if term == "" {
		return nil, domain.ErrEmptyCompanyName
	}

	exact, err := r.companies.FindCompanyByName(ctx, term)
	switch {
	case err == nil:
		r.logger.Info("Exact match found",
			slog.String("company_name", term),
			slog.Int64("company_id", exact.ID),
		)
		return &domain.MatchResult{Found: true, Record: exact, MatchType: domain.MatchExact}, nil
	case !errors.Is(err, domain.ErrCompanyNotFound):
		return nil, fmt.Errorf("failed to find exact match: %w", err)
	}

	candidates, err := r.companies.FindCompanyCandidates(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("failed to find fuzzy matches: %w", err)
	}

	switch len(candidates) {
	case 0:
		r.logger.Info("No match found", slog.String("company_name", term))
		return &domain.MatchResult{Found: false, MatchType: domain.MatchNone}, nil

	case 1:
		r.logger.Info("Single fuzzy match found",
			slog.String("company_name", term),
			slog.Int64("company_id", candidates[0].ID),
		)
		return &domain.MatchResult{Found: true, Record: &candidates[0], MatchType: domain.MatchFuzzySingle}, nil

	default:
		alternatives := make([]string, 0, domain.MaxAlternatives)
		for i := 0; i < len(candidates) && i < domain.MaxAlternatives; i++ {
			alternatives = append(alternatives, candidates[i].DisplayName())
		}

		r.logger.Info("Best fuzzy match selected",
			slog.String("company_name", term),
			slog.Int64("company_id", candidates[0].ID),
			slog.Int("candidates", len(candidates)),
		)
		return &domain.MatchResult{
			Found:        true,
			Record:       &candidates[0],
			MatchType:    domain.MatchFuzzyBest,
			Alternatives: alternatives,
		}, nil
	}
}
