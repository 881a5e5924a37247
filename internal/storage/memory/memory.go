// Package memory is an in-process implementation of the storage contracts.
// It backs the "memory" database driver and the package tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cuongbtq/company-intel/internal/domain"
	"github.com/cuongbtq/company-intel/internal/storage"
)

// Store keeps every table in maps guarded by a single mutex
type Store struct {
	mu        sync.RWMutex
	nextID    int64
	companies []domain.CompanyRecord
	tokens    map[string]domain.AccessToken
	jobs      map[string]domain.Job
	now       func() time.Time
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		tokens: make(map[string]domain.AccessToken),
		jobs:   make(map[string]domain.Job),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Companies() storage.CompanyRepository { return (*companyRepo)(s) }
func (s *Store) Tokens() storage.TokenRepository      { return (*tokenRepo)(s) }
func (s *Store) Jobs() storage.JobRepository          { return (*jobRepo)(s) }

// Ping always succeeds
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op
func (s *Store) Close() error {
	return nil
}

type companyRepo Store

func (r *companyRepo) CreateCompany(ctx context.Context, in *domain.NewCompanyRecord) (*domain.CompanyRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	rec := domain.CompanyRecord{
		ID:             r.nextID,
		CompanyName:    in.CompanyName,
		CanonicalName:  in.CanonicalName,
		SearchQuery:    in.SearchQuery,
		AnalysisResult: append([]byte(nil), in.AnalysisResult...),
		Status:         in.Status,
		CreatedAt:      r.now(),
	}
	r.companies = append(r.companies, rec)

	out := rec
	return &out, nil
}

func (r *companyRepo) GetCompanyByID(ctx context.Context, id int64) (*domain.CompanyRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.companies {
		if r.companies[i].ID == id {
			out := r.companies[i]
			return &out, nil
		}
	}
	return nil, domain.ErrCompanyNotFound
}

func (r *companyRepo) FindCompanyByName(ctx context.Context, name string) (*domain.CompanyRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.companies {
		if strings.ToLower(r.companies[i].CompanyName) == name {
			out := r.companies[i]
			return &out, nil
		}
	}
	return nil, domain.ErrCompanyNotFound
}

func (r *companyRepo) FindCompanyCandidates(ctx context.Context, term string) ([]domain.CompanyRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []domain.CompanyRecord
	for i := range r.companies {
		if domain.IsFuzzyCandidate(&r.companies[i], term) {
			matches = append(matches, r.companies[i])
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		pi := domain.MatchPriority(&matches[i], term)
		pj := domain.MatchPriority(&matches[j], term)
		if pi != pj {
			return pi < pj
		}
		if len(matches[i].CompanyName) != len(matches[j].CompanyName) {
			return len(matches[i].CompanyName) < len(matches[j].CompanyName)
		}
		return matches[i].ID < matches[j].ID
	})

	return matches, nil
}

func (r *companyRepo) ListCompanies(ctx context.Context, filter storage.CompanyFilter) ([]domain.CompanyRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	term := domain.SanitizeCompanyName(filter.Search)

	// companies is append-only, so walking backwards yields id DESC
	var page []domain.CompanyRecord
	skipped := 0
	for i := len(r.companies) - 1; i >= 0; i-- {
		rec := r.companies[i]
		if term != "" && !domain.IsFuzzyCandidate(&rec, term) {
			continue
		}
		if filter.Cursor != nil {
			if rec.ID >= filter.Cursor.ID {
				continue
			}
		} else if skipped < filter.Offset {
			skipped++
			continue
		}
		page = append(page, rec)
		if len(page) == filter.Limit+1 {
			break
		}
	}

	return page, nil
}

func (r *companyRepo) CountCompanies(ctx context.Context, search string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	term := domain.SanitizeCompanyName(search)
	if term == "" {
		return len(r.companies), nil
	}

	count := 0
	for i := range r.companies {
		if domain.IsFuzzyCandidate(&r.companies[i], term) {
			count++
		}
	}
	return count, nil
}

func (r *companyRepo) CompanyStats(ctx context.Context, since time.Time) (*domain.CompanyStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &domain.CompanyStats{TotalCompanies: len(r.companies)}
	for _, rec := range r.companies {
		switch rec.Status {
		case domain.RecordStatusSuccess:
			stats.SuccessfulAnalyses++
		case domain.RecordStatusFailed:
			stats.FailedAnalyses++
		}
		if !rec.CreatedAt.Before(since) {
			stats.RecentAnalyses++
		}
	}
	return stats, nil
}

type tokenRepo Store

func (r *tokenRepo) CreateToken(ctx context.Context, token *domain.AccessToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tokens[token.Token]; exists {
		return domain.ErrTokenConflict
	}
	r.tokens[token.Token] = *token
	return nil
}

func (r *tokenRepo) GetToken(ctx context.Context, token string) (*domain.AccessToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tokens[token]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r *tokenRepo) DeleteToken(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tokens, token)
	return nil
}

func (r *tokenRepo) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for key, t := range r.tokens {
		if t.ExpiresAt.Before(now) {
			delete(r.tokens, key)
			deleted++
		}
	}
	return deleted, nil
}

type jobRepo Store

func (r *jobRepo) CreateJob(ctx context.Context, job *domain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.jobs[job.JobID] = *job
	return nil
}

func (r *jobRepo) GetJobByID(ctx context.Context, jobID string) (*domain.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return &job, nil
}

func (r *jobRepo) UpdateJobProgress(ctx context.Context, jobID, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[jobID]
	if !ok {
		return domain.ErrJobNotFound
	}
	job.ProgressMessage = message
	r.jobs[jobID] = job
	return nil
}

func (r *jobRepo) CompleteJob(ctx context.Context, jobID string, result *domain.CompanyRecord, completedAt time.Time) error {
	return r.finish(jobID, func(job *domain.Job) {
		job.Status = domain.JobStatusCompleted
		job.ProgressMessage = domain.ProgressCompleted
		if result != nil {
			res := *result
			job.Result = &res
		}
		job.CompletedAt = &completedAt
	})
}

func (r *jobRepo) FailJob(ctx context.Context, jobID, errorMessage string, completedAt time.Time) error {
	return r.finish(jobID, func(job *domain.Job) {
		job.Status = domain.JobStatusFailed
		job.ProgressMessage = domain.ProgressFailed
		job.ErrorMessage = errorMessage
		job.CompletedAt = &completedAt
	})
}

func (r *jobRepo) finish(jobID string, apply func(job *domain.Job)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[jobID]
	if !ok {
		return domain.ErrJobNotFound
	}
	if job.Status != domain.JobStatusProcessing {
		return domain.ErrJobAlreadyFinished
	}
	apply(&job)
	r.jobs[jobID] = job
	return nil
}

func (r *jobRepo) ListJobsByCompany(ctx context.Context, companyName string, limit int) ([]domain.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var jobs []domain.Job
	for _, job := range r.jobs {
		if domain.SanitizeCompanyName(job.CompanyName) == companyName {
			jobs = append(jobs, job)
		}
	}

	sort.Slice(jobs, func(i, j int) bool {
		if !jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
		}
		return jobs[i].JobID > jobs[j].JobID
	})

	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

func (r *jobRepo) CountJobsByStatus(ctx context.Context) (map[string]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int)
	for _, job := range r.jobs {
		counts[job.Status]++
	}
	return counts, nil
}
