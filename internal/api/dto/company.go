package dto

import (
	"encoding/json"
	"time"

	"github.com/cuongbtq/company-intel/internal/domain"
)

type CompanySearchRequest struct {
	CompanyName string `json:"company_name" binding:"required"`
}

type ListCompaniesRequest struct {
	Search string `form:"search"`
	Limit  *int   `form:"limit"`
	Offset int    `form:"offset" binding:"min=0"`
	Cursor string `form:"cursor"`
}

type CompanyDTO struct {
	ID             int64           `json:"id"`
	CompanyName    string          `json:"company_name"`
	CanonicalName  *string         `json:"canonical_name"`
	AnalysisResult json.RawMessage `json:"analysis_result"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
}

// CompanySearchResponse is a company view plus how it was matched
type CompanySearchResponse struct {
	CompanyDTO
	MatchType    domain.MatchType `json:"match_type,omitempty"`
	Alternatives []string         `json:"alternatives,omitempty"`
}

type CompanyNotFoundResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type ListCompaniesResponse struct {
	Companies  []CompanyDTO `json:"companies"`
	Limit      int          `json:"limit"`
	Offset     int          `json:"offset"`
	HasMore    bool         `json:"has_more"`
	NextCursor string       `json:"next_cursor,omitempty"`
	Total      *int         `json:"total,omitempty"`
}

type StatsResponse struct {
	TotalCompanies     int            `json:"total_companies"`
	SuccessfulAnalyses int            `json:"successful_analyses"`
	FailedAnalyses     int            `json:"failed_analyses"`
	SuccessRate        float64        `json:"success_rate"`
	RecentAnalyses     int            `json:"recent_analyses"`
	Jobs               map[string]int `json:"jobs"`
}

func NewCompanyDTO(rec *domain.CompanyRecord) CompanyDTO {
	return CompanyDTO{
		ID:             rec.ID,
		CompanyName:    rec.CompanyName,
		CanonicalName:  rec.CanonicalName,
		AnalysisResult: rec.AnalysisResult,
		Status:         rec.Status,
		CreatedAt:      rec.CreatedAt,
	}
}
