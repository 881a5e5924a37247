package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// MatchType describes how a search term was resolved to a stored record
type MatchType string

// CompanyRecord is a persisted company analysis. Records are never updated
// after creation.
type CompanyRecord struct {
	ID             int64           `json:"id"`
	CompanyName    string          `json:"company_name"`
	CanonicalName  *string         `json:"canonical_name"`
	SearchQuery    string          `json:"-"`
	AnalysisResult json.RawMessage `json:"analysis_result"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
}

// DisplayName returns the canonical name when known, otherwise the stored company name
func (r *CompanyRecord) DisplayName() string {
	if r.CanonicalName != nil && *r.CanonicalName != "" {
		return *r.CanonicalName
	}
	return r.CompanyName
}

// MatchResult is the outcome of resolving a free-text company name
type MatchResult struct {
	Found        bool
	Record       *CompanyRecord
	MatchType    MatchType
	// Alternatives holds the DisplayName of up to MaxAlternatives fuzzy
	// candidates, best first, and is only set for fuzzy_best
	Alternatives []string
}

// NewCompanyRecord is the input for persisting a freshly generated analysis
type NewCompanyRecord struct {
	CompanyName    string
	CanonicalName  *string
	SearchQuery    string
	AnalysisResult json.RawMessage
	Status         string
}

// CompanyStats summarises the stored analyses
type CompanyStats struct {
	TotalCompanies     int `db:"total_companies"`
	SuccessfulAnalyses int `db:"successful_analyses"`
	FailedAnalyses     int `db:"failed_analyses"`
	RecentAnalyses     int `db:"recent_analyses"`
}

// SuccessRate returns the share of successful analyses as a percentage
func (s CompanyStats) SuccessRate() float64 {
	if s.TotalCompanies == 0 {
		return 0
	}
	return float64(s.SuccessfulAnalyses) / float64(s.TotalCompanies) * 100
}

// SanitizeCompanyName trims surrounding whitespace and lower-cases the name.
// The result is the comparison key for every match.
func SanitizeCompanyName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Fuzzy match priorities, lowest sorts first
const (
	PriorityExactName = iota + 1
	PriorityExactCanonical
	PriorityNameContains
	PriorityCanonicalContains
	PriorityOther
)

// MatchPriority ranks a candidate record against a sanitized search term.
// Storage backends order fuzzy candidates by this value, then by the length
// of company_name.
func MatchPriority(r *CompanyRecord, term string) int {
	name := strings.ToLower(r.CompanyName)
	canonical := ""
	if r.CanonicalName != nil {
		canonical = strings.ToLower(*r.CanonicalName)
	}

	switch {
	case name == term:
		return PriorityExactName
	case canonical != "" && canonical == term:
		return PriorityExactCanonical
	case strings.Contains(name, term):
		return PriorityNameContains
	case canonical != "" && strings.Contains(canonical, term):
		return PriorityCanonicalContains
	default:
		return PriorityOther
	}
}

// IsFuzzyCandidate reports whether r contains term in either of its names
func IsFuzzyCandidate(r *CompanyRecord, term string) bool {
	if strings.Contains(strings.ToLower(r.CompanyName), term) {
		return true
	}
	return r.CanonicalName != nil && strings.Contains(strings.ToLower(*r.CanonicalName), term)
}
