package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/company-intel/internal/api/dto"
	"github.com/cuongbtq/company-intel/internal/domain"
	"github.com/cuongbtq/company-intel/internal/search"
)

var notFoundResponse = dto.CompanyNotFoundResponse{
	Error:   "Company not found",
	Message: "Unable to find information for this company",
}

// SearchCompany handles POST /companies/search
// Returns a stored analysis or generates a new one. Generation failures are
// answered with 200 and a not-found payload.
func (h *Handler) SearchCompany(c *gin.Context) {
	var req dto.CompanySearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Company name cannot be empty"})
		return
	}

	name := strings.TrimSpace(req.CompanyName)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Company name cannot be empty"})
		return
	}

	outcome, err := h.search.Search(c.Request.Context(), name, nil)
	if err != nil {
		if domain.IsGenerationError(err) || errors.Is(err, domain.ErrMissingAPIKey) {
			h.logger.Error("Analysis generation failed",
				slog.String("company_name", name),
				slog.Any("error", err),
			)
			c.JSON(http.StatusOK, notFoundResponse)
			return
		}
		h.respondError(c, "SearchCompany", err)
		return
	}

	h.logger.Info("Company search served",
		slog.String("company_name", name),
		slog.String("match_type", string(outcome.Match.MatchType)),
		slog.Bool("generated", outcome.Generated),
	)

	resp := dto.CompanySearchResponse{CompanyDTO: dto.NewCompanyDTO(outcome.Record)}
	if !outcome.Generated {
		resp.MatchType = outcome.Match.MatchType
		resp.Alternatives = outcome.Match.Alternatives
	}
	c.JSON(http.StatusOK, resp)
}

// GetCompany handles GET /companies/:id
func (h *Handler) GetCompany(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a positive integer"})
		return
	}

	rec, err := h.search.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "GetCompany", err)
		return
	}

	c.JSON(http.StatusOK, dto.NewCompanyDTO(rec))
}

// ListCompanies handles GET /companies
func (h *Handler) ListCompanies(c *gin.Context) {
	var req dto.ListCompaniesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	limit := search.DefaultListLimit
	if req.Limit != nil {
		if *req.Limit < 1 || *req.Limit > search.MaxListLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
			return
		}
		limit = *req.Limit
	}

	cursor, err := DecodeCompanyCursor(req.Cursor)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cursor"})
		return
	}

	page, err := h.search.List(c.Request.Context(), search.ListParams{
		Search: strings.TrimSpace(req.Search),
		Limit:  limit,
		Offset: req.Offset,
		Cursor: cursor,
	})
	if err != nil {
		h.respondError(c, "ListCompanies", err)
		return
	}

	companies := make([]dto.CompanyDTO, len(page.Companies))
	for i := range page.Companies {
		companies[i] = dto.NewCompanyDTO(&page.Companies[i])
	}

	offset := req.Offset
	if cursor != nil {
		offset = 0
	}

	resp := dto.ListCompaniesResponse{
		Companies: companies,
		Limit:     limit,
		Offset:    offset,
		HasMore:   page.HasMore,
		Total:     page.Total,
	}
	if page.NextCursor != nil {
		resp.NextCursor = EncodeCompanyCursor(page.NextCursor)
	}

	c.JSON(http.StatusOK, resp)
}

// Stats handles GET /stats
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.search.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, "Stats", err)
		return
	}

	jobs, err := h.worker.CountByStatus(c.Request.Context())
	if err != nil {
		h.respondError(c, "Stats", err)
		return
	}

	c.JSON(http.StatusOK, dto.StatsResponse{
		TotalCompanies:     stats.TotalCompanies,
		SuccessfulAnalyses: stats.SuccessfulAnalyses,
		FailedAnalyses:     stats.FailedAnalyses,
		SuccessRate:        stats.SuccessRate(),
		RecentAnalyses:     stats.RecentAnalyses,
		Jobs:               jobs,
	})
}
