package router

import (
	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/company-intel/internal/api/handler"
)

// Options holds router-level settings
type Options struct {
	AllowedOrigins []string
}

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies, opts Options) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware(opts.AllowedOrigins))

	h := handler.New(deps)

	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	r.POST("/auth/token", h.IssueToken)

	authed := r.Group("")
	authed.Use(h.BearerAuth())
	{
		authed.PUT("/admin/gemini-key", h.UpdateGeminiKey)
		authed.GET("/stats", h.Stats)

		companies := authed.Group("/companies")
		{
			// GET /companies - List analyses with search and pagination
			companies.GET("", h.ListCompanies)

			// POST /companies/search - Resolve or generate synchronously
			companies.POST("/search", h.SearchCompany)

			// POST /companies/search/async - Submit a background search
			companies.POST("/search/async", h.SearchCompanyAsync)

			// GET /companies/jobs - Recent jobs for a company name
			companies.GET("/jobs", h.ListCompanyJobs)

			// GET /companies/jobs/:job_id/status - Poll a background search
			companies.GET("/jobs/:job_id/status", h.GetJobStatus)

			// GET /companies/:id - Get a stored analysis
			companies.GET("/:id", h.GetCompany)
		}
	}

	return r
}
