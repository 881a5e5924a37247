package handler

import (
	"log/slog"

	"github.com/cuongbtq/company-intel/internal/analysis"
	"github.com/cuongbtq/company-intel/internal/auth"
	"github.com/cuongbtq/company-intel/internal/search"
	"github.com/cuongbtq/company-intel/internal/storage"
	"github.com/cuongbtq/company-intel/internal/worker"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger      *slog.Logger
	Store       storage.Store
	Auth        *auth.Store
	Search      *search.Service
	Worker      *worker.Worker
	Keys        *analysis.KeyStore
	ServiceName string
	Version     string
}

// Handler serves the company intelligence API
type Handler struct {
	logger      *slog.Logger
	store       storage.Store
	auth        *auth.Store
	search      *search.Service
	worker      *worker.Worker
	keys        *analysis.KeyStore
	serviceName string
	version     string
}

// New creates a new Handler instance
func New(deps *Dependencies) *Handler {
	return &Handler{
		logger:      deps.Logger,
		store:       deps.Store,
		auth:        deps.Auth,
		search:      deps.Search,
		worker:      deps.Worker,
		keys:        deps.Keys,
		serviceName: deps.ServiceName,
		version:     deps.Version,
	}
}
