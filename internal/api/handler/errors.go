package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/company-intel/internal/domain"
)

// httpStatus maps a domain error to a status code and a client-safe message
func httpStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, domain.ErrEmptyCompanyName):
		return http.StatusBadRequest, "Company name cannot be empty"
	case errors.Is(err, domain.ErrCompanyNotFound):
		return http.StatusNotFound, "Company analysis not found"
	case errors.Is(err, domain.ErrJobNotFound):
		return http.StatusNotFound, "Job not found"
	case errors.Is(err, domain.ErrQueueFull):
		return http.StatusServiceUnavailable, "Job queue is full, try again later"
	case errors.Is(err, domain.ErrWorkerStopped):
		return http.StatusServiceUnavailable, "Service is shutting down"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func (h *Handler) respondError(c *gin.Context, op string, err error) {
	status, message := httpStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(op+" failed",
			slog.String("path", c.Request.URL.Path),
			slog.Any("error", err),
		)
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": message})
}
