package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/company-intel/internal/api/dto"
)

// IssueToken handles POST /auth/token
func (h *Handler) IssueToken(c *gin.Context) {
	var req dto.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	issued, err := h.auth.Issue(c.Request.Context(), req.ClientID, req.ClientSecret)
	if err != nil {
		h.respondError(c, "IssueToken", err)
		return
	}

	c.JSON(http.StatusOK, dto.TokenResponse{
		AccessToken: issued.AccessToken,
		TokenType:   issued.TokenType,
		ExpiresIn:   issued.ExpiresIn,
	})
}

// UpdateGeminiKey handles PUT /admin/gemini-key
func (h *Handler) UpdateGeminiKey(c *gin.Context) {
	var req dto.UpdateGeminiKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	h.keys.Set(req.NewGeminiAPIKey)
	h.logger.Info("Gemini API key rotated", slog.String("request_id", c.GetString(RequestIDKey)))

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Gemini API key updated successfully"})
}
