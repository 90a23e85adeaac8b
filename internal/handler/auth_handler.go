package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/drivepool/drivepool-backend-go/internal/middleware"
	"github.com/drivepool/drivepool-backend-go/pkg/response"
)

// AuthHandler issues development tokens. A real deployment delegates
// authentication to the identity provider in front of this API.
type AuthHandler struct {
	secret string
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(secret string) *AuthHandler {
	return &AuthHandler{secret: secret}
}

type tokenRequest struct {
	DriverID string `json:"driverId" binding:"required"`
	Role     string `json:"role"`
}

// Token handles POST /api/v1/auth/token
func (h *AuthHandler) Token(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Role == "" {
		req.Role = "driver"
	}

	token, err := middleware.GenerateToken(h.secret, req.DriverID, req.Role)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to generate token", err)
		return
	}

	response.Success(c, gin.H{"token": token})
}
