package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/drivepool/drivepool-backend-go/internal/service"
	"github.com/drivepool/drivepool-backend-go/pkg/response"
)

// ProfileHandler handles HTTP requests for driver profiles
type ProfileHandler struct {
	service *service.ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(service *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// GetMine handles GET /api/v1/drivers/me/profile
func (h *ProfileHandler) GetMine(c *gin.Context) {
	profile, err := h.service.Get(driverID(c))
	if err != nil {
		respondError(c, err, "Failed to get profile")
		return
	}

	response.Success(c, profile)
}
