package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/drivepool/drivepool-backend-go/internal/models"
	"github.com/drivepool/drivepool-backend-go/internal/service"
	"github.com/drivepool/drivepool-backend-go/pkg/response"
)

// PoolHandler handles HTTP requests for the premium pool
type PoolHandler struct {
	service *service.PoolService
}

// NewPoolHandler creates a new pool handler
func NewPoolHandler(service *service.PoolService) *PoolHandler {
	return &PoolHandler{service: service}
}

// Contribute handles POST /api/v1/pool/:period/contributions
func (h *PoolHandler) Contribute(c *gin.Context) {
	var req models.ContributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	share, err := h.service.AddContribution(driverID(c), c.Param("period"), req.AmountCents)
	if err != nil {
		respondError(c, err, "Failed to add contribution")
		return
	}

	response.Success(c, share)
}

// GetPeriod handles GET /api/v1/pool/:period
func (h *PoolHandler) GetPeriod(c *gin.Context) {
	period, err := h.service.GetPeriod(c.Param("period"))
	if err != nil {
		respondError(c, err, "Failed to get pool period")
		return
	}

	response.Success(c, period)
}

// GetMyShare handles GET /api/v1/pool/:period/shares/me
func (h *PoolHandler) GetMyShare(c *gin.Context) {
	share, err := h.service.GetShare(driverID(c), c.Param("period"))
	if err != nil {
		respondError(c, err, "Failed to get pool share")
		return
	}

	response.Success(c, share)
}

// Preview handles GET /api/v1/pool/:period/preview
func (h *PoolHandler) Preview(c *gin.Context) {
	result, err := h.service.Preview(c.Param("period"))
	if err != nil {
		respondError(c, err, "Failed to preview allocation")
		return
	}

	response.Success(c, result)
}

// Allocate handles POST /api/v1/pool/:period/allocate
func (h *PoolHandler) Allocate(c *gin.Context) {
	result, err := h.service.Allocate(c.Param("period"))
	if err != nil {
		respondError(c, err, "Failed to allocate pool")
		return
	}

	response.Success(c, result)
}
