package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/drivepool/drivepool-backend-go/internal/models"
	"github.com/drivepool/drivepool-backend-go/internal/service"
	"github.com/drivepool/drivepool-backend-go/pkg/response"
)

// TripHandler handles HTTP requests for trips
type TripHandler struct {
	service *service.TripService
}

// NewTripHandler creates a new trip handler
func NewTripHandler(service *service.TripService) *TripHandler {
	return &TripHandler{service: service}
}

// Start handles POST /api/v1/trips
func (h *TripHandler) Start(c *gin.Context) {
	var req models.StartTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	trip, err := h.service.Start(driverID(c), req)
	if err != nil {
		respondError(c, err, "Failed to start trip")
		return
	}

	response.Success(c, trip)
}

// AppendTelemetry handles POST /api/v1/trips/:id/points
func (h *TripHandler) AppendTelemetry(c *gin.Context) {
	var batch models.TelemetryBatch
	if err := c.ShouldBindJSON(&batch); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.service.AppendTelemetry(driverID(c), c.Param("id"), batch); err != nil {
		respondError(c, err, "Failed to append telemetry")
		return
	}

	response.Success(c, gin.H{"accepted": len(batch.Samples)})
}

// Finalize handles POST /api/v1/trips/:id/finalize
func (h *TripHandler) Finalize(c *gin.Context) {
	var req models.FinalizeTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	trip, err := h.service.Finalize(driverID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err, "Failed to finalize trip")
		return
	}

	response.Success(c, trip)
}

// GetByID handles GET /api/v1/trips/:id
func (h *TripHandler) GetByID(c *gin.Context) {
	trip, err := h.service.GetByID(driverID(c), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get trip")
		return
	}

	response.Success(c, trip)
}

// List handles GET /api/v1/trips
func (h *TripHandler) List(c *gin.Context) {
	var filter models.TripFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}
	filter.DriverID = driverID(c)

	trips, total, err := h.service.List(filter)
	if err != nil {
		respondError(c, err, "Failed to list trips")
		return
	}

	// Same bounds the repository applies, so the metadata matches the rows.
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 50
	}
	if filter.PageSize > 500 {
		filter.PageSize = 500
	}
	totalPages := int(total) / filter.PageSize
	if int(total)%filter.PageSize > 0 {
		totalPages++
	}

	response.Success(c, gin.H{
		"data":       trips,
		"total":      total,
		"page":       filter.Page,
		"pageSize":   filter.PageSize,
		"totalPages": totalPages,
	})
}
