package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/drivepool/drivepool-backend-go/internal/models"
	"github.com/drivepool/drivepool-backend-go/internal/service"
	"github.com/drivepool/drivepool-backend-go/pkg/response"
)

// LeaderboardHandler handles HTTP requests for leaderboards
type LeaderboardHandler struct {
	service *service.LeaderboardService
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(service *service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{service: service}
}

// Get handles GET /api/v1/leaderboard
func (h *LeaderboardHandler) Get(c *gin.Context) {
	periodType := c.DefaultQuery("periodType", models.PeriodTypeWeekly)
	period := c.Query("period")

	snapshot, err := h.service.Get(periodType, period)
	if err != nil {
		respondError(c, err, "Failed to get leaderboard")
		return
	}

	response.Success(c, snapshot)
}
