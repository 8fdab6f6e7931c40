package handlers

import (
	"net/http"

	"mess_portal_backend/internal/services"
	"mess_portal_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// StatisticsHandler holds the statistics service.
type StatisticsHandler struct {
	statisticsService services.StatisticsService
}

// NewStatisticsHandler creates a new StatisticsHandler.
func NewStatisticsHandler(ss services.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: ss}
}

// GetSummary returns the dashboard aggregates for the admin overview.
func (h *StatisticsHandler) GetSummary(c *gin.Context) {
	summary, err := h.statisticsService.GetSummary()
	if err != nil {
		utils.LogError(err, "GetSummary: Error from statisticsService.GetSummary")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to compute statistics.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, summary)
}
