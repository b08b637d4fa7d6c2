package controllers

import (
	"net/http"

	"crediario/services"

	"github.com/gin-gonic/gin"
)

// DashboardController serves the dashboard figures.
type DashboardController struct {
	facade *services.Facade
}

// NewDashboardController creates a DashboardController.
func NewDashboardController(facade *services.Facade) *DashboardController {
	return &DashboardController{facade: facade}
}

// GetStatistics returns the dashboard counters.
func (h *DashboardController) GetStatistics(c *gin.Context) {
	stats, err := h.facade.GetStatistics(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetMetrics returns the in-process operation metrics.
func (h *DashboardController) GetMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.facade.Metrics())
}
