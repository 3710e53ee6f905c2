package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bistrotrack/server/internal/services"
)

// DashboardController manages API endpoints for the landing dashboard
type DashboardController struct {
	service *services.DashboardService
}

// NewDashboardController creates a new dashboard controller
func NewDashboardController(service *services.DashboardService) *DashboardController {
	return &DashboardController{service: service}
}

// GetDashboard returns the cached dashboard payload
// GET /api/v1/dashboard?days=7
func (dc *DashboardController) GetDashboard(c *gin.Context) {
	if dc.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Dashboard service unavailable",
		})
		return
	}

	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))
	data, err := dc.service.DashboardData(days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to build dashboard",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, data)
}

// InvalidateDashboard drops the cached dashboard payloads
// POST /api/v1/dashboard/invalidate
func (dc *DashboardController) InvalidateDashboard(c *gin.Context) {
	if dc.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Dashboard service unavailable",
		})
		return
	}

	dc.service.InvalidateCache()
	c.JSON(http.StatusOK, gin.H{
		"message": "Dashboard cache invalidated",
	})
}

// GetWSStatus reports the live connection count
// GET /api/v1/dashboard/ws-status
func (dc *DashboardController) GetWSStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"connected_clients": DashboardHub.GetClientsCount(),
	})
}
