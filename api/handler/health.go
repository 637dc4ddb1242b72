package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kri-ruj/linksaver/models"
)

// Health returns the handler for GET /api/v1/health.
//
// A cheap liveness probe: it answers whenever the process is up, without
// touching the database. Monitoring probes must keep working even when
// storage is having a bad day.
func Health(startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  "healthy",
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Version: "0.1.0",
		})
	}
}
