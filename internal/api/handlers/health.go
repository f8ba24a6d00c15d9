package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/virtuallego/backend/internal/table"
)

var startTime = time.Now()

const version = "1.0.0"

// HealthCheck returns server health status
func HealthCheck(manager *table.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":        "ok",
			"service":       "virtuallego-api",
			"version":       version,
			"uptime":        time.Since(startTime).String(),
			"active_tables": manager.ActiveTableCount(),
		})
	}
}
