package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/virtuallego/backend/internal/lego"
	"github.com/virtuallego/backend/internal/logger"
	"github.com/virtuallego/backend/internal/table"
)

// writeTableError maps manager and core errors to HTTP responses.
func writeTableError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, table.ErrTableNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "table not found"})
	case errors.Is(err, table.ErrTableClosed):
		c.JSON(http.StatusGone, gin.H{"error": "table is closed"})
	case errors.Is(err, table.ErrTooManyTables):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no free tables, try again later"})
	case errors.Is(err, table.ErrWrongPIN):
		c.JSON(http.StatusForbidden, gin.H{"error": "wrong PIN"})
	case errors.Is(err, table.ErrBadDirection):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, lego.ErrRoundActive):
		c.JSON(http.StatusConflict, gin.H{"error": "round already in progress"})
	default:
		logger.Named("api").Errorw("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
