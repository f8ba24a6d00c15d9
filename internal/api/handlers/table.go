package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/virtuallego/backend/internal/auth"
	"github.com/virtuallego/backend/internal/config"
	"github.com/virtuallego/backend/internal/table"
)

func tokenTTL(cfg *config.Config) time.Duration {
	return time.Duration(cfg.TokenExpiryHours) * time.Hour
}

// CreateTable opens a table and makes the caller its first player.
func CreateTable(manager *table.Manager, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			PIN string `json:"pin"`
		}
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
				return
			}
		}
		if req.PIN != "" && (len(req.PIN) < 4 || len(req.PIN) > 12) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "pin must be 4 to 12 characters"})
			return
		}

		t, err := manager.CreateTable(req.PIN)
		if err != nil {
			writeTableError(c, err)
			return
		}

		playerID := uuid.NewString()
		pt, err := auth.IssueToken(cfg.JWTSecret, t.Token, playerID, auth.RolePlayer, tokenTTL(cfg))
		if err != nil {
			writeTableError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"token":        t.Token,
			"table_id":     t.ID,
			"private":      t.Private(),
			"player_id":    playerID,
			"player_token": pt,
			"ws_url":       "/api/v1/table/" + t.Token + "/ws?pt=" + pt,
		})
	}
}

// JoinTable hands out a player or spectator token for an existing table.
func JoinTable(manager *table.Manager, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			PIN  string `json:"pin"`
			Role string `json:"role"`
		}
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
				return
			}
		}
		role, err := auth.ParseRole(req.Role)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "role must be player or spectator"})
			return
		}

		t, err := manager.GetTableByToken(c.Param("token"))
		if err != nil {
			writeTableError(c, err)
			return
		}
		if err := t.CheckPIN(req.PIN); err != nil {
			writeTableError(c, err)
			return
		}

		playerID := uuid.NewString()
		pt, err := auth.IssueToken(cfg.JWTSecret, t.Token, playerID, role, tokenTTL(cfg))
		if err != nil {
			writeTableError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token":        t.Token,
			"player_id":    playerID,
			"role":         role,
			"player_token": pt,
			"ws_url":       "/api/v1/table/" + t.Token + "/ws?pt=" + pt,
		})
	}
}

// GetTableState returns the latest snapshot of a table.
func GetTableState(manager *table.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := manager.GetTableByToken(c.Param("token"))
		if err != nil {
			writeTableError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"token":      t.Token,
			"private":    t.Private(),
			"status":     t.Status(),
			"created_at": t.CreatedAt,
			"snapshot":   t.Snapshot(),
		})
	}
}

// LaunchRound starts a round.
func LaunchRound(manager *table.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Param("token")
		if err := manager.Launch(token); err != nil {
			writeTableError(c, err)
			return
		}
		t, err := manager.GetTableByToken(token)
		if err != nil {
			writeTableError(c, err)
			return
		}
		snap := t.Snapshot()
		c.JSON(http.StatusOK, gin.H{"round": snap.Stats.Number, "state": snap.Round})
	}
}

// SteerControl moves the control disk by delta along z.
func SteerControl(manager *table.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Delta *float64 `json:"delta" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "delta required"})
			return
		}
		z, err := manager.Steer(c.Param("token"), *req.Delta)
		if err != nil {
			writeTableError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"z": z})
	}
}

// ListRounds returns finished rounds, newest first.
func ListRounds(manager *table.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 20
		if v := c.Query("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive number"})
				return
			}
			limit = n
		}

		token := c.Param("token")
		rounds, err := manager.ListRounds(token, limit)
		if err != nil {
			writeTableError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token, "rounds": rounds})
	}
}

// CloseTable shuts a table down for everyone.
func CloseTable(manager *table.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Param("token")
		if err := manager.CloseTable(token, "closed_by_player"); err != nil {
			writeTableError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token, "status": table.StatusClosed})
	}
}
