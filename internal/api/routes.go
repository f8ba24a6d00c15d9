package api

import (
	"github.com/gin-gonic/gin"

	"github.com/virtuallego/backend/internal/api/handlers"
	"github.com/virtuallego/backend/internal/auth"
	"github.com/virtuallego/backend/internal/config"
	"github.com/virtuallego/backend/internal/logger"
	"github.com/virtuallego/backend/internal/middleware"
	"github.com/virtuallego/backend/internal/table"
	"github.com/virtuallego/backend/internal/ws"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, manager *table.Manager, hub *ws.Hub, cfg *config.Config) {
	router.Use(middleware.CORSMiddleware(cfg))

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		logger.Named("api").Info("no-cache headers enabled for all routes")
	}

	requireToken := auth.AuthMiddleware(cfg.JWTSecret)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck(manager))

		v1.POST("/table", handlers.CreateTable(manager, cfg))

		tbl := v1.Group("/table/:token")
		{
			tbl.GET("", handlers.GetTableState(manager))
			tbl.POST("/join", handlers.JoinTable(manager, cfg))
			tbl.GET("/rounds", handlers.ListRounds(manager))
			tbl.GET("/ws", middleware.WebSocketCORSCheck(cfg), ws.HandleWebSocket(hub, cfg.JWTSecret))

			tbl.POST("/launch", requireToken, auth.RequirePlayer(), handlers.LaunchRound(manager))
			tbl.POST("/steer", requireToken, auth.RequirePlayer(), handlers.SteerControl(manager))
			tbl.DELETE("", requireToken, auth.RequirePlayer(), handlers.CloseTable(manager))
		}
	}
}
