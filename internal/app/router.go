// internal/app/router.go
package app

import (
	authHandler "timesoffice-service/internal/handlers/auth"
	performanceHandler "timesoffice-service/internal/handlers/performance"
	subscriberHandler "timesoffice-service/internal/handlers/subscriber"
	wsHandler "timesoffice-service/internal/handlers/websocket"
	"timesoffice-service/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	AuthHandler        *authHandler.AuthHandler
	SubscriberHandler  *subscriberHandler.SubscriberHandler
	PerformanceHandler *performanceHandler.PerformanceHandler
	WSHandler          *wsHandler.WebSocketHandler
	AuthMiddleware     *middleware.AuthMiddleware
}

func SetupRouter(r *gin.Engine, logger *zap.Logger, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "version": "1.0.0"})
	})

	// ==================== WebSocket ====================
	r.GET("/ws", h.WSHandler.HandleConnection)

	// ==================== Auth ====================
	auth := api.Group("/auth")
	{
		auth.POST("/login", h.AuthHandler.Login)
	}

	// ==================== Subscribers ====================
	subscribers := api.Group("/subscribers")
	subscribers.Use(h.AuthMiddleware.Auth())
	{
		subscribers.GET("", h.SubscriberHandler.List)
		subscribers.GET("/search", h.SubscriberHandler.Search)
		subscribers.GET("/status-sum", h.SubscriberHandler.StatusSum)

		subscribers.POST("/import", h.SubscriberHandler.Import)
		subscribers.POST("/renewals", h.SubscriberHandler.Renew)
		subscribers.POST("/replace/:agent_code", h.SubscriberHandler.Replace)
		subscribers.POST("/refresh", h.SubscriberHandler.Refresh)
	}

	// ==================== Performance ====================
	performance := api.Group("/performance")
	performance.Use(h.AuthMiddleware.Auth())
	{
		performance.GET("/daily", h.PerformanceHandler.Daily)
		performance.GET("/monthly", h.PerformanceHandler.Monthly)
		performance.GET("/chart", h.PerformanceHandler.Chart)
		performance.GET("/range", h.PerformanceHandler.Range)

		performance.POST("/run", h.PerformanceHandler.Run)
	}

	// ==================== Stats ====================
	stats := api.Group("/stats")
	stats.Use(h.AuthMiddleware.Auth())
	{
		stats.GET("/ws", h.WSHandler.Stats)
	}
}
