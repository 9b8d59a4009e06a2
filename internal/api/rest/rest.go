package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/hookfeed/hook-ingestor/internal/api/middleware"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, authCfg middleware.AuthConfig) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	// Webhook intake endpoint. Sender authentication happens inside the
	// pipeline (per-receiver HMAC), not in middleware.
	router.POST("/hook/:receiverId", handler.IngestWebhook)

	// Admin read endpoints for triage (requires authentication)
	v1 := router.Group("/api/v1", middleware.Auth(authCfg))
	{
		v1.GET("/receivers/:receiverId", handler.GetReceiver)
		v1.GET("/receivers/:receiverId/logs", handler.ListReceiverLogs)
	}
}
