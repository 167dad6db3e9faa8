// Package server configures the HTTP server and routes.
package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/motqot/internal/config"
	"github.com/fleveque/motqot/internal/handler"
	"github.com/fleveque/motqot/internal/middleware"
	"github.com/fleveque/motqot/internal/service"
	"github.com/fleveque/motqot/internal/storage"
)

// Deps holds everything the handlers need. cmd/server builds it.
type Deps struct {
	State       *service.State
	Preferences *storage.Preferences
	Generations storage.GenerationRepository
	// Rescheduler may be nil when the scheduler is disabled.
	Rescheduler handler.Rescheduler
}

// RegisterRoutes sets up all HTTP routes on the Gin engine.
// Dependencies are passed explicitly; each handler gets exactly what it needs.
func RegisterRoutes(r *gin.Engine, cfg *config.Config, deps Deps, logger *zap.Logger) {
	healthHandler := handler.NewHealthHandler()
	quoteHandler := handler.NewQuoteHandler(deps.State, logger)
	settingsHandler := handler.NewSettingsHandler(deps.Preferences, deps.Rescheduler, logger)
	adminHandler := handler.NewAdminHandler(deps.Generations, logger)

	// Public endpoints (no auth)
	r.GET("/healthz", healthHandler.Healthz)

	api := r.Group("/api/v1")
	api.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	api.Use(middleware.RequestID(logger))
	// Gin only runs middleware for matched routes; this gives preflights one.
	api.OPTIONS("/*path", func(c *gin.Context) {})

	authed := api.Group("")
	authed.Use(middleware.APIKeyAuth(cfg.Auth.APIKeys))
	authed.Use(middleware.RateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
	{
		authed.GET("/quote", quoteHandler.GetQuote)
		authed.POST("/quote/generate", quoteHandler.Generate)
		authed.GET("/quote/due", quoteHandler.Due)
		authed.GET("/quote/events", quoteHandler.Events)

		authed.GET("/settings", settingsHandler.Get)
		authed.PUT("/settings", settingsHandler.Update)
		authed.GET("/presets", settingsHandler.Presets)
	}

	// Admin endpoints (separate auth with admin keys)
	admin := api.Group("/admin")
	admin.Use(middleware.AdminKeyAuth(cfg.Auth.AdminKeys))
	{
		admin.GET("/stats", adminHandler.Stats)
		admin.GET("/generations", adminHandler.Generations)
	}
}
