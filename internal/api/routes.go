// Package api wires the HTTP routes for the import service.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/mkarlsen/tradescribe/internal/api/handlers"
	"github.com/mkarlsen/tradescribe/internal/middleware"
)

// Deps carries the constructed handlers SetupRoutes mounts.
type Deps struct {
	Import     *handlers.ImportHandler
	Health     *handlers.HealthHandler
	MarketData *handlers.MarketDataHandler
	JWTSecret  string
	Limiter    *middleware.RateLimiter
}

// SetupRoutes registers health probes and the versioned import API.
func SetupRoutes(router *gin.Engine, deps Deps) {
	router.GET("/health", deps.Health.Health)
	router.HEAD("/health", deps.Health.Health)
	router.GET("/live", deps.Health.Live)
	router.GET("/ready", deps.Health.Ready)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.JWTAuth(deps.JWTSecret))
	if deps.Limiter != nil {
		v1.Use(deps.Limiter.Middleware())
	}

	imp := v1.Group("/import")
	{
		imp.POST("/upload", deps.Import.Upload)

		imp.GET("/session", deps.Import.GetSession)
		imp.DELETE("/session", deps.Import.ResetSession)
		imp.PUT("/session/step", deps.Import.SetStep)
		imp.POST("/session/back", deps.Import.GoBack)

		imp.POST("/review/approve", deps.Import.Approve)
		imp.POST("/review/skip", deps.Import.Skip)
		imp.POST("/review/undo", deps.Import.Undo)
		imp.POST("/review/goto", deps.Import.GoToTrade)

		imp.POST("/suggestions", deps.Import.Suggestions)
		imp.POST("/suggestions/:id/accept", deps.Import.AcceptSuggestion)
		imp.POST("/suggestions/:id/dismiss", deps.Import.DismissSuggestion)

		imp.POST("/groups", deps.Import.CreateGroup)
		imp.PATCH("/groups/:id", deps.Import.UpdateGroup)
		imp.DELETE("/groups/:id", deps.Import.DeleteGroup)
		imp.POST("/groups/:id/trades", deps.Import.AddTradeToGroup)
		imp.DELETE("/groups/:id/trades/:tradeId", deps.Import.RemoveTradeFromGroup)

		imp.POST("/confirm", deps.Import.Confirm)
	}

	md := v1.Group("/marketdata")
	{
		md.GET("/tickers", deps.MarketData.SearchTickers)
		md.GET("/quote/:ticker", deps.MarketData.GetQuote)
	}
}
