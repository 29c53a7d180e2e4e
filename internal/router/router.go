package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/soulspace-ledger/internal/handler"
)

// RegisterRoutes registers the probes, which need neither a session nor
// the /api prefix.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Health)
	e.GET("/readyz", h.Ready)
}

// RegisterAuth registers the session endpoints under /api/auth. None of
// them require an access token; logout falls back to the bearer header
// when the body carries no refresh token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	g := e.Group("/api/auth")
	g.POST("/signup", a.Signup)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)
}

// RegisterLedger registers the per-user routes. Every route runs the given
// middleware first, in order: the access gate and then the rate limiter.
func RegisterLedger(e *echo.Echo, h *handler.LedgerHandler, mw ...echo.MiddlewareFunc) {
	e.GET("/api/journal/moods", h.Moods)

	g := e.Group("/api", mw...)

	g.GET("/user/stats", h.GetStats)
	g.PUT("/user/stats", h.UpdateStats)
	g.POST("/user/visit", h.RecordVisit)
	g.GET("/user/profile", h.Profile)

	g.GET("/journal", h.ListJournal)
	g.POST("/journal", h.AddJournal)

	g.GET("/quotes/history", h.QuoteHistory)
	g.POST("/quotes/history", h.RecordQuote)
	g.GET("/quotes/today", h.TodayQuote)
}
