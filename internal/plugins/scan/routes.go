package scan

import (
	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/outreach/internal/middleware"
)

// RegisterRoutes sets up the dashboard routes behind requireAuth. Scans are
// limited per IP (6 per minute) since each one ties up the scraper.
func RegisterRoutes(e *echo.Echo, h *Handler, requireAuth echo.MiddlewareFunc, limiter middleware.Limiter) {
	e.GET("/dashboard", h.Dashboard, requireAuth)
	e.POST("/dashboard/scan", h.Scan, requireAuth, middleware.RateLimit(limiter, "scan"))
	e.GET("/api/scans/recent", h.Recent, requireAuth)
}
