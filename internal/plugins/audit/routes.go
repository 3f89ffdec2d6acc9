package audit

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up the activity routes behind requireAuth. Nothing is
// registered when the service does not persist entries.
func RegisterRoutes(e *echo.Echo, h *Handler, requireAuth echo.MiddlewareFunc) {
	if !h.service.Enabled() {
		return
	}
	e.GET("/activity", h.Activity, requireAuth)
	e.GET("/api/activity", h.ActivityJSON, requireAuth)
}
