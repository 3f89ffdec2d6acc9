package scan

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/outreach/internal/apperror"
	"github.com/keyxmakerx/outreach/internal/middleware"
	"github.com/keyxmakerx/outreach/internal/session"
)

// UserFunc returns the logged-in user for a request. Injected by the app so
// this package does not import the auth plugin.
type UserFunc func(c echo.Context) *session.User

// Handler serves the dashboard.
type Handler struct {
	service ScanService
	user    UserFunc
}

// NewHandler creates a new scan handler.
func NewHandler(service ScanService, user UserFunc) *Handler {
	return &Handler{service: service, user: user}
}

// Dashboard renders the scan form and recent scans (GET /dashboard).
func (h *Handler) Dashboard(c echo.Context) error {
	user := h.user(c)
	if user == nil {
		return apperror.NewUnauthorized("Please log in.")
	}

	recent := h.service.Recent(c.Request().Context(), user.ID)
	return middleware.Render(c, http.StatusOK, DashboardPage(user, Form{}, Result{}, recent))
}

// Scan runs a scan from the dashboard form (POST /dashboard/scan). HTMX
// requests get the scan panel only.
func (h *Handler) Scan(c echo.Context) error {
	user := h.user(c)
	if user == nil {
		return apperror.NewUnauthorized("Please log in.")
	}

	var form Form
	if err := c.Bind(&form); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	result := h.service.FullCityScan(c.Request().Context(), user, form, c.RealIP())

	if middleware.IsHTMX(c) {
		return middleware.Render(c, http.StatusOK, ScanPanel(form, result))
	}
	recent := h.service.Recent(c.Request().Context(), user.ID)
	return middleware.Render(c, http.StatusOK, DashboardPage(user, form, result, recent))
}

// Recent returns the recent-scan list as JSON (GET /api/scans/recent).
func (h *Handler) Recent(c echo.Context) error {
	user := h.user(c)
	if user == nil {
		return apperror.NewUnauthorized("Please login to access this resource")
	}
	recent := h.service.Recent(c.Request().Context(), user.ID)
	if recent == nil {
		recent = []Summary{}
	}
	return c.JSON(http.StatusOK, map[string]any{"scans": recent})
}
