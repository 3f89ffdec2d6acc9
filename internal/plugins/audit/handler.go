package audit

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/outreach/internal/apperror"
	"github.com/keyxmakerx/outreach/internal/middleware"
)

// UserIDFunc returns the logged-in user's id for a request. Injected by the
// app so this package does not import the auth plugin.
type UserIDFunc func(c echo.Context) string

// Handler handles HTTP requests for the activity log. Handlers are thin:
// bind request, call service, render response.
type Handler struct {
	service AuditService
	userID  UserIDFunc
}

// NewHandler creates a new audit handler.
func NewHandler(service AuditService, userID UserIDFunc) *Handler {
	return &Handler{service: service, userID: userID}
}

// Activity renders the caller's activity feed (GET /activity).
func (h *Handler) Activity(c echo.Context) error {
	userID := h.userID(c)
	if userID == "" {
		return apperror.NewUnauthorized("Please log in to see your activity.")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}

	entries, total, err := h.service.ListForUser(c.Request().Context(), userID, page)
	if err != nil {
		return err
	}

	return middleware.Render(c, http.StatusOK, ActivityPage(entries, total, page, perPage))
}

// ActivityJSON returns the same page as JSON (GET /api/activity).
func (h *Handler) ActivityJSON(c echo.Context) error {
	userID := h.userID(c)
	if userID == "" {
		return apperror.NewUnauthorized("Please login to access this resource")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	entries, total, err := h.service.ListForUser(c.Request().Context(), userID, page)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []AuditEntry{}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"entries": entries,
		"total":   total,
		"perPage": perPage,
	})
}
