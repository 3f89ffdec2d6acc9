package auth

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/outreach/internal/apperror"
	"github.com/keyxmakerx/outreach/internal/backend"
	"github.com/keyxmakerx/outreach/internal/middleware"
)

// Handler handles HTTP requests for authentication (login, register, logout)
// and the account pages. Handlers are thin: they bind the request, call the
// service, and render the response. No business logic lives here.
type Handler struct {
	service AuthService
	now     func() time.Time
}

// NewHandler creates a new auth handler with the given service.
func NewHandler(service AuthService) *Handler {
	return &Handler{service: service, now: time.Now}
}

// Landing renders the home page (GET /). A logged-in session without a
// cached profile is hydrated first, best-effort.
func (h *Handler) Landing(c echo.Context) error {
	status := CheckAuth(c)
	if status.IsAuthenticated && status.HasToken && status.User == nil {
		// Re-read afterwards: a 401 during hydration logs the session out.
		_, _ = h.service.FetchAndUpdate(c.Request().Context(), GetSession(c))
		status = CheckAuth(c)
	}
	return middleware.Render(c, http.StatusOK, LandingPage(status))
}

// LoginForm renders the login page (GET /login).
func (h *Handler) LoginForm(c echo.Context) error {
	return middleware.Render(c, http.StatusOK, LoginPage(LogInRequest{}, FormState{}))
}

// Login processes the login form submission (POST /login).
func (h *Handler) Login(c echo.Context) error {
	var req LogInRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	state := h.service.LogIn(c.Request().Context(), GetSession(c), req, c.RealIP())

	if middleware.IsHTMX(c) {
		return middleware.Render(c, http.StatusOK, LoginFormFragment(req, state, true))
	}
	return middleware.Render(c, http.StatusOK, LoginPage(req, state))
}

// RegisterForm renders the registration page (GET /register).
func (h *Handler) RegisterForm(c echo.Context) error {
	return middleware.Render(c, http.StatusOK, RegisterPage(SignUpRequest{}, FormState{}))
}

// Register processes the registration form submission (POST /register).
func (h *Handler) Register(c echo.Context) error {
	var req SignUpRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	state := h.service.SignUp(c.Request().Context(), GetSession(c), req, c.RealIP())

	if middleware.IsHTMX(c) {
		return middleware.Render(c, http.StatusOK, RegisterFormFragment(req, state, true))
	}
	return middleware.Render(c, http.StatusOK, RegisterPage(req, state))
}

// Logout destroys the session (POST /logout).
func (h *Handler) Logout(c echo.Context) error {
	if sess := GetSession(c); sess != nil {
		h.service.LogOut(c.Request().Context(), sess, c.RealIP())
	}

	if isHTMXRequest(c) {
		c.Response().Header().Set("HX-Redirect", "/")
		return c.NoContent(http.StatusNoContent)
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

// Profile renders the account page (GET /profile). Requires RequireAuth.
func (h *Handler) Profile(c echo.Context) error {
	user := GetUser(c)
	if user == nil {
		return apperror.NewUnauthorized("Please log in.")
	}

	// Opaque tokens have no claims to show.
	claims, _ := backend.ParseTokenClaims(AccessToken(c))
	return middleware.Render(c, http.StatusOK, ProfilePage(user, claims, h.now()))
}

// Settings renders the settings page (GET /settings). Requires RequireAuth.
func (h *Handler) Settings(c echo.Context) error {
	user := h.service.CurrentUser(c.Request().Context(), GetSession(c))
	return middleware.Render(c, http.StatusOK, SettingsPage(user))
}
