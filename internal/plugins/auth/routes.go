package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/outreach/internal/middleware"
)

// Limiters holds the per-route rate limiters for the public POST endpoints:
// 10 attempts per IP per minute for login and 5 for register, built by the
// app so they share its Redis or in-memory backend.
type Limiters struct {
	LogIn    middleware.Limiter
	Register middleware.Limiter
}

// RegisterRoutes sets up all auth-related routes on the given Echo instance.
// Login and registration pages bounce users who are already logged in;
// account pages sit behind RequireAuth.
func RegisterRoutes(e *echo.Echo, h *Handler, api *APIHandler, limits Limiters) {
	guest := RedirectIfAuthenticated()
	requireAuth := RequireAuth(h.service)

	e.GET("/", h.Landing)

	e.GET("/login", h.LoginForm, guest)
	e.POST("/login", h.Login, middleware.RateLimit(limits.LogIn, "login"))
	e.GET("/register", h.RegisterForm, guest)
	e.POST("/register", h.Register, middleware.RateLimit(limits.Register, "register"))
	e.POST("/logout", h.Logout)

	e.GET("/profile", h.Profile, requireAuth)
	e.GET("/settings", h.Settings, requireAuth)

	// JSON endpoints answer 401 themselves instead of redirecting.
	e.GET("/api/user", api.GetUser)
	e.POST("/api/user", api.PostUser, middleware.RequireJSON())
}
