// Package app is the application bootstrap and dependency injection root.
// It creates and holds all shared infrastructure (session store, backend
// client, optional DB pool and Redis client, Echo instance) and wires
// together all plugins.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/keyxmakerx/outreach/internal/apperror"
	"github.com/keyxmakerx/outreach/internal/backend"
	"github.com/keyxmakerx/outreach/internal/config"
	"github.com/keyxmakerx/outreach/internal/middleware"
	"github.com/keyxmakerx/outreach/internal/plugins/auth"
	"github.com/keyxmakerx/outreach/internal/session"
	"github.com/keyxmakerx/outreach/internal/templates/pages"
)

// sweepInterval is how often in-memory rate limiters drop idle buckets.
const sweepInterval = 5 * time.Minute

// App holds all shared dependencies and the Echo HTTP server instance.
// Created once at startup in main.go and used to register all routes.
type App struct {
	// Config holds the loaded application configuration.
	Config *config.Config

	// DB is the optional MariaDB pool for the activity log. Nil disables it.
	DB *sql.DB

	// Redis is the optional Redis client for rate limits and scan history.
	// Nil falls back to in-memory limiters and no history.
	Redis *redis.Client

	// Sessions seals and opens the session cookie.
	Sessions *session.Store

	// Backend is the client for the auth and scraping service.
	Backend *backend.Client

	// Echo is the HTTP server instance.
	Echo *echo.Echo

	// memLimiters are swept by RunBackground when Redis is not configured.
	memLimiters []*middleware.MemoryLimiter
}

// New creates a new App instance with the given dependencies and configures
// the Echo server with global middleware and error handling. db and rdb may
// be nil.
func New(cfg *config.Config, db *sql.DB, rdb *redis.Client) (*App, error) {
	store, err := session.NewStore(session.Options{
		CookieName:  cfg.Session.CookieName,
		Password:    cfg.Session.Password,
		Secure:      cfg.IsProduction(),
		DefaultTTL:  cfg.Session.TTL,
		RememberTTL: cfg.Session.RememberTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating session store: %w", err)
	}

	e := echo.New()

	// Disable Echo's default banner and startup message -- we log our own.
	e.HideBanner = true
	e.HidePort = true

	// Configure trusted reverse proxy IPs so c.RealIP() returns the actual
	// client IP instead of the proxy's IP. Rate limits and the activity log
	// key on it.
	middleware.TrustedProxies(e, middleware.DefaultTrustedProxies)

	app := &App{
		Config:   cfg,
		DB:       db,
		Redis:    rdb,
		Sessions: store,
		Backend:  backend.NewClient(cfg.Backend.URL, nil),
		Echo:     e,
	}

	// Register global middleware in order of execution.
	app.setupMiddleware()

	// Register the custom error handler that maps AppErrors to HTTP responses.
	e.HTTPErrorHandler = app.errorHandler

	return app, nil
}

// setupMiddleware registers global middleware on the Echo instance.
// Order matters: outermost (recovery) runs first, innermost (sessions) runs
// last.
func (a *App) setupMiddleware() {
	// Panic recovery -- must be outermost to catch panics from all other middleware.
	a.Echo.Use(middleware.Recovery())

	// Request ID -- before the logger so every log line carries it.
	a.Echo.Use(middleware.RequestID())

	// Request logging -- log every request with method, path, status, latency.
	a.Echo.Use(middleware.RequestLogger())

	// Security headers -- CSP, X-Frame-Options, X-Content-Type-Options, etc.
	a.Echo.Use(middleware.SecurityHeaders(a.Config.IsProduction()))

	// CORS -- only matters for the /api JSON endpoints.
	a.Echo.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:   []string{a.Config.BaseURL},
		AllowCredentials: true,
	}))

	// CSRF -- double-submit cookie pattern on all state-changing requests.
	a.Echo.Use(middleware.CSRF(a.Config.IsProduction()))

	// Sessions -- decode the sealed cookie once per request.
	a.Echo.Use(auth.Sessions(a.Sessions))
}

// newLimiter returns a Redis-backed limiter when Redis is configured and an
// in-process one otherwise.
func (a *App) newLimiter(limit int, window time.Duration) middleware.Limiter {
	if a.Redis != nil {
		return middleware.NewRedisLimiter(a.Redis, limit, window)
	}
	l := middleware.NewMemoryLimiter(limit, window)
	a.memLimiters = append(a.memLimiters, l)
	return l
}

// RunBackground starts housekeeping goroutines that stop when ctx is done.
// Call after RegisterRoutes.
func (a *App) RunBackground(ctx context.Context) {
	for _, l := range a.memLimiters {
		go l.RunSweeper(ctx, sweepInterval)
	}
}

// errorHandler is the custom Echo error handler. It maps domain errors
// (AppError) to appropriate HTTP responses, and renders error pages for
// browser requests or JSON for API requests.
//
// For HTMX partial requests that hit errors, we set HX-Retarget and
// HX-Reswap headers so the error page replaces the full body instead of
// being swapped into a partial target.
//
// For 401 errors on browser requests, we redirect to the login page.
func (a *App) errorHandler(err error, c echo.Context) {
	// Don't double-write if response is already committed.
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := defaultErrorMessage(code)

	var appErr *apperror.AppError
	var echoErr *echo.HTTPError
	switch {
	case errors.As(err, &appErr):
		code = appErr.Code
		message = apperror.SafeMessage(err)

		// Log internal errors with the underlying cause.
		if appErr.Internal != nil {
			slog.Error("internal error",
				slog.String("type", appErr.Type),
				slog.String("message", appErr.Message),
				slog.Any("internal", appErr.Internal),
				slog.String("path", c.Request().URL.Path),
				slog.String("request_id", middleware.GetRequestID(c)),
			)
		}
	case errors.As(err, &echoErr):
		// Echo's own errors, e.g. 404 and 405 from the router.
		code = echoErr.Code
		if msg, ok := echoErr.Message.(string); ok {
			message = msg
		} else {
			message = defaultErrorMessage(code)
		}
	default:
		slog.Error("unhandled error",
			slog.Any("error", err),
			slog.String("path", c.Request().URL.Path),
			slog.String("request_id", middleware.GetRequestID(c)),
		)
	}

	// API requests always get JSON.
	if isAPIRequest(c) {
		_ = c.JSON(code, map[string]string{
			"error":   http.StatusText(code),
			"message": message,
		})
		return
	}

	// For HTMX requests, redirect to login on 401 so the browser navigates
	// instead of swapping error HTML into a fragment target.
	if isHTMXRequest(c) {
		if code == http.StatusUnauthorized {
			c.Response().Header().Set("HX-Redirect", "/login")
			_ = c.NoContent(http.StatusNoContent)
			return
		}
		c.Response().Header().Set("HX-Retarget", "body")
		c.Response().Header().Set("HX-Reswap", "innerHTML")
	}

	// Regular browser 401 -- redirect to login page.
	if code == http.StatusUnauthorized {
		_ = c.Redirect(http.StatusSeeOther, "/login")
		return
	}

	if err := middleware.Render(c, code, pages.ErrorPage(code, message)); err != nil {
		slog.Error("rendering error page", slog.Any("error", err))
	}
}

// defaultErrorMessage returns a user-friendly message for common HTTP status codes
// when no specific message was provided by the error.
func defaultErrorMessage(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "The request was invalid or cannot be processed."
	case http.StatusUnauthorized:
		return "You need to log in to access this page."
	case http.StatusForbidden:
		return "You don't have permission to access this resource."
	case http.StatusNotFound:
		return "The page you're looking for doesn't exist or has been moved."
	case http.StatusMethodNotAllowed:
		return "This action is not allowed."
	case http.StatusUnsupportedMediaType:
		return "The request body has an unsupported format."
	case http.StatusTooManyRequests:
		return "You're making too many requests. Please slow down."
	case http.StatusInternalServerError:
		return "Something went wrong on our end. Please try again."
	case http.StatusBadGateway:
		return "The server received an invalid response."
	case http.StatusServiceUnavailable:
		return "The service is temporarily unavailable. Please try again later."
	default:
		return "An unexpected error occurred."
	}
}

// isAPIRequest returns true if the request is targeting the API (JSON response expected).
func isAPIRequest(c echo.Context) bool {
	path := c.Request().URL.Path
	return path == "/api" || strings.HasPrefix(path, "/api/")
}

// isHTMXRequest returns true if the request was initiated by HTMX.
func isHTMXRequest(c echo.Context) bool {
	return c.Request().Header.Get("HX-Request") == "true"
}

// Start begins listening for HTTP requests on the configured port.
func (a *App) Start() error {
	addr := fmt.Sprintf(":%d", a.Config.Port)
	slog.Info("starting Outreach server",
		slog.String("addr", addr),
		slog.String("env", a.Config.Env),
		slog.String("backend", a.Config.Backend.URL),
	)
	return a.Echo.Start(addr)
}
