package app

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/outreach/internal/middleware"
	"github.com/keyxmakerx/outreach/internal/plugins/audit"
	"github.com/keyxmakerx/outreach/internal/plugins/auth"
	"github.com/keyxmakerx/outreach/internal/plugins/scan"
	"github.com/keyxmakerx/outreach/internal/templates/layouts"
)

// healthTimeout bounds the dependency pings in /healthz.
const healthTimeout = 2 * time.Second

// RegisterRoutes sets up all application routes. It registers public routes
// directly and delegates to each plugin's route registration function.
//
// This is the single place where all routes are aggregated. When a new
// plugin is added, its routes are registered here.
func (a *App) RegisterRoutes() {
	e := a.Echo

	// Health check endpoint for container health monitoring.
	e.GET("/healthz", a.healthz)

	// --- Activity log (optional, needs MariaDB) ---
	activity := audit.NewNopService()
	if a.DB != nil {
		activity = audit.NewAuditService(audit.NewAuditRepository(a.DB))
	}

	// --- Auth plugin (core) ---
	authService := auth.NewAuthService(a.Backend, activity)
	auth.RegisterRoutes(e, auth.NewHandler(authService), auth.NewAPIHandler(authService), auth.Limiters{
		LogIn:    a.newLimiter(10, time.Minute),
		Register: a.newLimiter(5, time.Minute),
	})
	requireAuth := auth.RequireAuth(authService)

	// --- Scan plugin (core) ---
	history := scan.NewNopHistory()
	if a.Redis != nil {
		history = scan.NewRedisHistory(a.Redis)
	}
	scanService := scan.NewScanService(a.Backend, history, activity)
	scan.RegisterRoutes(e, scan.NewHandler(scanService, auth.GetUser), requireAuth, a.newLimiter(6, time.Minute))

	audit.RegisterRoutes(e, audit.NewHandler(activity, auth.GetUserID), requireAuth)

	// Layout data for every rendered page.
	middleware.LayoutInjector = func(c echo.Context, ctx context.Context) context.Context {
		status := auth.CheckAuth(c)
		ctx = layouts.SetIsAuthenticated(ctx, status.IsAuthenticated && status.HasToken)
		if u := status.User; u != nil {
			name := u.Name
			if name == "" {
				name = u.Username
			}
			ctx = layouts.SetUserName(ctx, name)
			ctx = layouts.SetUserEmail(ctx, u.Email)
		}
		ctx = layouts.SetCSRFToken(ctx, middleware.GetCSRFToken(c))
		ctx = layouts.SetActivePath(ctx, c.Request().URL.Path)
		ctx = layouts.SetActivityEnabled(ctx, activity.Enabled())
		ctx = layouts.SetRequestID(ctx, middleware.GetRequestID(c))
		return ctx
	}
}

// healthz reports whether the configured dependencies answer. The backend
// is not probed; it has no health endpoint.
func (a *App) healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
	defer cancel()

	status := map[string]string{"status": "ok"}
	code := http.StatusOK

	if a.DB != nil {
		status["database"] = "ok"
		if err := a.DB.PingContext(ctx); err != nil {
			status["database"] = "unavailable"
			status["status"] = "degraded"
			code = http.StatusServiceUnavailable
		}
	}
	if a.Redis != nil {
		status["redis"] = "ok"
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			status["redis"] = "unavailable"
			status["status"] = "degraded"
			code = http.StatusServiceUnavailable
		}
	}
	return c.JSON(code, status)
}
