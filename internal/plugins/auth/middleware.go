package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/outreach/internal/session"
)

// Context keys for storing session data in Echo context. Other plugins
// use these keys (via the exported getter functions below) to access
// the authenticated user's information.
const (
	contextKeySession = "auth_session"
	contextKeyUser    = "auth_user"
)

// Sessions returns middleware that decodes the session cookie once per
// request and stores the handle in the Echo context. Registered globally;
// every other helper in this file reads the handle it leaves behind.
func Sessions(store *session.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(contextKeySession, store.Load(c.Response(), c.Request()))
			return next(c)
		}
	}
}

// RequireAuth returns middleware that only lets logged-in sessions through.
// A session without a cached user is hydrated first; if that fails (for
// example the token expired) the request is treated as logged out.
func RequireAuth(service AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := GetSession(c)
			if sess == nil || !sess.Values().Authenticated() {
				return handleUnauthenticated(c)
			}

			user := sess.Values().User
			if user == nil {
				var err error
				user, err = service.FetchAndUpdate(c.Request().Context(), sess)
				if err != nil {
					return handleUnauthenticated(c)
				}
			}

			c.Set(contextKeyUser, user)
			return next(c)
		}
	}
}

// RedirectIfAuthenticated sends logged-in users to the dashboard. Used on
// the login and registration pages.
func RedirectIfAuthenticated() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if sess := GetSession(c); sess != nil && sess.Values().Authenticated() {
				return c.Redirect(http.StatusSeeOther, "/dashboard")
			}
			return next(c)
		}
	}
}

// handleUnauthenticated returns the appropriate response for unauthenticated
// requests: redirect for browsers, 401 JSON for API clients.
func handleUnauthenticated(c echo.Context) error {
	if isAPIRequest(c) {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error":   "Unauthorized",
			"message": "Please login to access this resource",
		})
	}

	// HTMX requests get a redirect header so the full page navigates.
	if isHTMXRequest(c) {
		c.Response().Header().Set("HX-Redirect", "/login")
		return c.NoContent(http.StatusNoContent)
	}

	return c.Redirect(http.StatusSeeOther, "/login")
}

// --- Exported getters for other plugins ---

// GetSession retrieves the request's session handle. Returns nil when the
// Sessions middleware did not run.
func GetSession(c echo.Context) *session.Handle {
	sess, ok := c.Get(contextKeySession).(*session.Handle)
	if !ok {
		return nil
	}
	return sess
}

// GetAuthSession is the optional-auth form of RequireAuth: it returns the
// session data when logged in (hydrating the user if needed) and nil
// otherwise, without redirecting.
func GetAuthSession(c echo.Context, service AuthService) *session.Data {
	sess := GetSession(c)
	if sess == nil || !sess.Values().Authenticated() {
		return nil
	}
	if sess.Values().User == nil {
		if _, err := service.FetchAndUpdate(c.Request().Context(), sess); err != nil {
			return nil
		}
	}
	return sess.Values()
}

// CheckAuth reports the session's login state without touching the network.
func CheckAuth(c echo.Context) AuthStatus {
	sess := GetSession(c)
	if sess == nil {
		return AuthStatus{}
	}
	data := sess.Values()
	return AuthStatus{
		IsAuthenticated: data.IsLoggedIn,
		User:            data.User,
		HasToken:        data.AccessToken != "",
	}
}

// GetUser returns the logged-in user, or nil.
func GetUser(c echo.Context) *session.User {
	if u, ok := c.Get(contextKeyUser).(*session.User); ok && u != nil {
		return u
	}
	if sess := GetSession(c); sess != nil && sess.Values().Authenticated() {
		return sess.Values().User
	}
	return nil
}

// GetUserID returns the logged-in user's id, or "".
func GetUserID(c echo.Context) string {
	if u := GetUser(c); u != nil {
		return u.ID
	}
	return ""
}

// AccessToken returns the stored bearer token, or "".
func AccessToken(c echo.Context) string {
	if sess := GetSession(c); sess != nil {
		return sess.Values().AccessToken
	}
	return ""
}

// --- Helpers ---

// isAPIRequest returns true if the request targets the /api/ path.
func isAPIRequest(c echo.Context) bool {
	path := c.Request().URL.Path
	return path == "/api" || strings.HasPrefix(path, "/api/")
}

// isHTMXRequest returns true if the request was made by HTMX.
func isHTMXRequest(c echo.Context) bool {
	return c.Request().Header.Get("HX-Request") == "true"
}
