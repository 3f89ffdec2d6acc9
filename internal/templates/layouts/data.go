// data.go provides typed context helpers for passing layout data from
// handlers/middleware to templ components. Only simple types are stored so
// the layouts package never imports plugin types.
//
// Data flow: Middleware -> Echo Context -> LayoutInjector -> Go Context -> templ
package layouts

import "context"

// ctxKey is a private type for context keys to prevent collisions.
type ctxKey string

const (
	keyIsAuthenticated ctxKey = "layout_is_authenticated"
	keyUserName        ctxKey = "layout_user_name"
	keyUserEmail       ctxKey = "layout_user_email"
	keyCSRFToken       ctxKey = "layout_csrf_token"
	keyActivePath      ctxKey = "layout_active_path"
	keyActivityEnabled ctxKey = "layout_activity_enabled"
	keyRequestID       ctxKey = "layout_request_id"
)

// --- Setters (called by the layout injector in app/routes.go) ---

// SetIsAuthenticated marks whether the current request has a logged-in session.
func SetIsAuthenticated(ctx context.Context, authed bool) context.Context {
	return context.WithValue(ctx, keyIsAuthenticated, authed)
}

// SetUserName stores the display name shown in the nav bar.
func SetUserName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, keyUserName, name)
}

// SetUserEmail stores the logged-in user's email.
func SetUserEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, keyUserEmail, email)
}

// SetCSRFToken stores the CSRF token for forms.
func SetCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, keyCSRFToken, token)
}

// SetActivePath stores the request path for nav highlighting.
func SetActivePath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, keyActivePath, path)
}

// SetActivityEnabled records whether the activity log is available.
func SetActivityEnabled(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, keyActivityEnabled, enabled)
}

// SetRequestID stores the request id shown on error pages.
func SetRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyRequestID, id)
}

// --- Getters (called from templ components) ---

// IsAuthenticated reports whether a user is logged in.
func IsAuthenticated(ctx context.Context) bool {
	v, _ := ctx.Value(keyIsAuthenticated).(bool)
	return v
}

// UserName returns the logged-in user's display name.
func UserName(ctx context.Context) string {
	v, _ := ctx.Value(keyUserName).(string)
	return v
}

// UserEmail returns the logged-in user's email.
func UserEmail(ctx context.Context) string {
	v, _ := ctx.Value(keyUserEmail).(string)
	return v
}

// CSRFToken returns the CSRF token for forms.
func CSRFToken(ctx context.Context) string {
	v, _ := ctx.Value(keyCSRFToken).(string)
	return v
}

// ActivePath returns the current request path.
func ActivePath(ctx context.Context) string {
	v, _ := ctx.Value(keyActivePath).(string)
	return v
}

// ActivityEnabled reports whether the activity page should be linked.
func ActivityEnabled(ctx context.Context) bool {
	v, _ := ctx.Value(keyActivityEnabled).(bool)
	return v
}

// RequestID returns the current request id.
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(keyRequestID).(string)
	return v
}
