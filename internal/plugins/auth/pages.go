package auth

import (
	"context"
	"time"

	"github.com/a-h/templ"

	"github.com/keyxmakerx/outreach/internal/backend"
	"github.com/keyxmakerx/outreach/internal/session"
	"github.com/keyxmakerx/outreach/internal/templates/layouts"
)

// LoginPage renders the full log-in page.
func LoginPage(req LogInRequest, state FormState) templ.Component {
	return layouts.Base("Log in", LoginFormFragment(req, state, false))
}

// LoginFormFragment renders the log-in card. HTMX posts swap it in place.
func LoginFormFragment(req LogInRequest, state FormState, htmx bool) templ.Component {
	return layouts.Component(func(ctx context.Context, w *layouts.Writer) {
		w.Raw(`<div id="login-form" class="card"><h1>Log in</h1>`)
		if state.ShouldRedirect {
			successBlock(ctx, w, state.Message, htmx)
			w.Raw(`</div>`)
			return
		}

		formErrors(w, state.Errors.Get(FormErrorKey))
		w.Raw(`<form method="post" action="/login" hx-post="/login" hx-target="#login-form" hx-swap="outerHTML">`)
		layouts.CSRFField(ctx, w)
		textInput(w, "text", "username", "Username", req.Username, "username")
		formErrors(w, state.Errors.Get("username"))
		textInput(w, "password", "password", "Password", "", "current-password")
		formErrors(w, state.Errors.Get("password"))
		rememberBox(w, checkboxChecked(req.RememberMe))
		w.Raw(`<button type="submit" class="primary">Log in</button>`)
		w.Raw(`<span class="htmx-indicator muted"> Signing in…</span></form>`)
		w.Raw(`<p class="muted">No account? <a href="/register">Sign up</a></p></div>`)
	})
}

// RegisterPage renders the full registration page.
func RegisterPage(req SignUpRequest, state FormState) templ.Component {
	return layouts.Base("Sign up", RegisterFormFragment(req, state, false))
}

// RegisterFormFragment renders the registration card.
func RegisterFormFragment(req SignUpRequest, state FormState, htmx bool) templ.Component {
	return layouts.Component(func(ctx context.Context, w *layouts.Writer) {
		w.Raw(`<div id="register-form" class="card"><h1>Create an account</h1>`)
		if state.ShouldRedirect {
			successBlock(ctx, w, state.Message, htmx)
			w.Raw(`</div>`)
			return
		}

		formErrors(w, state.Errors.Get(FormErrorKey))
		w.Raw(`<form method="post" action="/register" hx-post="/register" hx-target="#register-form" hx-swap="outerHTML">`)
		layouts.CSRFField(ctx, w)
		textInput(w, "text", "username", "Username (optional)", req.Username, "username")
		formErrors(w, state.Errors.Get("username"))
		textInput(w, "email", "email", "Email", req.Email, "email")
		formErrors(w, state.Errors.Get("email"))
		textInput(w, "password", "password", "Password", "", "new-password")
		formErrors(w, state.Errors.Get("password"))
		textInput(w, "password", "confirmPassword", "Confirm password", "", "new-password")
		formErrors(w, state.Errors.Get("confirmPassword"))
		rememberBox(w, checkboxChecked(req.RememberMe))
		w.Raw(`<button type="submit" class="primary">Sign up</button>`)
		w.Raw(`<span class="htmx-indicator muted"> Creating account…</span></form>`)
		w.Raw(`<p class="muted">Already registered? <a href="/login">Log in</a></p></div>`)
	})
}

// LandingPage renders "/" for visitors and logged-in users alike.
func LandingPage(status AuthStatus) templ.Component {
	return layouts.Base("Welcome", layouts.Component(func(_ context.Context, w *layouts.Writer) {
		w.Raw(`<div class="card"><h1>Outreach</h1>`)
		if status.IsAuthenticated {
			w.Raw(`<p>Signed in`)
			if status.User != nil {
				w.Raw(` as <strong>`)
				w.Text(displayName(status.User))
				w.Raw(`</strong>`)
			}
			w.Raw(`.</p><p><a href="/dashboard">Open the dashboard</a> · <a href="/profile">Profile</a></p>`)
		} else {
			w.Raw(`<p>Find healthcare professionals by city and specialty.</p>`)
			w.Raw(`<p><a href="/login">Log in</a> or <a href="/register">create an account</a>.</p>`)
		}
		if !status.HasToken && status.IsAuthenticated {
			w.Raw(`<p class="error">Your session has no access token. Please log in again.</p>`)
		}
		w.Raw(`</div>`)
	}))
}

// ProfilePage shows the cached user and what the token says about itself.
func ProfilePage(user *session.User, claims *backend.TokenClaims, now time.Time) templ.Component {
	return layouts.Base("Profile", layouts.Component(func(ctx context.Context, w *layouts.Writer) {
		w.Raw(`<div class="card"><h1>Profile</h1><table>`)
		row(w, "Name", user.Name)
		row(w, "Username", user.Username)
		row(w, "Email", user.Email)
		row(w, "User ID", user.ID)
		if claims != nil && !claims.ExpiresAt.IsZero() {
			exp := claims.ExpiresAt.UTC().Format(time.RFC1123)
			if claims.Expired(now) {
				exp += " (expired)"
			}
			row(w, "Token expires", exp)
		}
		w.Raw(`</table><form method="post" action="/logout">`)
		layouts.CSRFField(ctx, w)
		w.Raw(`<button type="submit" class="primary">Log out</button></form></div>`)
	}))
}

// SettingsPage shows the current user and links to the JSON endpoints.
func SettingsPage(user *session.User) templ.Component {
	return layouts.Base("Settings", layouts.Component(func(_ context.Context, w *layouts.Writer) {
		w.Raw(`<div class="card"><h1>Settings</h1>`)
		if user == nil {
			w.Raw(`<p class="muted">Profile unavailable.</p>`)
		} else {
			w.Raw(`<p>Signed in as <strong>`)
			w.Text(displayName(user))
			w.Raw(`</strong> (`)
			w.Text(user.Email)
			w.Raw(`)</p>`)
		}
		w.Raw(`<h2>API</h2><ul>`)
		w.Raw(`<li><a href="/api/user" target="_blank">GET /api/user</a></li>`)
		w.Raw(`<li>POST /api/user with a JSON body echoes it back:</li></ul>`)
		w.Raw(`<pre class="muted">curl -b auth_session=… -H 'Content-Type: application/json' -d '{"ping":"pong"}' /api/user</pre></div>`)
	}))
}

func displayName(u *session.User) string {
	switch {
	case u.Name != "":
		return u.Name
	case u.Username != "":
		return u.Username
	default:
		return u.Email
	}
}

func successBlock(ctx context.Context, w *layouts.Writer, msg string, htmx bool) {
	w.Raw(`<p class="success">`)
	w.Text(msg)
	w.Raw(`. Redirecting…</p>`)
	w.Component(ctx, layouts.DelayedRedirect("/", htmx))
}

func formErrors(w *layouts.Writer, msgs []string) {
	for _, m := range msgs {
		w.Raw(`<p class="error">`)
		w.Text(m)
		w.Raw(`</p>`)
	}
}

func textInput(w *layouts.Writer, typ, name, label, value, autocomplete string) {
	w.Raw(`<label`)
	w.Attr("for", name)
	w.Raw(`>`)
	w.Text(label)
	w.Raw(`</label><input`)
	w.Attr("type", typ)
	w.Attr("id", name)
	w.Attr("name", name)
	w.Attr("autocomplete", autocomplete)
	if value != "" {
		w.Attr("value", value)
	}
	w.Raw(`>`)
}

func rememberBox(w *layouts.Writer, checked bool) {
	w.Raw(`<label><input type="checkbox" name="rememberMe" value="on"`)
	if checked {
		w.Raw(` checked`)
	}
	w.Raw(`> Remember me for 7 days</label>`)
}

func row(w *layouts.Writer, label, value string) {
	w.Raw(`<tr><th>`)
	w.Text(label)
	w.Raw(`</th><td>`)
	if value == "" {
		w.Raw(`<span class="muted">—</span>`)
	} else {
		w.Text(value)
	}
	w.Raw(`</td></tr>`)
}
