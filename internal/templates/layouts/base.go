package layouts

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/a-h/templ"
)

// htmxSrc is the pinned htmx bundle. The CSP allows unpkg.com for scripts.
const htmxSrc = "https://unpkg.com/htmx.org@2.0.4"

const styles = `
body{font-family:system-ui,sans-serif;margin:0;background:#f6f7f9;color:#1f2328}
nav{display:flex;gap:1rem;align-items:center;padding:.75rem 1.5rem;background:#1f2937}
nav a,nav button{color:#e5e7eb;text-decoration:none;background:none;border:0;font:inherit;cursor:pointer}
nav a.active{color:#fff;font-weight:600}
nav .spacer{flex:1}
main{max-width:64rem;margin:2rem auto;padding:0 1.5rem}
.card{background:#fff;border-radius:.5rem;padding:1.5rem;box-shadow:0 1px 2px rgba(0,0,0,.08);margin-bottom:1.5rem}
label{display:block;margin:.75rem 0 .25rem;font-weight:500}
input[type=text],input[type=email],input[type=password]{width:100%;padding:.5rem;border:1px solid #d0d7de;border-radius:.375rem;box-sizing:border-box}
button.primary{margin-top:1rem;padding:.5rem 1rem;background:#2563eb;color:#fff;border:0;border-radius:.375rem;cursor:pointer}
.error{color:#b91c1c;margin:.25rem 0;font-size:.9rem}
.success{color:#15803d}
table{width:100%;border-collapse:collapse;font-size:.9rem}
th,td{text-align:left;padding:.4rem .5rem;border-bottom:1px solid #e5e7eb}
.muted{color:#6b7280}
.htmx-indicator{display:none}.htmx-request .htmx-indicator{display:inline}
`

// Base wraps content in the full page shell: head, nav bar and main area.
func Base(title string, content templ.Component) templ.Component {
	return Component(func(ctx context.Context, w *Writer) {
		w.Raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		w.Raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		w.Raw(`<title>`)
		w.Text(title)
		w.Raw(` · Outreach</title><style>`, styles, `</style>`)
		w.Raw(`<script src="`, htmxSrc, `" defer></script></head>`)

		// htmx sends the CSRF header on every request it makes.
		headers, _ := json.Marshal(map[string]string{"X-CSRF-Token": CSRFToken(ctx)})
		w.Raw(`<body`)
		w.Attr("hx-headers", string(headers))
		w.Raw(`>`)

		nav(ctx, w)

		w.Raw(`<main id="main">`)
		w.Component(ctx, content)
		w.Raw(`</main></body></html>`)
	})
}

func nav(ctx context.Context, w *Writer) {
	w.Raw(`<nav>`)
	navLink(ctx, w, "/", "Outreach")
	if IsAuthenticated(ctx) {
		navLink(ctx, w, "/dashboard", "Dashboard")
		navLink(ctx, w, "/profile", "Profile")
		navLink(ctx, w, "/settings", "Settings")
		if ActivityEnabled(ctx) {
			navLink(ctx, w, "/activity", "Activity")
		}
		w.Raw(`<span class="spacer"></span><span class="muted"`)
		if email := UserEmail(ctx); email != "" {
			w.Attr("title", email)
		}
		w.Raw(`>`)
		w.Text(UserName(ctx))
		w.Raw(`</span><form method="post" action="/logout">`)
		CSRFField(ctx, w)
		w.Raw(`<button type="submit">Log out</button></form>`)
	} else {
		w.Raw(`<span class="spacer"></span>`)
		navLink(ctx, w, "/login", "Log in")
		navLink(ctx, w, "/register", "Sign up")
	}
	w.Raw(`</nav>`)
}

func navLink(ctx context.Context, w *Writer, href, label string) {
	w.Raw(`<a`)
	w.Attr("href", href)
	active := ActivePath(ctx)
	if active == href || (href != "/" && strings.HasPrefix(active, href+"/")) {
		w.Raw(` class="active"`)
	}
	w.Raw(`>`)
	w.Text(label)
	w.Raw(`</a>`)
}

// DelayedRedirect sends the browser to href after two seconds. HTMX swaps
// use an htmx load trigger; full page loads use a meta refresh.
func DelayedRedirect(href string, htmx bool) templ.Component {
	return Component(func(_ context.Context, w *Writer) {
		if htmx {
			w.Raw(`<div hx-trigger="load delay:2s" hx-target="body" hx-push-url="true"`)
			w.Attr("hx-get", href)
			w.Raw(`></div>`)
			return
		}
		w.Raw(`<meta http-equiv="refresh"`)
		w.Attr("content", "2;url="+href)
		w.Raw(`>`)
	})
}
