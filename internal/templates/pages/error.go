// Package pages holds page components shared across plugins.
package pages

import (
	"context"
	"net/http"

	"github.com/a-h/templ"

	"github.com/keyxmakerx/outreach/internal/templates/layouts"
)

// ErrorPage renders a full error page for browser requests.
func ErrorPage(code int, message string) templ.Component {
	return layouts.Base(http.StatusText(code), ErrorContent(code, message))
}

// ErrorContent is the error card without the page shell, for HTMX swaps.
func ErrorContent(code int, message string) templ.Component {
	return layouts.Component(func(ctx context.Context, w *layouts.Writer) {
		w.Raw(`<div class="card"><h1>`)
		w.Textf("%d %s", code, http.StatusText(code))
		w.Raw(`</h1><p>`)
		w.Text(message)
		w.Raw(`</p>`)
		if id := layouts.RequestID(ctx); id != "" {
			w.Raw(`<p class="muted">Request ID: `)
			w.Text(id)
			w.Raw(`</p>`)
		}
		w.Raw(`<p><a href="/">Back to home</a></p></div>`)
	})
}
