package scan

import (
	"context"
	"strconv"

	"github.com/a-h/templ"

	"github.com/keyxmakerx/outreach/internal/backend"
	"github.com/keyxmakerx/outreach/internal/session"
	"github.com/keyxmakerx/outreach/internal/templates/layouts"
)

// DashboardPage renders the full dashboard.
func DashboardPage(user *session.User, form Form, result Result, recent []Summary) templ.Component {
	return layouts.Base("Dashboard", layouts.Component(func(ctx context.Context, w *layouts.Writer) {
		name := user.Name
		if name == "" {
			name = user.Username
		}
		w.Raw(`<div class="card"><h1>Welcome back`)
		if name != "" {
			w.Raw(`, `)
			w.Text(name)
		}
		w.Raw(`!</h1><p class="muted">Search for health professionals in your city.</p>`)
		if user.Email != "" {
			w.Raw(`<p class="muted">`)
			w.Text(user.Email)
			w.Raw(`</p>`)
		}
		w.Raw(`</div>`)

		w.Component(ctx, ScanPanel(form, result))
		recentScans(w, recent)
	}))
}

// ScanPanel renders the scan form and, below it, the last result. HTMX
// replaces the whole panel on submit.
func ScanPanel(form Form, result Result) templ.Component {
	return layouts.Component(func(ctx context.Context, w *layouts.Writer) {
		w.Raw(`<div id="scan-panel"><div class="card"><h2>Generate leads</h2>`)
		if result.Error != "" {
			w.Raw(`<p class="error" role="alert">`)
			w.Text(result.Error)
			w.Raw(`</p>`)
		}

		w.Raw(`<form method="post" action="/dashboard/scan" hx-post="/dashboard/scan" hx-target="#scan-panel" hx-swap="outerHTML" hx-disabled-elt="find button">`)
		layouts.CSRFField(ctx, w)
		w.Raw(`<label for="profession">Type of doctor</label><input type="text" id="profession" name="profession" placeholder="e.g. Cardiologist, Dermatologist"`)
		w.Attr("value", form.Profession)
		w.Raw(`><label for="cityState">City, state</label><input type="text" id="cityState" name="cityState" list="city-suggestions" placeholder="e.g. Miami, FL"`)
		w.Attr("value", form.CityState)
		w.Raw(`><datalist id="city-suggestions">`)
		for _, s := range Suggestions {
			w.Raw(`<option`)
			w.Attr("value", s)
			w.Raw(`>`)
		}
		w.Raw(`</datalist><button type="submit" class="primary">Generate</button>`)
		w.Raw(`<span class="htmx-indicator muted"> Generating… this can take a few minutes.</span></form></div>`)

		if result.Result != nil {
			scanResult(w, result.Result)
		} else if result.Error == "" {
			w.Raw(`<p class="muted">No results yet. Enter a doctor type and city, then hit Generate.</p>`)
		}
		w.Raw(`</div>`)
	})
}

func scanResult(w *layouts.Writer, r *backend.ScanResponse) {
	w.Raw(`<div class="card"><h3>Results for `)
	w.Text(r.Profession)
	w.Raw(` in `)
	w.Text(r.Location)
	w.Raw(`</h3><p class="muted">`)
	w.Textf("Requested %d · processed %d · failed %d", r.Requested, r.Processed, r.Failed)
	if r.TimedOut {
		w.Raw(` · <strong>timed out</strong>`)
	}
	w.Raw(`<br>Started `)
	w.Text(string(r.Started))
	w.Raw(` · completed `)
	w.Text(string(r.Completed))
	if r.SavedToCSV != "" {
		w.Raw(` · saved to `)
		w.Text(string(r.SavedToCSV))
	}
	w.Raw(`</p>`)

	rows := r.Rows()
	if len(rows) == 0 {
		w.Raw(`<p class="muted">The scan returned no rows.</p>`)
	} else {
		w.Raw(`<table><thead><tr><th>Name</th><th>Credentials</th><th>Title</th><th>Sex</th><th>NPI</th><th>Phone</th><th>Address</th><th>City</th></tr></thead><tbody>`)
		for _, row := range rows {
			w.Raw(`<tr>`)
			cell(w, row.FullName())
			cell(w, row.Credentials)
			title := row.Title
			if title == "" {
				title = row.Position
			}
			cell(w, title)
			cell(w, string(row.Sex))
			npi := ""
			if row.NPPESNumber != nil {
				npi = row.NPPESNumber.String()
			}
			cell(w, npi)
			cell(w, row.PhoneNumber)
			cell(w, row.Address)
			cell(w, row.ScrappedCity)
			w.Raw(`</tr>`)
		}
		w.Raw(`</tbody></table>`)
	}

	if len(r.Failures) > 0 {
		w.Raw(`<details><summary>`)
		w.Text(strconv.Itoa(len(r.Failures)) + " failures")
		w.Raw(`</summary><ul>`)
		for _, f := range r.Failures {
			w.Raw(`<li class="muted">`)
			for i, field := range f {
				if i > 0 {
					w.Raw(`, `)
				}
				w.Text(field.Key + "=" + field.Text())
			}
			w.Raw(`</li>`)
		}
		w.Raw(`</ul></details>`)
	}
	w.Raw(`</div>`)
}

func recentScans(w *layouts.Writer, recent []Summary) {
	if len(recent) == 0 {
		return
	}
	w.Raw(`<div class="card"><h2>Recent scans</h2><table><thead><tr><th>When</th><th>Profession</th><th>Location</th><th>Processed</th><th>Failed</th></tr></thead><tbody>`)
	for _, s := range recent {
		w.Raw(`<tr>`)
		cell(w, s.RanAt.Format("2006-01-02 15:04 UTC"))
		cell(w, s.Profession)
		cell(w, s.Location)
		cell(w, strconv.Itoa(s.Processed))
		failed := strconv.Itoa(s.Failed)
		if s.TimedOut {
			failed += " (timed out)"
		}
		cell(w, failed)
		w.Raw(`</tr>`)
	}
	w.Raw(`</tbody></table></div>`)
}

func cell(w *layouts.Writer, v string) {
	w.Raw(`<td>`)
	w.Text(v)
	w.Raw(`</td>`)
}
