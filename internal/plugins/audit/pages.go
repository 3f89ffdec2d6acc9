package audit

import (
	"context"
	"fmt"
	"sort"

	"github.com/a-h/templ"

	"github.com/keyxmakerx/outreach/internal/templates/layouts"
)

// ActivityPage renders the activity feed inside the page shell.
func ActivityPage(entries []AuditEntry, total, page, pageSize int) templ.Component {
	return layouts.Base("Activity", activityFeed(entries, total, page, pageSize))
}

func activityFeed(entries []AuditEntry, total, page, pageSize int) templ.Component {
	return layouts.Component(func(ctx context.Context, w *layouts.Writer) {
		w.Raw(`<div class="card"><h1>Your activity</h1>`)
		if len(entries) == 0 {
			w.Raw(`<p class="muted">Nothing recorded yet.</p></div>`)
			return
		}

		w.Raw(`<table><thead><tr><th>When</th><th>What</th><th>Details</th><th>IP</th></tr></thead><tbody>`)
		for _, e := range entries {
			w.Raw(`<tr><td>`)
			w.Text(e.CreatedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
			w.Raw(`</td><td>`)
			w.Text(e.Label())
			w.Raw(`</td><td class="muted">`)
			w.Text(formatDetails(e.Details))
			w.Raw(`</td><td class="muted">`)
			w.Text(e.IPAddress)
			w.Raw(`</td></tr>`)
		}
		w.Raw(`</tbody></table>`)

		pages := (total + pageSize - 1) / pageSize
		if pages > 1 {
			w.Raw(`<p>`)
			if page > 1 {
				w.Raw(`<a`)
				w.Attr("href", fmt.Sprintf("/activity?page=%d", page-1))
				w.Raw(`>Newer</a> `)
			}
			w.Textf("Page %d of %d", page, pages)
			if page < pages {
				w.Raw(` <a`)
				w.Attr("href", fmt.Sprintf("/activity?page=%d", page+1))
				w.Raw(`>Older</a>`)
			}
			w.Raw(`</p>`)
		}
		w.Raw(`</div>`)
	})
}

// formatDetails renders details as "k=v" pairs in key order.
func formatDetails(details map[string]any) string {
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := ""
	for i, k := range keys {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s=%v", k, details[k])
	}
	return out
}
