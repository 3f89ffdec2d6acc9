package layouts

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// Writer writes markup for a templ component. The first write error sticks
// and every later call becomes a no-op; Err reports it once at the end.
type Writer struct {
	w   io.Writer
	err error
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Raw writes trusted markup verbatim. Never pass user data here.
func (o *Writer) Raw(parts ...string) {
	for _, p := range parts {
		if o.err != nil {
			return
		}
		_, o.err = io.WriteString(o.w, p)
	}
}

// Text writes s HTML-escaped.
func (o *Writer) Text(s string) {
	o.Raw(templ.EscapeString(s))
}

// Textf formats then escapes.
func (o *Writer) Textf(format string, args ...any) {
	o.Text(fmt.Sprintf(format, args...))
}

// Attr writes ` name="value"` with value escaped.
func (o *Writer) Attr(name, value string) {
	o.Raw(" ", name, `="`, templ.EscapeString(value), `"`)
}

// Component renders a child component in place.
func (o *Writer) Component(ctx context.Context, c templ.Component) {
	if o.err != nil || c == nil {
		return
	}
	o.err = c.Render(ctx, o.w)
}

// Err returns the first write error.
func (o *Writer) Err() error {
	return o.err
}

// Component adapts a render function into a templ.Component.
func Component(render func(ctx context.Context, w *Writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out := NewWriter(w)
		render(ctx, out)
		return out.Err()
	})
}

// CSRFField renders the hidden CSRF input for plain form posts.
func CSRFField(ctx context.Context, w *Writer) {
	w.Raw(`<input type="hidden" name="csrf_token"`)
	w.Attr("value", CSRFToken(ctx))
	w.Raw(`>`)
}
