// Package templates renders the report UI as templ components.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// html accumulates output and keeps the first write error.
type html struct {
	w   io.Writer
	err error
}

func (h *html) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

func (h *html) rawf(format string, args ...any) {
	h.raw(fmt.Sprintf(format, args...))
}

func (h *html) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *html) attr(name, value string) {
	h.raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

func (h *html) render(ctx context.Context, c templ.Component) {
	if h.err != nil {
		return
	}
	h.err = c.Render(ctx, h.w)
}

const styles = `
body{font-family:system-ui,sans-serif;margin:0;background:#f7f7f9;color:#222}
header{background:#1f2937;color:#fff;padding:.75rem 1.5rem}
header a{color:#fff;text-decoration:none;font-weight:600}
main{padding:1.5rem}
table{border-collapse:collapse;background:#fff;font-size:.875rem}
th,td{border:1px solid #ddd;padding:.25rem .5rem;text-align:left;white-space:nowrap}
th{background:#eef0f4;position:sticky;top:0}
td.num{text-align:right}
.alert{border:1px solid #e0b4b4;background:#fff6f6;padding:.75rem;margin-bottom:1rem}
.notice{color:#8a6d3b}
.muted{color:#666}
fieldset{margin-bottom:1rem;border:1px solid #ddd}
.kinds span{margin-right:1rem}
`

// Layout wraps body in the page chrome.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw("<title>")
		h.text(title)
		h.raw(" | WIZ Report Viewer</title><style>")
		h.raw(styles)
		h.raw(`</style></head><body><header><a href="/">WIZ Report Viewer</a></header><main>`)
		h.render(ctx, body)
		h.raw("</main></body></html>")
		return h.err
	})
}

// ErrorAlert renders a user-facing error fragment.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<div class="alert" role="alert"><strong>`)
		h.text(message)
		h.raw("</strong>")
		if action != "" {
			h.raw("<div>")
			h.text(action)
			h.raw("</div>")
		}
		if code != "" {
			h.raw(`<div class="muted">Error code: `)
			h.text(code)
			h.raw("</div>")
		}
		h.raw("</div>")
		return h.err
	})
}

// ErrorPage renders ErrorAlert as a full page with a link home.
func ErrorPage(message, action, code string) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.render(ctx, ErrorAlert(message, action, code))
		h.raw(`<p><a href="/">Back to upload</a></p>`)
		return h.err
	})
	return Layout("Error", body)
}

// isLinkColumn reports whether a column's values render as hyperlinks.
func isLinkColumn(name string) bool {
	return strings.Contains(strings.ToLower(name), "url")
}
