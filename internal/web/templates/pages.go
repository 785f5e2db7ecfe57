package templates

import (
	"context"
	"io"
	"time"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/wizreport/internal/core"
)

// UploadPage lists open reports and offers the upload form.
func UploadPage(sessions []core.SessionInfo, maxBytes int64) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<h1>Upload a report</h1>`)
		h.raw(`<form method="post" action="/upload" enctype="multipart/form-data">`)
		h.raw(`<input type="file" name="file" accept=".csv,text/csv" required> `)
		h.raw(`<button type="submit">Open report</button></form>`)
		h.rawf(`<p class="muted">Semicolon-delimited, UTF-8, up to %d MB.</p>`, maxBytes/(1024*1024))

		if len(sessions) == 0 {
			return h.err
		}
		h.raw(`<h2>Open reports</h2><table><thead><tr><th>File</th><th>Rows</th><th>Columns</th><th>Expires</th></tr></thead><tbody>`)
		for _, s := range sessions {
			h.raw("<tr><td><a")
			h.attr("href", string(templ.URL("/report/"+s.ID)))
			h.raw(">")
			h.text(s.FileName)
			h.raw("</a></td>")
			h.rawf(`<td class="num">%d</td><td class="num">%d</td>`, s.Rows, len(s.Columns))
			h.raw("<td>")
			h.text(s.ExpiresAt.Format(time.Kitchen))
			h.raw("</td></tr>")
		}
		h.raw("</tbody></table>")
		return h.err
	})
	return Layout("Upload", body)
}
