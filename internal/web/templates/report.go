package templates

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/wizreport/internal/core"
)

// Control slots rendered beyond the rules already in the request.
const (
	maxSortKeys     = 3
	blankFilterRows = 1
	blankHighlights = 1
)

var highlightOps = []core.HighlightOp{
	core.HighlightGreater, core.HighlightLess, core.HighlightEquals, core.HighlightContains,
}

var allConditions = []core.Condition{
	core.CondEquals, core.CondContains, core.CondGreater, core.CondLess, core.CondRange,
}

// Link is a labelled href.
type Link struct {
	Label string
	Href  string
}

// ReportView is everything the report page shows.
type ReportView struct {
	Session core.SessionInfo
	Result  *core.Result
	Summary core.Summary
	Styles  [][]string
	Request core.Request
	MaxRows int
	Exports []Link
}

// ReportPage renders the controls, highlight notices, summary, and the
// result table capped at MaxRows.
func ReportPage(v ReportView) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw("<h1>")
		h.text(v.Session.FileName)
		h.raw("</h1>")
		h.rawf(`<p><strong>%d</strong> of <strong>%d</strong> rows match.`, v.Summary.MatchedRows, v.Summary.TotalRows)
		for _, l := range v.Exports {
			h.raw(" <a")
			h.attr("href", string(templ.URL(l.Href)))
			h.raw(">")
			h.text(l.Label)
			h.raw("</a>")
		}
		h.raw("</p>")

		renderControls(h, v)
		renderHighlightNotices(h, v.Result.Highlights)
		renderKinds(h, v.Session.Columns)
		renderTable(h, v)
		renderSummary(h, v.Summary)
		return h.err
	})
	return Layout(v.Session.FileName, body)
}

func renderControls(h *html, v ReportView) {
	cols := columnNames(v.Session.Columns)

	h.raw(`<form method="get">`)

	h.raw("<fieldset><legend>Sort</legend>")
	slots := len(v.Request.Sort) + 1
	if slots > maxSortKeys {
		slots = maxSortKeys
	}
	for i := 0; i < slots; i++ {
		var key core.SortKey
		key.Ascending = true
		if i < len(v.Request.Sort) {
			key = v.Request.Sort[i]
		}
		selectColumn(h, "sort", cols, key.Column)
		dir := "asc"
		if !key.Ascending {
			dir = "desc"
		}
		selectOptions(h, "dir", []string{"asc", "desc"}, dir, false)
		h.raw(" ")
	}
	h.raw("</fieldset>")

	h.raw("<fieldset><legend>Filters</legend>")
	logic := string(v.Request.Filters.Logic)
	if logic == "" {
		logic = string(core.LogicAnd)
	}
	h.raw("Combine with ")
	selectOptions(h, "logic", []string{string(core.LogicAnd), string(core.LogicOr)}, logic, false)
	rows := append(append([]core.FilterRow(nil), v.Request.Filters.Rows...), make([]core.FilterRow, blankFilterRows)...)
	for _, f := range rows {
		h.raw("<div>")
		selectColumn(h, "fcol", cols, f.Column)
		selectOptions(h, "fcond", conditionNames(v.Session.Columns, f), string(f.Condition), false)
		input(h, "fval", f.Value, "value")
		input(h, "fto", f.To, "to (range)")
		h.raw("</div>")
	}
	h.raw("</fieldset>")

	h.raw("<fieldset><legend>Highlights</legend>")
	rules := append(append([]core.HighlightRule(nil), v.Request.Highlights...), make([]core.HighlightRule, blankHighlights)...)
	ops := make([]string, len(highlightOps))
	for i, op := range highlightOps {
		ops[i] = string(op)
	}
	for _, r := range rules {
		h.raw("<div>")
		selectColumn(h, "hcol", cols, r.Column)
		selectOptions(h, "hop", ops, string(r.Op), false)
		input(h, "hval", r.Value, "value")
		color := r.Color
		if color == "" {
			color = "yellow"
		}
		input(h, "hcolor", color, "color")
		h.raw("</div>")
	}
	h.raw("</fieldset>")

	h.raw(`<button type="submit">Apply</button></form>`)
}

func renderHighlightNotices(h *html, results []core.HighlightResult) {
	for _, r := range results {
		if r.Active() {
			continue
		}
		h.raw(`<p class="notice">Highlight on `)
		h.text(r.Rule.Column)
		h.raw(" disabled: ")
		h.text(r.Err.Error())
		h.raw("</p>")
	}
}

func renderKinds(h *html, cols []core.ColumnInfo) {
	h.raw(`<p class="kinds muted">`)
	for _, c := range cols {
		h.raw("<span>")
		h.text(c.Name)
		h.raw(": ")
		h.text(c.Kind.String())
		h.raw("</span>")
	}
	h.raw("</p>")
}

func renderTable(h *html, v ReportView) {
	t := v.Result.Table
	h.raw("<table><thead><tr>")
	for _, name := range t.ColumnNames() {
		h.raw("<th>")
		h.text(name)
		h.raw("</th>")
	}
	h.raw("</tr></thead><tbody>")

	n := t.NumRows()
	if v.MaxRows > 0 && n > v.MaxRows {
		n = v.MaxRows
	}
	for i := 0; i < n; i++ {
		h.raw("<tr>")
		for j := range t.Columns {
			col := &t.Columns[j]
			h.raw("<td")
			if col.Kind == core.KindNumeric {
				h.raw(` class="num"`)
			}
			if i < len(v.Styles) && v.Styles[i][j] != "" {
				h.attr("style", "background-color: "+v.Styles[i][j])
			}
			h.raw(">")
			renderCell(h, col, i)
			h.raw("</td>")
		}
		h.raw("</tr>")
	}
	h.raw("</tbody></table>")

	if n < t.NumRows() {
		h.rawf(`<p class="muted">Showing the first %d of %d rows. Export for the full result.</p>`, n, t.NumRows())
	}
}

func renderCell(h *html, col *core.Column, i int) {
	val := col.Display(i)
	if val == "" {
		return
	}
	if isLinkColumn(col.Name) {
		h.raw(`<a target="_blank" rel="noopener"`)
		h.attr("href", string(templ.URL(strings.TrimSpace(val))))
		h.raw(">Link</a>")
		return
	}
	h.text(val)
}

func renderSummary(h *html, s core.Summary) {
	h.raw(`<h2>Summary</h2><table><thead><tr><th>Column</th><th>Kind</th><th>Populated</th><th>Missing</th><th>Distinct</th><th>Min</th><th>Max</th><th>Top values</th></tr></thead><tbody>`)
	for _, c := range s.Columns {
		h.raw("<tr><td>")
		h.text(c.Name)
		h.raw("</td><td>")
		h.text(c.Kind.String())
		h.rawf(`</td><td class="num">%d</td><td class="num">%d</td><td class="num">%d</td><td>`, c.Populated, c.Missing, c.Distinct)
		h.text(c.Min)
		h.raw("</td><td>")
		h.text(c.Max)
		h.raw("</td><td>")
		for i, tv := range c.TopValues {
			if i > 0 {
				h.raw(", ")
			}
			h.text(tv.Value)
			h.rawf(" (%d)", tv.Count)
		}
		h.raw("</td></tr>")
	}
	h.raw("</tbody></table>")
}

func columnNames(cols []core.ColumnInfo) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

// conditionNames lists the conditions valid for the row's column, or every
// condition when no column is chosen. A selected condition the column does
// not support is kept so the form shows what was submitted.
func conditionNames(cols []core.ColumnInfo, f core.FilterRow) []string {
	conds := allConditions
	for _, c := range cols {
		if c.Name == f.Column {
			conds = core.ConditionsFor(c.Kind)
			break
		}
	}
	names := make([]string, 0, len(conds)+1)
	found := f.Condition == ""
	for _, c := range conds {
		names = append(names, string(c))
		found = found || c == f.Condition
	}
	if !found {
		names = append(names, string(f.Condition))
	}
	return names
}

func selectColumn(h *html, name string, cols []string, selected string) {
	selectOptions(h, name, cols, selected, true)
}

func selectOptions(h *html, name string, options []string, selected string, blank bool) {
	h.raw("<select")
	h.attr("name", name)
	h.raw(">")
	if blank {
		h.raw(`<option value="">(none)</option>`)
	}
	for _, o := range options {
		h.raw("<option")
		h.attr("value", o)
		if o == selected {
			h.raw(" selected")
		}
		h.raw(">")
		h.text(o)
		h.raw("</option>")
	}
	h.raw("</select>")
}

func input(h *html, name, value, placeholder string) {
	h.raw(`<input type="text"`)
	h.attr("name", name)
	h.attr("value", value)
	h.attr("placeholder", placeholder)
	h.raw(">")
}
