package web

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/JonMunkholm/wizreport/internal/core"
	"github.com/JonMunkholm/wizreport/internal/web/templates"
)

// parseRequest builds a pipeline request from report query parameters.
//
//	sort, dir              repeated or comma-separated; dir is asc (default) or desc
//	logic                  AND (default) or OR
//	fcol, fcond, fval, fto one filter row per index; rows without a column are skipped
//	hcol, hop, hval, hcolor one highlight rule per index; rules without a column are skipped
//
// Column names are not checked here; the pipeline rejects unknown sort and
// filter columns and disables highlight rules on unknown columns.
func parseRequest(q url.Values) (core.Request, error) {
	var req core.Request

	cols := splitAll(q["sort"])
	dirs := splitAll(q["dir"])
	for i, col := range cols {
		if col == "" {
			continue
		}
		asc := true
		if i < len(dirs) && strings.EqualFold(dirs[i], "desc") {
			asc = false
		}
		req.Sort = append(req.Sort, core.SortKey{Column: col, Ascending: asc})
	}

	logic, err := core.ParseLogicOp(q.Get("logic"))
	if err != nil {
		return core.Request{}, err
	}
	req.Filters.Logic = logic

	fcol, fcond, fval, fto := q["fcol"], q["fcond"], q["fval"], q["fto"]
	for i, col := range fcol {
		if strings.TrimSpace(col) == "" {
			continue
		}
		cond := core.Condition(at(fcond, i))
		if cond == "" {
			cond = core.CondContains
		}
		req.Filters.Rows = append(req.Filters.Rows, core.FilterRow{
			Column:    col,
			Condition: cond,
			Value:     at(fval, i),
			To:        at(fto, i),
		})
	}

	hcol, hop, hval, hcolor := q["hcol"], q["hop"], q["hval"], q["hcolor"]
	for i, col := range hcol {
		if strings.TrimSpace(col) == "" {
			continue
		}
		req.Highlights = append(req.Highlights, core.HighlightRule{
			Column: col,
			Op:     core.HighlightOp(at(hop, i)),
			Value:  at(hval, i),
			Color:  at(hcolor, i),
		})
	}
	return req, nil
}

// splitAll flattens repeated, comma-separated values. Empty entries are kept
// so positions line up with the matching direction list.
func splitAll(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			out = append(out, strings.TrimSpace(part))
		}
	}
	return out
}

func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}

// parseLimit reads a non-negative integer parameter. Zero means unlimited.
func parseLimit(q url.Values, name string, def int) int {
	v := q.Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

// exportLinks builds download links that repeat the current query.
func exportLinks(sessionID string, q url.Values) []templates.Link {
	links := make([]templates.Link, 0, 3)
	for _, f := range []struct{ label, format string }{
		{"Download XLSX", "xlsx"},
		{"CSV", "csv"},
		{"Arrow", "arrow"},
	} {
		params := url.Values{}
		for k, v := range q {
			params[k] = v
		}
		params.Set("format", f.format)
		links = append(links, templates.Link{Label: f.label, Href: "/report/" + url.PathEscape(sessionID) + "/export?" + params.Encode()})
	}
	return links
}
