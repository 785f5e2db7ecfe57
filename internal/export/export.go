// Package export writes pipeline results as XLSX, semicolon CSV, or Arrow
// IPC streams.
package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/wizreport/internal/core"
)

// Format is an export file format.
type Format string

const (
	FormatXLSX  Format = "xlsx"
	FormatCSV   Format = "csv"
	FormatArrow Format = "arrow"
)

// SheetName is the single worksheet written to XLSX exports.
const SheetName = "Sheet1"

// Formats lists the supported formats, default first.
var Formats = []Format{FormatXLSX, FormatCSV, FormatArrow}

// ParseFormat maps a user-supplied name to a Format. Empty means XLSX.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "xlsx", "excel":
		return FormatXLSX, nil
	case "csv":
		return FormatCSV, nil
	case "arrow", "ipc":
		return FormatArrow, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType returns the MIME type for downloads.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatArrow:
		return "application/vnd.apache.arrow.stream"
	default:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
}

// FileName derives a download name from the uploaded file name.
func (f Format) FileName(source string) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "report"
	}
	return base + "." + string(f)
}

// Write encodes t to w in format f.
func Write(w io.Writer, t *core.Table, f Format) error {
	var err error
	switch f {
	case FormatXLSX:
		err = WriteXLSX(w, t)
	case FormatCSV:
		err = WriteCSV(w, t)
	case FormatArrow:
		err = WriteArrow(w, t)
	default:
		return fmt.Errorf("unsupported export format %q", f)
	}
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	return nil
}
