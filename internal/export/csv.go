package export

import (
	"encoding/csv"
	"io"

	"github.com/JonMunkholm/wizreport/internal/core"
)

// WriteCSV writes t as a semicolon-delimited CSV with a header row.
// Cells are written in their display form, so the file loads back with the
// same kinds.
func WriteCSV(w io.Writer, t *core.Table) error {
	cw := csv.NewWriter(w)
	cw.Comma = core.Delimiter

	if err := cw.Write(t.ColumnNames()); err != nil {
		return err
	}
	for i := 0; i < t.NumRows(); i++ {
		row := t.Row(i)
		if len(row) == 1 && row[0] == "" {
			// A bare empty line would be skipped on reload; quote the field.
			cw.Flush()
			if err := cw.Error(); err != nil {
				return err
			}
			if _, err := io.WriteString(w, "\"\"\n"); err != nil {
				return err
			}
			continue
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
