package export

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/wizreport/internal/core"
)

// dateNumFmt keeps the clock so date cells read back as dates.
const dateNumFmt = "yyyy-mm-dd hh:mm:ss"

// dataRangeName is a workbook-level name covering the header and every data
// row, so rows whose cells are all blank survive a reload.
const dataRangeName = "ReportData"

// WriteXLSX writes t as a single-sheet workbook. Numeric cells are numbers,
// date cells are naive timestamps, missing cells are left blank.
func WriteXLSX(w io.Writer, t *core.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	dateFmt := dateNumFmt
	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})
	if err != nil {
		return fmt.Errorf("date style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return err
	}

	header := make([]any, len(t.Columns))
	for i, name := range t.ColumnNames() {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: name}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	row := make([]any, len(t.Columns))
	for r := 0; r < t.NumRows(); r++ {
		for c := range t.Columns {
			row[c] = xlsxValue(&t.Columns[c], r, dateStyle)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	if len(t.Columns) > 0 {
		last, err := excelize.CoordinatesToCellName(len(t.Columns), t.NumRows()+1, true)
		if err != nil {
			return err
		}
		if err := f.SetDefinedName(&excelize.DefinedName{
			Name:     dataRangeName,
			RefersTo: fmt.Sprintf("%s!$A$1:%s", SheetName, last),
		}); err != nil {
			return fmt.Errorf("data range: %w", err)
		}
	}
	return f.Write(w)
}

func xlsxValue(col *core.Column, r int, dateStyle int) any {
	cell := col.Cells[r]
	if !cell.Valid {
		return nil
	}
	switch col.Kind {
	case core.KindNumeric:
		return cell.Num
	case core.KindDate:
		// Timestamps are already naive; excelize writes them as serial dates.
		return excelize.Cell{StyleID: dateStyle, Value: cell.Time}
	default:
		return cell.Raw
	}
}

// LoadXLSX reads the first worksheet of a workbook into a typed table, using
// the first row as headers. Short rows are padded with missing cells.
func LoadXLSX(ctx context.Context, r io.Reader) (*core.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, core.ErrEmptyFile
	}

	// GetRows drops trailing blank rows; restore them from the recorded extent.
	n := max(len(rows), sheetExtent(f, sheet))

	raw := &core.RawTable{
		Headers: rows[0],
		Columns: make([][]string, len(rows[0])),
		Rows:    n - 1,
	}
	for r := 1; r < n; r++ {
		var rec []string
		if r < len(rows) {
			rec = rows[r]
		}
		for c := range raw.Headers {
			v := ""
			if c < len(rec) {
				v = rec[c]
			}
			raw.Columns[c] = append(raw.Columns[c], v)
		}
	}
	return core.InferTable(ctx, raw)
}

// sheetExtent returns the last row number of the sheet, header included, as
// recorded by the data range name or the sheet dimension. Zero if unknown.
func sheetExtent(f *excelize.File, sheet string) int {
	extent := 0
	for _, dn := range f.GetDefinedName() {
		if dn.Name == dataRangeName {
			extent = max(extent, lastRow(dn.RefersTo))
		}
	}
	if dim, err := f.GetSheetDimension(sheet); err == nil {
		extent = max(extent, lastRow(dim))
	}
	return extent
}

// lastRow parses the row of the final cell of a reference such as
// "Sheet1!$A$1:$C$9" or "A1:C9".
func lastRow(ref string) int {
	if i := strings.LastIndex(ref, "!"); i >= 0 {
		ref = ref[i+1:]
	}
	if i := strings.LastIndex(ref, ":"); i >= 0 {
		ref = ref[i+1:]
	}
	_, row, err := excelize.CellNameToCoordinates(strings.ReplaceAll(ref, "$", ""))
	if err != nil {
		return 0
	}
	return row
}
