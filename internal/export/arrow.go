package export

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/JonMunkholm/wizreport/internal/core"
)

// naiveTimestamp has no time zone, matching the naive wall clock of date cells.
var naiveTimestamp = &arrow.TimestampType{Unit: arrow.Microsecond}

// ArrowSchema maps column kinds to Arrow types: Numeric to float64, Date to
// a zone-less microsecond timestamp, Text to string. Every field is nullable.
func ArrowSchema(t *core.Table) *arrow.Schema {
	fields := make([]arrow.Field, len(t.Columns))
	for i, c := range t.Columns {
		fields[i] = arrow.Field{Name: c.Name, Type: arrowType(c.Kind), Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

func arrowType(k core.Kind) arrow.DataType {
	switch k {
	case core.KindNumeric:
		return arrow.PrimitiveTypes.Float64
	case core.KindDate:
		return naiveTimestamp
	default:
		return arrow.BinaryTypes.String
	}
}

// WriteArrow writes t as a single record batch in the Arrow IPC stream format.
func WriteArrow(w io.Writer, t *core.Table) error {
	alloc := memory.NewGoAllocator()
	schema := ArrowSchema(t)

	arrays := make([]arrow.Array, len(t.Columns))
	defer func() {
		for _, a := range arrays {
			if a != nil {
				a.Release()
			}
		}
	}()
	for i := range t.Columns {
		arrays[i] = buildArray(alloc, &t.Columns[i])
	}

	rec := array.NewRecord(schema, arrays, int64(t.NumRows()))
	defer rec.Release()

	wr := ipc.NewWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(alloc))
	if err := wr.Write(rec); err != nil {
		wr.Close()
		return fmt.Errorf("write record: %w", err)
	}
	return wr.Close()
}

func buildArray(alloc memory.Allocator, col *core.Column) arrow.Array {
	switch col.Kind {
	case core.KindNumeric:
		bldr := array.NewFloat64Builder(alloc)
		defer bldr.Release()
		bldr.Reserve(col.Len())
		for _, c := range col.Cells {
			if c.Valid {
				bldr.Append(c.Num)
			} else {
				bldr.AppendNull()
			}
		}
		return bldr.NewArray()
	case core.KindDate:
		bldr := array.NewTimestampBuilder(alloc, naiveTimestamp)
		defer bldr.Release()
		bldr.Reserve(col.Len())
		for _, c := range col.Cells {
			if c.Valid {
				bldr.Append(arrow.Timestamp(c.Time.UnixMicro()))
			} else {
				bldr.AppendNull()
			}
		}
		return bldr.NewArray()
	default:
		bldr := array.NewStringBuilder(alloc)
		defer bldr.Release()
		bldr.Reserve(col.Len())
		for _, c := range col.Cells {
			if c.Valid {
				bldr.Append(c.Raw)
			} else {
				bldr.AppendNull()
			}
		}
		return bldr.NewArray()
	}
}

// ReadArrow reads an Arrow IPC stream written by WriteArrow back into a
// table. Batches are concatenated.
func ReadArrow(r io.Reader) (*core.Table, error) {
	rdr, err := ipc.NewReader(r, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, fmt.Errorf("open arrow stream: %w", err)
	}
	defer rdr.Release()

	schema := rdr.Schema()
	cols := make([]core.Column, schema.NumFields())
	for i, f := range schema.Fields() {
		cols[i] = core.Column{Name: f.Name, Kind: kindOf(f.Type)}
	}

	for rdr.Next() {
		rec := rdr.Record()
		for i := range cols {
			appendCells(&cols[i], rec.Column(i))
		}
	}
	if err := rdr.Err(); err != nil {
		return nil, fmt.Errorf("read arrow stream: %w", err)
	}
	return core.NewTable(cols)
}

func kindOf(dt arrow.DataType) core.Kind {
	switch dt.ID() {
	case arrow.FLOAT64:
		return core.KindNumeric
	case arrow.TIMESTAMP:
		return core.KindDate
	default:
		return core.KindText
	}
}

func appendCells(col *core.Column, arr arrow.Array) {
	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			col.Cells = append(col.Cells, core.Cell{})
			continue
		}
		var cell core.Cell
		switch a := arr.(type) {
		case *array.Float64:
			cell = core.Cell{Num: a.Value(i), Raw: core.FormatNumber(a.Value(i)), Valid: true}
		case *array.Timestamp:
			ts := a.Value(i).ToTime(arrow.Microsecond)
			cell = core.Cell{Time: ts, Raw: core.FormatDate(ts), Valid: true}
		default:
			cell = core.Cell{Raw: arr.ValueStr(i), Valid: true}
		}
		col.Cells = append(col.Cells, cell)
	}
}
