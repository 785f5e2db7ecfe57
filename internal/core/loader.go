package core

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Delimiter is the field separator of uploaded reports.
const Delimiter = ';'

// ErrEmptyFile is returned when the input has no header row.
var ErrEmptyFile = errors.New("file is empty")

// ErrWrongDelimiter is returned when the header looks comma-separated.
var ErrWrongDelimiter = errors.New("file does not appear to be semicolon-delimited")

// RawTable is a parsed CSV before type inference: one header row and the
// string values of each column.
type RawTable struct {
	Headers []string
	Columns [][]string
	Rows    int
	Bytes   int64 // bytes read after BOM removal
}

// LoadCSV reads a semicolon-delimited, UTF-8 CSV with a header row.
// Any read or parse error fails the whole load; no partial table is returned.
func LoadCSV(r io.Reader) (*RawTable, error) {
	counter := WrapForLoad(r)
	reader := csv.NewReader(counter)
	reader.Comma = Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = false

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) == 1 && strings.Contains(header[0], ",") {
		return nil, fmt.Errorf("%w: header %q", ErrWrongDelimiter, header[0])
	}

	raw := &RawTable{
		Headers: dedupeHeaders(header),
		Columns: make([][]string, len(header)),
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", raw.Rows+1, err)
		}
		if len(header) > 1 && isBlankRecord(record) {
			continue
		}
		if len(record) > len(header) {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("line %d: expected %d fields, saw %d", line, len(header), len(record))
		}
		for i := range raw.Columns {
			v := ""
			if i < len(record) {
				v = record[i]
			}
			raw.Columns[i] = append(raw.Columns[i], v)
		}
		raw.Rows++
	}

	raw.Bytes = counter.BytesRead
	return raw, nil
}

// isBlankRecord reports whether a record is a single empty field, which is
// what a whitespace-only line parses to.
func isBlankRecord(record []string) bool {
	return len(record) == 1 && strings.TrimSpace(record[0]) == ""
}

// dedupeHeaders trims header names, names empty headers by position, and
// suffixes repeated names with ".1", ".2", ...
func dedupeHeaders(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		if n, dup := seen[name]; dup {
			candidate := fmt.Sprintf("%s.%d", name, n)
			for {
				if _, taken := seen[candidate]; !taken {
					break
				}
				n++
				candidate = fmt.Sprintf("%s.%d", name, n)
			}
			seen[name] = n + 1
			name = candidate
		}
		seen[name] = 1
		out[i] = name
	}
	return out
}

// LoadTable parses the CSV and infers every column's Kind.
func LoadTable(ctx context.Context, r io.Reader) (*Table, error) {
	raw, err := LoadCSV(r)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return InferTable(ctx, raw)
}
