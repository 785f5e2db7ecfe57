package core

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"
)

// LoadBenchmark is the result of timing repeated loads of one file.
type LoadBenchmark struct {
	File    string        `json:"file"`
	Bytes   int           `json:"bytes"`
	Rows    int           `json:"rows"`
	Columns int           `json:"columns"`
	Repeats int           `json:"repeats"`
	Average time.Duration `json:"average_ns"`
	Fastest time.Duration `json:"fastest_ns"`
	Slowest time.Duration `json:"slowest_ns"`
	Kinds   []string      `json:"kinds"`
}

// BenchmarkLoad reads path once, then loads and infers it repeats times and
// reports the timings. The file read is not part of the measurement.
func BenchmarkLoad(ctx context.Context, path string, repeats int) (LoadBenchmark, error) {
	if repeats <= 0 {
		repeats = 1
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return LoadBenchmark{}, fmt.Errorf("read %s: %w", path, err)
	}

	b := LoadBenchmark{File: path, Bytes: len(data), Repeats: repeats}
	var total time.Duration
	for i := 0; i < repeats; i++ {
		start := time.Now()
		t, err := LoadTable(ctx, bytes.NewReader(data))
		if err != nil {
			return LoadBenchmark{}, fmt.Errorf("load %s: %w", path, err)
		}
		d := time.Since(start)

		total += d
		if i == 0 || d < b.Fastest {
			b.Fastest = d
		}
		if d > b.Slowest {
			b.Slowest = d
		}
		if i == 0 {
			b.Rows = t.NumRows()
			b.Columns = len(t.Columns)
			b.Kinds = make([]string, len(t.Columns))
			for j, c := range t.Columns {
				b.Kinds[j] = c.Name + ":" + c.Kind.String()
			}
		}
	}
	b.Average = total / time.Duration(repeats)
	return b, nil
}
