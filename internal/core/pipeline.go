package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Pipeline stage names, in execution order.
const (
	StageLoad      = "load"
	StageInfer     = "infer"
	StageSort      = "sort"
	StageFilter    = "filter"
	StageHighlight = "highlight"
)

// StageTiming records how long one pipeline stage took.
type StageTiming struct {
	Stage    string        `json:"stage"`
	Duration time.Duration `json:"duration_ns"`
}

// Result is the output of one pipeline invocation, ready for rendering or
// export. Source is the inferred table before sorting and filtering.
type Result struct {
	Source     *Table
	Table      *Table
	Highlights []HighlightResult
	TotalRows  int
	InputBytes int64 // CSV bytes parsed; zero for RunTable
	Stages     []StageTiming
}

// MatchedRows returns the number of rows left after filtering.
func (r *Result) MatchedRows() int {
	return r.Table.NumRows()
}

// Validate checks that every sort key and filter row names a column of t.
// Highlight rules are not checked; an unknown column only disables that rule.
func (req Request) Validate(t *Table) error {
	for i, k := range req.Sort {
		if _, err := t.Column(k.Column); err != nil {
			return fmt.Errorf("sort key %d: %w", i+1, err)
		}
	}
	for i, row := range req.Filters.Rows {
		if _, err := t.Column(row.Column); err != nil {
			return fmt.Errorf("filter %d: %w", i+1, err)
		}
	}
	return nil
}

// StageObserver is notified after each completed stage.
type StageObserver func(stage string, d time.Duration)

// Pipeline runs load, infer, sort, filter and highlight over one CSV.
// A Pipeline holds no table state and is safe for concurrent use.
type Pipeline struct {
	Observe StageObserver
}

// Run executes the pipeline. Context cancellation is checked between stages.
func (p *Pipeline) Run(ctx context.Context, r io.Reader, req Request) (*Result, error) {
	res := &Result{}

	var raw *RawTable
	err := p.stage(ctx, res, StageLoad, func() (err error) {
		raw, err = LoadCSV(r)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load csv: %w", err)
	}

	var t *Table
	if err := p.stage(ctx, res, StageInfer, func() (err error) {
		t, err = InferTable(ctx, raw)
		return err
	}); err != nil {
		return nil, err
	}
	res.InputBytes = raw.Bytes
	if err := p.process(ctx, res, t, req); err != nil {
		return nil, err
	}
	return res, nil
}

// RunTable runs the sort, filter and highlight stages over an already typed
// table, such as one read back from an XLSX or Arrow file.
func (p *Pipeline) RunTable(ctx context.Context, t *Table, req Request) (*Result, error) {
	res := &Result{}
	if err := p.process(ctx, res, t, req); err != nil {
		return nil, err
	}
	return res, nil
}

func (p *Pipeline) process(ctx context.Context, res *Result, t *Table, req Request) error {
	res.Source = t
	res.TotalRows = t.NumRows()

	if err := req.Validate(t); err != nil {
		return err
	}

	if err := p.stage(ctx, res, StageSort, func() (err error) {
		t, err = SortTable(t, req.Sort)
		return err
	}); err != nil {
		return err
	}

	if err := p.stage(ctx, res, StageFilter, func() (err error) {
		t, err = ApplyFilters(t, req.Filters)
		return err
	}); err != nil {
		return err
	}
	res.Table = t

	if err := p.stage(ctx, res, StageHighlight, func() error {
		res.Highlights = EvaluateHighlights(t, req.Highlights)
		return nil
	}); err != nil {
		return err
	}

	slog.DebugContext(ctx, "pipeline complete",
		"total_rows", res.TotalRows,
		"matched_rows", res.MatchedRows(),
		"columns", KindSummary(res.Source),
	)
	return nil
}

// stage checks ctx, runs fn, and records its duration.
func (p *Pipeline) stage(ctx context.Context, res *Result, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	if err := fn(); err != nil {
		return err
	}
	d := time.Since(start)
	res.Stages = append(res.Stages, StageTiming{Stage: name, Duration: d})
	if p.Observe != nil {
		p.Observe(name, d)
	}
	slog.DebugContext(ctx, "pipeline stage", "stage", name, "duration_ms", d.Milliseconds())
	return nil
}
