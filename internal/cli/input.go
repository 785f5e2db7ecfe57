package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/JonMunkholm/wizreport/internal/core"
	"github.com/JonMunkholm/wizreport/internal/export"
)

// runFile runs the pipeline over path. CSV files go through the full
// pipeline; .xlsx and .arrow files are read back as typed tables first.
// A path of "-" reads CSV from stdin.
func (a *app) runFile(ctx context.Context, path string, stdin io.Reader, req core.Request) (*core.Result, error) {
	p := &core.Pipeline{Observe: func(stage string, d time.Duration) {
		a.log.Debug("pipeline stage", "file", path, "stage", stage, "duration_ms", d.Milliseconds())
	}}

	if path == "-" {
		return p.Run(ctx, stdin, req)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var t *core.Table
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		t, err = export.LoadXLSX(ctx, f)
	case ".arrow", ".ipc":
		t, err = export.ReadArrow(f)
	default:
		return p.Run(ctx, f, req)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return p.RunTable(ctx, t, req)
}

// loadRequest reads a YAML request file. An empty path is the empty request.
func loadRequest(path string) (core.Request, error) {
	if path == "" {
		return core.Request{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return core.Request{}, fmt.Errorf("read request: %w", err)
	}
	return core.DecodeRequestYAML(data)
}
