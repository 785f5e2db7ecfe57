package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/wizreport/internal/export"
)

func newExportCommand(a *app) *cobra.Command {
	var (
		requestFile string
		output      string
	)

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Apply a sort/filter request to a report and write the result",
		Long: `Export loads a semicolon-delimited CSV (or an .xlsx/.arrow file written by
a previous export), applies the sort keys and filters from --request, and
writes the matching rows as XLSX, CSV or Arrow IPC.

Without -o the output file name is derived from the input file.
Use "-o -" to write to stdout and "-" as <file> to read CSV from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := export.ParseFormat(a.v.GetString("format"))
			if err != nil {
				return err
			}
			req, err := loadRequest(requestFile)
			if err != nil {
				return err
			}

			res, err := a.runFile(cmd.Context(), args[0], cmd.InOrStdin(), req)
			if err != nil {
				return err
			}
			for _, h := range res.Highlights {
				if !h.Active() {
					a.log.Warn("highlight disabled", "column", h.Rule.Column, "error", h.Err)
				}
			}

			var buf bytes.Buffer
			if err := export.Write(&buf, res.Table, format); err != nil {
				return err
			}

			dest := output
			if dest == "" {
				src := args[0]
				if src == "-" {
					src = "report"
				}
				dest = filepath.Join(filepath.Dir(src), format.FileName(src))
				if dest == filepath.Clean(args[0]) {
					return fmt.Errorf("output %s would overwrite the input; pass -o", dest)
				}
			}
			if dest == "-" {
				_, err = buf.WriteTo(cmd.OutOrStdout())
				return err
			}
			if err := os.WriteFile(dest, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", dest, err)
			}

			a.log.Info("report exported",
				"file", args[0],
				"output", dest,
				"format", format,
				"total_rows", res.TotalRows,
				"matched_rows", res.MatchedRows(),
			)
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d of %d rows to %s\n", res.MatchedRows(), res.TotalRows, dest)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&requestFile, "request", "r", "", "YAML request with sort, filters and highlights")
	f.StringP("format", "f", "xlsx", "output format: xlsx, csv, arrow")
	f.StringVarP(&output, "output", "o", "", `output path ("-" for stdout)`)
	_ = a.v.BindPFlag("format", f.Lookup("format"))
	return cmd
}
