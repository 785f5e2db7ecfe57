package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/wizreport/internal/core"
)

func newInspectCommand(a *app) *cobra.Command {
	var (
		requestFile string
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show inferred column kinds and per-column statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := loadRequest(requestFile)
			if err != nil {
				return err
			}
			res, err := a.runFile(cmd.Context(), args[0], cmd.InOrStdin(), req)
			if err != nil {
				return err
			}

			summary := core.Summarize(res)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}
			return writeSummary(cmd.OutOrStdout(), summary)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&requestFile, "request", "r", "", "YAML request applied before summarizing")
	f.BoolVar(&asJSON, "json", false, "print the summary as JSON")
	return cmd
}

func writeSummary(w io.Writer, s core.Summary) error {
	fmt.Fprintf(w, "%d of %d rows match\n\n", s.MatchedRows, s.TotalRows)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tKIND\tPOPULATED\tMISSING\tDISTINCT\tMIN\tMAX\tTOP")
	for _, c := range s.Columns {
		top := make([]string, len(c.TopValues))
		for i, v := range c.TopValues {
			top[i] = fmt.Sprintf("%s (%d)", v.Value, v.Count)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\t%s\t%s\n",
			c.Name, c.Kind, c.Populated, c.Missing, c.Distinct, c.Min, c.Max, strings.Join(top, ", "))
	}
	return tw.Flush()
}
