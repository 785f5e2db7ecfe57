package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/wizreport/internal/core"
)

func newBenchCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "bench <file.csv>",
		Short: "Time repeated load and type inference of a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repeats := a.v.GetInt("repeats")
			if repeats <= 0 {
				return fmt.Errorf("repeats must be positive, got %d", repeats)
			}

			b, err := core.BenchmarkLoad(cmd.Context(), args[0], repeats)
			if err != nil {
				return err
			}
			a.log.Info("benchmark complete", "file", b.File, "repeats", b.Repeats, "average", b.Average)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(b)
			}
			fmt.Fprintf(out, "file:    %s (%d bytes)\n", b.File, b.Bytes)
			fmt.Fprintf(out, "shape:   %d rows x %d columns\n", b.Rows, b.Columns)
			fmt.Fprintf(out, "kinds:   %s\n", strings.Join(b.Kinds, ", "))
			fmt.Fprintf(out, "repeats: %d\n", b.Repeats)
			fmt.Fprintf(out, "average: %s\nfastest: %s\nslowest: %s\n", b.Average, b.Fastest, b.Slowest)
			return nil
		},
	}

	f := cmd.Flags()
	f.IntP("repeats", "n", 5, "number of timed loads")
	f.BoolVar(&asJSON, "json", false, "print the result as JSON")
	_ = a.v.BindPFlag("repeats", f.Lookup("repeats"))
	return cmd
}
