package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent reconciliation runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("runs"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		runs, err := st.ListRuns(ctx, runsLimit)
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATUS\tSTARTED\tDURATION\tORDERS\tSNAPSHOTS\tCOMPLETIONS\tERROR")
		for _, r := range runs {
			duration := "-"
			if r.FinishedAt != nil {
				duration = r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
			}
			orders, snapshots, completions, errMsg := "-", "-", "-", ""
			if r.Summary != nil {
				orders = fmt.Sprintf("%d", r.Summary.Orders)
				snapshots = fmt.Sprintf("%d", r.Summary.Snapshots)
				completions = fmt.Sprintf("%d", r.Summary.NewCompletions)
				errMsg = r.Summary.Error
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				r.ID, r.Status, r.StartedAt.Format(time.RFC3339), duration,
				orders, snapshots, completions, errMsg)
		}
		return w.Flush()
	},
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum runs to list")
	rootCmd.AddCommand(runsCmd)
}
