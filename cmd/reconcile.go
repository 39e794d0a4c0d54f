package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yamagen-seiki/plantrack/internal/reconcile"
)

var reconcileJSON bool

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run the reconciliation pipeline and print a summary",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("reconcile"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		engine := reconcile.New(st, classifier())
		res, err := engine.Run(ctx)
		if err != nil {
			return eris.Wrap(err, "reconcile")
		}

		if reconcileJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}

		zap.L().Info("reconciliation complete",
			zap.String("run", res.RunID),
			zap.Int("records", len(res.Records)),
			zap.Int("snapshots", res.Snapshots),
			zap.Int("new_completions", res.NewCompletions),
		)
		fmt.Printf("run %s: %d records, %d snapshots, %d new completions\n",
			res.RunID, len(res.Records), res.Snapshots, res.NewCompletions)
		return nil
	},
}

func init() {
	reconcileCmd.Flags().BoolVar(&reconcileJSON, "json", false, "print the full dataset as JSON")
	rootCmd.AddCommand(reconcileCmd)
}
