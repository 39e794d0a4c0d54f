package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yamagen-seiki/plantrack/internal/export"
	"github.com/yamagen-seiki/plantrack/internal/reconcile"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Run reconciliation and write the dataset as an xlsx workbook",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("export"); err != nil {
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
			return eris.Wrap(err, "export: reconcile")
		}

		out := exportOut
		if out == "" {
			name := fmt.Sprintf("production_plan_%s.xlsx", time.Now().Format("20060102"))
			out = filepath.Join(cfg.Export.Dir, name)
		}
		if err := export.WriteFile(out, res.Records); err != nil {
			return err
		}

		zap.L().Info("export complete",
			zap.String("path", out),
			zap.Int("records", len(res.Records)),
		)
		fmt.Println(out)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output path (default production_plan_YYYYMMDD.xlsx in export.dir)")
	rootCmd.AddCommand(exportCmd)
}
