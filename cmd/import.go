package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yamagen-seiki/plantrack/internal/feed"
	"github.com/yamagen-seiki/plantrack/internal/model"
)

var (
	importOrdersPath       string
	importRequirementsPath string
	importEncoding         string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import ZP02 and ZP51N feed exports into the store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		// Flags override the config file.
		if importOrdersPath != "" {
			cfg.Feeds.OrdersPath = importOrdersPath
		}
		if importRequirementsPath != "" {
			cfg.Feeds.RequirementsPath = importRequirementsPath
		}
		if importEncoding != "" {
			cfg.Feeds.Encoding = importEncoding
		}
		if err := cfg.Validate("import"); err != nil {
			return err
		}
		ordersPath := cfg.Feeds.OrdersPath
		reqsPath := cfg.Feeds.RequirementsPath
		enc := feed.Encoding(cfg.Feeds.Encoding)

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		var (
			orders []model.OrderRecord
			reqs   []model.RequirementRecord
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			orders, err = feed.ReadOrdersFile(ordersPath, enc)
			if err == nil {
				err = st.ReplaceOrders(gctx, orders)
			}
			return err
		})
		g.Go(func() error {
			var err error
			reqs, err = feed.ReadRequirementsFile(reqsPath, enc)
			if err == nil {
				err = st.ReplaceRequirements(gctx, reqs)
			}
			return err
		})
		if err := g.Wait(); err != nil {
			return eris.Wrap(err, "import feeds")
		}

		zap.L().Info("import complete",
			zap.Int("orders", len(orders)),
			zap.Int("requirements", len(reqs)),
			zap.String("orders_path", ordersPath),
			zap.String("requirements_path", reqsPath),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importOrdersPath, "orders", "", "path to ZP02 TSV export (default from config)")
	importCmd.Flags().StringVar(&importRequirementsPath, "requirements", "", "path to ZP51N TSV export (default from config)")
	importCmd.Flags().StringVar(&importEncoding, "encoding", "", "feed encoding: shift-jis or utf-8 (default from config)")
	rootCmd.AddCommand(importCmd)
}
