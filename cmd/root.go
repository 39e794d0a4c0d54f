package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yamagen-seiki/plantrack/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "plantrack",
	Short: "Production plan reconciliation",
	Long:  "Reconciles SAP production orders (ZP02) with component requirement dates (ZP51N) into a unified plan dataset with schedule compliance tracking.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
