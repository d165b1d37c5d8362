package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chengdutrip/spotsync/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "spotsync",
	Short: "Scenic spot ingestion pipeline",
	Long:  "Fetches paginated attraction data from the travel API, geocodes and classifies each spot, deduplicates near-identical entries, and upserts them into the spot store.",
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
