package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/deckcheck/internal/config"
)

var cfg *config.Config

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "deckcheck",
	Short: "Presentation inconsistency analyzer",
	Long:  "Extracts text, tables, and image content from slide decks and analyzes them for cross-slide inconsistencies via Claude.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if verbose {
			cfg.Log.Level = "debug"
			cfg.Log.Format = "console"
		}

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
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging to console")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
