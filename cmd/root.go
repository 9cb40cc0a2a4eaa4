package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reachpoint/replybot/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "replybot",
	Short: "Automated reply engine for social platform growth",
	Long:  "Searches the platform for high-value posts, ranks candidates by reply-worthiness and monetization value, generates reply strategies via Claude, and posts or simulates replies under strict rate, cooldown, and circuit-breaker gates.",
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
