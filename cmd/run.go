package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reachpoint/replybot/internal/orchestrator"
)

var runDryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one automation cycle (search, score, generate, gate, post)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if runDryRun {
			cfg.Automation.DryRun = true
		}

		eng, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer eng.Close()

		result := eng.orch.RunCycle(ctx)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}

		if result.Outcome == orchestrator.OutcomeFailed {
			zap.L().Error("cycle failed", zap.Error(result.Err))
			return result.Err
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "simulate instead of posting, regardless of config")
	rootCmd.AddCommand(runCmd)
}
