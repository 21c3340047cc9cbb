package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var recoverStale bool

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Publish every due post once and print the summary",
	Long: `Run one scheduler sweep and print its summary as JSON. Suitable for an
external scheduler when the in-process cron is not used.

Examples:
  postflow sweep                    # Publish due posts
  postflow sweep --recover-stale    # Also fail interrupted publish attempts first`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSweep(cmd.Context())
	},
}

func init() {
	sweepCmd.Flags().BoolVar(&recoverStale, "recover-stale", false, "Mark interrupted publish attempts as failed before sweeping")
}

func runSweep(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if recoverStale {
		if _, err := a.publishService.RecoverStaleClaims(ctx); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Sweep.Timeout)
	defer cancel()

	summary, err := a.publishService.Sweep(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
