package main

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	syncAllFull       bool
	syncAllSequential bool
)

var syncAllCmd = &cobra.Command{
	Use:   "sync-all",
	Short: "Run a sync job for every registered source",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		ctn, _, err := buildContainer(ctx)
		if err != nil {
			return err
		}

		results, err := ctn.Orchestrator.SyncAll(ctx, syncAllFull, syncAllSequential)
		if err != nil {
			return syncFailure(err)
		}

		anyFailed := false
		for _, res := range results {
			printSourceResult(cmd, res)
			if !res.Success {
				anyFailed = true
			}
		}
		if anyFailed {
			return syncFailure(errSourceFailed("one or more sources"))
		}
		return nil
	},
}

func init() {
	syncAllCmd.Flags().BoolVar(&syncAllFull, "full", false, "ignore watermarks and resync everything")
	syncAllCmd.Flags().BoolVar(&syncAllSequential, "sequential", false, "sync sources one at a time instead of concurrently")
}
