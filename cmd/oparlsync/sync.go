package main

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	syncFull       bool
	syncBodyFilter string
	syncDryRun     bool
)

var syncCmd = &cobra.Command{
	Use:   "sync <url>",
	Short: "Run a sync job for a single OParl source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		ctn, _, err := buildContainer(ctx)
		if err != nil {
			return err
		}

		orch := ctn.Orchestrator
		if syncDryRun {
			orch = withDryRunStore(orch)
		}

		url := args[0]
		res, err := orch.SyncSource(ctx, url, "", syncFull, syncBodyFilter)
		if err != nil {
			return syncFailure(err)
		}
		printSourceResult(cmd, res)
		if !res.Success {
			return syncFailure(errSourceFailed(res.SourceURL))
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncFull, "full", false, "ignore watermarks and resync everything")
	syncCmd.Flags().StringVar(&syncBodyFilter, "body-filter", "", "only sync bodies whose name or external id contains this substring")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "fetch and process but discard all writes")
}
