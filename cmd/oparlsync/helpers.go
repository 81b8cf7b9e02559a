package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mandari/oparlsync/internal/orchestrator"
	"github.com/mandari/oparlsync/internal/store"
)

func errSourceFailed(url string) error {
	return fmt.Errorf("sync failed for source %s", url)
}

// withDryRunStore returns a copy of orch backed by an in-memory Fake store,
// so a sync job fetches and processes real data but discards every write
// (§12.5).
func withDryRunStore(orch *orchestrator.Orchestrator) *orchestrator.Orchestrator {
	dry := *orch
	dry.Store = store.NewFake()
	return &dry
}

func printSourceResult(cmd *cobra.Command, res orchestrator.SourceResult) {
	status := "ok"
	if !res.Success {
		status = "FAILED"
	}
	cmd.Printf("source %s (%s): %s in %s\n", res.SourceName, res.SourceURL, status, res.Duration)
	for _, b := range res.Bodies {
		cmd.Printf("  body %s (%s) [%s]\n", b.Name, b.ExternalID, b.Mode)
		for kind, c := range b.Counts {
			cmd.Printf("    %-14s synced=%-4d tombstoned=%-4d skipped=%d\n", kind, c.Synced, c.Tombstoned, c.Skipped)
		}
		for _, e := range b.Errors {
			cmd.Printf("    error: %s\n", e)
		}
	}
	for _, e := range res.Errors {
		cmd.Printf("  error: %s\n", e)
	}
}
