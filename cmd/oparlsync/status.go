package main

import (
	"context"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print current per-kind row counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		ctn, _, err := buildContainer(ctx)
		if err != nil {
			return err
		}

		counts, err := ctn.Store.KindCounts(ctx)
		if err != nil {
			return configError(err)
		}
		for kind, n := range counts {
			cmd.Printf("%-16s %d\n", kind, n)
		}
		return nil
	},
}
