package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mandari/oparlsync/internal/fetcher"
)

var addSourceName string

var addSourceCmd = &cobra.Command{
	Use:   "add-source <url>",
	Short: "Fetch a System document and register the Source row",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		ctn, _, err := buildContainer(ctx)
		if err != nil {
			return err
		}

		url := args[0]
		f := fetcher.New(fetcher.Config{MaxConcurrentPerHost: ctn.Config.Sync.MaxConcurrentHosts, RequestTimeout: ctn.Config.Sync.RequestTimeout}, ctn.Cache, ctn.Logger, fetcher.Auth{})
		raw, err := f.FetchObject(ctx, url)
		if err != nil {
			return configError(err)
		}

		name := addSourceName
		src, err := ctn.Store.UpsertSource(ctx, url, name, raw)
		if err != nil {
			return configError(err)
		}
		cmd.Printf("registered source %s (%s)\n", src.Name, src.URL)
		return nil
	},
}

func init() {
	addSourceCmd.Flags().StringVar(&addSourceName, "name", "", "display name for the source")
}
