package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newCrawlCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Run one crawl cycle in the foreground",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			stats, err := newCrawlStack(rt.cfg, rt.repo, rt.log).pipeline.Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Crawled %d articles from %d feeds: %d saved, %d failed (%s)\n",
				stats.Crawled, stats.Feeds, stats.Persisted, stats.Failed, stats.Duration.Round(time.Millisecond))
			return nil
		},
	}
}
