// Package cmd implements the newsx command-line interface.
package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "newsx",
		Short:         "Crawl RSS feeds and their articles into PostgreSQL",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newServeCommand(),
		newCrawlCommand(),
		newTriggerCommand(),
		newSetIntervalCommand(),
		newSetConcurrencyCommand(),
		newAddCommand(),
		newListCommand(),
		newDeleteCommand(),
		newArticlesCommand(),
		newSearchCommand(),
	)
	return root
}

func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}
