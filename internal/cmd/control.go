package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"newsx/cli/control"
	"newsx/internal/config"
)

func newTriggerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "trigger",
		Short: "Ask the running instance to crawl now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := control.NewClient(config.Load().ControlAddr).Trigger(); err != nil {
				return fmt.Errorf("could not trigger crawl: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Crawl initiated")
			return nil
		},
	}
}

func newSetIntervalCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "set-interval DURATION",
		Short:   "Change the crawl interval of the running instance",
		Example: "  newsx set-interval 2m",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := time.ParseDuration(args[0])
			if err != nil || d <= 0 {
				return fmt.Errorf("invalid duration: %q", args[0])
			}
			old, err := control.NewClient(config.Load().ControlAddr).SetInterval(d)
			if err != nil {
				return fmt.Errorf("could not set interval: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Crawl interval changed from %s to %s\n", old, d)
			return nil
		},
	}
}

func newSetConcurrencyCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "set-concurrency FEEDS ITEMS",
		Short:   "Change feed and per-feed article concurrency of the running instance",
		Example: "  newsx set-concurrency 6 12",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			feeds, err := strconv.Atoi(args[0])
			if err != nil || feeds <= 0 {
				return fmt.Errorf("invalid feed concurrency: %q", args[0])
			}
			items, err := strconv.Atoi(args[1])
			if err != nil || items <= 0 {
				return fmt.Errorf("invalid item concurrency: %q", args[1])
			}
			oldFeeds, oldItems, err := control.NewClient(config.Load().ControlAddr).SetConcurrency(feeds, items)
			if err != nil {
				return fmt.Errorf("could not set concurrency: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Concurrency changed from %d feeds x %d items to %d feeds x %d items\n",
				oldFeeds, oldItems, feeds, items)
			return nil
		},
	}
}
