package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"newsx/app"
	"newsx/cli/control"
	"newsx/internal/api"
	"newsx/internal/config"
)

func newServeCommand() *cobra.Command {
	var crawlOnStart bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the periodic crawler with the control and read API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd, crawlOnStart)
		},
	}
	cmd.Flags().BoolVar(&crawlOnStart, "crawl-now", false, "run a crawl cycle immediately on start")
	return cmd
}

func serve(cmd *cobra.Command, crawlOnStart bool) error {
	cfg := config.Load()

	listener, err := control.TryListen(cfg.ControlAddr)
	if err != nil {
		if errors.Is(err, control.ErrAlreadyRunning) {
			fmt.Fprintln(cmd.OutOrStdout(), "Background process is already running")
		}
		return err
	}
	defer listener.Close()

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rt, err := setup(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	stack := newCrawlStack(rt.cfg, rt.repo, rt.log)
	sched := app.NewScheduler(stack.pipeline, stack.orchestrator, stack.crawler, rt.cfg.CrawlInterval, rt.log)
	srv := control.NewServer(sched, api.NewHandler(rt.repo, rt.repo, rt.log), rt.log).HTTPServer()

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.log.Error("control server error", "error", err)
		}
	}()

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	if crawlOnStart {
		sched.Trigger()
	}

	rt.log.Info("crawler started",
		"addr", rt.cfg.ControlAddr,
		"interval", rt.cfg.CrawlInterval,
		"feed_concurrency", rt.cfg.FeedConcurrency,
		"item_concurrency", rt.cfg.ItemConcurrency,
	)

	<-ctx.Done()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		rt.log.Warn("control server shutdown", "error", err)
	}
	if err := sched.Stop(); err != nil {
		return fmt.Errorf("error during shutdown: %w", err)
	}
	rt.log.Info("graceful shutdown: scheduler stopped")
	return nil
}
