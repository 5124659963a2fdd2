package commands

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/femavibes/feedmaster/internal/aggregation"
	"github.com/femavibes/feedmaster/internal/health"
	"github.com/femavibes/feedmaster/internal/ingestion"
	"github.com/femavibes/feedmaster/internal/polling"
	"github.com/femavibes/feedmaster/internal/profileresolver"
	"github.com/femavibes/feedmaster/internal/scheduler"
	"github.com/femavibes/feedmaster/internal/stats"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run every worker in a single process",
}

var workerAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Run ingestion, polling, aggregation, and stats concurrently",
	Long: `Starts every worker and the internal health server in one
process, for local development or small deployments that don't need
per-worker scaling.`,
	RunE: runWorkerAll,
}

func init() {
	rootCmd.AddCommand(workerCmd)
	workerCmd.AddCommand(workerAllCmd)
}

func runWorkerAll(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resolver := profileresolver.New(a.cfg, a.logger, a.redis, a.users)
	staleResolver := profileresolver.NewStaleResolver(resolver, a.users)
	ingestManager := ingestion.NewManager(a.cfg, a.logger, a.feeds, a.posts, a.users, staleResolver)
	pollWorker := polling.NewWorker(a.cfg, a.logger, a.posts)
	aggScheduler := aggregation.NewScheduler(a.cfg, a.logger, a.db.Pool, a.feeds, a.users, a.aggregates)
	statsWorker := stats.NewWorker(a.cfg, a.logger, a.posts, a.userStats, a.achievements, a.feeds)
	healthServer := health.New(a.cfg.HealthPort, a.db, a.logger)

	if err := statsWorker.SeedCatalog(ctx); err != nil {
		return err
	}

	cron := scheduler.New(a.logger)
	if err := cron.AddJob(aggScheduler); err != nil {
		return err
	}
	if err := cron.AddJob(statsWorker); err != nil {
		return err
	}

	var wg sync.WaitGroup

	if err := ingestManager.Start(ctx); err != nil {
		return err
	}
	cron.Start()

	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := pollWorker.Run(ctx); err != nil {
			a.logger.WithError(err).Error("polling worker exited")
		}
	}()
	go func() {
		defer wg.Done()
		if err := healthServer.Start(ctx); err != nil {
			a.logger.WithError(err).Error("health server exited")
		}
	}()

	a.logger.Info("all workers started")
	<-ctx.Done()
	a.logger.Info("shutting down")
	ingestManager.Stop()
	cron.Stop()
	wg.Wait()

	return nil
}
