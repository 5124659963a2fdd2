package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/femavibes/feedmaster/internal/scheduler"
	"github.com/femavibes/feedmaster/internal/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Run the stats and achievements worker",
	Long: `Incrementally folds newly ingested post counters into per-user
stats, evaluates the achievement catalog against touched authors, and
periodically recomputes achievement rarity tiers.`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	worker := stats.NewWorker(a.cfg, a.logger, a.posts, a.userStats, a.achievements, a.feeds)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := worker.SeedCatalog(ctx); err != nil {
		return err
	}

	cron := scheduler.New(a.logger)
	if err := cron.AddJob(worker); err != nil {
		return err
	}

	a.logger.Info("stats worker started")
	cron.Start()
	<-ctx.Done()
	cron.Stop()
	return nil
}
