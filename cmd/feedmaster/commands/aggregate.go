package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/femavibes/feedmaster/internal/aggregation"
	"github.com/femavibes/feedmaster/internal/scheduler"
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Run the aggregation scheduler",
	Long: `On a fixed tick, recomputes every (feed, aggregate, timeframe)
cell that is due, and derives one prominence set across all feeds from
the cycle's results.`,
	RunE: runAggregate,
}

func init() {
	rootCmd.AddCommand(aggregateCmd)
}

func runAggregate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	aggScheduler := aggregation.NewScheduler(a.cfg, a.logger, a.db.Pool, a.feeds, a.users, a.aggregates)

	cron := scheduler.New(a.logger)
	if err := cron.AddJob(aggScheduler); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.logger.Info("aggregation scheduler started")
	cron.Start()
	<-ctx.Done()
	cron.Stop()
	return nil
}
