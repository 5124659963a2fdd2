package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/femavibes/feedmaster/internal/ingestion"
	"github.com/femavibes/feedmaster/internal/profileresolver"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run the firehose ingestion manager",
	Long: `Connects a WebSocket listener per active feed, parses incoming
posts, batches them into Postgres, and periodically refreshes stale
author profiles.`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	resolver := profileresolver.New(a.cfg, a.logger, a.redis, a.users)
	staleResolver := profileresolver.NewStaleResolver(resolver, a.users)
	manager := ingestion.NewManager(a.cfg, a.logger, a.feeds, a.posts, a.users, staleResolver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := manager.Start(ctx); err != nil {
		return fmt.Errorf("start ingestion manager: %w", err)
	}

	a.logger.Info("ingestion manager started")
	<-ctx.Done()
	a.logger.Info("shutting down ingestion manager")
	manager.Stop()

	return nil
}
