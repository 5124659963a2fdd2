package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/femavibes/feedmaster/internal/polling"
)

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Run the engagement polling worker",
	Long: `Re-fetches like/repost/reply counts for live posts on a
schedule that tightens for new posts and loosens with age, retiring
posts from polling once they stop accumulating engagement.`,
	RunE: runPoll,
}

func init() {
	rootCmd.AddCommand(pollCmd)
}

func runPoll(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	worker := polling.NewWorker(a.cfg, a.logger, a.posts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.logger.Info("polling worker started")
	return worker.Run(ctx)
}
