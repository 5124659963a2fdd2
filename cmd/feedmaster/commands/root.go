package commands

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "feedmaster",
	Short: "Feedmaster - Bluesky feed ingestion and stats pipeline",
	Long: `Feedmaster CLI

Ingests Bluesky/Contrails firehose events into per-feed post stores,
polls engagement counts, computes content and social aggregates, and
evaluates user achievements.

Usage:
  feedmaster ingest
  feedmaster poll
  feedmaster aggregate
  feedmaster stats
  feedmaster worker all`,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}
